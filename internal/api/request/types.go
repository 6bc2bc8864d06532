package request

// LoginRequest is the request body for admin login
type LoginRequest struct {
	Password string `json:"password"`
}

// MessageRequest is the request body for sending text to players.
// An empty player targets everyone online.
type MessageRequest struct {
	Player string `json:"player,omitempty"`
	Text   string `json:"text"`
}

// EventRequest is the request body for triggering a pad event.
// An empty player targets everyone online.
type EventRequest struct {
	Player string `json:"player,omitempty"`
	Key    uint8  `json:"key"`
}

// AccountRequest is the request body for creating an account
type AccountRequest struct {
	ID       string `json:"id"`
	Password string `json:"password"`
}
