package response

import (
	"fmt"
	"time"

	"github.com/netpad-project/netpad/internal/admin"
	"github.com/netpad-project/netpad/internal/model"
)

// AuthResponse is the response for the login endpoint
type AuthResponse struct {
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// AuthResponseFromSession creates an AuthResponse from a session
func AuthResponseFromSession(s *admin.Session) AuthResponse {
	return AuthResponse{
		SessionToken: s.Token,
		ExpiresAt:    s.ExpiresAt,
	}
}

// Account represents an account in API responses
type Account struct {
	ID string `json:"id"`
}

// AccountFromModel converts a model.Account to a response Account.
// The credential hash never leaves the server.
func AccountFromModel(a model.Account) Account {
	return Account{ID: string(a.ID)}
}

// AccountList wraps a list of accounts
type AccountList struct {
	Accounts []Account `json:"accounts"`
}

// AccountListFromModel converts a slice of model accounts
func AccountListFromModel(accounts []model.Account) AccountList {
	out := AccountList{Accounts: make([]Account, len(accounts))}
	for i, a := range accounts {
		out.Accounts[i] = AccountFromModel(a)
	}
	return out
}

// GameStatus summarizes the runtime's current state
type GameStatus struct {
	Info   map[string]string `json:"info"`
	Locked bool              `json:"locked"`
	Closed bool              `json:"closed"`
	Online []Account         `json:"online"`
	Banned []Account         `json:"banned"`
}

// Controls describes the registered control keys. Map keys are the
// numeric key codes rendered as strings for JSON.
type Controls struct {
	Buttons    map[string]string `json:"buttons"`
	Axes       map[string]string `json:"axes"`
	Directions map[string]string `json:"directions"`
}

// ControlsFromModel converts model.ControlKeys
func ControlsFromModel(keys model.ControlKeys) Controls {
	return Controls{
		Buttons:    renderKeys(keys.Buttons),
		Axes:       renderKeys(keys.Axes),
		Directions: renderKeys(keys.Directions),
	}
}

func renderKeys(m map[uint8]string) map[string]string {
	out := make(map[string]string, len(m))
	for key, name := range m {
		out[fmt.Sprintf("%d", key)] = name
	}
	return out
}
