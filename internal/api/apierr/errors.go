package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/netpad-project/netpad/internal/admin"
	"github.com/netpad-project/netpad/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeAccountNotFound    = "ACCOUNT_NOT_FOUND"
	CodeArchiveNotFound    = "ARCHIVE_NOT_FOUND"
	CodePlayerOffline      = "PLAYER_OFFLINE"
	CodeGameClosed         = "GAME_CLOSED"
	CodeInternalError      = "INTERNAL_ERROR"
)

// Sentinels for handler-level conditions
var (
	ErrPlayerOffline = errors.New("player is not online")
	ErrGameClosed    = errors.New("game is closed")
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	case errors.Is(err, model.ErrAccountNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeAccountNotFound, "Account not found"}}
	case errors.Is(err, model.ErrArchiveNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeArchiveNotFound, "Archive not found"}}
	case errors.Is(err, ErrPlayerOffline):
		return &httpError{http.StatusConflict, APIError{CodePlayerOffline, "Player is not online"}}
	case errors.Is(err, ErrGameClosed):
		return &httpError{http.StatusConflict, APIError{CodeGameClosed, "Game is closed"}}

	case errors.Is(err, admin.ErrInvalidCredentials):
		return &httpError{http.StatusUnauthorized, APIError{CodeInvalidCredentials, "Invalid admin password"}}
	case errors.Is(err, admin.ErrInvalidSession):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Invalid or expired session"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
