package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/netpad-project/netpad/internal/api/request"
	"github.com/netpad-project/netpad/internal/api/response"
	"github.com/netpad-project/netpad/internal/model"
	"github.com/netpad-project/netpad/internal/storage"
)

// AccountsHandler handles stored pad account endpoints
type AccountsHandler struct {
	storage storage.Storage
}

// NewAccountsHandler creates a new accounts handler
func NewAccountsHandler(store storage.Storage) *AccountsHandler {
	return &AccountsHandler{
		storage: store,
	}
}

// List handles GET /api/v1/accounts
func (h *AccountsHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.storage.ListAccounts(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.AccountListFromModel(accounts))
}

// Create handles POST /api/v1/accounts
func (h *AccountsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.AccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.ID == "" {
		WriteError(w, NewInvalidRequestError("id is required"))
		return
	}
	if req.Password == "" {
		WriteError(w, NewInvalidRequestError("password is required"))
		return
	}

	account := model.NewAccount(req.ID, req.Password)
	if err := h.storage.SaveAccount(r.Context(), account); err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, response.AccountFromModel(account))
}

// Delete handles DELETE /api/v1/accounts/{id}
func (h *AccountsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := model.AccountID(mux.Vars(r)["id"])
	if _, err := h.storage.GetAccount(r.Context(), id); err != nil {
		WriteError(w, err)
		return
	}
	if err := h.storage.DeleteAccount(r.Context(), id); err != nil {
		WriteError(w, err)
		return
	}
	response.NoContent(w)
}
