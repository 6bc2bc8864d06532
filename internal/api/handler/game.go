package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/netpad-project/netpad/internal/api/apierr"
	"github.com/netpad-project/netpad/internal/api/request"
	"github.com/netpad-project/netpad/internal/api/response"
	"github.com/netpad-project/netpad/internal/game"
	"github.com/netpad-project/netpad/internal/model"
	"github.com/netpad-project/netpad/internal/protocol"
	"github.com/netpad-project/netpad/internal/storage"
)

// GameHandler exposes runtime control endpoints
type GameHandler struct {
	runtime *game.Runtime
	storage storage.Storage
}

// NewGameHandler creates a new game handler
func NewGameHandler(runtime *game.Runtime, store storage.Storage) *GameHandler {
	return &GameHandler{
		runtime: runtime,
		storage: store,
	}
}

// Status handles GET /api/v1/game
func (h *GameHandler) Status(w http.ResponseWriter, r *http.Request) {
	status := response.GameStatus{
		Info:   h.runtime.Info(),
		Locked: h.runtime.Locked(),
		Closed: h.runtime.Closed(),
		Online: accountList(h.runtime.OnlineAccounts()),
		Banned: accountList(h.runtime.BannedAccounts()),
	}
	response.JSON(w, http.StatusOK, status)
}

// Controls handles GET /api/v1/game/controls
func (h *GameHandler) Controls(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.ControlsFromModel(h.runtime.Keys()))
}

// Kick handles POST /api/v1/game/players/{id}/kick
func (h *GameHandler) Kick(w http.ResponseWriter, r *http.Request) {
	account, transport, err := h.onlineAccount(mux.Vars(r)["id"])
	if err != nil {
		WriteError(w, err)
		return
	}
	h.runtime.Kick(model.PlayerFromAccount(account), transport)
	response.NoContent(w)
}

// Ban handles POST /api/v1/game/players/{id}/ban.
// Works for offline players too; the account is then resolved from
// storage so the registry entry matches a later join.
func (h *GameHandler) Ban(w http.ResponseWriter, r *http.Request) {
	id := model.AccountID(mux.Vars(r)["id"])

	if account, transport, err := h.onlineAccount(string(id)); err == nil {
		h.runtime.Ban(model.PlayerFromAccount(account), transport)
		response.NoContent(w)
		return
	}

	account, err := h.storage.GetAccount(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}
	h.runtime.Ban(model.PlayerFromAccount(account), protocol.TransportTCP)
	response.NoContent(w)
}

// Pardon handles POST /api/v1/game/banned/{id}/pardon
func (h *GameHandler) Pardon(w http.ResponseWriter, r *http.Request) {
	id := model.AccountID(mux.Vars(r)["id"])
	for _, account := range h.runtime.BannedAccounts() {
		if account.ID == id {
			h.runtime.Pardon(model.PlayerFromAccount(account))
			response.NoContent(w)
			return
		}
	}
	WriteError(w, model.ErrAccountNotFound)
}

// Lock handles POST /api/v1/game/lock
func (h *GameHandler) Lock(w http.ResponseWriter, r *http.Request) {
	h.runtime.Lock()
	response.NoContent(w)
}

// Unlock handles POST /api/v1/game/unlock
func (h *GameHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	h.runtime.Unlock()
	response.NoContent(w)
}

// Close handles POST /api/v1/game/close
func (h *GameHandler) Close(w http.ResponseWriter, r *http.Request) {
	h.runtime.Close()
	response.NoContent(w)
}

// Message handles POST /api/v1/game/message
func (h *GameHandler) Message(w http.ResponseWriter, r *http.Request) {
	var req request.MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.Text == "" {
		WriteError(w, NewInvalidRequestError("text is required"))
		return
	}

	if req.Player == "" {
		h.runtime.BroadcastText(req.Text)
		response.NoContent(w)
		return
	}

	account, transport, err := h.onlineAccount(req.Player)
	if err != nil {
		WriteError(w, err)
		return
	}
	h.runtime.SendText(account, req.Text, transport)
	response.NoContent(w)
}

// Event handles POST /api/v1/game/event
func (h *GameHandler) Event(w http.ResponseWriter, r *http.Request) {
	var req request.EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	if req.Player == "" {
		h.runtime.BroadcastEvent(req.Key)
		response.NoContent(w)
		return
	}

	account, transport, err := h.onlineAccount(req.Player)
	if err != nil {
		WriteError(w, err)
		return
	}
	h.runtime.SendEvent(account, req.Key, transport)
	response.NoContent(w)
}

// SaveArchive handles POST /api/v1/game/archive/save
func (h *GameHandler) SaveArchive(w http.ResponseWriter, r *http.Request) {
	name := h.runtime.Info()[model.InfoKeyName]
	if err := h.storage.SaveArchive(r.Context(), name, h.runtime.ExportArchive()); err != nil {
		WriteError(w, err)
		return
	}
	response.NoContent(w)
}

// LoadArchive handles POST /api/v1/game/archive/load
func (h *GameHandler) LoadArchive(w http.ResponseWriter, r *http.Request) {
	name := h.runtime.Info()[model.InfoKeyName]
	archive, err := h.storage.GetArchive(r.Context(), name)
	if err != nil {
		WriteError(w, err)
		return
	}
	h.runtime.LoadArchive(archive)
	response.NoContent(w)
}

// onlineAccount resolves an online player by id along with the transport
// their session uses.
func (h *GameHandler) onlineAccount(id string) (model.Account, protocol.Transport, error) {
	for _, account := range h.runtime.OnlineAccounts() {
		if account.ID == model.AccountID(id) {
			transport, ok := h.runtime.TransportOf(account)
			if !ok {
				return model.Account{}, 0, errors.New("online player without transport")
			}
			return account, transport, nil
		}
	}
	return model.Account{}, 0, apierr.ErrPlayerOffline
}

func accountList(accounts []model.Account) []response.Account {
	out := make([]response.Account, len(accounts))
	for i, a := range accounts {
		out[i] = response.AccountFromModel(a)
	}
	return out
}
