package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netpad-project/netpad/internal/api"
	"github.com/netpad-project/netpad/internal/api/response"
	"github.com/netpad-project/netpad/internal/factory"
	"github.com/netpad-project/netpad/internal/game"
	"github.com/netpad-project/netpad/internal/model"
	"github.com/netpad-project/netpad/internal/protocol"
	"github.com/netpad-project/netpad/internal/testutil"
)

// testServer creates a test server with all dependencies
type testServer struct {
	handler http.Handler
	app     *factory.TestApp
	runtime *game.Runtime
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	app := factory.NewTestApp()
	data := model.NewGameData().
		Name("Demo").
		Version("1.0").
		Button(3, "jump")
	runtime := game.NewRuntime(data, testutil.NopLogger())

	router := api.NewRouter(api.RouterConfig{
		Logger:       logger,
		AdminService: app.AdminService,
		Runtime:      runtime,
		Storage:      app.Storage,
	})

	return &testServer{
		handler: router,
		app:     app,
		runtime: runtime,
	}
}

func (ts *testServer) request(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

// login performs admin login and returns the session token
func (ts *testServer) login(t *testing.T) string {
	t.Helper()

	body := map[string]string{"password": factory.TestAdminPassword}
	rr := ts.request(http.MethodPost, "/api/v1/admin/login", body, "")
	require.Equal(t, http.StatusCreated, rr.Code)

	var resp response.AuthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.SessionToken)
	return resp.SessionToken
}

// join puts a player online directly through the runtime
func (ts *testServer) join(t *testing.T, id string) model.Player {
	t.Helper()
	player := model.Register(id, "pw")
	require.NoError(t, ts.runtime.TryJoin(player, protocol.TransportTCP))
	return player
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "ok")
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	ts := newTestServer(t)

	body := map[string]string{"password": "nope"}
	rr := ts.request(http.MethodPost, "/api/v1/admin/login", body, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestGameRoutesRequireAuth(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/game", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/game", nil, "bogus-token")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestLogoutInvalidatesToken(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t)

	rr := ts.request(http.MethodPost, "/api/v1/admin/logout", nil, token)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/game", nil, token)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestGameStatus(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t)
	ts.join(t, "alice")

	rr := ts.request(http.MethodGet, "/api/v1/game", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)

	var status response.GameStatus
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))
	assert.Equal(t, "Demo", status.Info[model.InfoKeyName])
	assert.False(t, status.Locked)
	assert.False(t, status.Closed)
	require.Len(t, status.Online, 1)
	assert.Equal(t, "alice", status.Online[0].ID)
}

func TestControls(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t)

	rr := ts.request(http.MethodGet, "/api/v1/game/controls", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)

	var controls response.Controls
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &controls))
	assert.Equal(t, "jump", controls.Buttons["3"])
}

func TestKickOnlinePlayer(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t)
	player := ts.join(t, "alice")

	rr := ts.request(http.MethodPost, "/api/v1/game/players/alice/kick", nil, token)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	msg, ok := ts.runtime.PopOutbound(player.Account, protocol.TransportTCP)
	require.True(t, ok)
	assert.Equal(t, protocol.GameLetExit, msg.Kind)
	assert.Equal(t, protocol.ReasonYouAreKicked, msg.Reason)
}

func TestKickOfflinePlayerFails(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t)

	rr := ts.request(http.MethodPost, "/api/v1/game/players/ghost/kick", nil, token)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestBanOnlinePlayer(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t)
	player := ts.join(t, "alice")

	rr := ts.request(http.MethodPost, "/api/v1/game/players/alice/ban", nil, token)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	assert.True(t, ts.runtime.IsBanned(player.Account))
}

func TestBanOfflinePlayerFromStorage(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t)

	account := model.NewAccount("mallory", "pw")
	require.NoError(t, ts.app.Storage.SaveAccount(context.Background(), account))

	rr := ts.request(http.MethodPost, "/api/v1/game/players/mallory/ban", nil, token)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.True(t, ts.runtime.IsBanned(account))

	// The stored ban must match a later join attempt
	err := ts.runtime.TryJoin(model.Register("mallory", "pw"), protocol.TransportTCP)
	var joinErr *protocol.JoinError
	require.ErrorAs(t, err, &joinErr)
	assert.Equal(t, protocol.RefusalPlayerBanned, joinErr.Refusal)
}

func TestBanUnknownOfflinePlayerFails(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t)

	rr := ts.request(http.MethodPost, "/api/v1/game/players/ghost/ban", nil, token)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestPardon(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t)

	banned := model.Register("mallory", "pw")
	ts.runtime.Ban(banned, protocol.TransportTCP)

	rr := ts.request(http.MethodPost, "/api/v1/game/banned/mallory/pardon", nil, token)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.False(t, ts.runtime.IsBanned(banned.Account))

	rr = ts.request(http.MethodPost, "/api/v1/game/banned/mallory/pardon", nil, token)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestLockUnlock(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t)

	rr := ts.request(http.MethodPost, "/api/v1/game/lock", nil, token)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.True(t, ts.runtime.Locked())

	rr = ts.request(http.MethodPost, "/api/v1/game/unlock", nil, token)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.False(t, ts.runtime.Locked())
}

func TestClose(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t)

	rr := ts.request(http.MethodPost, "/api/v1/game/close", nil, token)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.True(t, ts.runtime.Closed())
}

func TestBroadcastMessage(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t)
	player := ts.join(t, "alice")

	body := map[string]string{"text": "hello pads"}
	rr := ts.request(http.MethodPost, "/api/v1/game/message", body, token)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	msg, ok := ts.runtime.PopOutbound(player.Account, protocol.TransportTCP)
	require.True(t, ok)
	assert.Equal(t, protocol.GameMsg, msg.Kind)
	assert.Equal(t, "hello pads", msg.Text)
}

func TestTargetedEvent(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t)
	player := ts.join(t, "alice")

	body := map[string]any{"player": "alice", "key": 9}
	rr := ts.request(http.MethodPost, "/api/v1/game/event", body, token)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	msg, ok := ts.runtime.PopOutbound(player.Account, protocol.TransportTCP)
	require.True(t, ok)
	assert.Equal(t, protocol.GameEventTrigger, msg.Kind)
	assert.Equal(t, uint8(9), msg.Key)
}

func TestArchiveSaveAndLoad(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t)

	banned := model.Register("mallory", "pw")
	ts.runtime.Ban(banned, protocol.TransportTCP)

	rr := ts.request(http.MethodPost, "/api/v1/game/archive/save", nil, token)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	ts.runtime.Pardon(banned)
	assert.False(t, ts.runtime.IsBanned(banned.Account))

	rr = ts.request(http.MethodPost, "/api/v1/game/archive/load", nil, token)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.True(t, ts.runtime.IsBanned(banned.Account))
}

func TestAccountEndpoints(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t)

	body := map[string]string{"id": "alice", "password": "secret"}
	rr := ts.request(http.MethodPost, "/api/v1/accounts", body, token)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/accounts", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)

	var list response.AccountList
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list.Accounts, 1)
	assert.Equal(t, "alice", list.Accounts[0].ID)
	assert.NotContains(t, rr.Body.String(), "hash")

	rr = ts.request(http.MethodDelete, "/api/v1/accounts/alice", nil, token)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = ts.request(http.MethodDelete, "/api/v1/accounts/alice", nil, token)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
