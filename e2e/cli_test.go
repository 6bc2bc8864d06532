package e2e_test

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netpad-project/netpad/internal/api"
	"github.com/netpad-project/netpad/internal/factory"
	"github.com/netpad-project/netpad/internal/game"
	"github.com/netpad-project/netpad/internal/model"
	"github.com/netpad-project/netpad/internal/protocol"
	"github.com/netpad-project/netpad/internal/testutil"
)

const testAdminPassword = "e2e-admin-password"

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath string
	serverURL  string
	tokenFile  string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()

	// Find project root (where go.mod is)
	projectRoot := findProjectRoot(t)

	// Build the CLI binary
	binaryPath := filepath.Join(projectRoot, "bin", "netpad-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/netpad")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	// Create temp token file
	tokenFile := filepath.Join(t.TempDir(), "token")

	return &cliRunner{
		binaryPath: binaryPath,
		serverURL:  serverURL,
		tokenFile:  tokenFile,
	}
}

func (r *cliRunner) run(args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--token-file", r.tokenFile,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	output, err := cmd.CombinedOutput()
	return string(output), err
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// testServer manages a real control API server for e2e tests
type testServer struct {
	addr     string
	app      *factory.App
	runtime  *game.Runtime
	shutdown func()
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()

	// Find a free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	app, err := factory.New(factory.Config{AdminPassword: testAdminPassword})
	require.NoError(t, err)

	data := model.NewGameData().
		Name("Demo").
		Version("1.0").
		Button(3, "jump")
	runtime := game.NewRuntime(data, testutil.NopLogger())

	router := api.NewRouter(api.RouterConfig{
		Logger:       testutil.NopLogger(),
		AdminService: app.AdminService,
		Runtime:      runtime,
		Storage:      app.Storage,
	})

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	serverURL := "http://" + addr
	waitForServer(t, serverURL+"/api/v1/health")

	return &testServer{
		addr:    serverURL,
		app:     app,
		runtime: runtime,
		shutdown: func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(ctx)
		},
	}
}

func waitForServer(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 100 * time.Millisecond}
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatal("server did not become ready in time")
}

// Response types for JSON parsing
type authResponse struct {
	SessionToken string `json:"session_token"`
}

type statusResponse struct {
	Info   map[string]string `json:"info"`
	Locked bool              `json:"locked"`
	Closed bool              `json:"closed"`
	Online []struct {
		ID string `json:"id"`
	} `json:"online"`
	Banned []struct {
		ID string `json:"id"`
	} `json:"banned"`
}

type accountListResponse struct {
	Accounts []struct {
		ID string `json:"id"`
	} `json:"accounts"`
}

func login(t *testing.T, cli *cliRunner) {
	t.Helper()

	output, err := cli.run("admin", "login", "--password", testAdminPassword)
	require.NoError(t, err, "login failed: %s", output)

	var resp authResponse
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	require.NotEmpty(t, resp.SessionToken)
}

func TestCLI_HealthCheck(t *testing.T) {
	server := startTestServer(t)
	defer server.shutdown()

	cli := newCLIRunner(t, server.addr)

	output, err := cli.run("health")
	require.NoError(t, err, "output: %s", output)
	assert.Contains(t, output, "ok")
}

func TestCLI_AdminCommands(t *testing.T) {
	server := startTestServer(t)
	defer server.shutdown()

	cli := newCLIRunner(t, server.addr)
	login(t, cli)

	// Status reflects the hosted game
	output, err := cli.run("admin", "status")
	require.NoError(t, err, "output: %s", output)

	var status statusResponse
	require.NoError(t, json.Unmarshal([]byte(output), &status))
	assert.Equal(t, "Demo", status.Info["Game_Name"])
	assert.False(t, status.Locked)

	// Lock, observe, unlock
	_, err = cli.run("admin", "lock")
	require.NoError(t, err)
	assert.True(t, server.runtime.Locked())

	_, err = cli.run("admin", "unlock")
	require.NoError(t, err)
	assert.False(t, server.runtime.Locked())

	// Controls list the registered keys
	output, err = cli.run("admin", "controls")
	require.NoError(t, err)
	assert.Contains(t, output, "jump")
}

func TestCLI_BanAndPardon(t *testing.T) {
	server := startTestServer(t)
	defer server.shutdown()

	cli := newCLIRunner(t, server.addr)
	login(t, cli)

	// Store the account so an offline ban can resolve it
	_, err := cli.run("accounts", "create", "mallory", "--password", "pw")
	require.NoError(t, err)

	_, err = cli.run("admin", "ban", "mallory")
	require.NoError(t, err)

	joinErr := server.runtime.TryJoin(model.Register("mallory", "pw"), protocol.TransportTCP)
	var refused *protocol.JoinError
	require.ErrorAs(t, joinErr, &refused)
	assert.Equal(t, protocol.RefusalPlayerBanned, refused.Refusal)

	_, err = cli.run("admin", "pardon", "mallory")
	require.NoError(t, err)
	require.NoError(t, server.runtime.TryJoin(model.Register("mallory", "pw"), protocol.TransportTCP))
}

func TestCLI_AccountCommands(t *testing.T) {
	server := startTestServer(t)
	defer server.shutdown()

	cli := newCLIRunner(t, server.addr)
	login(t, cli)

	_, err := cli.run("accounts", "create", "alice", "--password", "secret")
	require.NoError(t, err)

	output, err := cli.run("accounts", "list")
	require.NoError(t, err)

	var list accountListResponse
	require.NoError(t, json.Unmarshal([]byte(output), &list))
	require.Len(t, list.Accounts, 1)
	assert.Equal(t, "alice", list.Accounts[0].ID)

	_, err = cli.run("accounts", "delete", "alice")
	require.NoError(t, err)

	output, err = cli.run("accounts", "list")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(output), &list))
	assert.Empty(t, list.Accounts)
}

func TestCLI_ErrorHandling(t *testing.T) {
	server := startTestServer(t)
	defer server.shutdown()

	cli := newCLIRunner(t, server.addr)

	// Wrong admin password
	output, err := cli.run("admin", "login", "--password", "wrong")
	assert.Error(t, err)
	assert.Contains(t, output, "INVALID_CREDENTIALS")

	// Commands without a session are rejected
	output, err = cli.run("admin", "status")
	assert.Error(t, err)
	assert.Contains(t, output, "UNAUTHORIZED")
}
