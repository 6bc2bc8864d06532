package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/netpad-project/netpad/internal/api"
	"github.com/netpad-project/netpad/internal/factory"
	"github.com/netpad-project/netpad/internal/game"
	"github.com/netpad-project/netpad/internal/model"
	"github.com/netpad-project/netpad/internal/network"
	"github.com/netpad-project/netpad/internal/protocol"
	"github.com/netpad-project/netpad/internal/storage"
	redisstorage "github.com/netpad-project/netpad/internal/storage/redis"
)

type serveOptions struct {
	name    string
	version string
	infos   []string

	host string
	port int

	buttons    []string
	axes       []string
	directions []string

	adminPort     int
	adminPassword string

	storageType string
	redisURL    string

	loadArchive bool
	lock        bool
}

func newServeCmd() *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Host a game session that pads can join",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}

	cmd.Flags().StringVar(&opts.name, "name", "", "Game name (required)")
	cmd.Flags().StringVar(&opts.version, "game-version", "0.1.0", "Game version string")
	cmd.Flags().StringArrayVar(&opts.infos, "info", nil, "Extra game info entry as key=value (repeatable)")
	cmd.Flags().StringVar(&opts.host, "host", "127.0.0.1", "Address to listen on for pads")
	cmd.Flags().IntVar(&opts.port, "port", protocol.DefaultPort, "Port to listen on for pads")
	cmd.Flags().StringArrayVar(&opts.buttons, "button", nil, "Button key as code=name (repeatable)")
	cmd.Flags().StringArrayVar(&opts.axes, "axis", nil, "Axis key as code=name (repeatable)")
	cmd.Flags().StringArrayVar(&opts.directions, "direction", nil, "Direction key as code=name (repeatable)")
	cmd.Flags().IntVar(&opts.adminPort, "admin-port", 8080, "Port for the control API")
	cmd.Flags().StringVar(&opts.adminPassword, "admin-password", os.Getenv("NETPAD_ADMIN_PASSWORD"), "Password for the control API; empty disables it (env: NETPAD_ADMIN_PASSWORD)")
	cmd.Flags().StringVar(&opts.storageType, "storage", factory.StorageTypeMemory, "Storage backend: memory or redis")
	cmd.Flags().StringVar(&opts.redisURL, "redis-url", os.Getenv("REDIS_URL"), "Redis connection URL (env: REDIS_URL)")
	cmd.Flags().BoolVar(&opts.loadArchive, "load-archive", false, "Load the stored ban archive for this game at startup")
	cmd.Flags().BoolVar(&opts.lock, "lock", false, "Start with the game locked to new joins")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func runServe(opts *serveOptions) error {
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	factoryCfg := factory.Config{
		AdminPassword: opts.adminPassword,
		Logger:        logger,
		StorageType:   opts.storageType,
	}
	if opts.storageType == factory.StorageTypeRedis {
		if opts.redisURL == "" {
			return errors.New("--redis-url required when --storage=redis")
		}
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = opts.redisURL
		factoryCfg.RedisConfig = &redisCfg
	}

	app, err := factory.New(factoryCfg)
	if err != nil {
		return err
	}

	data, err := buildGameData(opts)
	if err != nil {
		return err
	}
	runtime := game.NewRuntime(data, logger)
	if opts.lock {
		runtime.Lock()
	}

	ctx := context.Background()
	if opts.loadArchive {
		archive, err := app.Storage.GetArchive(ctx, opts.name)
		switch {
		case err == nil:
			runtime.LoadArchive(archive)
			logger.Info("loaded ban archive", slog.Int("banned", len(archive.Banned)))
		case errors.Is(err, model.ErrArchiveNotFound):
			logger.Info("no stored ban archive for this game")
		default:
			return err
		}
	}

	serverCfg := network.DefaultServerConfig()
	serverCfg.Host = opts.host
	serverCfg.Port = opts.port
	padServer, err := network.NewServer(runtime, serverCfg, logger)
	if err != nil {
		return err
	}

	serveCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	padDone := make(chan error, 1)
	go func() {
		padDone <- padServer.Run(serveCtx)
	}()

	var apiServer *api.Server
	if opts.adminPassword != "" {
		router := api.NewRouter(api.RouterConfig{
			Logger:       logger,
			AdminService: app.AdminService,
			Runtime:      runtime,
			Storage:      app.Storage,
		})
		apiCfg := api.DefaultServerConfig()
		apiCfg.Port = opts.adminPort
		apiServer = api.NewServer(router, apiCfg, logger)
		go func() {
			if err := apiServer.Start(); err != nil {
				logger.Error("control API failed", slog.String("error", err.Error()))
			}
		}()
	} else {
		logger.Warn("control API disabled, no admin password configured")
	}

	go consoleLoop(serveCtx, runtime, logger)
	go readHostCommands(runtime, app.Storage, os.Stdin)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("shutdown signal received")
		runtime.Close()
		cancel()
		<-padDone
	case err := <-padDone:
		if err != nil {
			return err
		}
	}

	// Persist the banned registry so a later --load-archive restores it
	if err := app.Storage.SaveArchive(ctx, opts.name, runtime.ExportArchive()); err != nil {
		logger.Warn("could not save ban archive", slog.String("error", err.Error()))
	}

	if apiServer != nil {
		if err := apiServer.Shutdown(ctx); err != nil {
			logger.Warn("control API shutdown failed", slog.String("error", err.Error()))
		}
	}

	logger.Info("game session ended")
	return nil
}

// consoleLoop drains control events onto the log so an operator can watch
// pad activity live.
func consoleLoop(ctx context.Context, runtime *game.Runtime, logger *slog.Logger) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for {
				event, ok := runtime.PopControlEvent()
				if !ok {
					break
				}
				logControlEvent(runtime, event, logger)
			}
		}
	}
}

func logControlEvent(runtime *game.Runtime, event game.ControlEvent, logger *slog.Logger) {
	attrs := []any{slog.String("player", string(event.Account.ID))}
	msg := event.Message
	switch msg.Kind {
	case protocol.ControlMsg:
		attrs = append(attrs, slog.String("text", msg.Text))
	case protocol.ControlPressed, protocol.ControlReleased:
		attrs = append(attrs, slog.Int("key", int(msg.Key)))
	}
	attrs = append(attrs, slog.String("kind", msg.String()))
	logger.Info("pad event", attrs...)
}

// readHostCommands turns stdin into a host console for the running game.
func readHostCommands(runtime *game.Runtime, store storage.Storage, in io.Reader) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := dispatchHostCommand(runtime, store, line); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		if runtime.Closed() {
			return
		}
	}
}

func dispatchHostCommand(runtime *game.Runtime, store storage.Storage, line string) error {
	fields := strings.Fields(line)
	command, args := fields[0], fields[1:]

	switch command {
	case "players":
		for _, account := range runtime.OnlineAccounts() {
			fmt.Println(account.ID)
		}
	case "banned":
		for _, account := range runtime.BannedAccounts() {
			fmt.Println(account.ID)
		}
	case "kick":
		if len(args) != 1 {
			return errors.New("usage: kick <id>")
		}
		account, transport, err := hostAccount(runtime, args[0])
		if err != nil {
			return err
		}
		runtime.Kick(model.PlayerFromAccount(account), transport)
	case "ban":
		if len(args) != 1 {
			return errors.New("usage: ban <id>")
		}
		account, transport, err := hostAccount(runtime, args[0])
		if err != nil {
			// An offline player can still be banned through the registry
			stored, storeErr := store.GetAccount(context.Background(), model.NormalizeID(args[0]))
			if storeErr != nil {
				return err
			}
			account, transport = stored, protocol.TransportTCP
		}
		runtime.Ban(model.PlayerFromAccount(account), transport)
	case "pardon":
		if len(args) != 1 {
			return errors.New("usage: pardon <id>")
		}
		id := model.NormalizeID(args[0])
		for _, account := range runtime.BannedAccounts() {
			if account.ID == id {
				runtime.Pardon(model.PlayerFromAccount(account))
				return nil
			}
		}
		return fmt.Errorf("%q is not banned", args[0])
	case "lock":
		runtime.Lock()
	case "unlock":
		runtime.Unlock()
	case "close":
		runtime.Close()
	case "send":
		if len(args) < 2 {
			return errors.New("usage: send <id> <text>")
		}
		account, transport, err := hostAccount(runtime, args[0])
		if err != nil {
			return err
		}
		runtime.SendText(account, strings.Join(args[1:], " "), transport)
	case "event":
		if len(args) != 2 {
			return errors.New("usage: event <id> <key>")
		}
		account, transport, err := hostAccount(runtime, args[0])
		if err != nil {
			return err
		}
		key, err := parseKey(args[1])
		if err != nil {
			return err
		}
		runtime.SendEvent(account, key, transport)
	case "broadcast":
		if len(args) == 0 {
			return errors.New("usage: broadcast <text>")
		}
		runtime.BroadcastText(strings.Join(args, " "))
	default:
		return fmt.Errorf("unknown command %q", command)
	}
	return nil
}

// hostAccount resolves an online player by id.
func hostAccount(runtime *game.Runtime, rawID string) (model.Account, protocol.Transport, error) {
	id := model.NormalizeID(rawID)
	for _, account := range runtime.OnlineAccounts() {
		if account.ID == id {
			transport, ok := runtime.TransportOf(account)
			if !ok {
				transport = protocol.TransportTCP
			}
			return account, transport, nil
		}
	}
	return model.Account{}, protocol.TransportTCP, fmt.Errorf("player %q is not online", rawID)
}

func buildGameData(opts *serveOptions) (*model.GameData, error) {
	data := model.NewGameData().Name(opts.name).Version(opts.version)

	for _, entry := range opts.infos {
		key, value, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --info entry %q, want key=value", entry)
		}
		data.SetInfo(key, value)
	}

	register := func(entries []string, add func(uint8, string) *model.GameData) error {
		for _, entry := range entries {
			code, name, err := parseKeyEntry(entry)
			if err != nil {
				return err
			}
			add(code, name)
		}
		return nil
	}
	if err := register(opts.buttons, data.Button); err != nil {
		return nil, err
	}
	if err := register(opts.axes, data.Axis); err != nil {
		return nil, err
	}
	if err := register(opts.directions, data.Direction); err != nil {
		return nil, err
	}

	return data, nil
}

// parseKeyEntry parses a "code=name" control key flag value.
func parseKeyEntry(entry string) (uint8, string, error) {
	codeStr, name, ok := strings.Cut(entry, "=")
	if !ok || name == "" {
		return 0, "", fmt.Errorf("invalid key entry %q, want code=name", entry)
	}
	code, err := strconv.ParseUint(codeStr, 10, 8)
	if err != nil {
		return 0, "", fmt.Errorf("invalid key code %q: %w", codeStr, err)
	}
	return uint8(code), name, nil
}
