package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/netpad-project/netpad/internal/controller"
	"github.com/netpad-project/netpad/internal/model"
	"github.com/netpad-project/netpad/internal/network"
	"github.com/netpad-project/netpad/internal/protocol"
)

type connectOptions struct {
	host     string
	port     int
	id       string
	password string
	nickname string
	hue      int
	save     bool
}

func newConnectCmd() *cobra.Command {
	opts := &connectOptions{}

	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Join a game as an interactive controller",
		Long: `connect joins a running game server and turns stdin into a pad.

Commands once connected:
  msg <text>            send a text message
  press <key>           press a button
  release <key>         release a button
  axis <key> <value>    set an axis value
  dir <key> <x> <y>     set a direction vector
  info                  print the game's info table
  exit                  leave the game`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConnect(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.host, "host", "127.0.0.1", "Game server address")
	cmd.Flags().IntVar(&opts.port, "port", protocol.DefaultPort, "Game server port")
	cmd.Flags().StringVar(&opts.id, "id", "", "Player id (required)")
	cmd.Flags().StringVar(&opts.password, "password", "", "Player password; omit to use a saved profile")
	cmd.Flags().StringVar(&opts.nickname, "nickname", "", "Display nickname")
	cmd.Flags().IntVar(&opts.hue, "hue", 0, "Pad color hue in degrees")
	cmd.Flags().BoolVar(&opts.save, "save", false, "Save the player profile under ~/.netpad/players")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

func runConnect(cmd *cobra.Command, opts *connectOptions) error {
	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	player, err := resolvePlayer(opts)
	if err != nil {
		return err
	}
	if opts.nickname != "" {
		player.SetNickname(opts.nickname)
	}
	if cmd.Flags().Changed("hue") {
		player.SetHue(opts.hue)
	}
	if opts.save {
		if err := savePlayerProfile(player); err != nil {
			return fmt.Errorf("failed to save profile: %w", err)
		}
	}

	rt := controller.Data{Player: player}.Runtime(logger)

	clientCfg := network.DefaultClientConfig()
	clientCfg.Host = opts.host
	clientCfg.Port = opts.port
	padClient, err := network.NewClient(rt, clientCfg, logger)
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		done <- padClient.Run(context.Background())
	}()

	go printInbound(rt)
	go readCommands(rt, os.Stdin)

	err = <-done
	var joinErr *protocol.JoinError
	if errors.As(err, &joinErr) {
		return fmt.Errorf("join refused: %s", joinErr.Refusal)
	}
	if err != nil {
		return err
	}

	fmt.Println("session ended")
	return nil
}

// resolvePlayer builds the player from credentials, or loads a previously
// saved profile when no password is given.
func resolvePlayer(opts *connectOptions) (model.Player, error) {
	if opts.password != "" {
		return model.Register(opts.id, opts.password), nil
	}

	path := playerProfilePath(string(model.NormalizeID(opts.id)))
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.Player{}, fmt.Errorf("no saved profile for %q, pass --password", opts.id)
		}
		return model.Player{}, err
	}

	var player model.Player
	if err := json.Unmarshal(data, &player); err != nil {
		return model.Player{}, fmt.Errorf("corrupt profile %s: %w", path, err)
	}
	return player, nil
}

func savePlayerProfile(player model.Player) error {
	path := playerProfilePath(string(player.Account.ID))
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(player, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// printInbound renders game messages as they arrive.
func printInbound(rt *controller.Runtime) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		if rt.Closed() {
			return
		}
		for {
			msg, ok := rt.Pop()
			if !ok {
				break
			}
			switch msg.Kind {
			case protocol.GameMsg:
				fmt.Printf("[game] %s\n", msg.Text)
			case protocol.GameEventTrigger:
				fmt.Printf("[event] key %d\n", msg.Key)
			case protocol.GameLetExit:
				fmt.Printf("[exit] %s\n", msg.Reason)
			}
		}
	}
}

// readCommands turns stdin lines into pad intents until exit or EOF.
func readCommands(rt *controller.Runtime, in io.Reader) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := dispatchCommand(rt, line); err != nil {
			if errors.Is(err, errSessionDone) {
				return
			}
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
	}
	// EOF on stdin leaves the game cleanly
	rt.Exit()
	rt.Close()
}

var errSessionDone = errors.New("session done")

func dispatchCommand(rt *controller.Runtime, line string) error {
	fields := strings.Fields(line)
	command, args := fields[0], fields[1:]

	switch command {
	case "msg":
		if len(args) == 0 {
			return errors.New("usage: msg <text>")
		}
		rt.Message(strings.TrimSpace(strings.TrimPrefix(line, "msg")))
	case "press", "release":
		if len(args) != 1 {
			return fmt.Errorf("usage: %s <key>", command)
		}
		key, err := parseKey(args[0])
		if err != nil {
			return err
		}
		if command == "press" {
			rt.Press(key)
		} else {
			rt.Release(key)
		}
	case "axis":
		if len(args) != 2 {
			return errors.New("usage: axis <key> <value>")
		}
		key, err := parseKey(args[0])
		if err != nil {
			return err
		}
		value, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid axis value %q", args[1])
		}
		rt.Axis(key, value)
	case "dir":
		if len(args) != 3 {
			return errors.New("usage: dir <key> <x> <y>")
		}
		key, err := parseKey(args[0])
		if err != nil {
			return err
		}
		x, errX := strconv.ParseFloat(args[1], 64)
		y, errY := strconv.ParseFloat(args[2], 64)
		if errX != nil || errY != nil {
			return errors.New("invalid direction values")
		}
		rt.Direction(key, x, y)
	case "info":
		for key, value := range rt.GameInfo() {
			fmt.Printf("%s: %s\n", key, value)
		}
	case "exit", "quit":
		rt.Exit()
		rt.Close()
		return errSessionDone
	default:
		return fmt.Errorf("unknown command %q", command)
	}
	return nil
}

func parseKey(s string) (uint8, error) {
	key, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid key %q", s)
	}
	return uint8(key), nil
}
