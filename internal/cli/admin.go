package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Control a running game server",
	}

	cmd.AddCommand(newAdminLoginCmd())
	cmd.AddCommand(newAdminLogoutCmd())
	cmd.AddCommand(newAdminStatusCmd())
	cmd.AddCommand(newAdminControlsCmd())
	cmd.AddCommand(newAdminKickCmd())
	cmd.AddCommand(newAdminBanCmd())
	cmd.AddCommand(newAdminPardonCmd())
	cmd.AddCommand(newAdminLockCmd())
	cmd.AddCommand(newAdminUnlockCmd())
	cmd.AddCommand(newAdminCloseCmd())
	cmd.AddCommand(newAdminMessageCmd())
	cmd.AddCommand(newAdminEventCmd())
	cmd.AddCommand(newAdminArchiveCmd())

	return cmd
}

func newAdminLoginCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the control API",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"password": password}
			var result AuthResult

			if err := client.Post("/api/v1/admin/login", req, &result); err != nil {
				return err
			}

			if err := cfg.SaveToken(result.SessionToken); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "Admin password (required)")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newAdminLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Invalidate the current admin session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Post("/api/v1/admin/logout", nil, nil); err != nil {
				return err
			}
			if err := cfg.ClearToken(); err != nil {
				return fmt.Errorf("failed to clear token: %w", err)
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Logged out")
			return nil
		},
	}
}

func newAdminStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the game's status",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result GameStatus

			if err := client.Get("/api/v1/game", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newAdminControlsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "controls",
		Short: "Show the game's registered control keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Controls

			if err := client.Get("/api/v1/game/controls", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newAdminKickCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kick <player>",
		Short: "Ask an online player to leave",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Post(fmt.Sprintf("/api/v1/game/players/%s/kick", args[0]), nil, nil); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage(fmt.Sprintf("Kicked %s", args[0]))
			return nil
		},
	}
}

func newAdminBanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ban <player>",
		Short: "Ban a player, online or not",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Post(fmt.Sprintf("/api/v1/game/players/%s/ban", args[0]), nil, nil); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage(fmt.Sprintf("Banned %s", args[0]))
			return nil
		},
		Args: cobra.ExactArgs(1),
	}
}

func newAdminPardonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pardon <player>",
		Short: "Remove a player from the banned list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Post(fmt.Sprintf("/api/v1/game/banned/%s/pardon", args[0]), nil, nil); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage(fmt.Sprintf("Pardoned %s", args[0]))
			return nil
		},
	}
}

func newAdminLockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lock",
		Short: "Refuse new joins",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Post("/api/v1/game/lock", nil, nil); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Game locked")
			return nil
		},
	}
}

func newAdminUnlockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unlock",
		Short: "Allow joins again",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Post("/api/v1/game/unlock", nil, nil); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Game unlocked")
			return nil
		},
	}
}

func newAdminCloseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "close",
		Short: "End the game session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Post("/api/v1/game/close", nil, nil); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Game closed")
			return nil
		},
	}
}

func newAdminMessageCmd() *cobra.Command {
	var player string

	cmd := &cobra.Command{
		Use:   "message <text>",
		Short: "Send text to one player or everyone",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"text": args[0]}
			if player != "" {
				req["player"] = player
			}
			if err := client.Post("/api/v1/game/message", req, nil); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Message sent")
			return nil
		},
	}

	cmd.Flags().StringVar(&player, "player", "", "Target player (default: broadcast)")

	return cmd
}

func newAdminEventCmd() *cobra.Command {
	var player string

	cmd := &cobra.Command{
		Use:   "event <key>",
		Short: "Trigger a pad event on one player or everyone",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseKey(args[0])
			if err != nil {
				return err
			}

			req := map[string]any{"key": key}
			if player != "" {
				req["player"] = player
			}
			if err := client.Post("/api/v1/game/event", req, nil); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Event sent")
			return nil
		},
	}

	cmd.Flags().StringVar(&player, "player", "", "Target player (default: broadcast)")

	return cmd
}

func newAdminArchiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Manage the stored ban archive",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "save",
		Short: "Persist the current banned list",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Post("/api/v1/game/archive/save", nil, nil); err != nil {
				return err
			}
			NewOutput(cfg.Output).PrintMessage("Archive saved")
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "load",
		Short: "Restore the stored banned list",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Post("/api/v1/game/archive/load", nil, nil); err != nil {
				return err
			}
			NewOutput(cfg.Output).PrintMessage("Archive loaded")
			return nil
		},
	})

	return cmd
}
