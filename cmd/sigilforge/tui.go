package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/kingrea/sigilforge/internal/bridge"
	"github.com/kingrea/sigilforge/internal/tui"
)

var withBridge bool

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive loadout builder",
	Long: `Open the interactive loadout builder. With --bridge the HTTP bridge runs
in the same process so external front ends drive the same loadout.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd, withBridge)
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
	tuiCmd.Flags().BoolVar(&withBridge, "bridge", false, "Serve the HTTP bridge alongside the builder")
}

func runTUI(cmd *cobra.Command, forceBridge bool) error {
	ws, err := openWorkspace(false)
	if err != nil {
		return err
	}
	defer ws.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	opts := []tui.AppOption{
		tui.WithLogbook(ws.journal),
		tui.WithSearchLimit(ws.cfg.SearchLimit()),
	}
	settings, err := bridge.SettingsFromConfig(ws.cfg)
	if err != nil {
		return err
	}
	if forceBridge {
		settings.Enabled = true
	}
	if settings.Enabled {
		srv, err := bridge.NewServer(settings, ws.session,
			bridge.WithLogger(ws.logger),
			bridge.WithSearchLimit(ws.cfg.SearchLimit()))
		if err != nil {
			return err
		}
		if err := srv.Start(ctx); err != nil && !errors.Is(err, bridge.ErrDisabled) {
			return err
		}
		defer func() {
			shutdownCtx, stop := context.WithTimeout(context.Background(), 2*time.Second)
			defer stop()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				ws.logger.Printf("bridge: %v", err)
			}
		}()
		opts = append(opts, tui.WithBridgeURL(srv.BaseURL()))
	}

	app, err := tui.NewApp(ws.session, opts...)
	if err != nil {
		return err
	}
	defer app.Close()

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
