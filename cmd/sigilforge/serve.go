package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kingrea/sigilforge/internal/bridge"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP bridge without the builder",
	Long: `Serve the loadout over HTTP until interrupted. Endpoints:

  GET  /health     status and protocol version
  GET  /snapshot   slots and active traits (JSON, or CBOR with Accept: application/cbor)
  POST /commands   apply a loadout command
  GET  /sigils     search the catalog (?q=&limit=)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openWorkspace(true)
		if err != nil {
			return err
		}
		defer ws.Close()

		settings, err := bridge.SettingsFromConfig(ws.cfg)
		if err != nil {
			return err
		}
		settings.Enabled = true
		if cmd.Flags().Changed("port") {
			settings.Port = servePort
		}
		srv, err := bridge.NewServer(settings, ws.session,
			bridge.WithLogger(ws.logger),
			bridge.WithSearchLimit(ws.cfg.SearchLimit()))
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := srv.Start(ctx); err != nil {
			return err
		}
		slog.Info("bridge listening", "url", srv.BaseURL(), "slots", ws.cfg.Slots())
		fmt.Fprintln(cmd.OutOrStdout(), srv.BaseURL())

		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		slog.Info("bridge stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVar(&servePort, "port", bridge.DefaultPort, "TCP port (0 picks a free port)")
}
