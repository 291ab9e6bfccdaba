package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kingrea/sigilforge/internal/catalog"
	"github.com/kingrea/sigilforge/internal/config"
)

var watchCatalog bool

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load and validate the sigil catalog",
	Long: `Load the builtin catalog and every project fragment under
.sigilforge/catalog, validate them together and print a summary. With
--watch the catalog is validated again whenever a fragment changes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := resolveProjectDir()
		if err != nil {
			return err
		}
		cfg, err := config.NewConfig(dir)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		err = validateOnce(out, cfg)
		if !watchCatalog {
			return err
		}
		if err := os.MkdirAll(cfg.CatalogRoot(), 0o755); err != nil {
			return fmt.Errorf("create catalog dir: %w", err)
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		fmt.Fprintf(out, "Watching %s (ctrl+c to stop)\n", cfg.CatalogRoot())
		return catalog.Watch(ctx, cfg.CatalogRoot(), func() {
			_ = validateOnce(out, cfg)
		}, catalog.WithErrorHandler(func(err error) {
			slog.Warn("catalog watch", "error", err)
		}))
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().BoolVarP(&watchCatalog, "watch", "w", false, "Re-validate when catalog files change")
}

func validateOnce(out io.Writer, cfg *config.Config) error {
	cat, frags, err := loadCatalog(cfg)
	if err != nil {
		fmt.Fprintf(out, "✗ %v\n", err)
		return err
	}
	traits, sigils := cat.Len()
	fmt.Fprintf(out, "✓ %d traits, %d sigils from %d files\n", traits, sigils, len(frags))
	for _, frag := range frags {
		slog.Debug("catalog fragment", "path", frag.Path, "traits", len(frag.Traits), "sigils", len(frag.Sigils))
	}
	return nil
}
