package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/kingrea/sigilforge/internal/catalog"
	"github.com/kingrea/sigilforge/internal/config"
	"github.com/kingrea/sigilforge/internal/loadout"
	"github.com/kingrea/sigilforge/internal/logbook"
	"github.com/kingrea/sigilforge/internal/logging"
	"github.com/kingrea/sigilforge/internal/session"
)

// workspace bundles everything a long-running command needs.
type workspace struct {
	cfg     *config.Config
	logger  *logging.Logger
	journal *logbook.Logbook
	catalog *catalog.Catalog
	session *session.Session
}

// openWorkspace loads config and catalog and wires a session. mirror copies
// the operational log to stderr, which only headless commands can afford.
func openWorkspace(mirror bool) (*workspace, error) {
	dir, err := resolveProjectDir()
	if err != nil {
		return nil, err
	}
	if err := config.InitDir(dir); err != nil {
		return nil, err
	}
	cfg, err := config.NewConfig(dir)
	if err != nil {
		return nil, err
	}
	var logOpts []logging.Option
	if mirror && verbose {
		logOpts = append(logOpts, logging.WithMirror(os.Stderr))
	}
	logger, err := logging.New(cfg.LogsDir(), logOpts...)
	if err != nil {
		return nil, err
	}
	journal, err := logbook.New(cfg.JournalPath())
	if err != nil {
		logger.Close()
		return nil, err
	}
	cat, frags, err := loadCatalog(cfg)
	if err != nil {
		logger.Close()
		return nil, err
	}
	traits, sigils := cat.Len()
	logger.Printf("catalog: %d traits, %d sigils from %d files", traits, sigils, len(frags))
	engine, err := loadout.New(cat, loadout.WithSlots(cfg.Slots()))
	if err != nil {
		logger.Close()
		return nil, err
	}
	sess, err := session.New(engine, session.WithJournal(journal), session.WithLogger(logger))
	if err != nil {
		logger.Close()
		return nil, err
	}
	return &workspace{cfg: cfg, logger: logger, journal: journal, catalog: cat, session: sess}, nil
}

func (w *workspace) Close() {
	w.session.Close()
	if err := w.logger.Close(); err != nil {
		slog.Debug("close log", "error", err)
	}
}

// loadCatalog merges the builtin fragments (unless disabled) with the
// project's .sigilforge/catalog fragments.
func loadCatalog(cfg *config.Config) (*catalog.Catalog, []catalog.Fragment, error) {
	var frags []catalog.Fragment
	if cfg.UseBuiltinCatalog() {
		builtin, err := catalog.BuiltinFragments()
		if err != nil {
			return nil, nil, err
		}
		frags = append(frags, builtin...)
	}
	project, err := catalog.ReadDir(cfg.CatalogRoot(), cfg.CatalogPatterns()...)
	if err != nil {
		return nil, nil, err
	}
	frags = append(frags, project...)
	cat, err := catalog.Build(frags...)
	if err != nil {
		return nil, frags, err
	}
	if _, sigils := cat.Len(); sigils == 0 {
		return nil, frags, fmt.Errorf("catalog: no sigils defined (builtin=%t, root %s)", cfg.UseBuiltinCatalog(), cfg.CatalogRoot())
	}
	return cat, frags, nil
}
