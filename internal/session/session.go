// Package session serializes access to one loadout engine for every front
// end in the process and broadcasts each accepted change.
package session

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kingrea/sigilforge/internal/catalog"
	"github.com/kingrea/sigilforge/internal/loadout"
)

// Journal receives one line per command. *logbook.Logbook satisfies it.
type Journal interface {
	Info(format string, args ...any)
	Warn(format string, args ...any)
}

type nopJournal struct{}

func (nopJournal) Info(string, ...any) {}
func (nopJournal) Warn(string, ...any) {}

// Session owns an engine and is safe for concurrent use.
type Session struct {
	mu      sync.Mutex
	engine  *loadout.Engine
	feed    *Feed
	journal Journal
	logger  Logger
	clock   func() time.Time
	newID   func() string

	feedCapacity int
}

// Option customizes a session.
type Option func(*Session)

// WithJournal records every command in j.
func WithJournal(j Journal) Option {
	return func(s *Session) {
		if j != nil {
			s.journal = j
		}
	}
}

// WithLogger routes feed diagnostics to l.
func WithLogger(l Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock allows tests to control change timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *Session) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithFeedCapacity sets the per-subscriber buffer size.
func WithFeedCapacity(n int) Option {
	return func(s *Session) {
		s.feedCapacity = n
	}
}

// New wraps engine.
func New(engine *loadout.Engine, opts ...Option) (*Session, error) {
	if engine == nil {
		return nil, fmt.Errorf("session: engine is required")
	}
	s := &Session{
		engine:  engine,
		journal: nopJournal{},
		logger:  nopLogger{},
		clock:   func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.feed = NewFeed(s.feedCapacity, s.logger)
	return s, nil
}

// Apply runs cmd against the engine. source names the front end that issued
// it ("tui", "bridge", ...) and is carried on the published change.
func (s *Session) Apply(source string, cmd loadout.Command) (Change, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		source = "unknown"
	}
	cmd.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.engine.Apply(cmd)
	if err != nil {
		s.journal.Warn("[%s] %s rejected: %v", source, cmd, err)
		return Change{}, err
	}
	if cmd.Op == loadout.OpQuickEquip {
		cmd.Slot = res.Slot
	}
	change := Change{
		ID:       s.newID(),
		Source:   source,
		Command:  cmd,
		Slot:     res.Slot,
		Snapshot: res.Snapshot,
		At:       s.clock(),
	}
	s.journal.Info("[%s] %s", source, cmd)
	s.feed.Publish(change)
	return change, nil
}

// Snapshot returns the current engine state.
func (s *Session) Snapshot() loadout.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Snapshot()
}

// Catalog returns the engine's reference data. It is immutable and needs no
// locking.
func (s *Session) Catalog() *catalog.Catalog {
	return s.engine.Catalog()
}

// Subscribe registers for accepted changes.
func (s *Session) Subscribe() Subscription {
	return s.feed.Subscribe()
}

// Close ends every subscription.
func (s *Session) Close() {
	s.feed.Close()
}
