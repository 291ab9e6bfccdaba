package session

import (
	"sync"
	"time"

	"github.com/kingrea/sigilforge/internal/loadout"
)

const defaultSubscriberCapacity = 32

// Change describes one accepted command and the state it produced.
type Change struct {
	ID       string           `json:"id"`
	Source   string           `json:"source"`
	Command  loadout.Command  `json:"command"`
	Slot     int              `json:"slot"`
	Snapshot loadout.Snapshot `json:"snapshot"`
	At       time.Time        `json:"at"`
}

// Logger is satisfied by logging.Logger.
type Logger interface {
	Printf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}

// Feed fans changes out to subscribers over buffered channels. A slow
// subscriber loses its oldest pending change rather than blocking the
// publisher.
type Feed struct {
	mu          sync.RWMutex
	subscribers map[*subscriber]struct{}
	capacity    int
	logger      Logger
}

// Subscription represents an active feed subscription.
type Subscription struct {
	Changes <-chan Change
	cancel  func()
}

// Close terminates the subscription and closes Changes.
func (s Subscription) Close() {
	if s.cancel != nil {
		s.cancel()
	}
}

// NewFeed constructs a feed. capacity <= 0 selects the default buffer size.
func NewFeed(capacity int, logger Logger) *Feed {
	if capacity <= 0 {
		capacity = defaultSubscriberCapacity
	}
	if logger == nil {
		logger = nopLogger{}
	}
	return &Feed{
		subscribers: map[*subscriber]struct{}{},
		capacity:    capacity,
		logger:      logger,
	}
}

// Subscribe registers a new listener.
func (f *Feed) Subscribe() Subscription {
	sub := &subscriber{ch: make(chan Change, f.capacity), logger: f.logger}
	f.mu.Lock()
	f.subscribers[sub] = struct{}{}
	f.mu.Unlock()
	return Subscription{
		Changes: sub.ch,
		cancel:  func() { f.remove(sub) },
	}
}

// Publish delivers change to every live subscriber without blocking.
func (f *Feed) Publish(change Change) {
	f.mu.RLock()
	subs := make([]*subscriber, 0, len(f.subscribers))
	for sub := range f.subscribers {
		subs = append(subs, sub)
	}
	f.mu.RUnlock()
	for _, sub := range subs {
		sub.deliver(change)
	}
}

// Len reports the number of live subscribers.
func (f *Feed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subscribers)
}

// Close drops every subscriber.
func (f *Feed) Close() {
	f.mu.Lock()
	subs := f.subscribers
	f.subscribers = map[*subscriber]struct{}{}
	f.mu.Unlock()
	for sub := range subs {
		sub.close()
	}
}

func (f *Feed) remove(sub *subscriber) {
	f.mu.Lock()
	delete(f.subscribers, sub)
	f.mu.Unlock()
	sub.close()
}

type subscriber struct {
	mu     sync.Mutex
	ch     chan Change
	closed bool
	logger Logger
}

func (s *subscriber) deliver(change Change) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- change:
		return
	default:
	}
	// Snapshots are cumulative, so the newest change supersedes the oldest.
	select {
	case dropped := <-s.ch:
		s.logger.Printf("session: feed dropped change %s (queue overflow)", dropped.ID)
	default:
	}
	select {
	case s.ch <- change:
	default:
		s.logger.Printf("session: feed dropped change %s (queue overflow:incoming)", change.ID)
	}
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}
