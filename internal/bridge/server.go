// Package bridge exposes a session over local HTTP so external front ends
// (drag-and-drop pages, scripts) can read the loadout and issue commands.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/kingrea/sigilforge/internal/loadout"
	"github.com/kingrea/sigilforge/internal/search"
	"github.com/kingrea/sigilforge/internal/session"
)

// ProtocolVersion identifies the bridge contract version exposed via /health.
const ProtocolVersion = "1.0.0"

// ServerStatus reports runtime lifecycle states for the HTTP server.
type ServerStatus string

const (
	StatusStarting ServerStatus = "starting"
	StatusReady    ServerStatus = "ready"
	StatusDraining ServerStatus = "draining"
)

// ErrDisabled is returned by Start when the settings disable the bridge.
var ErrDisabled = errors.New("bridge: server disabled")

// Logger is satisfied by logging.Logger.
type Logger interface {
	Printf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}

// Server wraps the HTTP listener and handlers backing the bridge.
type Server struct {
	settings    Settings
	session     *session.Session
	index       *search.Index
	logger      Logger
	searchLimit int

	mu        sync.RWMutex
	server    *http.Server
	listener  net.Listener
	status    ServerStatus
	startTime time.Time
}

// Option customizes server construction.
type Option func(*Server)

// WithLogger overrides the default no-op logger.
func WithLogger(l Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSearchLimit sets the result count used when /sigils has no limit.
func WithSearchLimit(n int) Option {
	return func(s *Server) {
		if n >= 0 {
			s.searchLimit = n
		}
	}
}

// NewServer prepares a bridge over sess.
func NewServer(settings Settings, sess *session.Session, opts ...Option) (*Server, error) {
	if sess == nil {
		return nil, fmt.Errorf("bridge: session is required")
	}
	settings.normalize()
	s := &Server{
		settings: settings,
		session:  sess,
		index:    search.New(sess.Catalog()),
		logger:   nopLogger{},
		status:   StatusStarting,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Handler returns the bridge routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/snapshot", s.handleSnapshot)
	mux.HandleFunc("/commands", s.handleCommands)
	mux.HandleFunc("/sigils", s.handleSigils)
	return mux
}

// Start binds the TCP listener and begins serving HTTP traffic.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("bridge: server is nil")
	}
	if !s.settings.Enabled {
		return ErrDisabled
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return fmt.Errorf("bridge: server already started")
	}
	addr := s.settings.Address()
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("bridge: listen %s: %w", addr, err)
	}
	s.listener = listener
	s.startTime = time.Now()
	server := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.settings.ReadTimeout,
		WriteTimeout: s.settings.WriteTimeout,
		IdleTimeout:  s.settings.IdleTimeout,
	}
	if ctx != nil {
		server.BaseContext = func(net.Listener) context.Context { return ctx }
	}
	s.server = server
	s.status = StatusReady
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Printf("bridge: serve error: %v", err)
		}
	}()
	s.logger.Printf("bridge: listening on %s", listener.Addr().String())
	return nil
}

// Shutdown stops accepting new connections and waits for in-flight requests to exit.
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil || s.server == nil {
		return nil
	}
	s.status = StatusDraining
	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
	}
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("bridge: shutdown: %w", err)
	}
	s.listener = nil
	s.server = nil
	s.logger.Printf("bridge: stopped")
	return nil
}

// Addr returns the bound TCP address once the server has started.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// BaseURL returns the HTTP base URL (scheme + host:port) for the running server.
func (s *Server) BaseURL() string {
	addr := s.Addr()
	if addr == "" {
		return s.settings.URL()
	}
	return "http://" + addr
}

// Status reports the server's lifecycle state.
func (s *Server) Status() ServerStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Server) uptimeSeconds() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.startTime.IsZero() {
		return 0
	}
	return int64(time.Since(s.startTime).Seconds())
}

type healthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Slots         int    `json:"slots"`
	Equipped      int    `json:"equipped"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

type commandResponse struct {
	ID       string           `json:"id"`
	Slot     int              `json:"slot"`
	Snapshot loadout.Snapshot `json:"snapshot"`
}

type sigilsResponse struct {
	Query   string          `json:"query"`
	Results []search.Result `json:"results"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	snap := s.session.Snapshot()
	writeJSON(w, http.StatusOK, healthResponse{
		Status:        string(s.Status()),
		Version:       ProtocolVersion,
		UptimeSeconds: s.uptimeSeconds(),
		Slots:         len(snap.Slots),
		Equipped:      snap.Equipped,
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	writeNegotiated(w, r, http.StatusOK, s.session.Snapshot())
}

func (s *Server) handleCommands(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}
	if r.Body == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "empty body", Kind: "bad_request"})
		return
	}
	reader := http.MaxBytesReader(w, r.Body, s.settings.MaxBodyBytes)
	defer reader.Close()
	body, err := io.ReadAll(reader)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "payload exceeds limit", Kind: "too_large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unable to read body", Kind: "bad_request"})
		return
	}
	var cmd loadout.Command
	if err := json.Unmarshal(body, &cmd); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON", Kind: "bad_request"})
		return
	}
	change, err := s.session.Apply("bridge", cmd)
	if err != nil {
		writeJSON(w, statusFor(err), errorResponse{Error: err.Error(), Kind: loadout.Kind(err)})
		return
	}
	writeNegotiated(w, r, http.StatusOK, commandResponse{ID: change.ID, Slot: change.Slot, Snapshot: change.Snapshot})
}

func (s *Server) handleSigils(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	query := r.URL.Query()
	limit := s.searchLimit
	if raw := query.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a non-negative integer", Kind: "bad_request"})
			return
		}
		limit = parsed
	}
	q := query.Get("q")
	writeJSON(w, http.StatusOK, sigilsResponse{Query: q, Results: s.index.Query(q, limit)})
}

// statusFor maps engine failures onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, loadout.ErrSlotOccupied),
		errors.Is(err, loadout.ErrNoEmptySlot),
		errors.Is(err, loadout.ErrBounds):
		return http.StatusConflict
	case errors.Is(err, loadout.ErrEmptySlot),
		errors.Is(err, loadout.ErrSlotRange):
		return http.StatusUnprocessableEntity
	case errors.Is(err, loadout.ErrUnknownSigil),
		errors.Is(err, loadout.ErrUnknownTrait),
		errors.Is(err, loadout.ErrSubtraitNotAllowed),
		errors.Is(err, loadout.ErrUnknownCommand),
		errors.Is(err, loadout.ErrInvalidCommand):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func allowMethods(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	allow := methods[0]
	for _, m := range methods[1:] {
		allow += ", " + m
	}
	w.Header().Set("Allow", allow)
	writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed", Kind: "method_not_allowed"})
	return false
}
