package bridge

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/kingrea/sigilforge/internal/config"
)

const (
	// DefaultHost is the loopback interface used when no host override is provided.
	DefaultHost = "127.0.0.1"
	// DefaultPort is the default TCP port for the bridge server.
	DefaultPort = 8765
	// DefaultMaxBodyBytes limits command payloads to 64 KB.
	DefaultMaxBodyBytes int64 = 64 << 10
	// DefaultReadTimeout guards hung clients.
	DefaultReadTimeout = 15 * time.Second
	// DefaultWriteTimeout bounds handler writes.
	DefaultWriteTimeout = 15 * time.Second
	// DefaultIdleTimeout bounds keep-alive connections.
	DefaultIdleTimeout = 60 * time.Second
)

// Settings captures runtime configuration for the HTTP bridge.
type Settings struct {
	Enabled      bool
	Host         string
	Port         int
	MaxBodyBytes int64
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type envSettings struct {
	Enabled *bool  `env:"SIGILFORGE_BRIDGE_ENABLED"`
	Host    string `env:"SIGILFORGE_BRIDGE_HOST"`
	Port    *int   `env:"SIGILFORGE_BRIDGE_PORT"`
}

// DefaultSettings returns a disabled bridge bound to the loopback default.
func DefaultSettings() Settings {
	s := Settings{Host: DefaultHost, Port: DefaultPort}
	s.normalize()
	return s
}

// SettingsFromConfig builds Settings from the project's .sigilforge config
// and SIGILFORGE_BRIDGE_* environment overrides.
func SettingsFromConfig(cfg *config.Config) (Settings, error) {
	settings := DefaultSettings()
	if cfg != nil {
		raw := cfg.Project.Bridge
		if raw.Enabled != nil {
			settings.Enabled = *raw.Enabled
		}
		if host := strings.TrimSpace(raw.Host); host != "" {
			settings.Host = host
		}
		if isValidPort(raw.Port) {
			settings.Port = raw.Port
		}
	}
	if err := settings.applyEnvOverrides(); err != nil {
		return Settings{}, err
	}
	settings.normalize()
	return settings, nil
}

func (s *Settings) applyEnvOverrides() error {
	var overrides envSettings
	if err := env.Parse(&overrides); err != nil {
		return fmt.Errorf("bridge: parse env: %w", err)
	}
	if overrides.Enabled != nil {
		s.Enabled = *overrides.Enabled
	}
	if host := strings.TrimSpace(overrides.Host); host != "" {
		s.Host = host
	}
	if overrides.Port != nil {
		if !isValidPort(*overrides.Port) && *overrides.Port != 0 {
			return fmt.Errorf("bridge: SIGILFORGE_BRIDGE_PORT %d out of range", *overrides.Port)
		}
		s.Port = *overrides.Port
	}
	return nil
}

func (s *Settings) normalize() {
	s.Host = strings.TrimSpace(s.Host)
	if s.Host == "" {
		s.Host = DefaultHost
	}
	if s.Port != 0 && !isValidPort(s.Port) {
		s.Port = DefaultPort
	}
	if s.MaxBodyBytes <= 0 {
		s.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if s.ReadTimeout <= 0 {
		s.ReadTimeout = DefaultReadTimeout
	}
	if s.WriteTimeout <= 0 {
		s.WriteTimeout = DefaultWriteTimeout
	}
	if s.IdleTimeout <= 0 {
		s.IdleTimeout = DefaultIdleTimeout
	}
}

// Address returns the TCP bind address in host:port form. Port 0 asks the
// kernel for a free port.
func (s Settings) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// URL returns the HTTP base URL for the server.
func (s Settings) URL() string {
	return "http://" + s.Address()
}

func isValidPort(port int) bool {
	return port > 0 && port <= 65535
}
