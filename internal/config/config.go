package config

import (
	"fmt"
	"os"
	"time"
)

// Default configuration values.
const (
	DefaultPort          = "3000"
	DefaultSweepInterval = 30 * time.Second
	DefaultWaitingTTL    = 30 * time.Minute
	DefaultEmptyGrace    = time.Minute
)

// Config holds the server configuration. The listening port is the only
// externally required setting; the sweep knobs exist for operational
// tuning and keep their defaults in normal deployments.
type Config struct {
	// Port is the HTTP listening port.
	Port string

	// SweepInterval is how often the lifecycle sweeper ticks.
	SweepInterval time.Duration

	// WaitingTTL is how long a room may sit in waiting before reclamation.
	WaitingTTL time.Duration

	// EmptyGrace is how long an empty room survives before reclamation.
	EmptyGrace time.Duration
}

// Load reads configuration from the environment, falling back to defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Port:          DefaultPort,
		SweepInterval: DefaultSweepInterval,
		WaitingTTL:    DefaultWaitingTTL,
		EmptyGrace:    DefaultEmptyGrace,
	}

	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}

	for _, v := range []struct {
		name string
		dst  *time.Duration
	}{
		{"SWEEP_INTERVAL", &cfg.SweepInterval},
		{"ROOM_WAITING_TTL", &cfg.WaitingTTL},
		{"ROOM_EMPTY_GRACE", &cfg.EmptyGrace},
	} {
		raw := os.Getenv(v.name)
		if raw == "" {
			continue
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", v.name, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("%s must be positive, got %s", v.name, d)
		}
		*v.dst = d
	}

	return cfg, nil
}
