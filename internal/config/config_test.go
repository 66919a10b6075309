package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("SWEEP_INTERVAL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != DefaultPort {
		t.Errorf("port = %q, want %q", cfg.Port, DefaultPort)
	}
	if cfg.SweepInterval != DefaultSweepInterval {
		t.Errorf("sweep interval = %v", cfg.SweepInterval)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("SWEEP_INTERVAL", "10s")
	t.Setenv("ROOM_WAITING_TTL", "1h")
	t.Setenv("ROOM_EMPTY_GRACE", "90s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9999" {
		t.Errorf("port = %q", cfg.Port)
	}
	if cfg.SweepInterval != 10*time.Second || cfg.WaitingTTL != time.Hour || cfg.EmptyGrace != 90*time.Second {
		t.Errorf("durations = %v %v %v", cfg.SweepInterval, cfg.WaitingTTL, cfg.EmptyGrace)
	}
}

func TestLoadRejectsBadDurations(t *testing.T) {
	t.Setenv("SWEEP_INTERVAL", "soon")
	if _, err := Load(); err == nil {
		t.Fatal("unparseable duration accepted")
	}

	t.Setenv("SWEEP_INTERVAL", "-5s")
	if _, err := Load(); err == nil {
		t.Fatal("negative duration accepted")
	}
}
