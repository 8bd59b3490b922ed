package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("storage:\n  driver: sqlite\n  path: /tmp/quiz.db\nquiz:\n  timing: stopwatch\n  penalty: 0.5\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Driver != "sqlite" || cfg.Storage.Path != "/tmp/quiz.db" {
		t.Fatalf("unexpected storage section %+v", cfg.Storage)
	}
	if cfg.Quiz.Timing != "stopwatch" || cfg.Quiz.Penalty != 0.5 {
		t.Fatalf("unexpected quiz section %+v", cfg.Quiz)
	}
	if cfg.Quiz.SecondsPerQuestion != 60 || cfg.Server.Port != "8080" {
		t.Fatalf("expected defaults to survive, got %+v", cfg)
	}
}

func TestLoadOrDefaultMissingFile(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("expected defaults, got %v", err)
	}
	if cfg.Storage.Driver != "memory" || cfg.Catalog.PageSize != 7 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestTTLDuration(t *testing.T) {
	if got := TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback, got %v", got)
	}
	if got := TTLDuration("bogus", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for invalid input, got %v", got)
	}
	if got := TTLDuration("90s", time.Minute); got != 90*time.Second {
		t.Fatalf("expected 90s, got %v", got)
	}
}
