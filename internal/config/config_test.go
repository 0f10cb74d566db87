package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"lrcsync/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantDB := filepath.Join(tempHome, ".local", "share", "lrcsync", "library.db")
	if cfg.Paths.DatabasePath != wantDB {
		t.Fatalf("unexpected database path: got %q want %q", cfg.Paths.DatabasePath, wantDB)
	}
	if cfg.Remote.BaseURL != config.Default().Remote.BaseURL {
		t.Fatalf("unexpected remote base url: %q", cfg.Remote.BaseURL)
	}
	if cfg.Download.Parallel != 4 {
		t.Fatalf("unexpected default parallel: %d", cfg.Download.Parallel)
	}
	if len(cfg.Scanner.Extensions) == 0 {
		t.Fatal("expected default extensions")
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv(config.EnvRemoteBaseURL, "https://example.test/api")
	t.Setenv(config.EnvSkipSynced, "true")
	t.Setenv(config.EnvWatchDebounce, "5")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Remote.BaseURL != "https://example.test/api" {
		t.Fatalf("env override not applied: %q", cfg.Remote.BaseURL)
	}
	if !cfg.Download.SkipTracksWithSynced {
		t.Fatal("expected skip-synced env override to apply")
	}
	if cfg.Watch.DebounceSeconds != 5 {
		t.Fatalf("expected debounce override, got %d", cfg.Watch.DebounceSeconds)
	}
}

func TestLoadRejectsInvalidParallel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lrcsync.toml")
	contents := "[download]\nparallel = 0\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected validation error for parallel = 0")
	}
}
