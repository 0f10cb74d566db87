package main

import (
	"reflect"
	"sort"
	"testing"

	"lrcsync/internal/config"
)

func TestConfigKeysIncludesKnownDottedPaths(t *testing.T) {
	keys := configKeys(reflect.TypeOf(config.Config{}), "")
	sort.Strings(keys)

	for _, want := range []string{"remote.base_url", "download.skip_tracks_with_synced_lyrics", "watch.batch_size"} {
		found := false
		for _, k := range keys {
			if k == want {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("configKeys() missing %q, got %v", want, keys)
		}
	}
}

func TestConfigGetAndSetRoundTrip(t *testing.T) {
	cfg := &config.Config{}
	if err := configSet(cfg, "remote.base_url", "https://example.test"); err != nil {
		t.Fatalf("configSet() error = %v", err)
	}
	got, err := configGet(cfg, "remote.base_url")
	if err != nil {
		t.Fatalf("configGet() error = %v", err)
	}
	if got != "https://example.test" {
		t.Fatalf("configGet() = %q, want %q", got, "https://example.test")
	}
}

func TestConfigSetRejectsUnknownKey(t *testing.T) {
	cfg := &config.Config{}
	if err := configSet(cfg, "remote.does_not_exist", "x"); err == nil {
		t.Fatal("configSet() error = nil, want error for unknown key")
	}
}

func TestConfigSetParsesBoolAndInt(t *testing.T) {
	cfg := &config.Config{}
	if err := configSet(cfg, "download.skip_tracks_with_synced_lyrics", "true"); err != nil {
		t.Fatalf("configSet(bool) error = %v", err)
	}
	if !cfg.Download.SkipTracksWithSynced {
		t.Fatal("SkipTracksWithSynced = false, want true")
	}
	if err := configSet(cfg, "watch.batch_size", "75"); err != nil {
		t.Fatalf("configSet(int) error = %v", err)
	}
	if cfg.Watch.BatchSize != 75 {
		t.Fatalf("BatchSize = %d, want 75", cfg.Watch.BatchSize)
	}
}
