package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Environment variable names, recognized per spec §6. They take precedence
// over values loaded from the TOML file.
const (
	EnvDatabasePath     = "LRCSYNC_DATABASE_PATH"
	EnvRemoteBaseURL    = "LRCSYNC_REMOTE_BASE_URL"
	EnvLocalCatalogPath = "LRCSYNC_LOCAL_CATALOG_PATH"
	EnvSharedCacheURL   = "LRCSYNC_SHARED_CACHE_URL"
	EnvSkipSynced       = "LRCSYNC_SKIP_TRACKS_WITH_SYNCED_LYRICS"
	EnvSkipPlain        = "LRCSYNC_SKIP_TRACKS_WITH_PLAIN_LYRICS"
	EnvTryEmbed         = "LRCSYNC_TRY_EMBED_LYRICS"
	EnvShowLineCount    = "LRCSYNC_SHOW_LINE_COUNT"
	EnvWatchDebounce    = "LRCSYNC_WATCH_DEBOUNCE_SECONDS"
	EnvWatchBatchSize   = "LRCSYNC_WATCH_BATCH_SIZE"
	EnvForceTUI         = "LRCSYNC_FORCE_TUI"
	EnvDockerMode       = "LRCSYNC_DOCKER_MODE"
)

// applyEnv overlays LRCSYNC_* environment variables onto the decoded config.
// Unset variables leave the existing (TOML or default) value untouched.
func (c *Config) applyEnv() error {
	if v, ok, err := envString(EnvDatabasePath); err != nil {
		return err
	} else if ok {
		c.Paths.DatabasePath = v
	}
	if v, ok, err := envString(EnvRemoteBaseURL); err != nil {
		return err
	} else if ok {
		c.Remote.BaseURL = v
	}
	if v, ok, err := envString(EnvLocalCatalogPath); err != nil {
		return err
	} else if ok {
		c.Paths.LocalCatalogPath = v
	}
	if v, ok, err := envString(EnvSharedCacheURL); err != nil {
		return err
	} else if ok {
		c.SharedCache.URL = v
		c.SharedCache.Enabled = true
	}
	if v, ok, err := envBool(EnvSkipSynced); err != nil {
		return err
	} else if ok {
		c.Download.SkipTracksWithSynced = v
	}
	if v, ok, err := envBool(EnvSkipPlain); err != nil {
		return err
	} else if ok {
		c.Download.SkipTracksWithPlain = v
	}
	if v, ok, err := envBool(EnvTryEmbed); err != nil {
		return err
	} else if ok {
		c.Download.TryEmbedLyrics = v
	}
	if v, ok, err := envBool(EnvShowLineCount); err != nil {
		return err
	} else if ok {
		c.Download.ShowLineCount = v
	}
	if v, ok, err := envInt(EnvWatchDebounce, 1, 86400); err != nil {
		return err
	} else if ok {
		c.Watch.DebounceSeconds = v
	}
	if v, ok, err := envInt(EnvWatchBatchSize, 1, 100000); err != nil {
		return err
	} else if ok {
		c.Watch.BatchSize = v
	}
	if v, ok, err := envBool(EnvForceTUI); err != nil {
		return err
	} else if ok {
		c.UI.ForceTUI = v
	}
	if v, ok, err := envBool(EnvDockerMode); err != nil {
		return err
	} else if ok {
		c.UI.DockerMode = v
	}
	return nil
}

func envString(name string) (string, bool, error) {
	value, present := os.LookupEnv(name)
	if !present {
		return "", false, nil
	}
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", false, nil
	}
	return trimmed, true, nil
}

func envBool(name string) (bool, bool, error) {
	value, ok, err := envString(name)
	if err != nil || !ok {
		return false, ok, err
	}
	switch strings.ToLower(value) {
	case "true", "1", "yes", "on":
		return true, true, nil
	case "false", "0", "no", "off":
		return false, true, nil
	default:
		return false, false, fmt.Errorf("%s: invalid boolean %q (use true/false, 1/0, yes/no, on/off)", name, value)
	}
}

func envInt(name string, min, max int) (int, bool, error) {
	value, ok, err := envString(name)
	if err != nil || !ok {
		return 0, ok, err
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, false, fmt.Errorf("%s: invalid integer %q", name, value)
	}
	if parsed < min || parsed > max {
		return 0, false, fmt.Errorf("%s: value %d out of range [%d, %d]", name, parsed, min, max)
	}
	return parsed, true, nil
}
