package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths holds directory and on-disk store locations.
type Paths struct {
	DatabasePath     string `toml:"database_path"`
	LogDir           string `toml:"log_dir"`
	LocalCatalogPath string `toml:"local_catalog_path"`
	FileCacheDir     string `toml:"file_cache_dir"`
}

// Remote configures the lyrics HTTP API client (spec §4.6).
type Remote struct {
	BaseURL           string `toml:"base_url"`
	RequestsPerSecond int    `toml:"requests_per_second"`
	TimeoutSeconds    int    `toml:"timeout_seconds"`
	CallBudgetSeconds int    `toml:"call_budget_seconds"`
}

// SharedCache configures the optional remote shared KV cache tier (spec §4.5).
type SharedCache struct {
	Enabled   bool   `toml:"enabled"`
	URL       string `toml:"url"`
	Namespace string `toml:"namespace"`
}

// FileCache configures the local on-disk cache tier (spec §4.5).
type FileCache struct {
	MaxBytes             int64 `toml:"max_bytes"`
	RetentionDays         int   `toml:"retention_days"`
	NegativeTTLHours      int   `toml:"negative_ttl_hours"`
	CompactionThreshold   int64 `toml:"compaction_threshold_bytes"`
}

// Scanner configures the library walk (spec §4.3).
type Scanner struct {
	Extensions  []string `toml:"extensions"`
	ProbeWorkers int     `toml:"probe_workers"`
}

// Download configures the orchestrator's defaults (spec §4.8).
type Download struct {
	Parallel                  int  `toml:"parallel"`
	SkipTracksWithSynced      bool `toml:"skip_tracks_with_synced_lyrics"`
	SkipTracksWithPlain       bool `toml:"skip_tracks_with_plain_lyrics"`
	TryEmbedLyrics            bool `toml:"try_embed_lyrics"`
	ShowLineCount             bool `toml:"show_line_count"`
}

// Watch configures the filesystem watcher (spec §4.9).
type Watch struct {
	DebounceSeconds      int `toml:"debounce_seconds"`
	BatchSize            int `toml:"batch_size"`
	QueueCapacity        int `toml:"queue_capacity"`
	ReconcileIntervalHrs int `toml:"reconcile_interval_hours"`
}

// Logging configures log output (ambient stack).
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	// RetentionDays prunes dated log archives (lrcsync-YYYYMMDD.log) older
	// than this many days. 0 disables archive pruning; the live lrcsync.log
	// is always kept regardless.
	RetentionDays int `toml:"retention_days"`
}

// UI configures the terminal rendering layer, which is a pure consumer of
// the core event stream (spec §6) and never influences resolution.
type UI struct {
	ForceTUI   bool `toml:"force_tui"`
	DockerMode bool `toml:"docker_mode"`
}

// Config encapsulates all configuration values for lrcsync.
//
// Configuration sections by subsystem:
//   - Paths: index database, local catalog, and file cache locations
//   - Remote: lyrics HTTP API client settings
//   - SharedCache: optional remote KV cache tier
//   - FileCache: local on-disk cache tier
//   - Scanner: library walk extension filter and probe pool size
//   - Download: orchestrator defaults and skip-flag behavior
//   - Watch: debounce window, batch size, and reconciliation interval
//   - Logging: log format and level
//   - UI: terminal rendering hints (never affects resolution correctness)
type Config struct {
	Paths       Paths       `toml:"paths"`
	Remote      Remote      `toml:"remote"`
	SharedCache SharedCache `toml:"shared_cache"`
	FileCache   FileCache   `toml:"file_cache"`
	Scanner     Scanner     `toml:"scanner"`
	Download    Download    `toml:"download"`
	Watch       Watch       `toml:"watch"`
	Logging     Logging     `toml:"logging"`
	UI          UI          `toml:"ui"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/lrcsync/config.toml")
}

// Load locates, parses, and validates a configuration file, then applies
// LRCSYNC_* environment variable overrides. The returned config has all path
// fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/lrcsync/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("lrcsync.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories lrcsync needs to operate.
func (c *Config) EnsureDirectories() error {
	if dir := filepath.Dir(c.Paths.DatabasePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if err := os.MkdirAll(c.Paths.LogDir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Paths.LogDir, err)
	}
	if strings.TrimSpace(c.Paths.FileCacheDir) != "" {
		if err := os.MkdirAll(c.Paths.FileCacheDir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", c.Paths.FileCacheDir, err)
		}
	}
	return nil
}

// FFprobeBinary returns the ffprobe executable name used for duration probing.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
