package config

import (
	"fmt"
	"strings"
)

// Validate ensures the configuration is internally consistent.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Paths.DatabasePath) == "" {
		return fmt.Errorf("paths.database_path is required")
	}
	if strings.TrimSpace(c.Remote.BaseURL) == "" {
		return fmt.Errorf("remote.base_url is required")
	}
	if c.SharedCache.Enabled && strings.TrimSpace(c.SharedCache.URL) == "" {
		return fmt.Errorf("shared_cache.url is required when shared_cache.enabled is true")
	}
	if c.Download.Parallel < 1 || c.Download.Parallel > 100 {
		return fmt.Errorf("download.parallel must be between 1 and 100, got %d", c.Download.Parallel)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be \"console\" or \"json\", got %q", c.Logging.Format)
	}
	return nil
}
