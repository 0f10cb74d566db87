package config

import "strings"

func (c *Config) normalize() error {
	var err error
	if c.Paths.DatabasePath, err = expandPath(c.Paths.DatabasePath); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}
	if c.Paths.FileCacheDir, err = expandPath(c.Paths.FileCacheDir); err != nil {
		return err
	}
	if strings.TrimSpace(c.Paths.LocalCatalogPath) != "" {
		if c.Paths.LocalCatalogPath, err = expandPath(c.Paths.LocalCatalogPath); err != nil {
			return err
		}
	}

	if len(c.Scanner.Extensions) == 0 {
		c.Scanner.Extensions = append([]string(nil), defaultExtensions...)
	}
	normalized := make([]string, 0, len(c.Scanner.Extensions))
	for _, ext := range c.Scanner.Extensions {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext == "" {
			continue
		}
		normalized = append(normalized, ext)
	}
	c.Scanner.Extensions = normalized

	if c.Scanner.ProbeWorkers <= 0 {
		c.Scanner.ProbeWorkers = defaultProbeWorkers
	}
	if c.Download.Parallel > 100 {
		c.Download.Parallel = 100
	}
	if c.Watch.DebounceSeconds <= 0 {
		c.Watch.DebounceSeconds = defaultWatchDebounceSeconds
	}
	if c.Watch.BatchSize <= 0 {
		c.Watch.BatchSize = defaultWatchBatchSize
	}
	if c.Watch.QueueCapacity <= 0 {
		c.Watch.QueueCapacity = defaultWatchQueueCapacity
	}
	if c.Watch.ReconcileIntervalHrs <= 0 {
		c.Watch.ReconcileIntervalHrs = defaultWatchReconcileHours
	}
	if c.Remote.RequestsPerSecond <= 0 {
		c.Remote.RequestsPerSecond = defaultRemoteRPS
	}
	if c.Remote.TimeoutSeconds <= 0 {
		c.Remote.TimeoutSeconds = defaultRemoteTimeoutSeconds
	}
	if c.Remote.CallBudgetSeconds <= 0 {
		c.Remote.CallBudgetSeconds = defaultRemoteCallBudget
	}
	if c.FileCache.MaxBytes <= 0 {
		c.FileCache.MaxBytes = defaultFileCacheMaxBytes
	}
	if c.FileCache.RetentionDays <= 0 {
		c.FileCache.RetentionDays = defaultFileCacheRetention
	}
	if c.FileCache.NegativeTTLHours <= 0 {
		c.FileCache.NegativeTTLHours = defaultNegativeTTLHours
	}
	if c.FileCache.CompactionThreshold <= 0 {
		c.FileCache.CompactionThreshold = defaultCompactionThreshold
	}
	if strings.TrimSpace(c.Logging.Format) == "" {
		c.Logging.Format = defaultLogFormat
	}
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Remote.BaseURL = strings.TrimRight(strings.TrimSpace(c.Remote.BaseURL), "/")
	if c.Remote.BaseURL == "" {
		c.Remote.BaseURL = defaultRemoteBaseURL
	}
	return nil
}
