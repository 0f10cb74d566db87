package config

const (
	defaultDatabasePath         = "~/.local/share/lrcsync/library.db"
	defaultLogDir               = "~/.local/share/lrcsync/logs"
	defaultFileCacheDir         = "~/.local/share/lrcsync/cache"
	defaultRemoteBaseURL        = "https://lrclib.net/api"
	defaultRemoteRPS            = 4
	defaultRemoteTimeoutSeconds = 15
	defaultRemoteCallBudget     = 60
	defaultFileCacheMaxBytes    = 256 * 1024 * 1024
	defaultFileCacheRetention   = 7
	defaultNegativeTTLHours     = 24
	defaultCompactionThreshold  = 16 * 1024 * 1024
	defaultProbeWorkers         = 8
	defaultDownloadParallel     = 4
	defaultWatchDebounceSeconds = 10
	defaultWatchBatchSize       = 50
	defaultWatchQueueCapacity   = 10000
	defaultWatchReconcileHours  = 6
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultLogRetentionDays     = 14
)

var defaultExtensions = []string{"mp3", "m4a", "flac", "ogg", "opus", "wav"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DatabasePath: defaultDatabasePath,
			LogDir:       defaultLogDir,
			FileCacheDir: defaultFileCacheDir,
		},
		Remote: Remote{
			BaseURL:           defaultRemoteBaseURL,
			RequestsPerSecond: defaultRemoteRPS,
			TimeoutSeconds:    defaultRemoteTimeoutSeconds,
			CallBudgetSeconds: defaultRemoteCallBudget,
		},
		SharedCache: SharedCache{
			Namespace: "lrcsync",
		},
		FileCache: FileCache{
			MaxBytes:            defaultFileCacheMaxBytes,
			RetentionDays:       defaultFileCacheRetention,
			NegativeTTLHours:    defaultNegativeTTLHours,
			CompactionThreshold: defaultCompactionThreshold,
		},
		Scanner: Scanner{
			Extensions:   append([]string(nil), defaultExtensions...),
			ProbeWorkers: defaultProbeWorkers,
		},
		Download: Download{
			Parallel: defaultDownloadParallel,
		},
		Watch: Watch{
			DebounceSeconds:      defaultWatchDebounceSeconds,
			BatchSize:            defaultWatchBatchSize,
			QueueCapacity:        defaultWatchQueueCapacity,
			ReconcileIntervalHrs: defaultWatchReconcileHours,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
