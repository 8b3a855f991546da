package config

const (
	defaultDataDir            = "~/.local/share/shelfmark"
	defaultLogDir             = "~/.local/share/shelfmark/logs"
	defaultStoreFileName      = "store.json"
	defaultBackupCount        = 3
	defaultLockTimeoutSeconds = 10
	defaultMinFreeMiB         = 64
	defaultStrategy           = StrategyConsolidate
	defaultPriority           = 1
	defaultJournalPath        = "~/.local/share/shelfmark/journal.db"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Selection strategy names accepted by [allocation] strategy.
const (
	StrategyConsolidate = "consolidate"
	StrategySpread      = "spread"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Store: Store{
			FileName:           defaultStoreFileName,
			BackupCount:        defaultBackupCount,
			LockTimeoutSeconds: defaultLockTimeoutSeconds,
			MinFreeMiB:         defaultMinFreeMiB,
		},
		Allocation: Allocation{
			Strategy:        defaultStrategy,
			DefaultPriority: defaultPriority,
		},
		Journal: Journal{
			Enabled: true,
			Path:    defaultJournalPath,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
