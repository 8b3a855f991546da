// Package testsupport provides per-test constructors for config and store
// fixtures backed by unique temp directories.
package testsupport

import (
	"path/filepath"
	"testing"

	"shelfmark/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// The journal is disabled and the free-space floor cleared so tests stay
// hermetic; options may re-enable either.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Store.LockTimeoutSeconds = 2
	cfg.Store.MinFreeMiB = 0
	cfg.Journal.Enabled = false
	cfg.Journal.Path = filepath.Join(base, "journal.db")

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithBackupCount overrides the rolling backup count on the test config.
func WithBackupCount(n int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Store.BackupCount = n
	}
}

// WithJournal enables the audit journal on the test config.
func WithJournal() ConfigOption {
	return func(cfg *config.Config) {
		cfg.Journal.Enabled = true
	}
}

// WithStrategy overrides the block selection strategy on the test config.
func WithStrategy(strategy string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Allocation.Strategy = strategy
	}
}
