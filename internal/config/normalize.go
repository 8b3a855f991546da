package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}

	c.Store.FileName = strings.TrimSpace(c.Store.FileName)
	if c.Store.FileName == "" {
		c.Store.FileName = defaultStoreFileName
	}
	if c.Store.BackupCount < 0 {
		c.Store.BackupCount = 0
	}
	if c.Store.LockTimeoutSeconds <= 0 {
		c.Store.LockTimeoutSeconds = defaultLockTimeoutSeconds
	}
	if c.Store.MinFreeMiB < 0 {
		c.Store.MinFreeMiB = 0
	}

	c.Allocation.Strategy = strings.ToLower(strings.TrimSpace(c.Allocation.Strategy))
	if c.Allocation.Strategy == "" {
		c.Allocation.Strategy = defaultStrategy
	}
	if c.Allocation.DefaultPriority <= 0 {
		c.Allocation.DefaultPriority = defaultPriority
	}
	c.Allocation.DefaultPublisher = strings.TrimSpace(c.Allocation.DefaultPublisher)
	c.Allocation.DefaultImprint = strings.TrimSpace(c.Allocation.DefaultImprint)

	c.Journal.Path = strings.TrimSpace(c.Journal.Path)
	if c.Journal.Path == "" {
		c.Journal.Path = defaultJournalPath
	}
	if c.Journal.Path, err = expandPath(c.Journal.Path); err != nil {
		return fmt.Errorf("journal.path: %w", err)
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	return nil
}
