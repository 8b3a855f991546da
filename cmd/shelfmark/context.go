package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"shelfmark/internal/allocator"
	"shelfmark/internal/config"
	"shelfmark/internal/journal"
	"shelfmark/internal/logging"
	"shelfmark/internal/store"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		c.logger = logger
	})
	return c.logger
}

func (c *commandContext) openStore() (*store.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return store.Open(cfg, c.ensureLogger())
}

// withStore runs fn against an opened store. Read-only commands use this
// directly for snapshot access.
func (c *commandContext) withStore(fn func(*store.Store) error) error {
	st, err := c.openStore()
	if err != nil {
		return err
	}
	return fn(st)
}

// withAllocator runs fn with a fully wired allocator: configured selection
// policy and, when enabled, the audit journal. The journal closes when fn
// returns.
func (c *commandContext) withAllocator(fn func(*allocator.Allocator) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	st, err := c.openStore()
	if err != nil {
		return err
	}

	opts := []allocator.Option{allocator.WithPolicy(allocator.PolicyFromConfig(cfg))}
	if cfg.Journal.Enabled {
		j, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			return err
		}
		defer j.Close()
		opts = append(opts, allocator.WithJournal(j))
	}

	alloc, err := allocator.New(st, c.ensureLogger(), opts...)
	if err != nil {
		return err
	}
	return fn(alloc)
}

// withJournal runs fn against the audit journal, which must be enabled in
// the configuration.
func (c *commandContext) withJournal(fn func(*journal.Journal) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	if !cfg.Journal.Enabled {
		return errJournalDisabled
	}
	j, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		return err
	}
	defer j.Close()
	return fn(j)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
