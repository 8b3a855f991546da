package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks configuration values after normalization.
func (c *Config) Validate() error {
	var problems []string

	if c.Paths.DataDir == "" {
		problems = append(problems, "paths.data_dir is required")
	}
	if c.Paths.LogDir == "" {
		problems = append(problems, "paths.log_dir is required")
	}
	if strings.ContainsRune(c.Store.FileName, '/') {
		problems = append(problems, "store.file_name must be a bare file name")
	}
	switch c.Allocation.Strategy {
	case StrategyConsolidate, StrategySpread:
	default:
		problems = append(problems, fmt.Sprintf("allocation.strategy %q must be %q or %q",
			c.Allocation.Strategy, StrategyConsolidate, StrategySpread))
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q must be console or json", c.Logging.Format))
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}
