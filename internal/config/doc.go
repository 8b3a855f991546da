// Package config loads, normalizes, and validates shelfmark's TOML
// configuration. Defaults live in defaults.go; Load applies the file over the
// defaults, expands paths, and rejects invalid combinations before any other
// package sees the config.
package config
