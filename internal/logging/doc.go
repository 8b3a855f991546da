// Package logging constructs the slog loggers used across shelfmark.
//
// Two output formats exist: a console handler producing aligned
// "timestamp LEVEL component: message key=value" lines, and a JSON handler
// for machine consumption. Components obtain a scoped logger through
// NewComponentLogger so the component field renders consistently.
package logging
