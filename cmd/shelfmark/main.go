package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"shelfmark/internal/allocator"
	"shelfmark/internal/isbn"
	"shelfmark/internal/registry"
	"shelfmark/internal/store"
)

// Exit codes, stable for scripting.
const (
	exitOK          = 0
	exitValidation  = 1
	exitNotFound    = 2
	exitExhausted   = 3
	exitPersistence = 4
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(exitCode(err))
	}
}

// exitCode maps the error taxonomy onto the CLI exit codes. Anything not
// otherwise classified counts as a validation failure.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, store.ErrLockTimeout),
		errors.Is(err, store.ErrCorruption),
		errors.Is(err, store.ErrSchemaMismatch):
		return exitPersistence
	case errors.Is(err, allocator.ErrPoolExhausted):
		return exitExhausted
	case errors.Is(err, allocator.ErrNotFound),
		errors.Is(err, registry.ErrBlockNotFound):
		return exitNotFound
	case errors.Is(err, isbn.ErrInvalidISBN),
		errors.Is(err, isbn.ErrInvalidRange),
		errors.Is(err, registry.ErrBlockOverlap),
		errors.Is(err, registry.ErrInvalidRange),
		errors.Is(err, registry.ErrInvalidTransition),
		errors.Is(err, allocator.ErrPublished):
		return exitValidation
	default:
		return exitValidation
	}
}
