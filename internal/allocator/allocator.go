package allocator

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"shelfmark/internal/journal"
	"shelfmark/internal/logging"
	"shelfmark/internal/registry"
	"shelfmark/internal/store"
)

// Allocator coordinates ISBN lifecycle mutations against the store. Construct
// one per process and pass it by reference; it carries no global state.
type Allocator struct {
	store   *store.Store
	policy  SelectionPolicy
	journal *journal.Journal
	logger  *slog.Logger
	actor   string
}

// Option customizes an Allocator.
type Option func(*Allocator)

// WithPolicy overrides the block selection policy (default Consolidate).
func WithPolicy(policy SelectionPolicy) Option {
	return func(a *Allocator) {
		if policy != nil {
			a.policy = policy
		}
	}
}

// WithJournal attaches an audit journal. Journal failures are logged and
// never fail the mutation; the store remains the source of truth.
func WithJournal(j *journal.Journal) Option {
	return func(a *Allocator) {
		a.journal = j
	}
}

// WithActor records a caller identity on journal entries (default the USER
// environment variable, falling back to "unknown").
func WithActor(actor string) Option {
	return func(a *Allocator) {
		if actor != "" {
			a.actor = actor
		}
	}
}

// New constructs an allocator over the given store.
func New(st *store.Store, logger *slog.Logger, opts ...Option) (*Allocator, error) {
	if st == nil {
		return nil, errors.New("allocator requires a store")
	}
	actor := os.Getenv("USER")
	if actor == "" {
		actor = "unknown"
	}
	a := &Allocator{
		store:  st,
		policy: Consolidate,
		logger: logging.NewComponentLogger(logger, "allocator"),
		actor:  actor,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Store exposes the underlying store for read-only snapshot access.
func (a *Allocator) Store() *store.Store {
	return a.store
}

func (a *Allocator) record(ctx context.Context, op, isbn, blockID string, from, to registry.Status, detail string) {
	if a.journal == nil {
		return
	}
	entry := journal.Entry{
		Op:         op,
		ISBN:       isbn,
		BlockID:    blockID,
		FromStatus: string(from),
		ToStatus:   string(to),
		Actor:      a.actor,
		Detail:     detail,
	}
	if err := a.journal.Append(ctx, entry); err != nil {
		a.logger.Warn("journal append failed",
			logging.String("op", op),
			logging.String("isbn", isbn),
			logging.Error(err))
	}
}
