package testsupport

import (
	"context"
	"testing"

	"shelfmark/internal/config"
	"shelfmark/internal/journal"
	"shelfmark/internal/logging"
	"shelfmark/internal/registry"
	"shelfmark/internal/store"
)

// MustOpenStore opens a store.Store for tests.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	return st
}

// MustOpenJournal opens the audit journal at the configured path and closes
// it when the test ends.
func MustOpenJournal(t testing.TB, cfg *config.Config) *journal.Journal {
	t.Helper()

	j, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		t.Fatalf("journal.Open: %v", err)
	}
	t.Cleanup(func() { _ = j.Close() })
	return j
}

// MustAddBlock registers a block through the store and returns it.
func MustAddBlock(t testing.TB, st *store.Store, params registry.AddBlockParams) registry.Block {
	t.Helper()

	var block registry.Block
	err := st.Mutate(context.Background(), func(state *registry.State) error {
		var err error
		block, err = registry.AddBlock(state, params)
		return err
	})
	if err != nil {
		t.Fatalf("AddBlock: %v", err)
	}
	return block
}
