package store_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"shelfmark/internal/registry"
	"shelfmark/internal/store"
	"shelfmark/internal/testsupport"
)

func TestMutateAndSnapshotRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	block := testsupport.MustAddBlock(t, st, registry.AddBlockParams{
		Prefix: "978", PublisherCode: "12345", Start: 100, End: 109,
	})

	err := st.Mutate(ctx, func(state *registry.State) error {
		state.Assignments["9781234501005"] = registry.Assignment{
			ISBN:    "9781234501005",
			BlockID: block.ID,
			Status:  registry.StatusScheduled,
			BookID:  "bk-1",
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Mutate failed: %v", err)
	}

	snap, err := st.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if len(snap.Blocks) != 1 || len(snap.Assignments) != 1 {
		t.Fatalf("unexpected snapshot: %d blocks, %d assignments", len(snap.Blocks), len(snap.Assignments))
	}
	got, ok := snap.Record("9781234501005")
	if !ok || got.Status != registry.StatusScheduled || got.BookID != "bk-1" {
		t.Fatalf("unexpected record after round trip: %+v", got)
	}
	if snap.Version != registry.SchemaVersion {
		t.Fatalf("version = %d, want %d", snap.Version, registry.SchemaVersion)
	}
	if snap.LastUpdated.IsZero() {
		t.Fatal("LastUpdated not set on commit")
	}
}

func TestMutateErrorDiscardsChanges(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	sentinel := errors.New("abort")
	err := st.Mutate(ctx, func(state *registry.State) error {
		state.Assignments["9780306406157"] = registry.Assignment{ISBN: "9780306406157", Status: registry.StatusReserved}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got %v", err)
	}

	snap, err := st.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if len(snap.Assignments) != 0 {
		t.Fatalf("aborted mutation leaked %d assignments", len(snap.Assignments))
	}
}

func TestSnapshotOfMissingFileIsEmpty(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	snap, err := st.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if len(snap.Blocks) != 0 || len(snap.Assignments) != 0 {
		t.Fatal("expected empty state for missing store file")
	}
}

func TestCorruptionFallsBackToBackup(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithBackupCount(2))
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.MustAddBlock(t, st, registry.AddBlockParams{
		Prefix: "978", PublisherCode: "12345", Start: 0, End: 9,
	})
	// Second commit rotates the first into backup slot 1.
	if err := st.Mutate(ctx, func(state *registry.State) error { return nil }); err != nil {
		t.Fatalf("Mutate failed: %v", err)
	}

	if err := os.WriteFile(cfg.StorePath(), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("corrupt store file: %v", err)
	}

	snap, err := st.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot after corruption failed: %v", err)
	}
	if len(snap.Blocks) != 1 {
		t.Fatalf("backup recovery lost blocks: %d", len(snap.Blocks))
	}
}

func TestCorruptionWithoutBackupIsFatal(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithBackupCount(0))
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.MustAddBlock(t, st, registry.AddBlockParams{
		Prefix: "978", PublisherCode: "12345", Start: 0, End: 9,
	})
	if err := os.WriteFile(cfg.StorePath(), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("corrupt store file: %v", err)
	}

	if _, err := st.Snapshot(ctx); !errors.Is(err, store.ErrCorruption) {
		t.Fatalf("expected ErrCorruption, got %v", err)
	}
}

func TestFutureSchemaVersionRejected(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	if err := os.MkdirAll(cfg.Paths.DataDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	content := `{"version": 99, "isbn_blocks": {}, "assignments": {}, "last_updated": "2026-01-01T00:00:00Z"}`
	if err := os.WriteFile(cfg.StorePath(), []byte(content), 0o644); err != nil {
		t.Fatalf("write store file: %v", err)
	}

	if _, err := st.Snapshot(context.Background()); !errors.Is(err, store.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestLockTimeoutSurfacesAsRetryable(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Store.LockTimeoutSeconds = 1
	first := testsupport.MustOpenStore(t, cfg)
	second := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	// Hold the exclusive lock from the first handle for the duration.
	blocked := make(chan error, 1)
	release := make(chan struct{})
	go func() {
		blocked <- first.Mutate(ctx, func(state *registry.State) error {
			close(release)
			time.Sleep(2 * time.Second)
			return nil
		})
	}()
	<-release

	if err := second.Mutate(ctx, func(state *registry.State) error { return nil }); !errors.Is(err, store.ErrLockTimeout) {
		t.Fatalf("expected ErrLockTimeout, got %v", err)
	}
	if err := <-blocked; err != nil {
		t.Fatalf("holder Mutate failed: %v", err)
	}
}

func TestRollingBackupsAreBounded(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithBackupCount(2))
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := st.Mutate(ctx, func(state *registry.State) error { return nil }); err != nil {
			t.Fatalf("Mutate %d failed: %v", i, err)
		}
	}

	if _, err := os.Stat(cfg.StorePath() + ".1"); err != nil {
		t.Fatalf("backup 1 missing: %v", err)
	}
	if _, err := os.Stat(cfg.StorePath() + ".2"); err != nil {
		t.Fatalf("backup 2 missing: %v", err)
	}
	if _, err := os.Stat(cfg.StorePath() + ".3"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("backup 3 should not exist, stat err = %v", err)
	}
}
