package reconcile_test

import (
	"context"
	"strings"
	"testing"

	"shelfmark/internal/allocator"
	"shelfmark/internal/isbn"
	"shelfmark/internal/logging"
	"shelfmark/internal/reconcile"
	"shelfmark/internal/registry"
	"shelfmark/internal/store"
	"shelfmark/internal/testsupport"
)

func newImporter(t *testing.T) (*reconcile.Importer, *store.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	testsupport.MustAddBlock(t, st, registry.AddBlockParams{
		Prefix:        "978",
		PublisherCode: "0306",
		Start:         100,
		End:           199,
	})
	imp, err := reconcile.NewImporter(st, logging.NewNop())
	if err != nil {
		t.Fatalf("NewImporter: %v", err)
	}
	return imp, st
}

func mustCompose(t *testing.T, seq int) string {
	t.Helper()
	value, err := isbn.Compose("978", "0306", seq)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	return value
}

func statusOf(t *testing.T, st *store.Store, value string) registry.Status {
	t.Helper()
	state, err := st.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	record, ok := state.Record(value)
	if !ok {
		return registry.StatusAvailable
	}
	return record.Status
}

func TestSniff(t *testing.T) {
	cols, err := reconcile.Sniff([]string{"Title", "ISBN-13", "Status", "Book ID"})
	if err != nil {
		t.Fatalf("Sniff: %v", err)
	}
	if cols.ISBN != 1 || cols.Used != 2 {
		t.Errorf("cols = %+v, want ISBN=1 Used=2", cols)
	}
	if cols.BookID != 0 {
		t.Errorf("BookID column = %d, want 0 (Title)", cols.BookID)
	}

	if _, err := reconcile.Sniff([]string{"Price", "Quantity"}); err == nil {
		t.Error("Sniff without an isbn column should fail")
	}
}

func TestParseSnapshotSkipsMalformedRows(t *testing.T) {
	input := strings.Join([]string{
		"EAN,In Use",
		mustCompose(t, 100) + ",yes",
		"not-an-isbn,yes",
		mustCompose(t, 101) + ",maybe",
		mustCompose(t, 102) + ",no",
	}, "\n")

	rows, skipped, err := reconcile.ParseSnapshot(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseSnapshot: %v", err)
	}
	if skipped != 2 {
		t.Errorf("skipped = %d, want 2 (bad checksum, bad indicator)", skipped)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if !rows[0].Used || rows[1].Used {
		t.Errorf("used flags = %v, %v; want true, false", rows[0].Used, rows[1].Used)
	}
}

func TestImportExternalAuthorityWins(t *testing.T) {
	imp, st := newImporter(t)
	alloc, err := allocator.New(st, logging.NewNop())
	if err != nil {
		t.Fatalf("allocator.New: %v", err)
	}
	ctx := context.Background()

	scheduled, err := alloc.Schedule(ctx, allocator.ScheduleRequest{BookID: "book-1"})
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	reserved := mustCompose(t, 150)
	if err := alloc.Reserve(ctx, reserved, "hold"); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	fresh := mustCompose(t, 160)

	report, err := imp.Import(ctx, []reconcile.Row{
		{ISBN: scheduled, Used: true, BookID: "book-other"},
		{ISBN: reserved, Used: true},
		{ISBN: fresh, Used: true},
	})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if report.Added != 1 {
		t.Errorf("Added = %d, want 1", report.Added)
	}
	if report.Updated != 2 {
		t.Errorf("Updated = %d, want 2", report.Updated)
	}
	if len(report.Conflicts) != 1 {
		t.Fatalf("Conflicts = %d, want 1 (scheduled for a different book)", len(report.Conflicts))
	}
	if report.Conflicts[0].ISBN != scheduled {
		t.Errorf("conflict isbn = %s, want %s", report.Conflicts[0].ISBN, scheduled)
	}

	for _, value := range []string{scheduled, reserved, fresh} {
		if got := statusOf(t, st, value); got != registry.StatusPubliclyAssigned {
			t.Errorf("%s status = %s, want %s", value, got, registry.StatusPubliclyAssigned)
		}
	}
}

func TestImportNeverDowngradesPublished(t *testing.T) {
	imp, st := newImporter(t)
	alloc, err := allocator.New(st, logging.NewNop())
	if err != nil {
		t.Fatalf("allocator.New: %v", err)
	}
	ctx := context.Background()
	value := mustCompose(t, 110)

	if err := alloc.AssignNow(ctx, value, allocator.AssignArgs{BookID: "book-1"}); err != nil {
		t.Fatalf("AssignNow: %v", err)
	}
	if err := alloc.MarkPublished(ctx, value); err != nil {
		t.Fatalf("MarkPublished: %v", err)
	}

	report, err := imp.Import(ctx, []reconcile.Row{{ISBN: value, Used: false}})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if report.Updated != 0 {
		t.Errorf("Updated = %d, want 0", report.Updated)
	}
	if len(report.Conflicts) != 1 {
		t.Errorf("Conflicts = %d, want 1 (stale external export)", len(report.Conflicts))
	}
	if got := statusOf(t, st, value); got != registry.StatusPubliclyAssigned {
		t.Errorf("status = %s, published record must not downgrade", got)
	}
}

func TestImportIdempotent(t *testing.T) {
	imp, _ := newImporter(t)
	ctx := context.Background()

	rows := []reconcile.Row{
		{ISBN: mustCompose(t, 100), Used: true},
		{ISBN: mustCompose(t, 101), Used: true},
		{ISBN: mustCompose(t, 102), Used: false},
	}

	first, err := imp.Import(ctx, rows)
	if err != nil {
		t.Fatalf("first Import: %v", err)
	}
	if first.Added != 2 {
		t.Errorf("first Added = %d, want 2", first.Added)
	}

	second, err := imp.Import(ctx, rows)
	if err != nil {
		t.Fatalf("second Import: %v", err)
	}
	if second.Added != 0 || second.Updated != 0 {
		t.Errorf("second run Added=%d Updated=%d, want 0/0", second.Added, second.Updated)
	}
}

func TestImportSkipsOutOfBlockNumbers(t *testing.T) {
	imp, st := newImporter(t)

	outside, err := isbn.Compose("978", "0306", 900)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	report, err := imp.Import(context.Background(), []reconcile.Row{{ISBN: outside, Used: true}})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if report.Skipped != 1 || report.Added != 0 {
		t.Errorf("report = %+v, want one skip and no adds", report)
	}
	if got := statusOf(t, st, outside); got != registry.StatusAvailable {
		t.Errorf("out-of-block number materialized as %s", got)
	}
}

func TestImportSnapshotEndToEnd(t *testing.T) {
	imp, st := newImporter(t)
	ctx := context.Background()

	input := strings.Join([]string{
		"Identifier,Usage,Reference",
		mustCompose(t, 100) + ",used,book-9",
		"garbage,used,book-10",
	}, "\n")

	report, err := imp.ImportSnapshot(ctx, strings.NewReader(input))
	if err != nil {
		t.Fatalf("ImportSnapshot: %v", err)
	}
	if report.Added != 1 || report.Skipped != 1 {
		t.Errorf("report = %+v, want Added=1 Skipped=1", report)
	}

	state, err := st.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	record, ok := state.Record(mustCompose(t, 100))
	if !ok {
		t.Fatal("imported record missing")
	}
	if record.BookID != "book-9" {
		t.Errorf("book id = %q, want the external reference", record.BookID)
	}
}
