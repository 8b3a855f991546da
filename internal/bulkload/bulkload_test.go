package bulkload_test

import (
	"context"
	"strings"
	"testing"

	"shelfmark/internal/allocator"
	"shelfmark/internal/bulkload"
	"shelfmark/internal/logging"
	"shelfmark/internal/registry"
	"shelfmark/internal/store"
	"shelfmark/internal/testsupport"
)

func newLoader(t *testing.T) (*bulkload.Loader, *store.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	testsupport.MustAddBlock(t, st, registry.AddBlockParams{
		Prefix:        "978",
		PublisherCode: "0306",
		Start:         100,
		End:           109,
	})
	alloc, err := allocator.New(st, logging.NewNop())
	if err != nil {
		t.Fatalf("allocator.New: %v", err)
	}
	loader, err := bulkload.New(alloc, logging.NewNop())
	if err != nil {
		t.Fatalf("bulkload.New: %v", err)
	}
	return loader, st
}

func TestLoadSchedulesValidRows(t *testing.T) {
	loader, st := newLoader(t)
	input := strings.Join([]string{
		"title,book_id,date,imprint,publisher,format,priority,notes",
		"the silent spring,book-1,2026-10-01,,,hardcover,2,first printing",
		"GRAVITATION,book-2,2026-11-15,,,,,",
	}, "\n")

	report, err := loader.Load(context.Background(), strings.NewReader(input))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if report.Scheduled != 2 || report.Failed != 0 {
		t.Fatalf("report = %+v, want 2 scheduled", report)
	}

	state, err := st.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	first, ok := state.Record(report.ISBNs[0])
	if !ok {
		t.Fatal("first scheduled record missing")
	}
	if first.Title != "The Silent Spring" {
		t.Errorf("title = %q, want title-cased form", first.Title)
	}
	if !strings.Contains(first.Notes, "format: hardcover") {
		t.Errorf("notes = %q, want the format folded in", first.Notes)
	}
	if first.Priority != 2 {
		t.Errorf("priority = %d, want 2", first.Priority)
	}

	second, ok := state.Record(report.ISBNs[1])
	if !ok {
		t.Fatal("second scheduled record missing")
	}
	if second.Title != "Gravitation" {
		t.Errorf("title = %q, want all-caps input normalized", second.Title)
	}
}

func TestLoadIsolatesRowFailures(t *testing.T) {
	loader, st := newLoader(t)
	input := strings.Join([]string{
		"title,book_id,date,priority",
		"Valid Book,book-1,2026-10-01,1",
		"Missing Book ID,,2026-10-01,1",
		"Bad Priority,book-3,2026-10-01,zero",
		"Bad Date,book-4,soon,1",
		"Also Valid,book-5,2026-12-01,3",
	}, "\n")

	report, err := loader.Load(context.Background(), strings.NewReader(input))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if report.Scheduled != 2 {
		t.Errorf("scheduled = %d, want 2", report.Scheduled)
	}
	if report.Failed != 3 {
		t.Errorf("failed = %d, want 3", report.Failed)
	}
	for _, rowErr := range report.Errors {
		if rowErr.Line < 2 || rowErr.Line > 5 {
			t.Errorf("error line %d outside data rows", rowErr.Line)
		}
	}

	state, err := st.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(state.Assignments) != 2 {
		t.Errorf("materialized records = %d, want only the valid rows", len(state.Assignments))
	}
}

func TestLoadRejectsMissingColumns(t *testing.T) {
	loader, _ := newLoader(t)
	input := "isbn,quantity\n9780306406157,4\n"
	if _, err := loader.Load(context.Background(), strings.NewReader(input)); err == nil {
		t.Error("Load without title/book_id columns should fail")
	}
}

func TestLoadExhaustionIsPerRow(t *testing.T) {
	loader, _ := newLoader(t)

	var lines []string
	lines = append(lines, "title,book_id,date")
	for i := 0; i < 12; i++ {
		lines = append(lines, "Book,book-n,2026-10-01")
	}

	report, err := loader.Load(context.Background(), strings.NewReader(strings.Join(lines, "\n")))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if report.Scheduled != 10 {
		t.Errorf("scheduled = %d, want the block's 10 slots", report.Scheduled)
	}
	if report.Failed != 2 {
		t.Errorf("failed = %d, want 2 exhausted rows", report.Failed)
	}
}
