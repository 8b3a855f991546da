package registry_test

import (
	"errors"
	"slices"
	"testing"

	"shelfmark/internal/isbn"
	"shelfmark/internal/registry"
)

func addBlock(t *testing.T, state *registry.State, params registry.AddBlockParams) registry.Block {
	t.Helper()
	block, err := registry.AddBlock(state, params)
	if err != nil {
		t.Fatalf("AddBlock failed: %v", err)
	}
	return block
}

func TestAddBlockRejectsInvalidBounds(t *testing.T) {
	state := registry.NewState()
	cases := []registry.AddBlockParams{
		{Prefix: "978", PublisherCode: "12345", Start: 10, End: 10},
		{Prefix: "978", PublisherCode: "12345", Start: 20, End: 10},
		{Prefix: "978", PublisherCode: "12345", Start: -1, End: 10},
		{Prefix: "978", PublisherCode: "12345", Start: 0, End: 10000},
	}
	for _, params := range cases {
		if _, err := registry.AddBlock(state, params); !errors.Is(err, registry.ErrInvalidRange) {
			t.Errorf("AddBlock(%+v) error = %v, want ErrInvalidRange", params, err)
		}
	}
}

func TestAddBlockRejectsOverlap(t *testing.T) {
	state := registry.NewState()
	addBlock(t, state, registry.AddBlockParams{Prefix: "978", PublisherCode: "12345", Start: 100, End: 199})

	if _, err := registry.AddBlock(state, registry.AddBlockParams{
		Prefix: "978", PublisherCode: "12345", Start: 150, End: 250,
	}); !errors.Is(err, registry.ErrBlockOverlap) {
		t.Fatalf("expected ErrBlockOverlap, got %v", err)
	}

	// Same numeric range under a different publisher code is fine.
	if _, err := registry.AddBlock(state, registry.AddBlockParams{
		Prefix: "978", PublisherCode: "54321", Start: 100, End: 199,
	}); err != nil {
		t.Fatalf("AddBlock for different publisher failed: %v", err)
	}

	// Adjacent range does not overlap.
	if _, err := registry.AddBlock(state, registry.AddBlockParams{
		Prefix: "978", PublisherCode: "12345", Start: 200, End: 299,
	}); err != nil {
		t.Fatalf("AddBlock for adjacent range failed: %v", err)
	}
}

func TestAddBlockNesting(t *testing.T) {
	state := registry.NewState()
	addBlock(t, state, registry.AddBlockParams{Prefix: "978", PublisherCode: "12345", Start: 0, End: 999})

	// Imprint block inside the publisher range without the flag is a conflict.
	if _, err := registry.AddBlock(state, registry.AddBlockParams{
		Prefix: "978", PublisherCode: "12345", ImprintCode: "imp", Start: 100, End: 199,
	}); !errors.Is(err, registry.ErrBlockOverlap) {
		t.Fatalf("expected ErrBlockOverlap without nested flag, got %v", err)
	}

	inner := addBlock(t, state, registry.AddBlockParams{
		Prefix: "978", PublisherCode: "12345", ImprintCode: "imp", Start: 100, End: 199, Nested: true,
	})
	if !inner.ImprintScoped() {
		t.Fatal("expected imprint-scoped block")
	}

	// A nested imprint block must be fully contained.
	if _, err := registry.AddBlock(state, registry.AddBlockParams{
		Prefix: "978", PublisherCode: "12345", ImprintCode: "imp2", Start: 900, End: 1100, Nested: true,
	}); !errors.Is(err, registry.ErrBlockOverlap) {
		t.Fatalf("expected ErrBlockOverlap for straddling nested block, got %v", err)
	}
}

func TestTransitionTable(t *testing.T) {
	legal := []struct{ from, to registry.Status }{
		{registry.StatusAvailable, registry.StatusScheduled},
		{registry.StatusAvailable, registry.StatusPrivatelyAssigned},
		{registry.StatusScheduled, registry.StatusPrivatelyAssigned},
		{registry.StatusPrivatelyAssigned, registry.StatusPubliclyAssigned},
		{registry.StatusScheduled, registry.StatusAvailable},
		{registry.StatusPrivatelyAssigned, registry.StatusAvailable},
		{registry.StatusAvailable, registry.StatusReserved},
		{registry.StatusReserved, registry.StatusAvailable},
	}
	for _, tr := range legal {
		if !registry.CanTransition(tr.from, tr.to) {
			t.Errorf("CanTransition(%s, %s) = false, want true", tr.from, tr.to)
		}
	}

	// PubliclyAssigned is terminal.
	for _, to := range registry.AllStatuses() {
		if registry.CanTransition(registry.StatusPubliclyAssigned, to) {
			t.Errorf("CanTransition(publicly_assigned, %s) = true, want false", to)
		}
	}

	if registry.CanTransition(registry.StatusReserved, registry.StatusPrivatelyAssigned) {
		t.Error("reserved records must be released before assignment")
	}
}

func TestAvailableSkipsMaterializedRecords(t *testing.T) {
	state := registry.NewState()
	block := addBlock(t, state, registry.AddBlockParams{Prefix: "978", PublisherCode: "12345", Start: 100, End: 109})

	taken, err := isbn.Compose(block.Prefix, block.PublisherCode, 103)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	state.Assignments[taken] = registry.Assignment{ISBN: taken, BlockID: block.ID, Status: registry.StatusReserved}

	var seqs []int
	for seq := range registry.Available(state, block) {
		seqs = append(seqs, seq)
	}
	want := []int{100, 101, 102, 104, 105, 106, 107, 108, 109}
	if !slices.Equal(seqs, want) {
		t.Fatalf("Available = %v, want %v", seqs, want)
	}

	// Restartable: a second pass yields the same sequence.
	var again []int
	for seq := range registry.Available(state, block) {
		again = append(again, seq)
	}
	if !slices.Equal(again, want) {
		t.Fatalf("second Available pass = %v, want %v", again, want)
	}

	// Releasing the reservation restores the number at its original position.
	delete(state.Assignments, taken)
	seqs = seqs[:0]
	for seq := range registry.Available(state, block) {
		seqs = append(seqs, seq)
	}
	if len(seqs) != 10 || seqs[3] != 103 {
		t.Fatalf("after release Available = %v, want 103 back at index 3", seqs)
	}
}

func TestBlockUtilization(t *testing.T) {
	state := registry.NewState()
	block := addBlock(t, state, registry.AddBlockParams{Prefix: "978", PublisherCode: "12345", Start: 0, End: 9})

	materialize := func(seq int, status registry.Status) {
		value, err := isbn.Compose(block.Prefix, block.PublisherCode, seq)
		if err != nil {
			t.Fatalf("Compose failed: %v", err)
		}
		state.Assignments[value] = registry.Assignment{ISBN: value, BlockID: block.ID, Status: status}
	}
	materialize(0, registry.StatusScheduled)
	materialize(1, registry.StatusPrivatelyAssigned)
	materialize(2, registry.StatusPubliclyAssigned)
	materialize(3, registry.StatusReserved)

	util, err := registry.BlockUtilization(state, block.ID)
	if err != nil {
		t.Fatalf("BlockUtilization failed: %v", err)
	}
	want := registry.Utilization{Total: 10, Used: 3, Reserved: 1, Scheduled: 1, Available: 6}
	if util != want {
		t.Fatalf("BlockUtilization = %+v, want %+v", util, want)
	}

	if _, err := registry.BlockUtilization(state, "missing"); !errors.Is(err, registry.ErrBlockNotFound) {
		t.Fatalf("expected ErrBlockNotFound, got %v", err)
	}
}

func TestBlockForPrefersImprintScope(t *testing.T) {
	state := registry.NewState()
	outer := addBlock(t, state, registry.AddBlockParams{Prefix: "978", PublisherCode: "12345", Start: 0, End: 999})
	inner := addBlock(t, state, registry.AddBlockParams{
		Prefix: "978", PublisherCode: "12345", ImprintCode: "imp", Start: 100, End: 199, Nested: true,
	})

	value, err := isbn.Compose("978", "12345", 150)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	owner, ok := state.BlockFor(value)
	if !ok || owner.ID != inner.ID {
		t.Fatalf("BlockFor = %+v, want imprint block %s", owner, inner.ID)
	}

	outside, err := isbn.Compose("978", "12345", 500)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	owner, ok = state.BlockFor(outside)
	if !ok || owner.ID != outer.ID {
		t.Fatalf("BlockFor = %+v, want publisher block %s", owner, outer.ID)
	}

	if _, ok := state.BlockFor("9799999999999"); ok {
		t.Fatal("BlockFor matched an ISBN outside every block")
	}
}

func TestSequenceIn(t *testing.T) {
	block := registry.Block{Prefix: "978", PublisherCode: "12345", Start: 0, End: 9999}
	value, err := isbn.Compose("978", "12345", 4321)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	seq, err := registry.SequenceIn(block, value)
	if err != nil {
		t.Fatalf("SequenceIn failed: %v", err)
	}
	if seq != 4321 {
		t.Fatalf("SequenceIn = %d, want 4321", seq)
	}

	if _, err := registry.SequenceIn(block, "9795432100000"); err == nil {
		t.Fatal("expected error for foreign publisher code")
	}
}
