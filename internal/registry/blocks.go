package registry

import (
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/google/uuid"

	"shelfmark/internal/isbn"
)

var (
	// ErrBlockOverlap indicates a new block collides with an existing range
	// for the same prefix and publisher code.
	ErrBlockOverlap = errors.New("block overlap")
	// ErrInvalidRange indicates block bounds that cannot describe a range.
	ErrInvalidRange = errors.New("invalid block range")
	// ErrBlockNotFound indicates an unknown block ID.
	ErrBlockNotFound = errors.New("block not found")
	// ErrInvalidTransition indicates an illegal status change.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// AddBlockParams describes a block purchase to register.
type AddBlockParams struct {
	Prefix        string
	PublisherCode string
	ImprintCode   string
	Start         int
	End           int
	// Nested permits an imprint-scoped range to sit inside an existing
	// publisher-scoped block (or vice versa when registering the broader
	// block second). The narrower range must be fully contained.
	Nested bool
}

// AddBlock validates and registers a new block in the state. Blocks are never
// deleted, only exhausted.
func AddBlock(state *State, params AddBlockParams) (Block, error) {
	if params.Start < 0 || params.Start >= params.End {
		return Block{}, fmt.Errorf("%w: start %d must be non-negative and below end %d", ErrInvalidRange, params.Start, params.End)
	}
	maxSeq, err := isbn.MaxSequence(params.Prefix, params.PublisherCode)
	if err != nil {
		return Block{}, err
	}
	if params.End > maxSeq {
		return Block{}, fmt.Errorf("%w: end %d exceeds maximum sequence %d for publisher %s", ErrInvalidRange, params.End, maxSeq, params.PublisherCode)
	}

	candidate := Block{
		ID:            uuid.NewString(),
		Prefix:        params.Prefix,
		PublisherCode: params.PublisherCode,
		ImprintCode:   params.ImprintCode,
		Start:         params.Start,
		End:           params.End,
		Nested:        params.Nested,
		CreatedAt:     time.Now().UTC(),
	}

	for _, existing := range state.Blocks {
		if existing.Prefix != candidate.Prefix || existing.PublisherCode != candidate.PublisherCode {
			continue
		}
		if candidate.Start > existing.End || candidate.End < existing.Start {
			continue
		}
		if nestedPair(candidate, existing) {
			continue
		}
		return Block{}, fmt.Errorf("%w: range %d-%d collides with block %s (%d-%d)",
			ErrBlockOverlap, candidate.Start, candidate.End, existing.ID, existing.Start, existing.End)
	}

	state.Blocks[candidate.ID] = candidate
	return candidate, nil
}

// nestedPair reports whether two overlapping blocks form a permitted
// imprint-inside-publisher nesting: exactly one is imprint-scoped, that one
// carries the nested flag, and it is fully contained in the other.
func nestedPair(a, b Block) bool {
	inner, outer := a, b
	if !inner.ImprintScoped() {
		inner, outer = b, a
	}
	if !inner.ImprintScoped() || outer.ImprintScoped() {
		return false
	}
	if !inner.Nested {
		return false
	}
	return inner.Start >= outer.Start && inner.End <= outer.End
}

// BlockUtilization recomputes the derived slot counts for a block from the
// materialized records inside its range.
func BlockUtilization(state *State, blockID string) (Utilization, error) {
	block, ok := state.Blocks[blockID]
	if !ok {
		return Utilization{}, fmt.Errorf("%w: %s", ErrBlockNotFound, blockID)
	}

	util := Utilization{Total: block.Total()}
	for _, record := range state.Assignments {
		if !memberOf(state, block, record) {
			continue
		}
		switch record.Status {
		case StatusReserved:
			util.Reserved++
		case StatusScheduled:
			util.Scheduled++
			util.Used++
		default:
			util.Used++
		}
	}
	util.Available = util.Total - util.Used - util.Reserved
	return util, nil
}

// memberOf reports whether a record belongs to a block. Records carry the
// block they were drawn from; records imported without one (reconciled
// external facts) fall back to numeric containment against the most specific
// covering block.
func memberOf(state *State, block Block, record Assignment) bool {
	if record.BlockID != "" {
		return record.BlockID == block.ID
	}
	owner, ok := state.BlockFor(record.ISBN)
	return ok && owner.ID == block.ID
}

// Available yields the block's unmaterialized sequence numbers in ascending
// order. The sequence is lazy, finite, and restartable; it is the sole source
// of "next ISBN" for allocation.
func Available(state *State, block Block) iter.Seq[int] {
	return func(yield func(int) bool) {
		for seq := block.Start; seq <= block.End; seq++ {
			value, err := isbn.Compose(block.Prefix, block.PublisherCode, seq)
			if err != nil {
				return
			}
			if _, taken := state.Assignments[value]; taken {
				continue
			}
			if !yield(seq) {
				return
			}
		}
	}
}

// NextAvailable returns the lowest available sequence number in the block.
func NextAvailable(state *State, block Block) (int, bool) {
	for seq := range Available(state, block) {
		return seq, true
	}
	return 0, false
}
