package allocator

import (
	"sort"

	"shelfmark/internal/config"
	"shelfmark/internal/registry"
)

// SelectionPolicy orders the blocks that qualify for a schedule request. The
// allocator walks the result in order and draws from the first block with an
// available slot. The most specific scope match (imprint-scoped over
// publisher-scoped) always sorts first; policies differ only in the tie-break
// among equally specific blocks.
type SelectionPolicy func(state *registry.State, blocks []registry.Block) []registry.Block

// Consolidate prefers the block with the fewest remaining available slots, so
// fragmented blocks drain before fresh ones are touched.
func Consolidate(state *registry.State, blocks []registry.Block) []registry.Block {
	return orderBlocks(state, blocks, func(less, more int) bool { return less < more })
}

// Spread prefers the block with the most remaining available slots.
func Spread(state *registry.State, blocks []registry.Block) []registry.Block {
	return orderBlocks(state, blocks, func(less, more int) bool { return less > more })
}

// PolicyFromConfig maps the configured strategy name onto a policy.
func PolicyFromConfig(cfg *config.Config) SelectionPolicy {
	if cfg != nil && cfg.Allocation.Strategy == config.StrategySpread {
		return Spread
	}
	return Consolidate
}

func orderBlocks(state *registry.State, blocks []registry.Block, byAvailable func(a, b int) bool) []registry.Block {
	type ranked struct {
		block     registry.Block
		available int
	}
	rankings := make([]ranked, 0, len(blocks))
	for _, block := range blocks {
		util, err := registry.BlockUtilization(state, block.ID)
		if err != nil {
			continue
		}
		rankings = append(rankings, ranked{block: block, available: util.Available})
	}

	sort.SliceStable(rankings, func(i, j int) bool {
		a, b := rankings[i], rankings[j]
		if a.block.ImprintScoped() != b.block.ImprintScoped() {
			return a.block.ImprintScoped()
		}
		if a.available != b.available {
			return byAvailable(a.available, b.available)
		}
		if a.block.Start != b.block.Start {
			return a.block.Start < b.block.Start
		}
		return a.block.ID < b.block.ID
	})

	ordered := make([]registry.Block, len(rankings))
	for i, r := range rankings {
		ordered[i] = r.block
	}
	return ordered
}
