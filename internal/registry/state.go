package registry

import (
	"sort"
	"time"

	"shelfmark/internal/isbn"
)

// SchemaVersion is the current on-disk store schema version. Bump this when
// the persisted shape changes.
const SchemaVersion = 1

// State is the complete persisted inventory: every block and every
// materialized assignment record.
type State struct {
	Version     int                   `json:"version"`
	Blocks      map[string]Block      `json:"isbn_blocks"`
	Assignments map[string]Assignment `json:"assignments"`
	LastUpdated time.Time             `json:"last_updated"`
}

// NewState returns an empty state at the current schema version.
func NewState() *State {
	return &State{
		Version:     SchemaVersion,
		Blocks:      make(map[string]Block),
		Assignments: make(map[string]Assignment),
	}
}

// Normalize ensures maps are non-nil after decoding a stored state.
func (s *State) Normalize() {
	if s.Blocks == nil {
		s.Blocks = make(map[string]Block)
	}
	if s.Assignments == nil {
		s.Assignments = make(map[string]Assignment)
	}
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	cp := &State{
		Version:     s.Version,
		Blocks:      make(map[string]Block, len(s.Blocks)),
		Assignments: make(map[string]Assignment, len(s.Assignments)),
		LastUpdated: s.LastUpdated,
	}
	for id, block := range s.Blocks {
		cp.Blocks[id] = block
	}
	for key, record := range s.Assignments {
		cp.Assignments[key] = record
	}
	return cp
}

// SortedBlocks returns all blocks ordered by prefix, publisher code, then
// start number, for stable listing output.
func (s *State) SortedBlocks() []Block {
	blocks := make([]Block, 0, len(s.Blocks))
	for _, block := range s.Blocks {
		blocks = append(blocks, block)
	}
	sort.Slice(blocks, func(i, j int) bool {
		if blocks[i].Prefix != blocks[j].Prefix {
			return blocks[i].Prefix < blocks[j].Prefix
		}
		if blocks[i].PublisherCode != blocks[j].PublisherCode {
			return blocks[i].PublisherCode < blocks[j].PublisherCode
		}
		return blocks[i].Start < blocks[j].Start
	})
	return blocks
}

// Record returns the materialized record for an ISBN, normalizing the key.
func (s *State) Record(value string) (Assignment, bool) {
	record, ok := s.Assignments[isbn.Normalize(value)]
	return record, ok
}

// BlockFor locates the most specific block containing the given ISBN: an
// imprint-scoped block wins over a publisher-scoped one covering the same
// number. Returns false when no block contains it.
func (s *State) BlockFor(value string) (Block, bool) {
	normalized := isbn.Normalize(value)
	var best Block
	found := false
	for _, block := range s.Blocks {
		seq, err := SequenceIn(block, normalized)
		if err != nil || !block.Contains(seq) {
			continue
		}
		if !found || (block.ImprintScoped() && !best.ImprintScoped()) {
			best = block
			found = true
		}
	}
	return best, found
}

// SequenceIn extracts the sequence number an ISBN occupies within a block's
// numbering, or an error when the ISBN does not share the block's prefix and
// publisher code.
func SequenceIn(block Block, value string) (int, error) {
	normalized := isbn.Normalize(value)
	width, err := isbn.SequenceWidth(block.Prefix, block.PublisherCode)
	if err != nil {
		return 0, err
	}
	head := block.Prefix + block.PublisherCode
	if len(normalized) != 13 || normalized[:len(head)] != head {
		return 0, isbn.ErrInvalidISBN
	}
	seq := 0
	for _, r := range normalized[len(head) : len(head)+width] {
		if r < '0' || r > '9' {
			return 0, isbn.ErrInvalidISBN
		}
		seq = seq*10 + int(r-'0')
	}
	return seq, nil
}
