package allocator

import (
	"context"
	"fmt"
	"time"

	"shelfmark/internal/isbn"
	"shelfmark/internal/logging"
	"shelfmark/internal/registry"
)

// DateLayout is the wire format for scheduled dates.
const DateLayout = "2006-01-02"

// ScheduleRequest describes a future assignment to place on the next
// eligible number.
type ScheduleRequest struct {
	BookID        string
	Title         string
	ScheduledDate string
	Publisher     string
	Imprint       string
	Priority      int
	Notes         string
}

func normalizeScheduleRequest(req ScheduleRequest) (ScheduleRequest, error) {
	if req.BookID == "" {
		return req, fmt.Errorf("book id is required")
	}
	if req.ScheduledDate != "" {
		if _, err := time.Parse(DateLayout, req.ScheduledDate); err != nil {
			return req, fmt.Errorf("scheduled date %q: must be YYYY-MM-DD", req.ScheduledDate)
		}
	}
	if req.Priority <= 0 {
		req.Priority = 1
	}
	return req, nil
}

// scheduleInState places one scheduled record using the selection policy and
// returns the issued ISBN and owning block. Callers hold the store mutation.
func (a *Allocator) scheduleInState(state *registry.State, req ScheduleRequest) (string, string, error) {
	candidates := make([]registry.Block, 0, len(state.Blocks))
	for _, block := range state.Blocks {
		if block.Matches(req.Publisher, req.Imprint) {
			candidates = append(candidates, block)
		}
	}

	for _, block := range a.policy(state, candidates) {
		seq, ok := registry.NextAvailable(state, block)
		if !ok {
			continue
		}
		value, err := isbn.Compose(block.Prefix, block.PublisherCode, seq)
		if err != nil {
			return "", "", err
		}
		state.Assignments[value] = registry.Assignment{
			ISBN:          value,
			BlockID:       block.ID,
			Status:        registry.StatusScheduled,
			BookID:        req.BookID,
			Title:         req.Title,
			ScheduledDate: req.ScheduledDate,
			Priority:      req.Priority,
			Notes:         req.Notes,
		}
		return value, block.ID, nil
	}
	return "", "", fmt.Errorf("%w: no block matching publisher=%q imprint=%q has availability",
		ErrPoolExhausted, req.Publisher, req.Imprint)
}

// Schedule selects the next eligible number among qualifying blocks, creates
// a scheduled record for it, and returns the ISBN. Block order follows the
// selection policy; within a block numbers are issued in ascending order.
func (a *Allocator) Schedule(ctx context.Context, req ScheduleRequest) (string, error) {
	req, err := normalizeScheduleRequest(req)
	if err != nil {
		return "", err
	}

	var (
		issued  string
		blockID string
	)
	err = a.store.Mutate(ctx, func(state *registry.State) error {
		var err error
		issued, blockID, err = a.scheduleInState(state, req)
		return err
	})
	if err != nil {
		return "", err
	}

	a.logger.Info("isbn scheduled",
		logging.String("isbn", issued),
		logging.String("book_id", req.BookID),
		logging.String("block_id", blockID))
	a.record(ctx, "schedule", issued, blockID, registry.StatusAvailable, registry.StatusScheduled, req.BookID)
	return issued, nil
}

// BatchOutcome reports the result of one request in a ScheduleBatch call.
// Either ISBN or Err is set.
type BatchOutcome struct {
	Index int
	ISBN  string
	Err   error
}

// ScheduleBatch schedules many requests inside a single store commit. Rows
// fail independently: an invalid or unsatisfiable request records an error
// outcome and the remaining rows still proceed. Either every surviving row is
// persisted or, on a commit failure, none are.
func (a *Allocator) ScheduleBatch(ctx context.Context, reqs []ScheduleRequest) ([]BatchOutcome, error) {
	type issuedRow struct {
		index   int
		isbn    string
		blockID string
	}
	outcomes := make([]BatchOutcome, len(reqs))
	var issued []issuedRow

	err := a.store.Mutate(ctx, func(state *registry.State) error {
		issued = issued[:0]
		for i, req := range reqs {
			outcomes[i] = BatchOutcome{Index: i}
			normalized, err := normalizeScheduleRequest(req)
			if err != nil {
				outcomes[i].Err = err
				continue
			}
			value, blockID, err := a.scheduleInState(state, normalized)
			if err != nil {
				outcomes[i].Err = err
				continue
			}
			outcomes[i].ISBN = value
			issued = append(issued, issuedRow{index: i, isbn: value, blockID: blockID})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, row := range issued {
		a.record(ctx, "schedule", row.isbn, row.blockID, registry.StatusAvailable, registry.StatusScheduled, reqs[row.index].BookID)
	}
	a.logger.Info("batch scheduled",
		logging.Int("requested", len(reqs)),
		logging.Int("issued", len(issued)))
	return outcomes, nil
}

// AssignArgs carries the metadata for an immediate private assignment.
type AssignArgs struct {
	BookID string
	Title  string
}

// AssignNow privately assigns a specific ISBN immediately, skipping the
// scheduling step. The number must be implicitly available inside a known
// block, or already scheduled.
func (a *Allocator) AssignNow(ctx context.Context, value string, args AssignArgs) error {
	normalized := isbn.Normalize(value)
	if !isbn.Validate(normalized) {
		return fmt.Errorf("%w: %q", isbn.ErrInvalidISBN, value)
	}

	var from registry.Status
	var blockID string
	err := a.store.Mutate(ctx, func(state *registry.State) error {
		now := time.Now().UTC()
		if record, ok := state.Assignments[normalized]; ok {
			from = record.Status
			if !registry.CanTransition(record.Status, registry.StatusPrivatelyAssigned) {
				return fmt.Errorf("%w: %s is %s", registry.ErrInvalidTransition, normalized, record.Status)
			}
			record.Status = registry.StatusPrivatelyAssigned
			record.AssignedDate = &now
			if args.BookID != "" {
				record.BookID = args.BookID
			}
			if args.Title != "" {
				record.Title = args.Title
			}
			state.Assignments[normalized] = record
			blockID = record.BlockID
			return nil
		}

		block, ok := state.BlockFor(normalized)
		if !ok {
			return fmt.Errorf("%w: %s is outside every registered block", ErrNotFound, normalized)
		}
		from = registry.StatusAvailable
		blockID = block.ID
		state.Assignments[normalized] = registry.Assignment{
			ISBN:         normalized,
			BlockID:      block.ID,
			Status:       registry.StatusPrivatelyAssigned,
			BookID:       args.BookID,
			Title:        args.Title,
			AssignedDate: &now,
		}
		return nil
	})
	if err != nil {
		return err
	}

	a.logger.Info("isbn assigned",
		logging.String("isbn", normalized),
		logging.String("book_id", args.BookID))
	a.record(ctx, "assign", normalized, blockID, from, registry.StatusPrivatelyAssigned, args.BookID)
	return nil
}

// MarkPublished records that an ISBN has been reported to a distributor.
// Irreversible; only privately assigned records qualify.
func (a *Allocator) MarkPublished(ctx context.Context, value string) error {
	normalized := isbn.Normalize(value)

	var blockID string
	err := a.store.Mutate(ctx, func(state *registry.State) error {
		record, ok := state.Assignments[normalized]
		if !ok {
			return fmt.Errorf("%w: %s", ErrNotFound, normalized)
		}
		if record.Status == registry.StatusPubliclyAssigned {
			return fmt.Errorf("%w: %s", ErrPublished, normalized)
		}
		if !registry.CanTransition(record.Status, registry.StatusPubliclyAssigned) {
			return fmt.Errorf("%w: %s is %s, want %s", registry.ErrInvalidTransition,
				normalized, record.Status, registry.StatusPrivatelyAssigned)
		}
		now := time.Now().UTC()
		record.Status = registry.StatusPubliclyAssigned
		record.PublishedDate = &now
		state.Assignments[normalized] = record
		blockID = record.BlockID
		return nil
	})
	if err != nil {
		return err
	}

	a.logger.Info("isbn published", logging.String("isbn", normalized))
	a.record(ctx, "publish", normalized, blockID, registry.StatusPrivatelyAssigned, registry.StatusPubliclyAssigned, "")
	return nil
}

// Release returns a scheduled, privately assigned, or reserved number to the
// available pool by deleting its record. Published numbers can never be
// released.
func (a *Allocator) Release(ctx context.Context, value, reason string) error {
	normalized := isbn.Normalize(value)

	var from registry.Status
	var blockID string
	err := a.store.Mutate(ctx, func(state *registry.State) error {
		record, ok := state.Assignments[normalized]
		if !ok {
			return fmt.Errorf("%w: %s", ErrNotFound, normalized)
		}
		if record.Status == registry.StatusPubliclyAssigned {
			return fmt.Errorf("%w: %s cannot be released", ErrPublished, normalized)
		}
		if !registry.CanTransition(record.Status, registry.StatusAvailable) {
			return fmt.Errorf("%w: %s is %s", registry.ErrInvalidTransition, normalized, record.Status)
		}
		from = record.Status
		blockID = record.BlockID
		delete(state.Assignments, normalized)
		return nil
	})
	if err != nil {
		return err
	}

	a.logger.Info("isbn released",
		logging.String("isbn", normalized),
		logging.String("reason", reason))
	a.record(ctx, "release", normalized, blockID, from, registry.StatusAvailable, reason)
	return nil
}

// Reserve withholds an available number from automatic allocation.
func (a *Allocator) Reserve(ctx context.Context, value, reason string) error {
	normalized := isbn.Normalize(value)
	if !isbn.Validate(normalized) {
		return fmt.Errorf("%w: %q", isbn.ErrInvalidISBN, value)
	}

	var blockID string
	err := a.store.Mutate(ctx, func(state *registry.State) error {
		if record, ok := state.Assignments[normalized]; ok {
			return fmt.Errorf("%w: %s is %s, only available numbers can be reserved",
				registry.ErrInvalidTransition, normalized, record.Status)
		}
		block, ok := state.BlockFor(normalized)
		if !ok {
			return fmt.Errorf("%w: %s is outside every registered block", ErrNotFound, normalized)
		}
		blockID = block.ID
		state.Assignments[normalized] = registry.Assignment{
			ISBN:              normalized,
			BlockID:           block.ID,
			Status:            registry.StatusReserved,
			ReservationReason: reason,
		}
		return nil
	})
	if err != nil {
		return err
	}

	a.logger.Info("isbn reserved",
		logging.String("isbn", normalized),
		logging.String("reason", reason))
	a.record(ctx, "reserve", normalized, blockID, registry.StatusAvailable, registry.StatusReserved, reason)
	return nil
}

// UpdateFields selects the non-status metadata to rewrite on a record. Nil
// pointers leave the current value untouched.
type UpdateFields struct {
	BookID        *string
	Title         *string
	ScheduledDate *string
	Priority      *int
	Notes         *string
}

// Update mutates non-status metadata on an existing record. Published
// records accept only note changes.
func (a *Allocator) Update(ctx context.Context, value string, fields UpdateFields) error {
	normalized := isbn.Normalize(value)
	if fields.ScheduledDate != nil && *fields.ScheduledDate != "" {
		if _, err := time.Parse(DateLayout, *fields.ScheduledDate); err != nil {
			return fmt.Errorf("scheduled date %q: must be YYYY-MM-DD", *fields.ScheduledDate)
		}
	}
	if fields.Priority != nil && *fields.Priority <= 0 {
		return fmt.Errorf("priority must be positive, got %d", *fields.Priority)
	}

	err := a.store.Mutate(ctx, func(state *registry.State) error {
		record, ok := state.Assignments[normalized]
		if !ok {
			return fmt.Errorf("%w: %s", ErrNotFound, normalized)
		}
		if record.Status.Terminal() {
			if fields.BookID != nil || fields.Title != nil || fields.ScheduledDate != nil || fields.Priority != nil {
				return fmt.Errorf("%w: %s accepts only note updates", ErrPublished, normalized)
			}
		}
		if fields.BookID != nil {
			record.BookID = *fields.BookID
		}
		if fields.Title != nil {
			record.Title = *fields.Title
		}
		if fields.ScheduledDate != nil {
			record.ScheduledDate = *fields.ScheduledDate
		}
		if fields.Priority != nil {
			record.Priority = *fields.Priority
		}
		if fields.Notes != nil {
			record.Notes = *fields.Notes
		}
		state.Assignments[normalized] = record
		return nil
	})
	if err != nil {
		return err
	}

	a.logger.Info("assignment updated", logging.String("isbn", normalized))
	a.record(ctx, "update", normalized, "", "", "", "")
	return nil
}
