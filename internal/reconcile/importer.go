package reconcile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"shelfmark/internal/journal"
	"shelfmark/internal/logging"
	"shelfmark/internal/registry"
	"shelfmark/internal/store"
)

// ErrConflict marks a disagreement between the external snapshot and an
// actively held local record. Conflicts are reported, never fatal.
var ErrConflict = errors.New("reconciliation conflict")

// Conflict describes one disagreement. It satisfies error and unwraps to
// ErrConflict.
type Conflict struct {
	ISBN        string          `json:"isbn13"`
	LocalStatus registry.Status `json:"local_status"`
	Detail      string          `json:"detail"`
}

func (c Conflict) Error() string {
	return fmt.Sprintf("%s: locally %s, %s", c.ISBN, c.LocalStatus, c.Detail)
}

func (c Conflict) Unwrap() error { return ErrConflict }

// Report aggregates the outcome of one snapshot import.
type Report struct {
	Added     int        `json:"added"`
	Updated   int        `json:"updated"`
	Skipped   int        `json:"skipped"`
	Conflicts []Conflict `json:"conflicts,omitempty"`
}

// Importer applies external snapshots to the store. It holds the only path
// that may force a record into publicly_assigned from states the normal
// transition table forbids.
type Importer struct {
	store   *store.Store
	journal *journal.Journal
	logger  *slog.Logger
	actor   string
}

// ImporterOption customizes an Importer.
type ImporterOption func(*Importer)

// WithJournal attaches an audit journal; forced publications are recorded
// there after the commit.
func WithJournal(j *journal.Journal) ImporterOption {
	return func(imp *Importer) {
		imp.journal = j
	}
}

// WithActor overrides the actor recorded on journal entries.
func WithActor(actor string) ImporterOption {
	return func(imp *Importer) {
		if actor != "" {
			imp.actor = actor
		}
	}
}

// NewImporter constructs an importer over the given store.
func NewImporter(st *store.Store, logger *slog.Logger, opts ...ImporterOption) (*Importer, error) {
	if st == nil {
		return nil, errors.New("importer requires a store")
	}
	actor := os.Getenv("USER")
	if actor == "" {
		actor = "unknown"
	}
	imp := &Importer{
		store:  st,
		logger: logging.NewComponentLogger(logger, "reconcile"),
		actor:  actor,
	}
	for _, opt := range opts {
		opt(imp)
	}
	return imp, nil
}

type forcedChange struct {
	isbn    string
	blockID string
	from    registry.Status
}

// Import merges the snapshot rows into the store in one atomic commit.
// External "used" facts win: used rows without a local record are added as
// publicly assigned, used rows held in any pre-publication state are forced
// public. Rows the registrar still reports as unused never downgrade a local
// record. Re-importing an unchanged snapshot yields Updated == 0.
func (imp *Importer) Import(ctx context.Context, rows []Row) (Report, error) {
	var (
		report Report
		forced []forcedChange
	)
	err := imp.store.Mutate(ctx, func(state *registry.State) error {
		report = Report{}
		forced = forced[:0]
		now := time.Now().UTC()

		for _, row := range rows {
			record, exists := state.Assignments[row.ISBN]

			if !row.Used {
				if exists && record.Status == registry.StatusPubliclyAssigned {
					// A periodic export lags behind production; the local
					// record is fresher. Report, never downgrade.
					imp.logger.Warn("external snapshot lags local publication",
						logging.String("isbn", row.ISBN))
					report.Conflicts = append(report.Conflicts, Conflict{
						ISBN:        row.ISBN,
						LocalStatus: record.Status,
						Detail:      "externally reported available",
					})
				}
				continue
			}

			if exists {
				if record.Status == registry.StatusPubliclyAssigned {
					continue
				}
				if record.Status == registry.StatusScheduled || record.Status == registry.StatusPrivatelyAssigned {
					if row.BookID == "" || row.BookID != record.BookID {
						report.Conflicts = append(report.Conflicts, Conflict{
							ISBN:        row.ISBN,
							LocalStatus: record.Status,
							Detail:      fmt.Sprintf("externally used (external ref %q, local book %q)", row.BookID, record.BookID),
						})
					}
				}
				forced = append(forced, forcedChange{isbn: row.ISBN, blockID: record.BlockID, from: record.Status})
				record.Status = registry.StatusPubliclyAssigned
				record.PublishedDate = &now
				state.Assignments[row.ISBN] = record
				report.Updated++
				continue
			}

			block, ok := state.BlockFor(row.ISBN)
			if !ok {
				imp.logger.Warn("snapshot isbn outside every registered block",
					logging.String("isbn", row.ISBN))
				report.Skipped++
				continue
			}
			forced = append(forced, forcedChange{isbn: row.ISBN, blockID: block.ID, from: registry.StatusAvailable})
			state.Assignments[row.ISBN] = registry.Assignment{
				ISBN:          row.ISBN,
				BlockID:       block.ID,
				Status:        registry.StatusPubliclyAssigned,
				BookID:        row.BookID,
				PublishedDate: &now,
			}
			report.Added++
		}
		return nil
	})
	if err != nil {
		return Report{}, err
	}

	for _, change := range forced {
		imp.record(ctx, change)
	}

	imp.logger.Info("snapshot imported",
		logging.Int("added", report.Added),
		logging.Int("updated", report.Updated),
		logging.Int("conflicts", len(report.Conflicts)),
		logging.Int("skipped", report.Skipped))
	return report, nil
}

// ImportSnapshot parses and imports a CSV snapshot in one call. Rows the
// parser could not recognize are folded into the report's skip count.
func (imp *Importer) ImportSnapshot(ctx context.Context, r io.Reader) (Report, error) {
	rows, skipped, err := ParseSnapshot(r)
	if err != nil {
		return Report{}, err
	}
	report, err := imp.Import(ctx, rows)
	if err != nil {
		return Report{}, err
	}
	report.Skipped += skipped
	return report, nil
}

func (imp *Importer) record(ctx context.Context, change forcedChange) {
	if imp.journal == nil {
		return
	}
	entry := journal.Entry{
		Op:         "reconcile",
		ISBN:       change.isbn,
		BlockID:    change.blockID,
		FromStatus: string(change.from),
		ToStatus:   string(registry.StatusPubliclyAssigned),
		Actor:      imp.actor,
		Detail:     "external snapshot",
	}
	if err := imp.journal.Append(ctx, entry); err != nil {
		imp.logger.Warn("journal append failed",
			logging.String("isbn", change.isbn),
			logging.Error(err))
	}
}
