// Package bulkload schedules a caller-provided batch of assignments from a
// CSV file. Rows are validated independently and failures never abort the
// batch; all surviving rows land in one store commit.
package bulkload

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"shelfmark/internal/allocator"
	"shelfmark/internal/logging"
)

// expected CSV columns; title, book_id, and date are required per row, the
// rest are optional.
var columns = []string{"title", "book_id", "date", "imprint", "publisher", "format", "priority", "notes"}

// RowError ties a failure to its 1-based line in the input file.
type RowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

func (e RowError) String() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// Report aggregates the batch outcome.
type Report struct {
	Scheduled int        `json:"scheduled"`
	Failed    int        `json:"failed"`
	ISBNs     []string   `json:"isbns,omitempty"`
	Errors    []RowError `json:"errors,omitempty"`
}

// Loader parses CSV batches and schedules them through an allocator.
type Loader struct {
	alloc  *allocator.Allocator
	logger *slog.Logger
	caser  cases.Caser
}

// New constructs a loader.
func New(alloc *allocator.Allocator, logger *slog.Logger) (*Loader, error) {
	if alloc == nil {
		return nil, errors.New("loader requires an allocator")
	}
	return &Loader{
		alloc:  alloc,
		logger: logging.NewComponentLogger(logger, "bulkload"),
		caser:  cases.Title(language.Und),
	}, nil
}

// normalizeTitle title-cases entries that arrive fully lower- or upper-cased;
// mixed-case titles pass through untouched.
func (l *Loader) normalizeTitle(title string) string {
	trimmed := strings.TrimSpace(title)
	if trimmed == strings.ToLower(trimmed) || trimmed == strings.ToUpper(trimmed) {
		return l.caser.String(trimmed)
	}
	return trimmed
}

type parsedRow struct {
	line int
	req  allocator.ScheduleRequest
}

func (l *Loader) parse(r io.Reader) ([]parsedRow, []RowError, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read batch header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"title", "book_id"} {
		if _, ok := index[required]; !ok {
			return nil, nil, fmt.Errorf("batch header missing %q column (expected %s)", required, strings.Join(columns, ","))
		}
	}

	cell := func(record []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var (
		rows    []parsedRow
		rowErrs []RowError
	)
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Message: err.Error()})
			continue
		}

		req := allocator.ScheduleRequest{
			Title:         l.normalizeTitle(cell(record, "title")),
			BookID:        cell(record, "book_id"),
			ScheduledDate: cell(record, "date"),
			Imprint:       cell(record, "imprint"),
			Publisher:     cell(record, "publisher"),
			Notes:         cell(record, "notes"),
		}
		if format := cell(record, "format"); format != "" {
			if req.Notes != "" {
				req.Notes += "; "
			}
			req.Notes += "format: " + format
		}
		if raw := cell(record, "priority"); raw != "" {
			priority, err := strconv.Atoi(raw)
			if err != nil || priority <= 0 {
				rowErrs = append(rowErrs, RowError{Line: line, Message: fmt.Sprintf("priority %q: must be a positive integer", raw)})
				continue
			}
			req.Priority = priority
		}
		rows = append(rows, parsedRow{line: line, req: req})
	}
	return rows, rowErrs, nil
}

// Load parses the batch and schedules every valid row in a single commit.
// The returned report carries one issued ISBN per scheduled row, in input
// order, and a line-tagged error for each rejected row.
func (l *Loader) Load(ctx context.Context, r io.Reader) (Report, error) {
	rows, rowErrs, err := l.parse(r)
	if err != nil {
		return Report{}, err
	}

	report := Report{Errors: rowErrs, Failed: len(rowErrs)}
	if len(rows) > 0 {
		reqs := make([]allocator.ScheduleRequest, len(rows))
		for i, row := range rows {
			reqs[i] = row.req
		}
		outcomes, err := l.alloc.ScheduleBatch(ctx, reqs)
		if err != nil {
			return Report{}, err
		}
		for _, outcome := range outcomes {
			if outcome.Err != nil {
				report.Failed++
				report.Errors = append(report.Errors, RowError{
					Line:    rows[outcome.Index].line,
					Message: outcome.Err.Error(),
				})
				continue
			}
			report.Scheduled++
			report.ISBNs = append(report.ISBNs, outcome.ISBN)
		}
	}

	l.logger.Info("batch loaded",
		logging.Int("scheduled", report.Scheduled),
		logging.Int("failed", report.Failed))
	return report, nil
}
