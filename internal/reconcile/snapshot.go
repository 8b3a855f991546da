package reconcile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"shelfmark/internal/isbn"
)

// ErrNoISBNColumn indicates no header in the snapshot looks like it carries
// ISBNs.
var ErrNoISBNColumn = errors.New("no isbn column detected")

// ColumnMap records which snapshot columns carry the fields the importer
// needs. Indices are -1 when the column was not detected; only the ISBN
// column is mandatory.
type ColumnMap struct {
	ISBN   int
	Used   int
	BookID int
}

// Row is one normalized snapshot fact: an owned ISBN and whether the
// registrar reports it as publicly used. BookID is the external book
// reference when the snapshot carries one; it feeds conflict detection only.
type Row struct {
	ISBN   string
	Used   bool
	BookID string
}

var (
	isbnHeaders   = []string{"isbn", "ean", "identifier"}
	usedHeaders   = []string{"status", "used", "assigned", "in use", "in_use", "usage"}
	bookIDHeaders = []string{"book_id", "book id", "bookid", "reference", "sku", "title"}
)

// Sniff detects the ISBN, used-indicator, and book-reference columns from a
// vendor-defined header row. Matching is case-insensitive substring matching;
// the first hit per field wins. Only the ISBN column is required. When no
// used column exists the snapshot is treated as a list of used numbers and
// every row reads as used.
func Sniff(header []string) (ColumnMap, error) {
	cols := ColumnMap{ISBN: -1, Used: -1, BookID: -1}
	for i, raw := range header {
		name := strings.ToLower(strings.TrimSpace(raw))
		switch {
		case cols.ISBN == -1 && matchesAny(name, isbnHeaders):
			cols.ISBN = i
		case cols.Used == -1 && matchesAny(name, usedHeaders):
			cols.Used = i
		case cols.BookID == -1 && matchesAny(name, bookIDHeaders):
			cols.BookID = i
		}
	}
	if cols.ISBN == -1 {
		return ColumnMap{}, fmt.Errorf("%w in header %v", ErrNoISBNColumn, header)
	}
	return cols, nil
}

func matchesAny(name string, candidates []string) bool {
	for _, candidate := range candidates {
		if strings.Contains(name, candidate) {
			return true
		}
	}
	return false
}

// usedValue interprets a used-indicator cell. Unrecognized values report
// ok=false so the row can be skipped rather than guessed at.
func usedValue(raw string) (used, ok bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "yes", "y", "true", "1", "used", "assigned", "active", "published", "in use":
		return true, true
	case "no", "n", "false", "0", "available", "unused", "free", "":
		return false, true
	}
	return false, false
}

// ParseSnapshot reads a CSV snapshot, sniffs its columns from the first row,
// and returns the recognizable rows. Malformed rows (bad checksum,
// unreadable used indicator, too few cells) are counted and skipped, never
// fatal.
func ParseSnapshot(r io.Reader) ([]Row, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("read snapshot header: %w", err)
	}
	cols, err := Sniff(header)
	if err != nil {
		return nil, 0, err
	}

	var (
		rows    []Row
		skipped int
	)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			skipped++
			continue
		}
		if cols.ISBN >= len(record) {
			skipped++
			continue
		}

		value := isbn.Normalize(record[cols.ISBN])
		if !isbn.Validate(value) {
			skipped++
			continue
		}

		row := Row{ISBN: value, Used: true}
		if cols.Used != -1 {
			if cols.Used >= len(record) {
				skipped++
				continue
			}
			used, ok := usedValue(record[cols.Used])
			if !ok {
				skipped++
				continue
			}
			row.Used = used
		}
		if cols.BookID != -1 && cols.BookID < len(record) {
			row.BookID = strings.TrimSpace(record[cols.BookID])
		}
		rows = append(rows, row)
	}
	return rows, skipped, nil
}
