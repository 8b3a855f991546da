// Package report derives read-only views over a store snapshot: per-block
// availability with utilization percentages and the upcoming scheduled
// assignments. Nothing here mutates state or takes a lock beyond the
// snapshot read the caller already performed.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"shelfmark/internal/registry"
)

const dateLayout = "2006-01-02"

// BlockAvailability is one block's derived counts.
type BlockAvailability struct {
	BlockID       string  `json:"block_id"`
	Prefix        string  `json:"prefix"`
	PublisherCode string  `json:"publisher_code"`
	ImprintCode   string  `json:"imprint_code,omitempty"`
	Start         int     `json:"start_number"`
	End           int     `json:"end_number"`
	Total         int     `json:"total"`
	Used          int     `json:"used"`
	Scheduled     int     `json:"scheduled"`
	Reserved      int     `json:"reserved"`
	Available     int     `json:"available"`
	PercentUsed   float64 `json:"percent_used"`
}

// AvailabilityReport aggregates every block plus pool-wide totals.
type AvailabilityReport struct {
	Blocks      []BlockAvailability  `json:"blocks"`
	Totals      registry.Utilization `json:"totals"`
	PercentUsed float64              `json:"percent_used"`
	GeneratedAt time.Time            `json:"generated_at"`
}

// Availability computes the per-block and aggregate counts. Block order
// follows registry.SortedBlocks so output is stable across runs.
func Availability(state *registry.State) AvailabilityReport {
	out := AvailabilityReport{GeneratedAt: time.Now().UTC()}
	for _, block := range state.SortedBlocks() {
		util, err := registry.BlockUtilization(state, block.ID)
		if err != nil {
			continue
		}
		out.Blocks = append(out.Blocks, BlockAvailability{
			BlockID:       block.ID,
			Prefix:        block.Prefix,
			PublisherCode: block.PublisherCode,
			ImprintCode:   block.ImprintCode,
			Start:         block.Start,
			End:           block.End,
			Total:         util.Total,
			Used:          util.Used,
			Scheduled:     util.Scheduled,
			Reserved:      util.Reserved,
			Available:     util.Available,
			PercentUsed:   percent(util.Used, util.Total),
		})
		out.Totals.Total += util.Total
		out.Totals.Used += util.Used
		out.Totals.Scheduled += util.Scheduled
		out.Totals.Reserved += util.Reserved
		out.Totals.Available += util.Available
	}
	out.PercentUsed = percent(out.Totals.Used, out.Totals.Total)
	return out
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

// UpcomingAssignment is one scheduled record falling inside the report
// window.
type UpcomingAssignment struct {
	ISBN          string `json:"isbn13"`
	BlockID       string `json:"block_id"`
	BookID        string `json:"book_id,omitempty"`
	Title         string `json:"title,omitempty"`
	ScheduledDate string `json:"scheduled_date"`
	Priority      int    `json:"priority"`
}

// Upcoming lists scheduled assignments dated within windowDays of now,
// ordered by date, then priority (1 first), then ISBN. Records without a
// parseable date are excluded.
func Upcoming(state *registry.State, now time.Time, windowDays int) []UpcomingAssignment {
	if windowDays <= 0 {
		windowDays = 30
	}
	start := now.Truncate(24 * time.Hour)
	end := start.AddDate(0, 0, windowDays)

	var out []UpcomingAssignment
	for _, record := range state.Assignments {
		if record.Status != registry.StatusScheduled {
			continue
		}
		date, err := time.Parse(dateLayout, record.ScheduledDate)
		if err != nil {
			continue
		}
		if date.Before(start) || date.After(end) {
			continue
		}
		out = append(out, UpcomingAssignment{
			ISBN:          record.ISBN,
			BlockID:       record.BlockID,
			BookID:        record.BookID,
			Title:         record.Title,
			ScheduledDate: record.ScheduledDate,
			Priority:      record.Priority,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].ScheduledDate != out[j].ScheduledDate {
			return out[i].ScheduledDate < out[j].ScheduledDate
		}
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].ISBN < out[j].ISBN
	})
	return out
}

// WriteJSON renders any report value as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// WriteCSV renders the availability report as CSV, one row per block plus a
// trailing totals row.
func WriteCSV(w io.Writer, r AvailabilityReport) error {
	writer := csv.NewWriter(w)
	header := []string{
		"block_id", "prefix", "publisher_code", "imprint_code",
		"start", "end", "total", "used", "scheduled", "reserved",
		"available", "percent_used",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, block := range r.Blocks {
		row := []string{
			block.BlockID,
			block.Prefix,
			block.PublisherCode,
			block.ImprintCode,
			strconv.Itoa(block.Start),
			strconv.Itoa(block.End),
			strconv.Itoa(block.Total),
			strconv.Itoa(block.Used),
			strconv.Itoa(block.Scheduled),
			strconv.Itoa(block.Reserved),
			strconv.Itoa(block.Available),
			strconv.FormatFloat(block.PercentUsed, 'f', 1, 64),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	totals := []string{
		"TOTAL", "", "", "", "", "",
		strconv.Itoa(r.Totals.Total),
		strconv.Itoa(r.Totals.Used),
		strconv.Itoa(r.Totals.Scheduled),
		strconv.Itoa(r.Totals.Reserved),
		strconv.Itoa(r.Totals.Available),
		strconv.FormatFloat(r.PercentUsed, 'f', 1, 64),
	}
	if err := writer.Write(totals); err != nil {
		return fmt.Errorf("write csv totals: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// WriteUpcomingCSV renders the upcoming-assignments list as CSV.
func WriteUpcomingCSV(w io.Writer, assignments []UpcomingAssignment) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"isbn13", "scheduled_date", "priority", "book_id", "title", "block_id"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, a := range assignments {
		row := []string{a.ISBN, a.ScheduledDate, strconv.Itoa(a.Priority), a.BookID, a.Title, a.BlockID}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
