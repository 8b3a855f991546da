package registry

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a materialized ISBN record.
type Status string

const (
	// StatusAvailable is the implicit status of any in-range number with no
	// materialized record. Records are never persisted with this status;
	// releasing a record deletes it.
	StatusAvailable Status = "available"

	StatusScheduled         Status = "scheduled"
	StatusPrivatelyAssigned Status = "privately_assigned"
	StatusPubliclyAssigned  Status = "publicly_assigned"
	StatusReserved          Status = "reserved"
)

var allStatuses = []Status{
	StatusAvailable,
	StatusScheduled,
	StatusPrivatelyAssigned,
	StatusPubliclyAssigned,
	StatusReserved,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

type statusTransition struct {
	from Status
	to   Status
}

// legalTransitions is the complete transition table. PubliclyAssigned is
// terminal: it never appears as a from state.
var legalTransitions = []statusTransition{
	{from: StatusAvailable, to: StatusScheduled},
	{from: StatusAvailable, to: StatusPrivatelyAssigned},
	{from: StatusScheduled, to: StatusPrivatelyAssigned},
	{from: StatusPrivatelyAssigned, to: StatusPubliclyAssigned},
	{from: StatusScheduled, to: StatusAvailable},
	{from: StatusPrivatelyAssigned, to: StatusAvailable},
	{from: StatusAvailable, to: StatusReserved},
	{from: StatusReserved, to: StatusAvailable},
}

var transitionSet = func() map[statusTransition]struct{} {
	set := make(map[statusTransition]struct{}, len(legalTransitions))
	for _, tr := range legalTransitions {
		set[tr] = struct{}{}
	}
	return set
}()

// CanTransition reports whether moving a record from one status to another is
// legal through the normal allocation API.
func CanTransition(from, to Status) bool {
	_, ok := transitionSet[statusTransition{from: from, to: to}]
	return ok
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// Terminal reports whether no further transition out of the status is
// permitted.
func (s Status) Terminal() bool {
	return s == StatusPubliclyAssigned
}

// Block is a contiguous numeric range of ISBN sequence numbers owned by a
// publisher or one of its imprints. Start and End are inclusive.
type Block struct {
	ID            string    `json:"block_id"`
	Prefix        string    `json:"prefix"`
	PublisherCode string    `json:"publisher_code"`
	ImprintCode   string    `json:"imprint_code,omitempty"`
	Start         int       `json:"start_number"`
	End           int       `json:"end_number"`
	Nested        bool      `json:"nested,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Total returns the number of slots in the block.
func (b Block) Total() int {
	return b.End - b.Start + 1
}

// Contains reports whether a sequence number falls inside the block range.
func (b Block) Contains(seq int) bool {
	return seq >= b.Start && seq <= b.End
}

// ImprintScoped reports whether the block is scoped to a specific imprint.
func (b Block) ImprintScoped() bool {
	return strings.TrimSpace(b.ImprintCode) != ""
}

// Matches reports whether the block qualifies for a request naming the given
// publisher and imprint. Empty request fields match any block; a requested
// imprint only matches blocks scoped to that imprint.
func (b Block) Matches(publisher, imprint string) bool {
	if publisher != "" && b.PublisherCode != publisher {
		return false
	}
	if imprint != "" && b.ImprintCode != imprint {
		return false
	}
	return true
}

// Assignment is a materialized ISBN record. Only non-available numbers are
// stored; see Status for the sparse-representation rule.
type Assignment struct {
	ISBN              string     `json:"isbn13"`
	BlockID           string     `json:"block_id"`
	Status            Status     `json:"status"`
	BookID            string     `json:"book_id,omitempty"`
	Title             string     `json:"title,omitempty"`
	ScheduledDate     string     `json:"scheduled_date,omitempty"`
	AssignedDate      *time.Time `json:"assigned_date,omitempty"`
	PublishedDate     *time.Time `json:"published_date,omitempty"`
	ReservationReason string     `json:"reservation_reason,omitempty"`
	Priority          int        `json:"priority,omitempty"`
	Notes             string     `json:"notes,omitempty"`
}

// Utilization captures the derived slot counts for a block.
type Utilization struct {
	Total     int `json:"total"`
	Used      int `json:"used"`
	Reserved  int `json:"reserved"`
	Scheduled int `json:"scheduled"`
	Available int `json:"available"`
}
