package allocator

import "errors"

var (
	// ErrNotFound indicates an ISBN with no materialized record and no
	// containing block, or a record lookup that came up empty.
	ErrNotFound = errors.New("isbn not found")
	// ErrPoolExhausted indicates no qualifying block has an available slot.
	ErrPoolExhausted = errors.New("isbn pool exhausted")
	// ErrPublished indicates an attempt to release or rewrite a publicly
	// assigned record. Publication is terminal.
	ErrPublished = errors.New("isbn already published")
)
