// Package registry holds the ISBN inventory data model: publisher blocks,
// materialized assignment records, and the status transition table.
//
// Assignments live in one flat map keyed by ISBN; blocks carry only numeric
// bounds and derive membership by containment. Any in-range number with no
// record is implicitly available. Treat this package as the single source of
// truth for lifecycle semantics; new statuses must be added to the transition
// table here and nowhere else.
package registry
