// Package journal keeps an append-only audit trail of allocation mutations
// in SQLite: who moved which ISBN between which statuses and when.
//
// The journal is advisory. The JSON store remains the source of truth;
// append failures are reported to the caller and the allocator logs them
// without failing the mutation. Schema changes bump the version in
// journal.go; users delete the database to adopt the new schema.
package journal
