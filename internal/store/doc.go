// Package store persists the inventory state as a single JSON file and
// guards every read-modify-write cycle with a cross-process advisory lock.
//
// Commits are atomic: the new state is written to a temp file, fsynced, and
// renamed over the canonical file, with up to backup_count rolling backups
// kept beside it. Loads validate the schema version and fall back to the
// newest valid backup on corruption.
//
// The lock wait is bounded; a timeout surfaces as ErrLockTimeout, which
// callers may retry. The store itself never retries.
package store
