// Package allocator is the lifecycle engine for ISBN assignments. Every
// mutating operation runs as one locked read-validate-write unit through the
// store, so a CLI process and a UI process can never double-issue a number.
//
// Status legality is delegated entirely to the registry transition table;
// this package decides which number to touch and with what metadata. The
// reconciler's force-publish path deliberately bypasses the table and lives
// in the reconcile package, not here.
package allocator
