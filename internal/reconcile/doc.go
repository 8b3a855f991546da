// Package reconcile merges an authoritative external snapshot of publicly
// used ISBNs into the local store.
//
// The snapshot is a vendor-exported spreadsheet with arbitrary columns; the
// importer sniffs out the ISBN column and a used/assigned indicator and
// processes every recognizable row. External "used" facts win: a number the
// registrar reports as publicly assigned is force-published locally even when
// the normal transition table would forbid it. The reverse never holds — a
// locally published record is never downgraded because an external export
// went stale.
//
// All row outcomes are buffered in memory and committed in a single store
// mutation, so a crash mid-import never leaves a partially applied snapshot.
package reconcile
