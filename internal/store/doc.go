// Package store provides a SQLite-backed offline ledger snapshot.
//
// A snapshot is imported once from a YAML fixture (ledger.Snapshot) and then
// served read-only through ledger.Client, so the resolver can run without a
// node. The store holds raw ledger state only:
//   - Objects: keyed ledger objects with owner and Move type
//   - Tables: table handles and their entries in native order
//   - Events: creation events, oldest first
//
// Resolved records are never written back.
//
// # Ordering
//
// Every table carries a seq column assigned at import. All reads order by
// seq, which reproduces the fixture's order and keeps enumeration
// deterministic.
//
// # Opening
//
// Open creates the database if needed and migrates it; the import path
// uses it. OpenReadOnly serves an existing snapshot with query_only set and
// refuses a schema version other than the current one, which is what the
// resolve command uses.
package store
