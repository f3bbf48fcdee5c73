// Package database provides the SQLite crawl ledger.
//
// The ledger stores one row per run (date range, output directory, final
// state and counters) and one row per translation processed in a run
// (its outcome and where it was written). It is what the status command
// reads; the record files and the tag dictionary remain the source of
// truth for resuming.
//
// SQLite is used through modernc.org/sqlite, a CGO-free driver, so the
// binary cross-compiles without a C toolchain.
package database
