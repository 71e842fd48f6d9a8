// Package journal keeps an audit trail of tree evaluations.
//
// Each evaluation produces one Record: which tree ran, whether it succeeded,
// how many error records it produced, the encoded result and the local
// values it ran against with sensitive entries masked. Records are written
// by a Recorder through a bounded queue so the caller never waits on
// storage, and are kept in memory or in SQLite. Both SQLite drivers are
// supported: "sqlite" (modernc.org/sqlite, pure Go) and "sqlite3"
// (github.com/mattn/go-sqlite3, cgo).
//
// Old records are removed by a Pruner, optionally on a cron schedule.
package journal
