// Package history stores probe results in SQLite so runs can be compared.
//
// Every finished iteration becomes one row in the samples table, keyed by
// run ID and iteration index. The database lives at <dir>/fpprobe.db and
// uses modernc.org/sqlite, a CGO-free driver, in WAL mode.
//
// History is best effort: the runner logs a failed save and carries on.
package history
