// Package database provides SQLite-based storage for SchoolScan.
//
// The ReportDB stores:
//   - Website extractions, used as a cache between runs
//   - Assessments, kept as history for each institution
//
// Design decision: SQLite (via modernc.org/sqlite) keeps the whole store in
// one file under the XDG data directory and needs no CGO. WAL mode lets a
// report be read while a batch run is writing.
package database
