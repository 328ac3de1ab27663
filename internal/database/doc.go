// Package database stores parse reports in SQLite.
//
// Every successful run is written to the save_reports table together with
// its session name, file digest and category totals. The history command
// reads it back to compare the inventory of a session between runs.
//
// The database lives in a single file under the XDG data directory and is
// opened through modernc.org/sqlite, which needs no cgo.
package database
