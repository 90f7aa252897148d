// Package sqlstore persists content documents in SQLite and serves them as a
// content.Repository.
//
// The pure Go modernc.org/sqlite driver is used by default. Build with the
// cgo_sqlite tag to switch to github.com/mattn/go-sqlite3.
package sqlstore
