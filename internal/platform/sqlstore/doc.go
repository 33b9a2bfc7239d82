// Package sqlstore implements the store interfaces on database/sql.
//
// The SQL is written once and shared by the PostgreSQL and SQLite backends.
// Engine differences (error classification, row locking) are supplied by a
// Dialect. Placeholders use the $N form, numbered in order of first
// appearance, which both pgx and go-sqlite3 bind positionally.
package sqlstore
