// Package sqlite provides the SQLite backend for the store interfaces, used
// for single-file development databases and for store tests. It wraps
// mattn/go-sqlite3 and supplies the matching sqlstore.Dialect.
package sqlite
