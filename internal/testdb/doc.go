//go:build integration

// Package testdb provides helpers for PostgreSQL integration tests.
//
// Tests share one migrated database and isolate themselves by running inside
// a transaction that is always rolled back:
//
//	func TestSomething(t *testing.T) {
//	    db := testdb.GetTestDBWithT(t)
//	    testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//	        users := postgres.NewUserStore(tx, nil)
//	        // ...
//	    })
//	}
//
// The database URL is read from REIMBURSE_TEST_DB_URL, DATABASE_URL or
// REIMBURSE_DATABASE_URL, in that order. Tests are skipped when none is set.
package testdb
