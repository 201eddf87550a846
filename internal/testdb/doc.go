// Package testdb provides helpers for PostgreSQL integration tests.
//
// Each test runs inside a transaction that is rolled back when it finishes,
// so tests can run in parallel against one database without cleanup:
//
//	func TestSomething(t *testing.T) {
//	    db := testdb.GetTestDBWithT(t)
//	    testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//	        taskStore := postgres.NewPostgresTaskStore(tx, nil)
//	        // ...
//	    })
//	}
//
// Tests are skipped when DATABASE_URL is not set.
package testdb
