package mocks

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

// NewTxDB returns a *sql.DB whose transactions are observed by sqlmock. It
// lets services that call store.RunInTransaction run against store mocks.
// Unmet expectations fail the test at cleanup.
func NewTxDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, sqlMock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := sqlMock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet transaction expectations: %v", err)
		}
		_ = db.Close()
	})
	return db, sqlMock
}

// ExpectCommit registers one transaction that commits.
func ExpectCommit(sqlMock sqlmock.Sqlmock) {
	sqlMock.ExpectBegin()
	sqlMock.ExpectCommit()
}

// ExpectRollback registers one transaction that rolls back.
func ExpectRollback(sqlMock sqlmock.Sqlmock) {
	sqlMock.ExpectBegin()
	sqlMock.ExpectRollback()
}
