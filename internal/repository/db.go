package repository

import (
	"database/sql"
	"database/sql/driver"
	"errors"

	"github.com/lib/pq"

	apperrors "score-wallet/internal/errors"
)

// SQLExecutor represents both sql.DB and sql.Tx
type SQLExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// DB represents a database that can begin transactions
type DB interface {
	SQLExecutor
	Begin() (*sql.Tx, error)
}

// Ensure sql.DB implements DB interface
var _ DB = (*sql.DB)(nil)

// TxWrapper wraps sql.Tx to implement SQLExecutor
type TxWrapper struct {
	*sql.Tx
}

func (t *TxWrapper) Exec(query string, args ...interface{}) (sql.Result, error) {
	return t.Tx.Exec(query, args...)
}

func (t *TxWrapper) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return t.Tx.Query(query, args...)
}

func (t *TxWrapper) QueryRow(query string, args ...interface{}) *sql.Row {
	return t.Tx.QueryRow(query, args...)
}

// isUniqueViolation reports whether err is a Postgres unique_violation on the
// given constraint. An empty constraint matches any unique violation.
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	if pqErr.Code != "23505" {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}

// storageError classifies a driver error. Connection-level failures map to
// StorageUnavailable so callers know the operation is safe to retry;
// everything else is internal and never leaks query detail to the client.
func storageError(message string, err error) *apperrors.AppError {
	if errors.Is(err, driver.ErrBadConn) {
		return apperrors.ErrStorageUnavailable
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// Class 08 - connection exceptions, 57 - operator intervention
		// (shutdown, crash recovery).
		if len(pqErr.Code) >= 2 && (pqErr.Code[:2] == "08" || pqErr.Code[:2] == "57") {
			return apperrors.ErrStorageUnavailable
		}
	}
	return apperrors.NewAppError(apperrors.InternalError, message).WithDetails(err.Error())
}
