package repository

import (
	"database/sql"
	"log/slog"

	"score-wallet/internal/domain"
	"score-wallet/internal/errors"
)

// Store provides a unified interface for all repository operations with
// transaction support. It implements domain.Datastore.
type Store struct {
	executor SQLExecutor
	logger   *slog.Logger
}

var _ domain.Datastore = (*Store)(nil)

// NewStore creates a new Store instance
func NewStore(db *sql.DB, logger *slog.Logger) *Store {
	return &Store{
		executor: db,
		logger:   logger,
	}
}

// Users returns a UserRepository using the current executor
func (s *Store) Users() domain.UserRepository {
	return NewUserRepository(s.executor, s.logger)
}

// Accounts returns an AccountRepository using the current executor
func (s *Store) Accounts() domain.AccountRepository {
	return NewAccountRepository(s.executor, s.logger)
}

// Payments returns a PaymentRepository using the current executor
func (s *Store) Payments() domain.PaymentRepository {
	return NewPaymentRepository(s.executor, s.logger)
}

// WithTransaction executes a function within a database transaction. Either
// every write made through the callback's Datastore is committed, or none is.
func (s *Store) WithTransaction(fn func(domain.Datastore) error) error {
	// Only sql.DB can begin transactions
	db, ok := s.executor.(*sql.DB)
	if !ok {
		return errors.ErrCannotBeginTransaction
	}

	tx, err := db.Begin()
	if err != nil {
		return storageError("failed to begin transaction", err)
	}

	txStore := &Store{
		executor: &TxWrapper{Tx: tx},
		logger:   s.logger,
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(txStore); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}
