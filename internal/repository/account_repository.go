package repository

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"score-wallet/internal/domain"
	"score-wallet/internal/errors"
)

type accountRepository struct {
	db     SQLExecutor
	logger *slog.Logger
}

func NewAccountRepository(db SQLExecutor, logger *slog.Logger) domain.AccountRepository {
	return &accountRepository{
		db:     db,
		logger: logger,
	}
}

func (r *accountRepository) CreateAccount(account *domain.Account) error {
	query := `
		INSERT INTO accounts (user_id, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	now := time.Now()
	err := r.db.QueryRow(
		query,
		account.UserID,
		account.Balance.String(),
		now,
		now,
	).Scan(&account.ID)

	if err != nil {
		r.logger.Error("Failed to create account", "user_id", account.UserID, "error", err)
		return storageError("failed to create account", err)
	}

	account.CreatedAt = now
	account.UpdatedAt = now
	r.logger.Info("Account created successfully", "account_id", account.ID, "user_id", account.UserID)
	return nil
}

func (r *accountRepository) GetAccount(id int64) (*domain.Account, error) {
	query := `
		SELECT id, user_id, balance, created_at, updated_at
		FROM accounts WHERE id = $1
	`

	return r.scanAccount(query, id)
}

func (r *accountRepository) GetOwnedAccount(id, userID int64) (*domain.Account, error) {
	query := `
		SELECT id, user_id, balance, created_at, updated_at
		FROM accounts WHERE id = $1 AND user_id = $2
	`

	return r.scanAccount(query, id, userID)
}

func (r *accountRepository) GetOwnedAccountForUpdate(id, userID int64) (*domain.Account, error) {
	query := `
		SELECT id, user_id, balance, created_at, updated_at
		FROM accounts WHERE id = $1 AND user_id = $2 FOR UPDATE
	`

	return r.scanAccount(query, id, userID)
}

func (r *accountRepository) scanAccount(query string, args ...interface{}) (*domain.Account, error) {
	var account domain.Account
	var balanceStr string

	err := r.db.QueryRow(query, args...).Scan(
		&account.ID,
		&account.UserID,
		&balanceStr,
		&account.CreatedAt,
		&account.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrAccountNotFound
		}
		r.logger.Error("Failed to get account", "error", err)
		return nil, storageError("failed to get account", err)
	}

	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		r.logger.Error("Failed to parse balance", "account_id", account.ID, "balance_str", balanceStr, "error", err)
		return nil, storageError("failed to parse balance", err)
	}

	account.Balance = balance
	return &account, nil
}

func (r *accountRepository) ListAccountsByOwner(userID int64) ([]domain.Account, error) {
	query := `
		SELECT id, user_id, balance, created_at, updated_at
		FROM accounts WHERE user_id = $1 ORDER BY id
	`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		r.logger.Error("Failed to list accounts", "user_id", userID, "error", err)
		return nil, storageError("failed to list accounts", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		var account domain.Account
		var balanceStr string
		if err := rows.Scan(
			&account.ID,
			&account.UserID,
			&balanceStr,
			&account.CreatedAt,
			&account.UpdatedAt,
		); err != nil {
			return nil, storageError("failed to scan account", err)
		}
		balance, err := decimal.NewFromString(balanceStr)
		if err != nil {
			return nil, storageError("failed to parse balance", err)
		}
		account.Balance = balance
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("failed to iterate accounts", err)
	}

	return accounts, nil
}

// CreditBalance increments the balance in a single UPDATE. The row lock taken
// by the UPDATE serializes concurrent credits on the same account, so there is
// no read-modify-write window to lose.
func (r *accountRepository) CreditBalance(id int64, amount decimal.Decimal) (decimal.Decimal, error) {
	query := `
		UPDATE accounts
		SET balance = balance + $1, updated_at = $2
		WHERE id = $3
		RETURNING balance
	`

	return r.mutateBalance(query, amount, id, errors.ErrAccountNotFound)
}

// DebitBalance decrements the balance, refusing to go below zero. Callers
// hold the row lock via GetOwnedAccountForUpdate, so a zero-row result here
// means insufficient funds rather than a missing account.
func (r *accountRepository) DebitBalance(id int64, amount decimal.Decimal) (decimal.Decimal, error) {
	query := `
		UPDATE accounts
		SET balance = balance - $1, updated_at = $2
		WHERE id = $3 AND balance >= $1
		RETURNING balance
	`

	return r.mutateBalance(query, amount, id, errors.ErrInsufficientFunds)
}

func (r *accountRepository) mutateBalance(query string, amount decimal.Decimal, id int64, noRowErr *errors.AppError) (decimal.Decimal, error) {
	var balanceStr string
	err := r.db.QueryRow(query, amount.String(), time.Now(), id).Scan(&balanceStr)
	if err != nil {
		if err == sql.ErrNoRows {
			return decimal.Zero, noRowErr
		}
		r.logger.Error("Failed to update account balance", "account_id", id, "error", err)
		return decimal.Zero, storageError("failed to update account balance", err)
	}

	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return decimal.Zero, storageError("failed to parse balance", err)
	}

	r.logger.Info("Account balance updated", "account_id", id, "new_balance", balance)
	return balance, nil
}

func (r *accountRepository) DeleteAccountsByOwner(userID int64) (int64, error) {
	query := `DELETE FROM accounts WHERE user_id = $1`

	result, err := r.db.Exec(query, userID)
	if err != nil {
		r.logger.Error("Failed to delete accounts", "user_id", userID, "error", err)
		return 0, storageError("failed to delete accounts", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, storageError("failed to get rows affected", err)
	}

	r.logger.Info("Accounts deleted", "user_id", userID, "count", rowsAffected)
	return rowsAffected, nil
}
