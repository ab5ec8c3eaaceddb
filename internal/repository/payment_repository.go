package repository

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"score-wallet/internal/domain"
	"score-wallet/internal/errors"
)

type paymentRepository struct {
	db     SQLExecutor
	logger *slog.Logger
}

func NewPaymentRepository(db SQLExecutor, logger *slog.Logger) domain.PaymentRepository {
	return &paymentRepository{
		db:     db,
		logger: logger,
	}
}

// CreatePayment appends a payment record. A unique violation on
// transaction_id means a concurrent copy of the same webhook already won the
// race; the caller must treat it as a duplicate, never retry the credit.
func (r *paymentRepository) CreatePayment(payment *domain.Payment) error {
	query := `
		INSERT INTO payments (id, transaction_id, account_id, user_id, amount, signature, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	now := time.Now()
	_, err := r.db.Exec(
		query,
		payment.ID,
		payment.TransactionID,
		payment.AccountID,
		payment.UserID,
		payment.Amount.String(),
		payment.Signature,
		now,
	)

	if err != nil {
		if isUniqueViolation(err, "idx_payments_transaction_id") {
			r.logger.Warn("Duplicate transaction id", "transaction_id", payment.TransactionID)
			return errors.ErrDuplicateTransaction
		}
		r.logger.Error("Failed to create payment record",
			"transaction_id", payment.TransactionID,
			"account_id", payment.AccountID,
			"error", err)
		return storageError("failed to create payment record", err)
	}

	payment.RecordedAt = now
	r.logger.Info("Payment recorded", "payment_id", payment.ID, "transaction_id", payment.TransactionID)
	return nil
}

// GetPaymentByTransactionID returns nil, nil when no record exists so the
// caller can distinguish "fresh transaction" from a lookup failure.
func (r *paymentRepository) GetPaymentByTransactionID(transactionID string) (*domain.Payment, error) {
	query := `
		SELECT id, transaction_id, account_id, user_id, amount, signature, recorded_at
		FROM payments WHERE transaction_id = $1
	`

	rows, err := r.db.Query(query, transactionID)
	if err != nil {
		r.logger.Error("Failed to get payment", "transaction_id", transactionID, "error", err)
		return nil, storageError("failed to get payment", err)
	}
	defer rows.Close()

	payments, err := r.collectPayments(rows)
	if err != nil {
		return nil, err
	}
	if len(payments) == 0 {
		return nil, nil
	}
	return &payments[0], nil
}

func (r *paymentRepository) ListPaymentsByUser(userID int64) ([]domain.Payment, error) {
	query := `
		SELECT id, transaction_id, account_id, user_id, amount, signature, recorded_at
		FROM payments WHERE user_id = $1 ORDER BY recorded_at DESC
	`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		r.logger.Error("Failed to list payments", "user_id", userID, "error", err)
		return nil, storageError("failed to list payments", err)
	}
	defer rows.Close()

	return r.collectPayments(rows)
}

func (r *paymentRepository) ListPayments() ([]domain.Payment, error) {
	query := `
		SELECT id, transaction_id, account_id, user_id, amount, signature, recorded_at
		FROM payments ORDER BY recorded_at DESC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		r.logger.Error("Failed to list payments", "error", err)
		return nil, storageError("failed to list payments", err)
	}
	defer rows.Close()

	return r.collectPayments(rows)
}

func (r *paymentRepository) collectPayments(rows *sql.Rows) ([]domain.Payment, error) {
	var payments []domain.Payment
	for rows.Next() {
		var payment domain.Payment
		var amountStr string
		if err := rows.Scan(
			&payment.ID,
			&payment.TransactionID,
			&payment.AccountID,
			&payment.UserID,
			&amountStr,
			&payment.Signature,
			&payment.RecordedAt,
		); err != nil {
			return nil, storageError("failed to scan payment", err)
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return nil, storageError("failed to parse amount", err)
		}
		payment.Amount = amount
		payments = append(payments, payment)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("failed to iterate payments", err)
	}

	return payments, nil
}

func (r *paymentRepository) DeletePaymentsByOwner(userID int64) (int64, error) {
	query := `DELETE FROM payments WHERE user_id = $1`

	result, err := r.db.Exec(query, userID)
	if err != nil {
		r.logger.Error("Failed to delete payments", "user_id", userID, "error", err)
		return 0, storageError("failed to delete payments", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, storageError("failed to get rows affected", err)
	}

	r.logger.Info("Payments deleted", "user_id", userID, "count", rowsAffected)
	return rowsAffected, nil
}
