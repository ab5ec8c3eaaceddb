package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment is an append-only record of a processed top-up. A record is never
// updated after insertion; it only disappears when its account is deleted.
type Payment struct {
	ID            uuid.UUID       `json:"id"`
	TransactionID string          `json:"transaction_id"`
	AccountID     int64           `json:"account_id"`
	UserID        int64           `json:"user_id"`
	Amount        decimal.Decimal `json:"amount"`
	Signature     string          `json:"-"`
	RecordedAt    time.Time       `json:"recorded_at"`
}

// PaymentNotification is the inbound webhook payload from the payment origin.
// TransactionID is the idempotency key and is assigned by the external system.
type PaymentNotification struct {
	TransactionID string          `json:"transaction_id"`
	AccountID     int64           `json:"account_id"`
	UserID        int64           `json:"user_id"`
	Amount        decimal.Decimal `json:"amount"`
	Signature     string          `json:"signature"`
}

type PaymentRepository interface {
	CreatePayment(payment *Payment) error
	GetPaymentByTransactionID(transactionID string) (*Payment, error)
	ListPaymentsByUser(userID int64) ([]Payment, error)
	ListPayments() ([]Payment, error)
	DeletePaymentsByOwner(userID int64) (int64, error)
}
