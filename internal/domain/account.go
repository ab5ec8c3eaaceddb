package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Account struct {
	ID        int64           `json:"account_id"`
	UserID    int64           `json:"user_id"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type AccountRepository interface {
	CreateAccount(account *Account) error
	GetAccount(id int64) (*Account, error)
	GetOwnedAccount(id, userID int64) (*Account, error)
	GetOwnedAccountForUpdate(id, userID int64) (*Account, error)
	ListAccountsByOwner(userID int64) ([]Account, error)
	CreditBalance(id int64, amount decimal.Decimal) (decimal.Decimal, error)
	DebitBalance(id int64, amount decimal.Decimal) (decimal.Decimal, error)
	DeleteAccountsByOwner(userID int64) (int64, error)
}
