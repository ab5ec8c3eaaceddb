package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"score-wallet/internal/cache"
	"score-wallet/internal/domain"
	"score-wallet/internal/errors"
	"score-wallet/internal/signature"
)

const balancesCacheTTL = 60 * time.Second

func balancesCacheKey(userID int64) string {
	return fmt.Sprintf("balances:user:%d", userID)
}

// WalletService owns every balance mutation. Nothing else writes accounts or
// payment records.
type WalletService struct {
	store    domain.Datastore
	verifier *signature.Verifier
	cache    *cache.Cache
	logger   *slog.Logger
}

func NewWalletService(store domain.Datastore, verifier *signature.Verifier, c *cache.Cache, logger *slog.Logger) *WalletService {
	return &WalletService{
		store:    store,
		verifier: verifier,
		cache:    c,
		logger:   logger,
	}
}

// Credit applies a signed webhook top-up: verify signature, reject replayed
// transaction ids, then increment the balance and append the payment record
// in one database transaction. Either both writes land or neither does.
func (s *WalletService) Credit(user *domain.User, n domain.PaymentNotification) (*domain.Payment, decimal.Decimal, error) {
	s.logger.Info("Processing credit",
		"transaction_id", n.TransactionID,
		"account_id", n.AccountID,
		"user_id", n.UserID,
		"amount", n.Amount)

	if !user.Active {
		return nil, decimal.Zero, errors.ErrUserDisabled
	}
	if !n.Amount.IsPositive() {
		return nil, decimal.Zero, errors.ErrInvalidAmount
	}
	if n.AccountID <= 0 {
		return nil, decimal.Zero, errors.ErrInvalidAccountID
	}
	if n.TransactionID == "" {
		return nil, decimal.Zero, errors.NewAppError(errors.InvalidInput, "transaction id is required")
	}

	if !s.verifier.Verify(n) {
		s.logger.Warn("Rejected credit with invalid signature", "transaction_id", n.TransactionID)
		return nil, decimal.Zero, errors.ErrInvalidSignature
	}

	// Fast-path replay detection. The unique index on transaction_id inside
	// the transaction below is the authoritative check; this just avoids
	// taking the row lock for the common webhook-redelivery case.
	existing, err := s.store.Payments().GetPaymentByTransactionID(n.TransactionID)
	if err != nil {
		return nil, decimal.Zero, err
	}
	if existing != nil {
		return nil, decimal.Zero, errors.ErrDuplicateTransaction
	}

	account, err := s.store.Accounts().GetOwnedAccount(n.AccountID, n.UserID)
	if err != nil {
		return nil, decimal.Zero, err
	}

	payment := &domain.Payment{
		ID:            uuid.New(),
		TransactionID: n.TransactionID,
		AccountID:     account.ID,
		UserID:        account.UserID,
		Amount:        n.Amount,
		Signature:     n.Signature,
	}

	var newBalance decimal.Decimal
	err = s.store.WithTransaction(func(tx domain.Datastore) error {
		balance, err := tx.Accounts().CreditBalance(account.ID, n.Amount)
		if err != nil {
			return err
		}
		newBalance = balance
		return tx.Payments().CreatePayment(payment)
	})
	if err != nil {
		s.logger.Error("Credit failed", "transaction_id", n.TransactionID, "error", err)
		return nil, decimal.Zero, err
	}

	s.invalidateBalances(account.UserID)
	s.logger.Info("Credit completed",
		"transaction_id", n.TransactionID,
		"account_id", account.ID,
		"new_balance", newBalance)
	return payment, newBalance, nil
}

// Withdraw debits an owned account. The row is locked before the balance
// check, so two concurrent withdrawals cannot both pass it.
func (s *WalletService) Withdraw(user *domain.User, accountID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	if !user.Active {
		return decimal.Zero, errors.ErrUserDisabled
	}
	if !amount.IsPositive() {
		return decimal.Zero, errors.ErrInvalidAmount
	}
	if accountID <= 0 {
		return decimal.Zero, errors.ErrInvalidAccountID
	}

	var newBalance decimal.Decimal
	err := s.store.WithTransaction(func(tx domain.Datastore) error {
		account, err := tx.Accounts().GetOwnedAccountForUpdate(accountID, user.ID)
		if err != nil {
			return err
		}
		if account.Balance.LessThan(amount) {
			return errors.ErrInsufficientFunds
		}
		balance, err := tx.Accounts().DebitBalance(account.ID, amount)
		if err != nil {
			return err
		}
		newBalance = balance
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}

	s.invalidateBalances(user.ID)
	s.logger.Info("Withdrawal completed", "account_id", accountID, "user_id", user.ID, "new_balance", newBalance)
	return newBalance, nil
}

// GetBalances returns the user's accounts as an account id -> balance map.
// A user with no accounts gets an empty map, not an error.
func (s *WalletService) GetBalances(userID int64) (map[int64]decimal.Decimal, error) {
	ctx := context.Background()
	key := balancesCacheKey(userID)

	balances := make(map[int64]decimal.Decimal)
	if found, err := s.cache.Get(ctx, key, &balances); err == nil && found {
		return balances, nil
	}

	accounts, err := s.store.Accounts().ListAccountsByOwner(userID)
	if err != nil {
		return nil, err
	}
	balances = make(map[int64]decimal.Decimal, len(accounts))
	for _, account := range accounts {
		balances[account.ID] = account.Balance
	}

	if err := s.cache.Set(ctx, key, balances, balancesCacheTTL); err != nil {
		s.logger.Warn("Failed to cache balances", "user_id", userID, "error", err)
	}
	return balances, nil
}

// CreateAccount opens an additional zero-balance account for the user. There
// is no per-user limit.
func (s *WalletService) CreateAccount(user *domain.User) (*domain.Account, error) {
	if !user.Active {
		return nil, errors.ErrUserDisabled
	}

	account := &domain.Account{
		UserID:  user.ID,
		Balance: decimal.Zero,
	}
	if err := s.store.Accounts().CreateAccount(account); err != nil {
		return nil, err
	}

	s.invalidateBalances(user.ID)
	return account, nil
}

// DeleteAccounts removes every account the user owns together with the
// accounts' payment records, in one transaction. The FK cascade in the schema
// is a backstop; the deletes are explicit.
func (s *WalletService) DeleteAccounts(user *domain.User) error {
	if !user.Active {
		return errors.ErrUserDisabled
	}

	err := s.store.WithTransaction(func(tx domain.Datastore) error {
		if _, err := tx.Payments().DeletePaymentsByOwner(user.ID); err != nil {
			return err
		}
		deleted, err := tx.Accounts().DeleteAccountsByOwner(user.ID)
		if err != nil {
			return err
		}
		if deleted == 0 {
			return errors.ErrAccountNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidateBalances(user.ID)
	s.logger.Info("Accounts deleted", "user_id", user.ID)
	return nil
}

// ListPayments returns the user's payment history, newest first.
func (s *WalletService) ListPayments(userID int64) ([]domain.Payment, error) {
	return s.store.Payments().ListPaymentsByUser(userID)
}

// ListAllPayments returns every payment record. Admin-only at the routing
// layer.
func (s *WalletService) ListAllPayments() ([]domain.Payment, error) {
	return s.store.Payments().ListPayments()
}

func (s *WalletService) invalidateBalances(userID int64) {
	if err := s.cache.Delete(context.Background(), balancesCacheKey(userID)); err != nil {
		s.logger.Warn("Failed to invalidate balances cache", "user_id", userID, "error", err)
	}
}
