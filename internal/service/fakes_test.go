package service

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"score-wallet/internal/domain"
	"score-wallet/internal/errors"
)

// fakeData is shared, mutex-guarded in-memory state. The mutex gives the
// fakes the same serialization guarantee the real store gets from row locks,
// which is what the concurrency tests lean on.
type fakeData struct {
	mu            sync.Mutex
	users         map[int64]domain.User
	accounts      map[int64]domain.Account
	payments      map[uuid.UUID]domain.Payment
	nextUserID    int64
	nextAccountID int64
}

func newFakeData() *fakeData {
	return &fakeData{
		users:         make(map[int64]domain.User),
		accounts:      make(map[int64]domain.Account),
		payments:      make(map[uuid.UUID]domain.Payment),
		nextUserID:    1,
		nextAccountID: 1,
	}
}

func (d *fakeData) snapshot() *fakeData {
	s := newFakeData()
	s.nextUserID = d.nextUserID
	s.nextAccountID = d.nextAccountID
	for k, v := range d.users {
		s.users[k] = v
	}
	for k, v := range d.accounts {
		s.accounts[k] = v
	}
	for k, v := range d.payments {
		s.payments[k] = v
	}
	return s
}

func (d *fakeData) restore(s *fakeData) {
	d.users = s.users
	d.accounts = s.accounts
	d.payments = s.payments
	d.nextUserID = s.nextUserID
	d.nextAccountID = s.nextAccountID
}

// fakeStore implements domain.Datastore over fakeData. A transactional view
// shares the data but skips locking, since WithTransaction already holds the
// mutex for the whole callback.
type fakeStore struct {
	data *fakeData
	tx   bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: newFakeData()}
}

func (s *fakeStore) lock() func() {
	if s.tx {
		return func() {}
	}
	s.data.mu.Lock()
	return s.data.mu.Unlock
}

func (s *fakeStore) Users() domain.UserRepository       { return (*fakeUserRepo)(s) }
func (s *fakeStore) Accounts() domain.AccountRepository { return (*fakeAccountRepo)(s) }
func (s *fakeStore) Payments() domain.PaymentRepository { return (*fakePaymentRepo)(s) }

func (s *fakeStore) WithTransaction(fn func(domain.Datastore) error) error {
	if s.tx {
		return errors.ErrCannotBeginTransaction
	}
	s.data.mu.Lock()
	defer s.data.mu.Unlock()

	before := s.data.snapshot()
	if err := fn(&fakeStore{data: s.data, tx: true}); err != nil {
		s.data.restore(before)
		return err
	}
	return nil
}

type fakeUserRepo fakeStore

func (r *fakeUserRepo) CreateUser(user *domain.User) error {
	defer (*fakeStore)(r).lock()()
	for _, u := range r.data.users {
		if u.Email == user.Email {
			return errors.ErrDuplicateUser
		}
	}
	user.ID = r.data.nextUserID
	r.data.nextUserID++
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.data.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) GetUserByID(id int64) (*domain.User, error) {
	defer (*fakeStore)(r).lock()()
	u, ok := r.data.users[id]
	if !ok {
		return nil, errors.ErrUserNotFound
	}
	return &u, nil
}

func (r *fakeUserRepo) GetUserByEmail(email string) (*domain.User, error) {
	defer (*fakeStore)(r).lock()()
	for _, u := range r.data.users {
		if u.Email == email {
			user := u
			return &user, nil
		}
	}
	return nil, errors.ErrUserNotFound
}

func (r *fakeUserRepo) ListUsers() ([]domain.User, error) {
	defer (*fakeStore)(r).lock()()
	users := make([]domain.User, 0, len(r.data.users))
	for _, u := range r.data.users {
		users = append(users, u)
	}
	return users, nil
}

func (r *fakeUserRepo) UpdateUserEmail(oldEmail, newEmail string) error {
	defer (*fakeStore)(r).lock()()
	for id, u := range r.data.users {
		if u.Email == oldEmail {
			u.Email = newEmail
			r.data.users[id] = u
			return nil
		}
	}
	return errors.ErrUserNotFound
}

func (r *fakeUserRepo) UpdateUserPassword(email, passwordHash string) error {
	defer (*fakeStore)(r).lock()()
	for id, u := range r.data.users {
		if u.Email == email {
			u.PasswordHash = passwordHash
			r.data.users[id] = u
			return nil
		}
	}
	return errors.ErrUserNotFound
}

func (r *fakeUserRepo) SetUserActive(email string, active bool) error {
	defer (*fakeStore)(r).lock()()
	for id, u := range r.data.users {
		if u.Email == email {
			u.Active = active
			r.data.users[id] = u
			return nil
		}
	}
	return errors.ErrUserNotFound
}

func (r *fakeUserRepo) DeleteUser(id int64) error {
	defer (*fakeStore)(r).lock()()
	if _, ok := r.data.users[id]; !ok {
		return errors.ErrUserNotFound
	}
	delete(r.data.users, id)
	return nil
}

type fakeAccountRepo fakeStore

func (r *fakeAccountRepo) CreateAccount(account *domain.Account) error {
	defer (*fakeStore)(r).lock()()
	account.ID = r.data.nextAccountID
	r.data.nextAccountID++
	account.CreatedAt = time.Now()
	account.UpdatedAt = account.CreatedAt
	r.data.accounts[account.ID] = *account
	return nil
}

func (r *fakeAccountRepo) GetAccount(id int64) (*domain.Account, error) {
	defer (*fakeStore)(r).lock()()
	a, ok := r.data.accounts[id]
	if !ok {
		return nil, errors.ErrAccountNotFound
	}
	return &a, nil
}

func (r *fakeAccountRepo) GetOwnedAccount(id, userID int64) (*domain.Account, error) {
	defer (*fakeStore)(r).lock()()
	a, ok := r.data.accounts[id]
	if !ok || a.UserID != userID {
		return nil, errors.ErrAccountNotFound
	}
	return &a, nil
}

func (r *fakeAccountRepo) GetOwnedAccountForUpdate(id, userID int64) (*domain.Account, error) {
	return r.GetOwnedAccount(id, userID)
}

func (r *fakeAccountRepo) ListAccountsByOwner(userID int64) ([]domain.Account, error) {
	defer (*fakeStore)(r).lock()()
	var accounts []domain.Account
	for _, a := range r.data.accounts {
		if a.UserID == userID {
			accounts = append(accounts, a)
		}
	}
	return accounts, nil
}

func (r *fakeAccountRepo) CreditBalance(id int64, amount decimal.Decimal) (decimal.Decimal, error) {
	defer (*fakeStore)(r).lock()()
	a, ok := r.data.accounts[id]
	if !ok {
		return decimal.Zero, errors.ErrAccountNotFound
	}
	a.Balance = a.Balance.Add(amount)
	r.data.accounts[id] = a
	return a.Balance, nil
}

func (r *fakeAccountRepo) DebitBalance(id int64, amount decimal.Decimal) (decimal.Decimal, error) {
	defer (*fakeStore)(r).lock()()
	a, ok := r.data.accounts[id]
	if !ok {
		return decimal.Zero, errors.ErrAccountNotFound
	}
	if a.Balance.LessThan(amount) {
		return decimal.Zero, errors.ErrInsufficientFunds
	}
	a.Balance = a.Balance.Sub(amount)
	r.data.accounts[id] = a
	return a.Balance, nil
}

func (r *fakeAccountRepo) DeleteAccountsByOwner(userID int64) (int64, error) {
	defer (*fakeStore)(r).lock()()
	var deleted int64
	for id, a := range r.data.accounts {
		if a.UserID == userID {
			delete(r.data.accounts, id)
			deleted++
		}
	}
	return deleted, nil
}

type fakePaymentRepo fakeStore

func (r *fakePaymentRepo) CreatePayment(payment *domain.Payment) error {
	defer (*fakeStore)(r).lock()()
	for _, p := range r.data.payments {
		if p.TransactionID == payment.TransactionID {
			return errors.ErrDuplicateTransaction
		}
	}
	payment.RecordedAt = time.Now()
	r.data.payments[payment.ID] = *payment
	return nil
}

func (r *fakePaymentRepo) GetPaymentByTransactionID(transactionID string) (*domain.Payment, error) {
	defer (*fakeStore)(r).lock()()
	for _, p := range r.data.payments {
		if p.TransactionID == transactionID {
			payment := p
			return &payment, nil
		}
	}
	return nil, nil
}

func (r *fakePaymentRepo) ListPaymentsByUser(userID int64) ([]domain.Payment, error) {
	defer (*fakeStore)(r).lock()()
	var payments []domain.Payment
	for _, p := range r.data.payments {
		if p.UserID == userID {
			payments = append(payments, p)
		}
	}
	return payments, nil
}

func (r *fakePaymentRepo) ListPayments() ([]domain.Payment, error) {
	defer (*fakeStore)(r).lock()()
	payments := make([]domain.Payment, 0, len(r.data.payments))
	for _, p := range r.data.payments {
		payments = append(payments, p)
	}
	return payments, nil
}

func (r *fakePaymentRepo) DeletePaymentsByOwner(userID int64) (int64, error) {
	defer (*fakeStore)(r).lock()()
	var deleted int64
	for id, p := range r.data.payments {
		if p.UserID == userID {
			delete(r.data.payments, id)
			deleted++
		}
	}
	return deleted, nil
}
