package service

import (
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"score-wallet/internal/cache"
	"score-wallet/internal/domain"
	"score-wallet/internal/errors"
)

func newTestUserService(t *testing.T) (*UserService, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewUserService(store, cache.New(nil), logger), store
}

func TestRegisterSeedsZeroBalanceAccount(t *testing.T) {
	svc, store := newTestUserService(t)

	user, err := svc.Register(RegisterInput{
		Email:     "alice@example.com",
		FirstName: "Alice",
		LastName:  "Smith",
		Password:  "secret-password",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleBasic, user.Role)
	assert.True(t, user.Active)

	// Password never stored in the clear
	assert.NotEqual(t, "secret-password", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret-password")))

	accounts, err := store.Accounts().ListAccountsByOwner(user.ID)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.True(t, accounts[0].Balance.IsZero())
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestUserService(t)

	_, err := svc.Register(RegisterInput{Email: "alice@example.com", Password: "pw-one-two"})
	require.NoError(t, err)

	_, err = svc.Register(RegisterInput{Email: "alice@example.com", Password: "pw-one-two"})
	assert.Equal(t, errors.ErrDuplicateUser, err)
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	svc, _ := newTestUserService(t)

	_, err := svc.Register(RegisterInput{Email: "x@example.com", Password: "pw", Role: "superuser"})
	require.Error(t, err)
	appErr, ok := err.(*errors.AppError)
	require.True(t, ok)
	assert.Equal(t, errors.InvalidInput, appErr.Code)
}

func TestAuthenticate(t *testing.T) {
	svc, _ := newTestUserService(t)

	_, err := svc.Register(RegisterInput{Email: "alice@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	user, err := svc.Authenticate("alice@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)

	_, err = svc.Authenticate("alice@example.com", "wrong-password")
	assert.Equal(t, errors.ErrInvalidCredentials, err)

	// Unknown user gets the same error as a bad password
	_, err = svc.Authenticate("nobody@example.com", "whatever")
	assert.Equal(t, errors.ErrInvalidCredentials, err)
}

func TestUpdatePasswordHashesNewPassword(t *testing.T) {
	svc, _ := newTestUserService(t)

	_, err := svc.Register(RegisterInput{Email: "alice@example.com", Password: "old-password"})
	require.NoError(t, err)

	require.NoError(t, svc.UpdatePassword("alice@example.com", "new-password"))

	_, err = svc.Authenticate("alice@example.com", "old-password")
	assert.Equal(t, errors.ErrInvalidCredentials, err)
	_, err = svc.Authenticate("alice@example.com", "new-password")
	assert.NoError(t, err)
}

func TestSetActive(t *testing.T) {
	svc, _ := newTestUserService(t)

	_, err := svc.Register(RegisterInput{Email: "alice@example.com", Password: "pw-pw-pw"})
	require.NoError(t, err)

	require.NoError(t, svc.SetActive("alice@example.com", false))
	user, err := svc.GetByEmail("alice@example.com")
	require.NoError(t, err)
	assert.False(t, user.Active)

	require.NoError(t, svc.SetActive("alice@example.com", true))
	user, err = svc.GetByEmail("alice@example.com")
	require.NoError(t, err)
	assert.True(t, user.Active)

	assert.Equal(t, errors.ErrUserNotFound, svc.SetActive("nobody@example.com", false))
}

func TestDeleteUserCascades(t *testing.T) {
	svc, store := newTestUserService(t)

	user, err := svc.Register(RegisterInput{Email: "alice@example.com", Password: "pw-pw-pw"})
	require.NoError(t, err)

	// Attach a payment record to the seeded account
	accounts, err := store.Accounts().ListAccountsByOwner(user.ID)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	payment := &domain.Payment{
		ID:            uuid.New(),
		TransactionID: "t1",
		AccountID:     accounts[0].ID,
		UserID:        user.ID,
		Amount:        decimal.RequireFromString("5.00"),
		Signature:     "sig",
	}
	require.NoError(t, store.Payments().CreatePayment(payment))

	require.NoError(t, svc.Delete(user.ID))

	_, err = svc.GetByID(user.ID)
	assert.Equal(t, errors.ErrUserNotFound, err)

	remaining, err := store.Accounts().ListAccountsByOwner(user.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	payments, err := store.Payments().ListPaymentsByUser(user.ID)
	require.NoError(t, err)
	assert.Empty(t, payments)
}
