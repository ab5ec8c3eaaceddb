package service

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"score-wallet/internal/cache"
	"score-wallet/internal/domain"
	"score-wallet/internal/errors"
)

type UserService struct {
	store  domain.Datastore
	cache  *cache.Cache
	logger *slog.Logger
}

func NewUserService(store domain.Datastore, c *cache.Cache, logger *slog.Logger) *UserService {
	return &UserService{
		store:  store,
		cache:  c,
		logger: logger,
	}
}

type RegisterInput struct {
	Email     string
	FirstName string
	LastName  string
	Password  string
	Role      string
}

// Register creates the user and seeds their first zero-balance account in the
// same transaction, so no user ever exists without an account.
func (s *UserService) Register(input RegisterInput) (*domain.User, error) {
	if input.Email == "" || input.Password == "" {
		return nil, errors.NewAppError(errors.InvalidInput, "email and password are required")
	}
	role := input.Role
	if role == "" {
		role = domain.RoleBasic
	}
	if role != domain.RoleBasic && role != domain.RoleAdmin {
		return nil, errors.NewAppErrorf(errors.InvalidInput, "unknown role %q", role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.NewAppError(errors.InternalError, "failed to hash password")
	}

	user := &domain.User{
		Email:        input.Email,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PasswordHash: string(hash),
		Role:         role,
		Active:       true,
	}

	err = s.store.WithTransaction(func(tx domain.Datastore) error {
		if err := tx.Users().CreateUser(user); err != nil {
			return err
		}
		account := &domain.Account{
			UserID:  user.ID,
			Balance: decimal.Zero,
		}
		return tx.Accounts().CreateAccount(account)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("User registered", "user_id", user.ID, "email", user.Email, "role", user.Role)
	return user, nil
}

// Authenticate checks credentials and returns the user. The active flag is
// not checked here: login succeeds for a disabled user, the request
// middleware fences them off from every operation.
func (s *UserService) Authenticate(email, password string) (*domain.User, error) {
	user, err := s.store.Users().GetUserByEmail(email)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok && appErr.Code == errors.UserNotFound {
			return nil, errors.ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, errors.ErrInvalidCredentials
	}
	return user, nil
}

func (s *UserService) GetByID(id int64) (*domain.User, error) {
	return s.store.Users().GetUserByID(id)
}

func (s *UserService) GetByEmail(email string) (*domain.User, error) {
	return s.store.Users().GetUserByEmail(email)
}

func (s *UserService) List() ([]domain.User, error) {
	return s.store.Users().ListUsers()
}

func (s *UserService) UpdateEmail(oldEmail, newEmail string) error {
	if newEmail == "" {
		return errors.NewAppError(errors.InvalidInput, "email is required")
	}
	return s.store.Users().UpdateUserEmail(oldEmail, newEmail)
}

func (s *UserService) UpdatePassword(email, newPassword string) error {
	if newPassword == "" {
		return errors.NewAppError(errors.InvalidInput, "password is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.NewAppError(errors.InternalError, "failed to hash password")
	}
	return s.store.Users().UpdateUserPassword(email, string(hash))
}

func (s *UserService) SetActive(email string, active bool) error {
	return s.store.Users().SetUserActive(email, active)
}

// Delete removes the user and cascades through their accounts and payment
// records in one transaction.
func (s *UserService) Delete(id int64) error {
	err := s.store.WithTransaction(func(tx domain.Datastore) error {
		if _, err := tx.Payments().DeletePaymentsByOwner(id); err != nil {
			return err
		}
		if _, err := tx.Accounts().DeleteAccountsByOwner(id); err != nil {
			return err
		}
		return tx.Users().DeleteUser(id)
	})
	if err != nil {
		return err
	}

	if cacheErr := s.cache.Delete(context.Background(), balancesCacheKey(id)); cacheErr != nil {
		s.logger.Warn("Failed to invalidate balances cache", "user_id", id, "error", cacheErr)
	}
	s.logger.Info("User deleted with owned accounts and payments", "user_id", id)
	return nil
}
