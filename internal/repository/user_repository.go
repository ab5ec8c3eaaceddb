package repository

import (
	"database/sql"
	"log/slog"
	"time"

	"score-wallet/internal/domain"
	"score-wallet/internal/errors"
)

type userRepository struct {
	db     SQLExecutor
	logger *slog.Logger
}

func NewUserRepository(db SQLExecutor, logger *slog.Logger) domain.UserRepository {
	return &userRepository{
		db:     db,
		logger: logger,
	}
}

func (r *userRepository) CreateUser(user *domain.User) error {
	query := `
		INSERT INTO users (email, first_name, last_name, password_hash, role, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	now := time.Now()
	err := r.db.QueryRow(
		query,
		user.Email,
		user.FirstName,
		user.LastName,
		user.PasswordHash,
		user.Role,
		user.Active,
		now,
		now,
	).Scan(&user.ID)

	if err != nil {
		if isUniqueViolation(err, "") {
			r.logger.Warn("Duplicate user creation attempt", "email", user.Email)
			return errors.ErrDuplicateUser
		}
		r.logger.Error("Failed to create user", "email", user.Email, "error", err)
		return storageError("failed to create user", err)
	}

	user.CreatedAt = now
	user.UpdatedAt = now
	r.logger.Info("User created successfully", "user_id", user.ID, "email", user.Email)
	return nil
}

func (r *userRepository) GetUserByID(id int64) (*domain.User, error) {
	query := `
		SELECT id, email, first_name, last_name, password_hash, role, active, created_at, updated_at
		FROM users WHERE id = $1
	`

	return r.scanUser(query, id)
}

func (r *userRepository) GetUserByEmail(email string) (*domain.User, error) {
	query := `
		SELECT id, email, first_name, last_name, password_hash, role, active, created_at, updated_at
		FROM users WHERE email = $1
	`

	return r.scanUser(query, email)
}

func (r *userRepository) scanUser(query string, arg interface{}) (*domain.User, error) {
	var user domain.User

	err := r.db.QueryRow(query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.PasswordHash,
		&user.Role,
		&user.Active,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrUserNotFound
		}
		r.logger.Error("Failed to get user", "arg", arg, "error", err)
		return nil, storageError("failed to get user", err)
	}

	return &user, nil
}

func (r *userRepository) ListUsers() ([]domain.User, error) {
	query := `
		SELECT id, email, first_name, last_name, password_hash, role, active, created_at, updated_at
		FROM users ORDER BY id
	`

	rows, err := r.db.Query(query)
	if err != nil {
		r.logger.Error("Failed to list users", "error", err)
		return nil, storageError("failed to list users", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(
			&user.ID,
			&user.Email,
			&user.FirstName,
			&user.LastName,
			&user.PasswordHash,
			&user.Role,
			&user.Active,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, storageError("failed to scan user", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("failed to iterate users", err)
	}

	return users, nil
}

func (r *userRepository) UpdateUserEmail(oldEmail, newEmail string) error {
	query := `UPDATE users SET email = $1, updated_at = $2 WHERE email = $3`

	result, err := r.db.Exec(query, newEmail, time.Now(), oldEmail)
	if err != nil {
		if isUniqueViolation(err, "") {
			return errors.ErrDuplicateUser
		}
		r.logger.Error("Failed to update user email", "email", oldEmail, "error", err)
		return storageError("failed to update user email", err)
	}

	return r.requireRowsAffected(result, "email", oldEmail)
}

func (r *userRepository) UpdateUserPassword(email, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1, updated_at = $2 WHERE email = $3`

	result, err := r.db.Exec(query, passwordHash, time.Now(), email)
	if err != nil {
		r.logger.Error("Failed to update user password", "email", email, "error", err)
		return storageError("failed to update user password", err)
	}

	return r.requireRowsAffected(result, "email", email)
}

func (r *userRepository) SetUserActive(email string, active bool) error {
	query := `UPDATE users SET active = $1, updated_at = $2 WHERE email = $3`

	result, err := r.db.Exec(query, active, time.Now(), email)
	if err != nil {
		r.logger.Error("Failed to set user active flag", "email", email, "error", err)
		return storageError("failed to update user", err)
	}

	if err := r.requireRowsAffected(result, "email", email); err != nil {
		return err
	}
	r.logger.Info("User active flag updated", "email", email, "active", active)
	return nil
}

func (r *userRepository) DeleteUser(id int64) error {
	query := `DELETE FROM users WHERE id = $1`

	result, err := r.db.Exec(query, id)
	if err != nil {
		r.logger.Error("Failed to delete user", "user_id", id, "error", err)
		return storageError("failed to delete user", err)
	}

	if err := r.requireRowsAffected(result, "user_id", id); err != nil {
		return err
	}
	r.logger.Info("User deleted", "user_id", id)
	return nil
}

func (r *userRepository) requireRowsAffected(result sql.Result, key string, val interface{}) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return storageError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		r.logger.Warn("No user matched", key, val)
		return errors.ErrUserNotFound
	}
	return nil
}
