package errors

import (
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	InvalidSignature     ErrorCode = "invalid_signature"
	DuplicateTransaction ErrorCode = "duplicate_transaction"
	AccountNotFound      ErrorCode = "account_not_found"
	InsufficientFunds    ErrorCode = "insufficient_funds"
	UserDisabled         ErrorCode = "user_disabled"
	StorageUnavailable   ErrorCode = "storage_unavailable"
	UserNotFound         ErrorCode = "user_not_found"
	DuplicateUser        ErrorCode = "duplicate_user"
	InvalidAmount        ErrorCode = "invalid_amount"
	InvalidInput         ErrorCode = "invalid_input"
	Unauthorized         ErrorCode = "unauthorized"
	Forbidden            ErrorCode = "forbidden"
	InternalError        ErrorCode = "internal_error"
)

type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewAppError(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func NewAppErrorf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// WithDetails returns a copy carrying extra detail. The predefined errors are
// shared, so the receiver is never mutated.
func (e *AppError) WithDetails(details string) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
	}
}

// HTTPStatus maps an error code to the status the handler layer responds
// with. StorageUnavailable is the only code a caller should retry on.
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case InvalidInput, InvalidAmount:
		return http.StatusBadRequest
	case InvalidSignature, Unauthorized:
		return http.StatusUnauthorized
	case Forbidden, UserDisabled:
		return http.StatusForbidden
	case AccountNotFound, UserNotFound:
		return http.StatusNotFound
	case DuplicateTransaction, DuplicateUser:
		return http.StatusConflict
	case InsufficientFunds:
		return http.StatusUnprocessableEntity
	case StorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Predefined errors for common cases
var (
	ErrInvalidSignature       = NewAppError(InvalidSignature, "invalid signature")
	ErrDuplicateTransaction   = NewAppError(DuplicateTransaction, "transaction already processed")
	ErrAccountNotFound        = NewAppError(AccountNotFound, "account not found")
	ErrInsufficientFunds      = NewAppError(InsufficientFunds, "insufficient funds")
	ErrUserDisabled           = NewAppError(UserDisabled, "user disabled")
	ErrStorageUnavailable     = NewAppError(StorageUnavailable, "storage temporarily unavailable")
	ErrUserNotFound           = NewAppError(UserNotFound, "user not found")
	ErrDuplicateUser          = NewAppError(DuplicateUser, "user already exists")
	ErrInvalidAmount          = NewAppError(InvalidAmount, "amount must be positive")
	ErrInvalidAccountID       = NewAppError(InvalidInput, "account id must be positive")
	ErrInvalidCredentials     = NewAppError(Unauthorized, "incorrect email or password")
	ErrNotAdmin               = NewAppError(Forbidden, "admin access required")
	ErrCannotBeginTransaction = NewAppError(InternalError, "cannot begin transaction on a transactional store")
)
