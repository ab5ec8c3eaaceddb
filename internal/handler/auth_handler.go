package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"score-wallet/internal/auth"
	"score-wallet/internal/errors"
	"score-wallet/internal/service"
)

type AuthHandler struct {
	userService *service.UserService
	tokens      *auth.Manager
}

func NewAuthHandler(userService *service.UserService, tokens *auth.Manager) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		tokens:      tokens,
	}
}

type RegisterRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
}

type UserResponse struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
	Active    bool   `json:"active"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid request body"))
		return
	}

	user, err := h.userService.Register(service.RegisterInput{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      user.Role,
		Active:    user.Active,
	})
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid request body"))
		return
	}

	user, err := h.userService.Authenticate(req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pair, err := h.tokens.IssuePair(user)
	if err != nil {
		writeError(w, errors.NewAppError(errors.InternalError, "failed to issue tokens"))
		return
	}

	writeJSON(w, http.StatusOK, pair)
}

// Refresh exchanges a refresh token for a fresh access token. The user is
// re-read so a deletion or disable since login takes effect immediately.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	tokenStr, ok := BearerToken(r)
	if !ok {
		writeError(w, errors.NewAppError(errors.Unauthorized, "missing or invalid Authorization header"))
		return
	}

	claims, err := h.tokens.Parse(tokenStr, auth.TokenTypeRefresh)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	user, err := h.userService.GetByEmail(claims.Subject)
	if err != nil {
		writeError(w, errors.NewAppError(errors.Unauthorized, "could not validate credentials"))
		return
	}
	if !user.Active {
		writeError(w, errors.ErrUserDisabled)
		return
	}

	pair, err := h.tokens.IssueAccess(user)
	if err != nil {
		writeError(w, errors.NewAppError(errors.InternalError, "failed to issue tokens"))
		return
	}

	writeJSON(w, http.StatusOK, pair)
}

// BearerToken extracts the token from the Authorization header. Shared with
// the auth middleware.
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	return strings.TrimPrefix(header, "Bearer "), true
}
