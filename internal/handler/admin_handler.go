package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"score-wallet/internal/domain"
	"score-wallet/internal/errors"
	"score-wallet/internal/service"
)

// AdminHandler serves the admin surface. Role enforcement happens in the
// admin middleware; handlers here assume an admin caller.
type AdminHandler struct {
	userService   *service.UserService
	walletService *service.WalletService
}

func NewAdminHandler(userService *service.UserService, walletService *service.WalletService) *AdminHandler {
	return &AdminHandler{
		userService:   userService,
		walletService: walletService,
	}
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List()
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := make([]UserResponse, len(users))
	for i, u := range users {
		resp[i] = UserResponse{
			ID:        u.ID,
			Email:     u.Email,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Role:      u.Role,
			Active:    u.Active,
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"users": resp})
}

type AdminCreateUserRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
	Role      string `json:"role"`
}

// CreateUser lets an admin register users with any role, including other
// admins. Admin is a role tag on the same user entity, not a separate kind
// of account.
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req AdminCreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid request body"))
		return
	}

	user, err := h.userService.Register(service.RegisterInput{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
		Role:      req.Role,
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

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID, err := strconv.ParseInt(vars["user_id"], 10, 64)
	if err != nil || userID <= 0 {
		writeError(w, errors.NewAppError(errors.InvalidInput, "user id must be a positive integer"))
		return
	}

	if err := h.userService.Delete(userID); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type AdminUpdateEmailRequest struct {
	OldEmail string `json:"old_email"`
	NewEmail string `json:"new_email"`
}

func (h *AdminHandler) UpdateUserEmail(w http.ResponseWriter, r *http.Request) {
	var req AdminUpdateEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid request body"))
		return
	}

	if err := h.userService.UpdateEmail(req.OldEmail, req.NewEmail); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *AdminHandler) DisableUser(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h *AdminHandler) EnableUser(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

type SetActiveRequest struct {
	Email string `json:"email"`
}

func (h *AdminHandler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	var req SetActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid request body"))
		return
	}

	if err := h.userService.SetActive(req.Email, active); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// UserBalances reports the balances of the user identified by the email
// query parameter.
func (h *AdminHandler) UserBalances(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeError(w, errors.NewAppError(errors.InvalidInput, "email query parameter is required"))
		return
	}

	user, err := h.userService.GetByEmail(email)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	balances, err := h.walletService.GetBalances(user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := BalancesResponse{Balances: make(map[int64]string, len(balances))}
	for accountID, balance := range balances {
		resp.Balances[accountID] = balance.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *AdminHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.walletService.ListAllPayments()
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string][]domain.Payment{"payments": payments})
}
