package handler

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"score-wallet/internal/domain"
	"score-wallet/internal/errors"
	"score-wallet/internal/service"
)

type WalletHandler struct {
	walletService *service.WalletService
}

func NewWalletHandler(walletService *service.WalletService) *WalletHandler {
	return &WalletHandler{
		walletService: walletService,
	}
}

type TopUpRequest struct {
	TransactionID string `json:"transaction_id"`
	AccountID     int64  `json:"account_id"`
	UserID        int64  `json:"user_id"`
	Amount        string `json:"amount"`
	Signature     string `json:"signature"`
}

type TopUpResponse struct {
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id"`
	AccountID     int64  `json:"account_id"`
	Balance       string `json:"balance"`
}

// TopUp handles the payment webhook. The amount is parsed as a decimal
// string; parse failures are reported as invalid_amount before any
// verification so malformed payloads never reach the signature check with
// a half-decoded value.
func (h *WalletHandler) TopUp(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	var req TopUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid request body"))
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, errors.NewAppError(errors.InvalidAmount, "invalid amount format"))
		return
	}

	notification := domain.PaymentNotification{
		TransactionID: req.TransactionID,
		AccountID:     req.AccountID,
		UserID:        req.UserID,
		Amount:        amount,
		Signature:     req.Signature,
	}

	payment, balance, err := h.walletService.Credit(user, notification)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, TopUpResponse{
		Status:        "ok",
		TransactionID: payment.TransactionID,
		AccountID:     payment.AccountID,
		Balance:       balance.String(),
	})
}

type WithdrawRequest struct {
	AccountID int64  `json:"account_id"`
	Amount    string `json:"amount"`
}

type WithdrawResponse struct {
	Status    string `json:"status"`
	AccountID int64  `json:"account_id"`
	Balance   string `json:"balance"`
}

func (h *WalletHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	var req WithdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid request body"))
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, errors.NewAppError(errors.InvalidAmount, "invalid amount format"))
		return
	}

	balance, err := h.walletService.Withdraw(user, req.AccountID, amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, WithdrawResponse{
		Status:    "ok",
		AccountID: req.AccountID,
		Balance:   balance.String(),
	})
}

type BalancesResponse struct {
	Balances map[int64]string `json:"balances"`
}

func (h *WalletHandler) GetBalances(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
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

type AccountResponse struct {
	AccountID int64  `json:"account_id"`
	Balance   string `json:"balance"`
}

func (h *WalletHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	account, err := h.walletService.CreateAccount(user)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, AccountResponse{
		AccountID: account.ID,
		Balance:   account.Balance.String(),
	})
}

func (h *WalletHandler) DeleteAccounts(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	if err := h.walletService.DeleteAccounts(user); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *WalletHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	payments, err := h.walletService.ListPayments(user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"payments": payments})
}
