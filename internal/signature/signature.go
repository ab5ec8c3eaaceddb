// Package signature authenticates inbound payment notifications. The payment
// origin signs the canonical concatenation of the payment fields plus a
// shared secret with bcrypt; verification compares the supplied hash without
// ever recomputing or logging the secret.
package signature

import (
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"score-wallet/internal/domain"
)

type Verifier struct {
	secret string
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: secret}
}

// payload builds the canonical signing string. Field order is fixed:
// account_id, amount, transaction_id, user_id, secret. The amount uses
// decimal.Decimal.String(), which trims trailing zeros, so both sides must
// encode "50.00" as "50" — the notification amount is canonicalized the same
// way before signing.
func (v *Verifier) payload(n domain.PaymentNotification) string {
	var b strings.Builder
	b.WriteString(strconv.FormatInt(n.AccountID, 10))
	b.WriteString(n.Amount.String())
	b.WriteString(n.TransactionID)
	b.WriteString(strconv.FormatInt(n.UserID, 10))
	b.WriteString(v.secret)
	return b.String()
}

// Verify reports whether the notification's signature was produced over these
// exact fields with the shared secret. It returns false for any mismatch or
// malformed signature and never returns an error: the caller answers
// "invalid signature" uniformly, leaking nothing about which field differed.
// The bcrypt comparison is constant-time.
func (v *Verifier) Verify(n domain.PaymentNotification) bool {
	if n.Signature == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(n.Signature), []byte(v.payload(n))) == nil
}

// Sign produces a signature for a notification. Used by the payment origin
// side of integration tests and by tooling that simulates the origin.
func (v *Verifier) Sign(n domain.PaymentNotification) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(v.payload(n)), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
