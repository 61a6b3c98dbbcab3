package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"github.com/go-faster/errors"
)

// ErrSignatureMismatch is returned when a callback signature does not match
// the expected HMAC. The order must stay in its prior state.
var ErrSignatureMismatch = errors.New("payment signature mismatch")

// Verifier checks processor callback signatures: hex(HMAC-SHA256(secret,
// "orderID|paymentID")). In test mode verification is skipped entirely;
// that mode must be enabled explicitly in configuration.
type Verifier struct {
	secret   []byte
	testMode bool
}

// NewVerifier creates a Verifier with the shared processor secret.
func NewVerifier(secret []byte, testMode bool) *Verifier {
	return &Verifier{secret: secret, testMode: testMode}
}

// Sign computes the expected signature for an order/payment pair.
func (v *Verifier) Sign(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify validates a callback signature in constant time.
func (v *Verifier) Verify(orderID, paymentID, signature string) error {
	if v.testMode {
		return nil
	}

	expected := v.Sign(orderID, paymentID)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) != 1 {
		return ErrSignatureMismatch
	}
	return nil
}
