package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Verifier checks the signature the gateway attaches to a payment callback:
// hex(HMAC-SHA256(secret, gatewayOrderID + "|" + paymentID)).
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

func (v *Verifier) Sign(gatewayOrderID, paymentID string) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(gatewayOrderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify compares in constant time.
func (v *Verifier) Verify(gatewayOrderID, paymentID, signature string) bool {
	if signature == "" {
		return false
	}
	expected := v.Sign(gatewayOrderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}
