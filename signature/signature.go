package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// Verify checks provided against the HMAC-SHA256 hex digest of each
// candidate payload in order, returning true on the first match. The
// comparison is constant-time. An empty candidate list or an empty
// provided signature never verifies.
func Verify(secret string, candidates []string, provided string) bool {
	if len(provided) == 0 {
		return false
	}
	for _, payload := range candidates {
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write([]byte(payload))
		expected := hex.EncodeToString(mac.Sum(nil))
		if subtle.ConstantTimeCompare([]byte(expected), []byte(provided)) == 1 {
			return true
		}
	}
	return false
}

// CheckoutCandidates builds the ordered list of signable payloads for a
// client-submitted checkout confirmation. Razorpay signs the order flow as
// orderId|paymentId and the subscription flow as paymentId|subscriptionId
// (older integrations used subscriptionId|paymentId), and the caller does
// not know which flow produced the confirmation. The set is closed; do not
// grow it ad hoc.
func CheckoutCandidates(orderID, paymentID, subscriptionID string) []string {
	candidates := make([]string, 0, 3)
	if orderID != "" {
		candidates = append(candidates, orderID+"|"+paymentID)
	}
	if subscriptionID != "" {
		candidates = append(candidates,
			paymentID+"|"+subscriptionID,
			subscriptionID+"|"+paymentID,
		)
	}
	return candidates
}
