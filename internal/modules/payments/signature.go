package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// VerifyCheckoutSignature reports whether sig is the hex HMAC-SHA256 of
// "gatewayOrderID|gatewayPaymentID" under secret. This is the signature
// Razorpay Checkout hands the browser after a successful payment.
//
// Any malformed input yields false; callers treat missing fields, bad
// encoding and tampering identically so nothing leaks about which it was.
func VerifyCheckoutSignature(gatewayOrderID, gatewayPaymentID, sig, secret string) bool {
	if gatewayOrderID == "" || gatewayPaymentID == "" || sig == "" || secret == "" {
		return false
	}
	return verifyHMAC([]byte(gatewayOrderID+"|"+gatewayPaymentID), sig, secret)
}

// VerifyWebhookSignature reports whether sig is the hex HMAC-SHA256 of
// the raw webhook body under the webhook secret.
func VerifyWebhookSignature(body []byte, sig, secret string) bool {
	if len(body) == 0 || sig == "" || secret == "" {
		return false
	}
	return verifyHMAC(body, sig, secret)
}

func verifyHMAC(payload []byte, sig, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	// hmac.Equal for constant-time comparison of the hex forms.
	return hmac.Equal([]byte(expected), []byte(sig))
}
