package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

func sign(secret string, data []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(data)
	return hex.EncodeToString(mac.Sum(nil))
}

func equal(expected, got string) bool {
	return hmac.Equal([]byte(expected), []byte(got))
}

// VerifyPaymentSignature checks the checkout callback: HMAC-SHA256 of
// "order_id|payment_id" keyed with the API secret.
func (r *Razorpay) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	if r.keySecret == "" || signature == "" {
		return false
	}
	return equal(sign(r.keySecret, []byte(orderID+"|"+paymentID)), signature)
}

// VerifyWebhookSignature checks X-Razorpay-Signature over the raw request body.
func (r *Razorpay) VerifyWebhookSignature(body []byte, signature string) bool {
	if r.webhookSecret == "" || signature == "" {
		return false
	}
	return equal(sign(r.webhookSecret, body), signature)
}

// Sign is exported for tests and local tooling that need to produce valid callbacks.
func Sign(secret string, data []byte) string {
	return sign(secret, data)
}
