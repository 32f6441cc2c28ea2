package square

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strings"
)

const (
	SignatureHeader = "x-square-hmacsha256-signature"

	EventPaymentCompleted = "payment.completed"
	EventPaymentUpdated   = "payment.updated"

	PaymentStatusApproved  = "APPROVED"
	PaymentStatusCompleted = "COMPLETED"
)

// ComputeSignature returns the base64 HMAC-SHA256 Square sends for a
// delivery: the key signs the notification URL followed by the raw body.
func ComputeSignature(signatureKey, notificationURL string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(signatureKey))
	mac.Write([]byte(notificationURL))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifyWebhookSignature checks signatureHeader against the expected value in
// constant time. An empty key or header never verifies.
func VerifyWebhookSignature(signatureKey, notificationURL string, body []byte, signatureHeader string) bool {
	sig := strings.TrimSpace(signatureHeader)
	if sig == "" || signatureKey == "" {
		return false
	}
	expected := ComputeSignature(signatureKey, notificationURL, body)
	return hmac.Equal([]byte(expected), []byte(sig))
}

// ParseWebhookEvent decodes the event envelope
func ParseWebhookEvent(body []byte) (*WebhookEvent, error) {
	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// IsPaymentEvent reports whether eventType can carry a completed payment
func IsPaymentEvent(eventType string) bool {
	return eventType == EventPaymentCompleted || eventType == EventPaymentUpdated
}
