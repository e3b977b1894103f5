package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"
)

const (
	HeaderWebhookTimestamp = "X-Webhook-Timestamp"
	HeaderWebhookSignature = "X-Webhook-Signature"
)

var (
	ErrMissingSignature = errors.New("missing webhook signature headers")
	ErrBadTimestamp     = errors.New("invalid webhook timestamp")
	ErrStaleTimestamp   = errors.New("webhook timestamp outside tolerance")
	ErrBadSignature     = errors.New("webhook signature mismatch")
)

// WebhookVerifier проверяет подпись входящих webhook запросов платёжного провайдера.
// Подпись: hex(HMAC-SHA256(secret, timestamp + "." + body)).
type WebhookVerifier struct {
	secret    []byte
	tolerance time.Duration
	now       func() time.Time
}

// NewWebhookVerifier создаёт проверяющего с допустимым расхождением часов tolerance.
func NewWebhookVerifier(secret string, tolerance time.Duration) *WebhookVerifier {
	return &WebhookVerifier{
		secret:    []byte(secret),
		tolerance: tolerance,
		now:       time.Now,
	}
}

// Sign вычисляет подпись для timestamp и тела.
func (v *WebhookVerifier) Sign(timestamp string, body []byte) string {
	return ComputeWebhookSignature(v.secret, timestamp, body)
}

// Verify проверяет свежесть timestamp и подпись тела.
func (v *WebhookVerifier) Verify(timestamp, signature string, body []byte) error {
	if timestamp == "" || signature == "" {
		return ErrMissingSignature
	}

	unix, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return ErrBadTimestamp
	}

	sent := time.Unix(unix, 0)
	drift := v.now().Sub(sent)
	if drift < 0 {
		drift = -drift
	}
	if v.tolerance > 0 && drift > v.tolerance {
		return ErrStaleTimestamp
	}

	expected := ComputeWebhookSignature(v.secret, timestamp, body)
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return ErrBadSignature
	}
	return nil
}

// ComputeWebhookSignature используется и провайдером, и тестами.
func ComputeWebhookSignature(secret []byte, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
