package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// Sign computes the base64-encoded HMAC-SHA256 signature of a raw payload.
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Verify checks a provider signature against the raw request body using
// constant-time comparison. A missing or undecodable signature fails closed.
func Verify(secret, body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	provided, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), provided)
}
