package ingest

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// VerifySignature checks a hex-encoded HMAC-SHA256 digest of rawBody against
// the shared secret. BTCPay sends the digest as "sha256=<hex>"; the bare hex
// form is accepted too, in either case. Comparison is constant-time. An empty
// secret verifies nothing.
func VerifySignature(rawBody []byte, signature string, secret []byte) bool {
	if len(secret) == 0 {
		return false
	}
	sig := strings.TrimSpace(signature)
	sig = strings.TrimPrefix(sig, "sha256=")
	if sig == "" {
		return false
	}
	provided, err := hex.DecodeString(strings.ToLower(sig))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, secret)
	_, _ = mac.Write(rawBody)
	return hmac.Equal(mac.Sum(nil), provided)
}
