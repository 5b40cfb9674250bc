package ingest

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
	"time"
)

func digest(body, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature_RoundTrip(t *testing.T) {
	body := `{"type":"Settled","recordId":"abc"}`
	sig := digest(body, "s3cret")

	if !VerifySignature([]byte(body), sig, []byte("s3cret")) {
		t.Fatalf("bare hex digest should verify")
	}
	if !VerifySignature([]byte(body), "sha256="+sig, []byte("s3cret")) {
		t.Fatalf("sha256= prefixed digest should verify")
	}
	if !VerifySignature([]byte(body), strings.ToUpper(sig), []byte("s3cret")) {
		t.Fatalf("hex case must not matter")
	}
}

func TestVerifySignature_TamperedBody(t *testing.T) {
	body := `{"type":"Settled","recordId":"abc","cryptoAmount":100}`
	sig := digest(body, "s3cret")
	tampered := strings.Replace(body, "100", "900", 1)

	if VerifySignature([]byte(tampered), sig, []byte("s3cret")) {
		t.Fatalf("tampered body must not verify")
	}
}

func TestVerifySignature_WrongSecret(t *testing.T) {
	body := `{"type":"Settled"}`
	sig := digest(body, "other")
	if VerifySignature([]byte(body), sig, []byte("s3cret")) {
		t.Fatalf("digest from another secret must not verify")
	}
}

func TestVerifySignature_Rejections(t *testing.T) {
	body := []byte(`{}`)
	sig := digest("{}", "s3cret")

	if VerifySignature(body, sig, nil) {
		t.Fatalf("empty secret must reject")
	}
	if VerifySignature(body, "", []byte("s3cret")) {
		t.Fatalf("empty signature must reject")
	}
	if VerifySignature(body, "sha256=", []byte("s3cret")) {
		t.Fatalf("prefix-only signature must reject")
	}
	if VerifySignature(body, "zz-not-hex", []byte("s3cret")) {
		t.Fatalf("non-hex signature must reject")
	}
}

func TestParseNotification_Aliases(t *testing.T) {
	note, err := parseNotification([]byte(`{"type":"InvoiceSettled","invoiceId":"inv-1","storeId":"st-1"}`))
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if note.RecordID != "inv-1" {
		t.Fatalf("recordID=%q want inv-1", note.RecordID)
	}
	if note.StoreContext != "st-1" {
		t.Fatalf("storeContext=%q want st-1", note.StoreContext)
	}
	if note.normalizedType() != "Settled" {
		t.Fatalf("normalized=%q want Settled", note.normalizedType())
	}
}

func TestNotification_DedupeKeyStable(t *testing.T) {
	a, err := parseNotification([]byte(`{"type":"Settled","recordId":"r","settledTime":"2024-06-02T09:30:00Z","deliveryId":"d-1"}`))
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	b, err := parseNotification([]byte(`{"type":"InvoiceSettled","recordId":"r","settledTime":"2024-06-02T09:30:00Z","deliveryId":"d-2"}`))
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if a.dedupeKey(time.Now()) != b.dedupeKey(time.Now().Add(time.Hour)) {
		t.Fatalf("redelivered event must collapse onto one key: %q vs %q",
			a.dedupeKey(time.Now()), b.dedupeKey(time.Now()))
	}
}
