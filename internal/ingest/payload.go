package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fundwatch/internal/models"
)

// ErrMalformedPayload marks deliveries whose body cannot be decoded or is
// missing required fields. The delivery is still logged before this is
// returned.
var ErrMalformedPayload = errors.New("malformed notification payload")

// Notification is the decoded webhook body. BTCPay field names (invoiceId,
// storeId) are accepted as aliases for the canonical ones.
type Notification struct {
	Type         string          `json:"type"`
	RecordID     string          `json:"recordId"`
	InvoiceID    string          `json:"invoiceId,omitempty"`
	StoreContext string          `json:"storeContext"`
	StoreID      string          `json:"storeId,omitempty"`
	FiatAmount   decimal.Decimal `json:"fiatAmount"`
	FiatCurrency string          `json:"fiatCurrency"`
	CryptoAmount int64           `json:"cryptoAmount"`
	CreatedTime  *time.Time      `json:"createdTime,omitempty"`
	SettledTime  *time.Time      `json:"settledTime,omitempty"`
	DeliveryID   string          `json:"deliveryId,omitempty"`
	Metadata     map[string]any  `json:"metadata,omitempty"`
}

// transitionTargets maps the normalized event type to the status it drives a
// campaign toward. Types absent from the map are logged and ignored.
var transitionTargets = map[string]string{
	"Created":         models.StatusNew,
	"Processing":      models.StatusProcessing,
	"ReceivedPayment": models.StatusProcessing,
	"PaymentSettled":  models.StatusProcessing,
	"Settled":         models.StatusSettled,
	"Expired":         models.StatusExpired,
	"Invalid":         models.StatusInvalid,
}

func parseNotification(raw []byte) (*Notification, error) {
	if len(raw) == 0 {
		return nil, ErrMalformedPayload
	}
	var note Notification
	if err := json.Unmarshal(raw, &note); err != nil {
		return nil, ErrMalformedPayload
	}
	note.Type = strings.TrimSpace(note.Type)
	if strings.TrimSpace(note.RecordID) == "" {
		note.RecordID = note.InvoiceID
	}
	note.RecordID = strings.TrimSpace(note.RecordID)
	if strings.TrimSpace(note.StoreContext) == "" {
		note.StoreContext = note.StoreID
	}
	note.StoreContext = strings.TrimSpace(note.StoreContext)
	if note.Type == "" || note.RecordID == "" {
		return nil, ErrMalformedPayload
	}
	if note.CryptoAmount < 0 {
		return nil, ErrMalformedPayload
	}
	return &note, nil
}

func (n *Notification) normalizedType() string {
	return strings.TrimPrefix(n.Type, "Invoice")
}

// eventTime is the timestamp a transition is attributed to: settlement time
// when present, else creation time, else receipt time.
func (n *Notification) eventTime(fallback time.Time) time.Time {
	if n.SettledTime != nil && !n.SettledTime.IsZero() {
		return n.SettledTime.UTC()
	}
	return n.createdAt(fallback)
}

func (n *Notification) createdAt(fallback time.Time) time.Time {
	if n.CreatedTime != nil && !n.CreatedTime.IsZero() {
		return n.CreatedTime.UTC()
	}
	return fallback.UTC()
}

// dedupeKey is derived from stable event fields only, so redelivered bodies
// collapse onto one key no matter when they arrive.
func (n *Notification) dedupeKey(receivedAt time.Time) string {
	return fmt.Sprintf("%s|%s|%d", n.RecordID, n.normalizedType(), n.eventTime(receivedAt).Unix())
}
