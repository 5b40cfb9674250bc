package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"fundwatch/internal/client/btcpay"
	"fundwatch/internal/models"
	"fundwatch/internal/repository"
)

// Ingestor turns signed gateway notifications into campaign state
// transitions. Every delivery is appended to the webhook event log first;
// only verified, well-formed, non-duplicate events mutate campaign state.
// Writes for one campaign id are serialized; distinct ids proceed in
// parallel.
type Ingestor struct {
	Repo   repository.Repository
	Secret []byte
	Logger *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Result reports what a single delivery did. Applied is true only when a
// state transition was persisted by this delivery.
type Result struct {
	Applied   bool
	Verified  bool
	Duplicate bool
	Status    string
}

func (ing *Ingestor) Ingest(ctx context.Context, rawBody []byte, signatureHeader string) (Result, error) {
	if ing == nil || ing.Repo == nil {
		return Result{}, nil
	}
	note, parseErr := parseNotification(rawBody)
	// A body that cannot be parsed is logged unverified no matter what its
	// signature says.
	verified := parseErr == nil && VerifySignature(rawBody, signatureHeader, ing.Secret)

	entry := &models.WebhookEvent{
		ReceivedAt: time.Now().UTC(),
		Signature:  signatureHeader,
		Verified:   verified,
		EventType:  "unknown",
		Payload:    payloadJSON(rawBody),
	}
	if note != nil {
		entry.EventType = note.Type
		entry.CampaignID = note.RecordID
		entry.DeliveryID = note.DeliveryID
		entry.DedupeKey = note.dedupeKey(entry.ReceivedAt)
	}
	if entry.DeliveryID == "" {
		entry.DeliveryID = uuid.NewString()
	}
	if err := ing.Repo.AppendWebhookEvent(ctx, entry); err != nil {
		return Result{Verified: verified}, fmt.Errorf("append webhook event: %w", err)
	}
	if parseErr != nil {
		ing.logDebug("notification rejected: malformed payload",
			zap.String("delivery_id", entry.DeliveryID))
		return Result{}, parseErr
	}
	if !verified {
		ing.logDebug("notification logged unverified",
			zap.String("campaign_id", note.RecordID),
			zap.String("event_type", note.Type))
		return Result{Verified: false}, nil
	}
	return ing.apply(ctx, entry, note)
}

// Reconcile applies an authenticated gateway poll result through the same
// transition path as a webhook delivery. The synthetic event is logged with
// verified=true and an empty signature.
func (ing *Ingestor) Reconcile(ctx context.Context, inv btcpay.Invoice, paidSats int64) (Result, error) {
	if ing == nil || ing.Repo == nil {
		return Result{}, nil
	}
	if strings.TrimSpace(inv.ID) == "" || strings.TrimSpace(inv.Status) == "" {
		return Result{}, nil
	}
	note := &Notification{
		Type:         strings.TrimSpace(inv.Status),
		RecordID:     strings.TrimSpace(inv.ID),
		StoreContext: inv.StoreID,
		FiatAmount:   inv.Amount,
		FiatCurrency: inv.Currency,
		CryptoAmount: paidSats,
		Metadata:     map[string]any{"origin": "gateway-reconcile"},
	}
	if created := inv.CreatedAt(); !created.IsZero() {
		note.CreatedTime = &created
	}

	entry := &models.WebhookEvent{
		ReceivedAt: time.Now().UTC(),
		Verified:   true,
		EventType:  note.Type,
		CampaignID: note.RecordID,
		DeliveryID: "reconcile-" + uuid.NewString(),
	}
	entry.DedupeKey = note.dedupeKey(entry.ReceivedAt)
	if raw, err := json.Marshal(note); err == nil {
		entry.Payload = datatypes.JSON(raw)
	}
	if err := ing.Repo.AppendWebhookEvent(ctx, entry); err != nil {
		return Result{Verified: true}, fmt.Errorf("append reconcile event: %w", err)
	}
	return ing.apply(ctx, entry, note)
}

func (ing *Ingestor) apply(ctx context.Context, entry *models.WebhookEvent, note *Notification) (Result, error) {
	res := Result{Verified: true}

	lock := ing.lockFor(note.RecordID)
	lock.Lock()
	defer lock.Unlock()

	seen, err := ing.Repo.HasAppliedEvent(ctx, entry.DedupeKey)
	if err != nil {
		return res, fmt.Errorf("idempotency probe: %w", err)
	}
	if seen {
		res.Duplicate = true
		ing.logDebug("duplicate delivery ignored",
			zap.String("campaign_id", note.RecordID),
			zap.String("dedupe_key", entry.DedupeKey))
		return res, nil
	}

	camp, err := ing.Repo.GetCampaign(ctx, note.RecordID)
	if err != nil {
		return res, fmt.Errorf("load campaign: %w", err)
	}
	created := false
	if camp == nil {
		camp = &models.Campaign{
			ID:        note.RecordID,
			StoreID:   note.StoreContext,
			Status:    models.StatusNew,
			SourceTag: models.SourceIngested,
			CreatedAt: note.createdAt(entry.ReceivedAt),
		}
		created = true
	}
	res.Status = camp.Status

	if models.IsTerminalStatus(camp.Status) {
		ing.logDebug("event ignored: campaign already terminal",
			zap.String("campaign_id", camp.ID),
			zap.String("status", camp.Status),
			zap.String("event_type", note.Type))
		return res, nil
	}

	target, known := transitionTargets[note.normalizedType()]
	if !known {
		ing.logDebug("event ignored: unmapped type",
			zap.String("campaign_id", note.RecordID),
			zap.String("event_type", note.Type))
		return res, nil
	}

	switch target {
	case models.StatusNew:
		// Creation notices only establish the record.
		if !created {
			return res, nil
		}
	case models.StatusProcessing:
		if camp.Status != models.StatusNew {
			return res, nil
		}
		camp.Status = models.StatusProcessing
	case models.StatusSettled:
		ts := note.eventTime(entry.ReceivedAt)
		camp.Status = models.StatusSettled
		camp.RaisedAmount += note.CryptoAmount
		camp.SettledAt = &ts
	case models.StatusExpired:
		camp.Status = models.StatusExpired
	case models.StatusInvalid:
		camp.Status = models.StatusInvalid
	}

	camp.SourceTag = models.SourceIngested
	if note.StoreContext != "" {
		camp.StoreID = note.StoreContext
	}
	if !note.FiatAmount.IsZero() {
		camp.FiatAmount = note.FiatAmount
	}
	if note.FiatCurrency != "" {
		camp.FiatCurrency = note.FiatCurrency
	}
	camp.Metadata = mergeMetadata(camp.Metadata, note.Metadata)

	if err := ing.Repo.SaveCampaign(ctx, camp); err != nil {
		return res, fmt.Errorf("save campaign: %w", err)
	}
	if err := ing.Repo.MarkWebhookEventApplied(ctx, entry.ID); err != nil {
		return res, fmt.Errorf("mark event applied: %w", err)
	}
	res.Applied = true
	res.Status = camp.Status
	ing.logInfo("campaign transition applied",
		zap.String("campaign_id", camp.ID),
		zap.String("event_type", note.Type),
		zap.String("status", camp.Status),
		zap.Int64("raised_amount", camp.RaisedAmount))
	return res, nil
}

// lockFor hands out one guard per campaign id. Guards are never evicted;
// the map is bounded by the number of distinct campaigns seen.
func (ing *Ingestor) lockFor(id string) *sync.Mutex {
	ing.mu.Lock()
	defer ing.mu.Unlock()
	if ing.locks == nil {
		ing.locks = map[string]*sync.Mutex{}
	}
	m, ok := ing.locks[id]
	if !ok {
		m = &sync.Mutex{}
		ing.locks[id] = m
	}
	return m
}

// payloadJSON stores the raw body when it is valid JSON, otherwise wraps it
// so the jsonb column still accepts the audit row.
func payloadJSON(raw []byte) datatypes.JSON {
	if json.Valid(raw) {
		return datatypes.JSON(raw)
	}
	wrapped, _ := json.Marshal(map[string]string{"raw": string(raw)})
	return datatypes.JSON(wrapped)
}

func mergeMetadata(existing datatypes.JSON, updates map[string]any) datatypes.JSON {
	if len(updates) == 0 {
		return existing
	}
	merged := map[string]any{}
	if len(existing) > 0 {
		_ = json.Unmarshal(existing, &merged)
	}
	for k, v := range updates {
		merged[k] = v
	}
	raw, err := json.Marshal(merged)
	if err != nil {
		return existing
	}
	return datatypes.JSON(raw)
}

func (ing *Ingestor) logDebug(msg string, fields ...zap.Field) {
	if ing == nil || ing.Logger == nil {
		return
	}
	ing.Logger.Debug(msg, fields...)
}

func (ing *Ingestor) logInfo(msg string, fields ...zap.Field) {
	if ing == nil || ing.Logger == nil {
		return
	}
	ing.Logger.Info(msg, fields...)
}
