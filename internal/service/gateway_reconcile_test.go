package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fundwatch/internal/client/btcpay"
	"fundwatch/internal/ingest"
	"fundwatch/internal/models"
)

// fakeGateway serves the two Greenfield endpoints the reconcile pass hits.
func fakeGateway(t *testing.T, invoiceStatus string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/payment-methods"):
			fmt.Fprint(w, `[{"paymentMethod":"BTC-CHAIN","totalPaid":"0.001"}]`)
		case strings.Contains(r.URL.Path, "/invoices/"):
			fmt.Fprintf(w, `{"id":"inv-1","storeId":"store-1","status":%q,"amount":21.5,"currency":"USD","createdTime":1717200000}`, invoiceStatus)
		default:
			http.NotFound(w, r)
		}
	}))
}

func newReconcileService(repo *stubRepo, gatewayURL string) *GatewayReconcileService {
	client := btcpay.NewClient(&http.Client{Timeout: 5 * time.Second}, gatewayURL, "api-key", "store-1")
	return &GatewayReconcileService{
		Repo:     repo,
		Gateway:  client,
		Ingestor: &ingest.Ingestor{Repo: repo, Secret: []byte("secret")},
	}
}

func TestGatewayReconcile_SettlesStaleCampaign(t *testing.T) {
	server := fakeGateway(t, "Settled")
	defer server.Close()

	repo := newStubRepo()
	stale := models.Campaign{
		ID:        "inv-1",
		Status:    models.StatusProcessing,
		SourceTag: models.SourceIngested,
		CreatedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	repo.campaigns["inv-1"] = &stale
	repo.stale = []models.Campaign{stale}

	svc := newReconcileService(repo, server.URL)
	applied, err := svc.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if applied != 1 {
		t.Fatalf("applied=%d want 1", applied)
	}

	camp := repo.campaign("inv-1")
	if camp.Status != models.StatusSettled {
		t.Fatalf("status=%s want %s", camp.Status, models.StatusSettled)
	}
	if camp.RaisedAmount != 100000 {
		t.Fatalf("raised=%d want 100000 sats for 0.001 BTC", camp.RaisedAmount)
	}
	if camp.SettledAt == nil || camp.SettledAt.Unix() != 1717200000 {
		t.Fatalf("settledAt=%v want invoice creation time", camp.SettledAt)
	}

	if repo.eventCount() != 1 || repo.appliedCount() != 1 {
		t.Fatalf("events=%d applied=%d want 1/1", repo.eventCount(), repo.appliedCount())
	}
	entry := repo.events[0]
	if !entry.Verified {
		t.Fatalf("reconcile event must be logged verified")
	}
	if !strings.HasPrefix(entry.DeliveryID, "reconcile-") {
		t.Fatalf("deliveryId=%s want reconcile prefix", entry.DeliveryID)
	}

	meta := map[string]any{}
	if err := json.Unmarshal(camp.Metadata, &meta); err != nil {
		t.Fatalf("metadata=%s: %v", camp.Metadata, err)
	}
	if meta["origin"] != "gateway-reconcile" {
		t.Fatalf("metadata=%v want reconcile origin marker", meta)
	}
}

func TestGatewayReconcile_SecondPassIsDuplicate(t *testing.T) {
	server := fakeGateway(t, "Settled")
	defer server.Close()

	repo := newStubRepo()
	stale := models.Campaign{ID: "inv-1", Status: models.StatusProcessing, SourceTag: models.SourceIngested}
	repo.campaigns["inv-1"] = &stale
	repo.stale = []models.Campaign{stale}

	svc := newReconcileService(repo, server.URL)
	if _, err := svc.RunOnce(context.Background()); err != nil {
		t.Fatalf("first pass err=%v", err)
	}
	applied, err := svc.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("second pass err=%v", err)
	}
	if applied != 0 {
		t.Fatalf("applied=%d want 0 on replayed gateway state", applied)
	}
	// The duplicate is still logged; only the transition is suppressed.
	if repo.eventCount() != 2 || repo.appliedCount() != 1 {
		t.Fatalf("events=%d applied=%d want 2/1", repo.eventCount(), repo.appliedCount())
	}
	if got := repo.campaign("inv-1").RaisedAmount; got != 100000 {
		t.Fatalf("raised=%d want 100000 (no double count)", got)
	}
}

func TestGatewayReconcile_SkipsNonTerminalInvoice(t *testing.T) {
	server := fakeGateway(t, "Processing")
	defer server.Close()

	repo := newStubRepo()
	stale := models.Campaign{ID: "inv-1", Status: models.StatusNew, SourceTag: models.SourceIngested}
	repo.campaigns["inv-1"] = &stale
	repo.stale = []models.Campaign{stale}

	svc := newReconcileService(repo, server.URL)
	applied, err := svc.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if applied != 0 {
		t.Fatalf("applied=%d want 0", applied)
	}
	if repo.eventCount() != 0 {
		t.Fatalf("events=%d want 0 (nothing to replay)", repo.eventCount())
	}
	if got := repo.campaign("inv-1").Status; got != models.StatusNew {
		t.Fatalf("status=%s want untouched", got)
	}
}

func TestGatewayReconcile_NoGatewayConfigured(t *testing.T) {
	svc := &GatewayReconcileService{Repo: newStubRepo()}
	applied, err := svc.RunOnce(context.Background())
	if err != nil || applied != 0 {
		t.Fatalf("applied=%d err=%v want quiet no-op", applied, err)
	}
}
