package btcpay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var satsPerBTC = decimal.NewFromInt(100_000_000)

// Client is a minimal Greenfield API client scoped to one store. It covers
// what the monitor needs: webhook registration at startup and invoice polling
// for the reconciliation pass.
type Client struct {
	baseURL    string
	apiKey     string
	storeID    string
	httpClient *http.Client
}

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.Status, e.Body)
}

func NewClient(httpClient *http.Client, baseURL, apiKey, storeID string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		storeID:    storeID,
		httpClient: httpClient,
	}
}

type Invoice struct {
	ID          string          `json:"id"`
	StoreID     string          `json:"storeId"`
	Status      string          `json:"status"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	CreatedTime int64           `json:"createdTime"`
}

// CreatedAt converts the gateway's unix-seconds creation stamp.
func (inv Invoice) CreatedAt() time.Time {
	if inv.CreatedTime <= 0 {
		return time.Time{}
	}
	return time.Unix(inv.CreatedTime, 0).UTC()
}

type webhookInfo struct {
	ID      string `json:"id"`
	URL     string `json:"url"`
	Enabled bool   `json:"enabled"`
}

type paymentMethod struct {
	PaymentMethod string          `json:"paymentMethod"`
	TotalPaid     decimal.Decimal `json:"totalPaid"`
}

func (c *Client) doRequest(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "token "+c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

func (c *Client) GetInvoice(ctx context.Context, invoiceID string) (*Invoice, error) {
	invoiceID = strings.TrimSpace(invoiceID)
	if invoiceID == "" {
		return nil, fmt.Errorf("invoice id is required")
	}
	body, err := c.doRequest(ctx, http.MethodGet,
		"/api/v1/stores/"+url.PathEscape(c.storeID)+"/invoices/"+url.PathEscape(invoiceID), nil)
	if err != nil {
		return nil, err
	}
	var inv Invoice
	if err := json.Unmarshal(body, &inv); err != nil {
		return nil, fmt.Errorf("failed to parse invoice: %w", err)
	}
	return &inv, nil
}

// GetInvoicePaidSats sums the settled payments across all payment methods of
// an invoice and converts to satoshi.
func (c *Client) GetInvoicePaidSats(ctx context.Context, invoiceID string) (int64, error) {
	invoiceID = strings.TrimSpace(invoiceID)
	if invoiceID == "" {
		return 0, fmt.Errorf("invoice id is required")
	}
	body, err := c.doRequest(ctx, http.MethodGet,
		"/api/v1/stores/"+url.PathEscape(c.storeID)+"/invoices/"+url.PathEscape(invoiceID)+"/payment-methods", nil)
	if err != nil {
		return 0, err
	}
	var methods []paymentMethod
	if err := json.Unmarshal(body, &methods); err != nil {
		return 0, fmt.Errorf("failed to parse payment methods: %w", err)
	}
	total := decimal.Zero
	for _, m := range methods {
		total = total.Add(m.TotalPaid)
	}
	return total.Mul(satsPerBTC).IntPart(), nil
}

// EnsureWebhook registers the monitor's delivery endpoint with the store if
// no webhook for that URL exists yet. Idempotent across restarts.
func (c *Client) EnsureWebhook(ctx context.Context, webhookURL, secret string) error {
	webhookURL = strings.TrimSpace(webhookURL)
	if webhookURL == "" {
		return fmt.Errorf("webhook url is required")
	}
	body, err := c.doRequest(ctx, http.MethodGet,
		"/api/v1/stores/"+url.PathEscape(c.storeID)+"/webhooks", nil)
	if err != nil {
		return err
	}
	var hooks []webhookInfo
	if err := json.Unmarshal(body, &hooks); err != nil {
		return fmt.Errorf("failed to parse webhooks: %w", err)
	}
	for _, h := range hooks {
		if strings.EqualFold(strings.TrimRight(h.URL, "/"), strings.TrimRight(webhookURL, "/")) {
			return nil
		}
	}
	payload := map[string]any{
		"url":                 webhookURL,
		"enabled":             true,
		"automaticRedelivery": true,
		"secret":              secret,
		"authorizedEvents":    map[string]any{"everything": true},
	}
	_, err = c.doRequest(ctx, http.MethodPost,
		"/api/v1/stores/"+url.PathEscape(c.storeID)+"/webhooks", payload)
	return err
}
