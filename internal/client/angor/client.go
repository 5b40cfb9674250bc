package angor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Client speaks to an Angor block indexer. The indexer exposes the on-chain
// project registry and per-project investment stats; it knows nothing about
// titles or descriptions (those live on relays).
type Client struct {
	host       string
	httpClient *http.Client
}

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.Status, e.Body)
}

func NewClient(httpClient *http.Client, host string) *Client {
	if host == "" {
		host = "https://btc.indexer.angor.io"
	}
	host = strings.TrimRight(host, "/")
	return &Client{
		host:       host,
		httpClient: httpClient,
	}
}

type Project struct {
	ProjectIdentifier     string `json:"projectIdentifier"`
	FounderKey            string `json:"founderKey"`
	NostrEventID          string `json:"nostrEventId"`
	TrxID                 string `json:"trxId"`
	CreatedOnBlock        int64  `json:"createdOnBlock"`
	TotalInvestmentsCount int64  `json:"totalInvestmentsCount"`
}

type ProjectStats struct {
	InvestorCount             int64 `json:"investorCount"`
	AmountInvested            int64 `json:"amountInvested"`
	AmountSpentSoFarByFounder int64 `json:"amountSpentSoFarByFounder"`
	AmountInPenalties         int64 `json:"amountInPenalties"`
	CountInPenalties          int64 `json:"countInPenalties"`
}

func (c *Client) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	fullURL := c.host + path
	if len(query) > 0 {
		fullURL = fullURL + "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

func (c *Client) ListProjects(ctx context.Context, offset, limit int) ([]Project, error) {
	query := url.Values{}
	if offset > 0 {
		query.Set("offset", strconv.Itoa(offset))
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	body, err := c.doRequest(ctx, "/api/query/Angor/projects", query)
	if err != nil {
		return nil, err
	}
	var projects []Project
	if err := json.Unmarshal(body, &projects); err != nil {
		return nil, fmt.Errorf("failed to parse projects: %w", err)
	}
	return projects, nil
}

func (c *Client) GetProjectStats(ctx context.Context, projectID string) (*ProjectStats, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return nil, fmt.Errorf("project id is required")
	}
	body, err := c.doRequest(ctx, "/api/query/Angor/projects/"+url.PathEscape(projectID)+"/stats", nil)
	if err != nil {
		return nil, err
	}
	var stats ProjectStats
	if err := json.Unmarshal(body, &stats); err != nil {
		return nil, fmt.Errorf("failed to parse project stats: %w", err)
	}
	return &stats, nil
}
