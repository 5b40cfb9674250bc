package nostr

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"nhooyr.io/websocket"
)

// Client fetches single events from a set of relays. Campaign descriptors
// live on relays as events referenced by id from the chain indexer; one
// fetch per id is all the monitor ever needs, so there is no persistent
// subscription here.
type Client struct {
	urls    []string
	timeout time.Duration
}

// Metadata is the decoded event content for a campaign descriptor event.
type Metadata struct {
	Name         string `json:"name"`
	About        string `json:"about"`
	Picture      string `json:"picture"`
	TargetAmount int64  `json:"targetAmount"`
}

type relayEvent struct {
	ID        string `json:"id"`
	Kind      int    `json:"kind"`
	Content   string `json:"content"`
	CreatedAt int64  `json:"created_at"`
}

func NewClient(urls []string, timeout time.Duration) *Client {
	cleaned := make([]string, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u != "" {
			cleaned = append(cleaned, u)
		}
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{urls: cleaned, timeout: timeout}
}

// FetchEventMetadata tries each relay in order and returns the first decoded
// descriptor. Relays that are down, slow, or do not carry the event are
// skipped.
func (c *Client) FetchEventMetadata(ctx context.Context, eventID string) (*Metadata, error) {
	if c == nil {
		return nil, fmt.Errorf("nostr client is nil")
	}
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return nil, fmt.Errorf("event id is required")
	}
	var lastErr error
	for _, relayURL := range c.urls {
		meta, err := c.fetchFromRelay(ctx, relayURL, eventID)
		if err == nil {
			return meta, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no relays configured")
	}
	return nil, fmt.Errorf("event %s: %w", eventID, lastErr)
}

func (c *Client) fetchFromRelay(ctx context.Context, relayURL, eventID string) (*Metadata, error) {
	relayCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, _, err := websocket.Dial(relayCtx, relayURL, nil)
	if err != nil {
		return nil, err
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")
	conn.SetReadLimit(1 << 20) // 1MB

	sub := uuid.NewString()
	req, err := json.Marshal([]any{"REQ", sub, map[string]any{"ids": []string{eventID}, "limit": 1}})
	if err != nil {
		return nil, err
	}
	if err := conn.Write(relayCtx, websocket.MessageText, req); err != nil {
		return nil, err
	}

	for {
		_, data, err := conn.Read(relayCtx)
		if err != nil {
			return nil, err
		}
		var frame []json.RawMessage
		if err := json.Unmarshal(data, &frame); err != nil || len(frame) == 0 {
			continue
		}
		var label string
		if err := json.Unmarshal(frame[0], &label); err != nil {
			continue
		}
		switch label {
		case "EVENT":
			if len(frame) < 3 {
				continue
			}
			var ev relayEvent
			if err := json.Unmarshal(frame[2], &ev); err != nil {
				continue
			}
			if closeReq, err := json.Marshal([]any{"CLOSE", sub}); err == nil {
				_ = conn.Write(relayCtx, websocket.MessageText, closeReq)
			}
			return parseMetadata(ev.Content)
		case "EOSE":
			return nil, fmt.Errorf("relay %s: event not found", relayURL)
		default:
			// NOTICE, OK and anything else: keep reading until EOSE.
		}
	}
}

func parseMetadata(content string) (*Metadata, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("empty event content")
	}
	var meta Metadata
	if err := json.Unmarshal([]byte(content), &meta); err != nil {
		return nil, fmt.Errorf("failed to parse event content: %w", err)
	}
	return &meta, nil
}
