package source

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"fundwatch/internal/client/nostr"
	"fundwatch/internal/metrics"
	"fundwatch/internal/models"
)

// Enricher fills display fields (title, target, description) from relay
// descriptor events. The whole pass shares one deadline: whatever has not
// resolved by then is cancelled and those records ship unenriched. A failed
// fetch never drops a record.
type Enricher struct {
	Relay       *nostr.Client
	Logger      *zap.Logger
	Concurrency int
	Deadline    time.Duration
}

func (e *Enricher) Enrich(ctx context.Context, items []models.Campaign) []models.Campaign {
	if e == nil || e.Relay == nil || len(items) == 0 {
		return items
	}
	deadline := e.Deadline
	if deadline <= 0 {
		deadline = 10 * time.Second
	}
	conc := e.Concurrency
	if conc <= 0 {
		conc = 4
	}
	enrichCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	sem := make(chan struct{}, conc)
	var wg sync.WaitGroup
	for i := range items {
		if items[i].Title != "" {
			continue
		}
		eventID := metadataString(items[i].Metadata, "nostrEventId")
		if eventID == "" {
			continue
		}
		wg.Add(1)
		go func(i int, eventID string) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-enrichCtx.Done():
				return
			}
			meta, err := e.Relay.FetchEventMetadata(enrichCtx, eventID)
			if err != nil {
				metrics.EnrichmentFailures.Inc()
				if e.Logger != nil {
					e.Logger.Debug("descriptor fetch failed",
						zap.String("campaign_id", items[i].ID),
						zap.Error(err))
				}
				return
			}
			if meta.Name != "" {
				items[i].Title = meta.Name
			}
			if meta.TargetAmount > 0 && items[i].TargetAmount == 0 {
				items[i].TargetAmount = meta.TargetAmount
			}
			if meta.About != "" {
				items[i].Metadata = metadataSet(items[i].Metadata, "about", meta.About)
			}
		}(i, eventID)
	}
	wg.Wait()
	return items
}
