package source

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"fundwatch/internal/metrics"
	"fundwatch/internal/models"
	"fundwatch/internal/repository"
)

// TierReport records one tier attempt so callers can persist source health.
type TierReport struct {
	Tier        string
	AttemptedAt time.Time
	Elapsed     time.Duration
	Succeeded   bool
	RecordCount int
	Err         string
}

// Resolver walks the provider chain until one tier yields records. The live
// tier result is enriched before use. Fetched records are cached pre-merge;
// ingested campaign state is overlaid fresh on every read so payment-driven
// fields never go stale behind the cache TTL.
type Resolver struct {
	Providers   []Provider
	Enricher    *Enricher
	Repo        repository.Repository
	Cache       *Cache
	Logger      *zap.Logger
	TierTimeout time.Duration
}

// Resolve returns the merged campaign view for read paths. It serves from
// cache when possible and falls through to the tier chain otherwise.
func (r *Resolver) Resolve(ctx context.Context) ([]models.Campaign, error) {
	if cached, ok := r.Cache.GetCampaigns(resolveCacheKey); ok {
		metrics.SourceResolves.WithLabelValues("cache").Inc()
		return r.mergeIngested(ctx, cached)
	}
	fetched, _, err := r.ResolveWithReport(ctx)
	if err != nil {
		return nil, err
	}
	return r.mergeIngested(ctx, fetched)
}

// ResolveWithReport always walks the tier chain (no cache read) and returns
// the fetched records plus one report per attempted tier. The refresh job
// uses this form to persist tier health alongside the records.
func (r *Resolver) ResolveWithReport(ctx context.Context) ([]models.Campaign, []TierReport, error) {
	if r == nil || len(r.Providers) == 0 {
		return nil, nil, fmt.Errorf("no source providers configured")
	}
	timeout := r.TierTimeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	reports := make([]TierReport, 0, len(r.Providers))
	var lastErr error
	for _, provider := range r.Providers {
		report := TierReport{Tier: provider.Name(), AttemptedAt: time.Now().UTC()}

		tierCtx, cancel := context.WithTimeout(ctx, timeout)
		items, err := provider.Fetch(tierCtx)
		cancel()
		report.Elapsed = time.Since(report.AttemptedAt)

		if err == nil && len(items) == 0 {
			err = fmt.Errorf("provider returned no records")
		}
		if err != nil {
			report.Err = err.Error()
			reports = append(reports, report)
			lastErr = fmt.Errorf("%s: %w", provider.Name(), err)
			metrics.SourceFailures.WithLabelValues(provider.Tag()).Inc()
			if r.Logger != nil {
				r.Logger.Warn("source tier failed",
					zap.String("tier", provider.Name()),
					zap.Error(err))
			}
			continue
		}

		if provider.Tag() == models.SourceLive && r.Enricher != nil {
			items = r.Enricher.Enrich(ctx, items)
		}

		report.Succeeded = true
		report.RecordCount = len(items)
		reports = append(reports, report)
		metrics.SourceResolves.WithLabelValues(provider.Tag()).Inc()
		r.Cache.SetCampaigns(resolveCacheKey, items)
		return items, reports, nil
	}
	return nil, reports, fmt.Errorf("all source tiers failed: %w", lastErr)
}

// mergeIngested overlays ingested campaign rows onto the fetched set. For a
// campaign present in both, payment-driven fields (status, raised amount,
// fiat figures) come from the ingested row and descriptive blanks are filled
// from the fetched record. Ingested-only campaigns are appended at the end.
func (r *Resolver) mergeIngested(ctx context.Context, fetched []models.Campaign) ([]models.Campaign, error) {
	if r.Repo == nil {
		return fetched, nil
	}
	ingestedTag := models.SourceIngested
	byID := make(map[string]int, len(fetched))
	for i := range fetched {
		byID[fetched[i].ID] = i
	}

	merged := make([]models.Campaign, len(fetched))
	copy(merged, fetched)

	const batch = 500
	offset := 0
	for {
		rows, err := r.Repo.ListCampaigns(ctx, repository.ListCampaignsParams{
			Limit:     batch,
			Offset:    offset,
			SourceTag: &ingestedTag,
		})
		if err != nil {
			return nil, fmt.Errorf("list ingested campaigns: %w", err)
		}
		for _, row := range rows {
			if i, ok := byID[row.ID]; ok {
				merged[i] = overlayIngested(row, merged[i])
			} else {
				merged = append(merged, row)
			}
		}
		if len(rows) < batch {
			return merged, nil
		}
		offset += len(rows)
	}
}

// overlayIngested keeps the ingested row as the base and fills descriptive
// blanks (title, target, creation time, metadata keys) from the fetched one.
func overlayIngested(ingested, fetched models.Campaign) models.Campaign {
	out := ingested
	if out.Title == "" {
		out.Title = fetched.Title
	}
	if out.TargetAmount == 0 {
		out.TargetAmount = fetched.TargetAmount
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = fetched.CreatedAt
	}
	out.Metadata = fillMetadata(out.Metadata, fetched.Metadata)
	return out
}

// fillMetadata merges fetched metadata keys under the ingested ones so
// enrichment fields (about, investorCount) show up on ingested campaigns
// without clobbering anything the payment stream wrote.
func fillMetadata(ingested, fetched datatypes.JSON) datatypes.JSON {
	if len(fetched) == 0 {
		return ingested
	}
	if len(ingested) == 0 {
		return fetched
	}
	base := map[string]any{}
	if err := json.Unmarshal(fetched, &base); err != nil {
		return ingested
	}
	over := map[string]any{}
	if err := json.Unmarshal(ingested, &over); err != nil {
		return ingested
	}
	for k, v := range over {
		base[k] = v
	}
	out, err := json.Marshal(base)
	if err != nil {
		return ingested
	}
	return datatypes.JSON(out)
}
