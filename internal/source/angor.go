package source

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"fundwatch/internal/client/angor"
	"fundwatch/internal/models"
)

// Mined 2009-01-03; block heights are turned into rough wall-clock times
// at the 10-minute target spacing. Good enough for sorting and daily buckets.
var genesisBlockTime = time.Date(2009, 1, 3, 18, 15, 5, 0, time.UTC)

// AngorProvider is the live tier: the on-chain project registry plus
// per-project investment stats. Stats fetches are bounded-concurrent and
// best-effort; a project whose stats call fails keeps zero amounts rather
// than failing the tier.
type AngorProvider struct {
	Client           *angor.Client
	Logger           *zap.Logger
	MaxProjects      int
	StatsConcurrency int
}

func (p *AngorProvider) Name() string { return "angor-indexer" }

func (p *AngorProvider) Tag() string { return models.SourceLive }

func (p *AngorProvider) Fetch(ctx context.Context) ([]models.Campaign, error) {
	if p == nil || p.Client == nil {
		return nil, fmt.Errorf("indexer client not configured")
	}
	limit := p.MaxProjects
	if limit <= 0 {
		limit = 200
	}
	projects, err := p.Client.ListProjects(ctx, 0, limit)
	if err != nil {
		return nil, err
	}
	if len(projects) == 0 {
		return nil, fmt.Errorf("indexer returned no projects")
	}

	items := make([]models.Campaign, len(projects))
	for i, proj := range projects {
		items[i] = campaignFromProject(proj)
	}
	p.fillStats(ctx, projects, items)
	return items, nil
}

func campaignFromProject(proj angor.Project) models.Campaign {
	meta, _ := json.Marshal(map[string]any{
		"founderKey":     proj.FounderKey,
		"nostrEventId":   proj.NostrEventID,
		"txId":           proj.TrxID,
		"createdOnBlock": proj.CreatedOnBlock,
	})
	return models.Campaign{
		ID:        proj.ProjectIdentifier,
		Status:    models.StatusNew,
		SourceTag: models.SourceLive,
		CreatedAt: estimateBlockTime(proj.CreatedOnBlock),
		Metadata:  datatypes.JSON(meta),
	}
}

func (p *AngorProvider) fillStats(ctx context.Context, projects []angor.Project, out []models.Campaign) {
	conc := p.StatsConcurrency
	if conc <= 0 {
		conc = 8
	}
	sem := make(chan struct{}, conc)
	var wg sync.WaitGroup
	for i := range projects {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			stats, err := p.Client.GetProjectStats(ctx, projects[i].ProjectIdentifier)
			if err != nil || stats == nil {
				if p.Logger != nil {
					p.Logger.Debug("project stats fetch failed",
						zap.String("project_id", projects[i].ProjectIdentifier),
						zap.Error(err))
				}
				return
			}
			out[i].RaisedAmount = stats.AmountInvested
			out[i].Metadata = metadataSet(out[i].Metadata, "investorCount", stats.InvestorCount)
		}(i)
	}
	wg.Wait()
}

func estimateBlockTime(height int64) time.Time {
	if height <= 0 {
		return time.Time{}
	}
	return genesisBlockTime.Add(time.Duration(height) * 10 * time.Minute)
}
