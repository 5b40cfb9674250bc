package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"fundwatch/internal/models"
	"fundwatch/internal/repository"
	"fundwatch/internal/source"
)

// SourceRefreshService walks the source tiers on an interval, persists the
// fetched record set, and records per-tier health. Rows owned by ingestion
// are never overwritten (the upsert is guarded at the SQL level).
type SourceRefreshService struct {
	Repo     repository.Repository
	Resolver *source.Resolver
	Interval time.Duration
	Logger   *zap.Logger
}

func (s *SourceRefreshService) Run(ctx context.Context) error {
	if s == nil || s.Repo == nil || s.Resolver == nil {
		return nil
	}
	interval := s.Interval
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	// Run once on start.
	_, _ = s.RunOnce(ctx)

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			_, _ = s.RunOnce(ctx)
		}
	}
}

// RunOnce resolves the tier chain once and upserts the result. Returns the
// number of fetched records. Tier health is recorded even when every tier
// fails.
func (s *SourceRefreshService) RunOnce(ctx context.Context) (int, error) {
	if s == nil || s.Repo == nil || s.Resolver == nil {
		return 0, nil
	}
	items, reports, err := s.Resolver.ResolveWithReport(ctx)
	s.recordStates(ctx, reports)
	if err != nil {
		s.logWarn("source refresh resolve failed", err)
		return 0, err
	}
	if err := s.Repo.UpsertFetchedCampaigns(ctx, items); err != nil {
		s.logWarn("source refresh persist failed", err)
		return 0, err
	}
	if s.Logger != nil {
		s.Logger.Info("source refresh complete", zap.Int("records", len(items)))
	}
	return len(items), nil
}

func (s *SourceRefreshService) recordStates(ctx context.Context, reports []source.TierReport) {
	for _, rep := range reports {
		attempted := rep.AttemptedAt
		state := models.SourceState{
			Tier:          rep.Tier,
			LastAttemptAt: &attempted,
			RecordCount:   rep.RecordCount,
		}
		if rep.Succeeded {
			state.LastSuccessAt = &attempted
		} else {
			msg := rep.Err
			state.LastError = &msg
		}
		if raw, err := json.Marshal(map[string]any{
			"elapsedMs": rep.Elapsed.Milliseconds(),
			"succeeded": rep.Succeeded,
		}); err == nil {
			state.StatsJSON = datatypes.JSON(raw)
		}
		if err := s.Repo.UpsertSourceState(ctx, &state); err != nil {
			s.logWarn("source state upsert failed", err, zap.String("tier", rep.Tier))
		}
	}
}

func (s *SourceRefreshService) logWarn(msg string, err error, fields ...zap.Field) {
	if s == nil || s.Logger == nil {
		return
	}
	s.Logger.Warn(msg, append(fields, zap.Error(err))...)
}
