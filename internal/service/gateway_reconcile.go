package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"fundwatch/internal/client/btcpay"
	"fundwatch/internal/config"
	"fundwatch/internal/ingest"
	"fundwatch/internal/metrics"
	"fundwatch/internal/models"
	"fundwatch/internal/repository"
)

// GatewayReconcileService polls the payment gateway for campaigns stuck in a
// non-terminal status whose webhook deliveries may have been missed. Gateway
// state is authoritative: terminal invoice statuses are replayed through the
// regular ingest path so they land in the event log like any delivery.
//
// Disabled by default (see config); it needs a provisioned gateway API key.
type GatewayReconcileService struct {
	Repo     repository.Repository
	Gateway  *btcpay.Client
	Ingestor *ingest.Ingestor
	Config   config.ReconcileConfig
	Interval time.Duration
	Logger   *zap.Logger
}

func (s *GatewayReconcileService) Run(ctx context.Context) error {
	if s == nil || s.Repo == nil || s.Gateway == nil || s.Ingestor == nil {
		return nil
	}
	interval := s.Interval
	if interval <= 0 {
		interval = 30 * time.Minute
	}
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

// RunOnce reconciles one batch of stale campaigns. Per-campaign gateway
// failures are logged and skipped; the campaign stays stale and is picked up
// again on the next pass. Returns the number of applied transitions.
func (s *GatewayReconcileService) RunOnce(ctx context.Context) (int, error) {
	if s == nil || s.Repo == nil || s.Gateway == nil || s.Ingestor == nil {
		return 0, nil
	}
	minAge := s.Config.MinAge
	if minAge <= 0 {
		minAge = time.Hour
	}
	batch := s.Config.BatchSize
	if batch <= 0 || batch > 500 {
		batch = 50
	}
	cutoff := time.Now().UTC().Add(-minAge)

	stale, err := s.Repo.ListStaleCampaigns(ctx, cutoff, batch)
	if err != nil {
		s.logWarn("reconcile list stale campaigns failed", err)
		return 0, err
	}

	applied := 0
	for _, camp := range stale {
		if ctx.Err() != nil {
			return applied, ctx.Err()
		}
		inv, err := s.Gateway.GetInvoice(ctx, camp.ID)
		if err != nil {
			s.logWarn("reconcile invoice fetch failed", err, zap.String("campaign_id", camp.ID))
			continue
		}
		if inv == nil || !models.IsTerminalStatus(inv.Status) {
			continue
		}

		var paidSats int64
		if inv.Status == models.StatusSettled {
			paidSats, err = s.Gateway.GetInvoicePaidSats(ctx, inv.ID)
			if err != nil {
				// Without the paid amount a settlement would record zero
				// raised; try again next pass instead.
				s.logWarn("reconcile paid amount fetch failed", err, zap.String("campaign_id", camp.ID))
				continue
			}
		}

		res, err := s.Ingestor.Reconcile(ctx, *inv, paidSats)
		if err != nil {
			s.logWarn("reconcile transition failed", err, zap.String("campaign_id", camp.ID))
			continue
		}
		if res.Applied {
			applied++
			metrics.ReconcileTransitions.Inc()
			if s.Logger != nil {
				s.Logger.Info("reconcile applied gateway status",
					zap.String("campaign_id", camp.ID),
					zap.String("status", res.Status))
			}
		}
	}
	return applied, nil
}

func (s *GatewayReconcileService) logWarn(msg string, err error, fields ...zap.Field) {
	if s == nil || s.Logger == nil {
		return
	}
	s.Logger.Warn(msg, append(fields, zap.Error(err))...)
}
