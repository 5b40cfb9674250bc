package repository

import (
	"context"
	"time"

	"fundwatch/internal/models"
)

type Repository interface {
	// Campaigns
	GetCampaign(ctx context.Context, id string) (*models.Campaign, error)
	SaveCampaign(ctx context.Context, item *models.Campaign) error
	UpsertFetchedCampaigns(ctx context.Context, items []models.Campaign) error
	ListCampaigns(ctx context.Context, params ListCampaignsParams) ([]models.Campaign, error)
	CountCampaigns(ctx context.Context, params ListCampaignsParams) (int64, error)
	ListStaleCampaigns(ctx context.Context, before time.Time, limit int) ([]models.Campaign, error)

	// Webhook event log. Append-only: Applied is the only column ever
	// written after insert, rows are never deleted.
	AppendWebhookEvent(ctx context.Context, item *models.WebhookEvent) error
	MarkWebhookEventApplied(ctx context.Context, id uint64) error
	HasAppliedEvent(ctx context.Context, dedupeKey string) (bool, error)
	ListWebhookEvents(ctx context.Context, params ListWebhookEventsParams) ([]models.WebhookEvent, error)
	CountWebhookEvents(ctx context.Context, params ListWebhookEventsParams) (int64, error)

	// Source tier bookkeeping
	UpsertSourceState(ctx context.Context, item *models.SourceState) error
	ListSourceStates(ctx context.Context) ([]models.SourceState, error)
}

type ListCampaignsParams struct {
	Limit     int
	Offset    int
	Status    *string
	SourceTag *string
	StoreID   *string
	OrderBy   string
	Asc       *bool
}

type ListWebhookEventsParams struct {
	Limit      int
	Offset     int
	CampaignID *string
	EventType  *string
	Verified   *bool
	Applied    *bool
	Since      *time.Time
}
