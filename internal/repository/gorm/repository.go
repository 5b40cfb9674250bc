package gormrepository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fundwatch/internal/models"
	"fundwatch/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// --- campaigns ---------------------------------------------------------------

func (s *Store) GetCampaign(ctx context.Context, id string) (*models.Campaign, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}
	var item models.Campaign
	err := s.db.WithContext(ctx).Model(&models.Campaign{}).Where("id = ?", id).First(&item).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) SaveCampaign(ctx context.Context, item *models.Campaign) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if strings.TrimSpace(item.ID) == "" {
		return nil
	}
	now := time.Now().UTC()
	item.UpdatedAt = now
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title",
			"store_id",
			"status",
			"target_amount",
			"raised_amount",
			"fiat_amount",
			"fiat_currency",
			"source_tag",
			"metadata",
			"settled_at",
			"updated_at",
		}),
	}).Create(item).Error
}

// UpsertFetchedCampaigns persists records produced by the source tiers.
// Rows already owned by ingestion are left untouched: processed events are
// ground truth and must not be overwritten by fetched data.
func (s *Store) UpsertFetchedCampaigns(ctx context.Context, items []models.Campaign) error {
	if s == nil || s.db == nil || len(items) == 0 {
		return nil
	}
	now := time.Now().UTC()
	rows := make([]models.Campaign, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item.ID) == "" {
			continue
		}
		if item.Status == "" {
			item.Status = models.StatusNew
		}
		if item.CreatedAt.IsZero() {
			item.CreatedAt = now
		}
		item.UpdatedAt = now
		rows = append(rows, item)
	}
	if len(rows) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "campaigns.source_tag <> ?", Vars: []interface{}{models.SourceIngested}},
		}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title",
			"status",
			"target_amount",
			"raised_amount",
			"source_tag",
			"metadata",
			"settled_at",
			"updated_at",
		}),
	}).CreateInBatches(rows, 200).Error
}

func (s *Store) ListCampaigns(ctx context.Context, params repository.ListCampaignsParams) ([]models.Campaign, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := applyCampaignFilters(s.db.WithContext(ctx).Model(&models.Campaign{}), params)
	query = applyOrder(query, params.OrderBy, params.Asc, "created_at")
	limit := normalizeLimit(params.Limit, 200)
	offset := normalizeOffset(params.Offset)
	var items []models.Campaign
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountCampaigns(ctx context.Context, params repository.ListCampaignsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	query := applyCampaignFilters(s.db.WithContext(ctx).Model(&models.Campaign{}), params)
	if err := query.Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// ListStaleCampaigns returns ingestion-owned campaigns that are still in a
// non-terminal status and have not been touched since before. Used by the
// gateway reconciliation pass.
func (s *Store) ListStaleCampaigns(ctx context.Context, before time.Time, limit int) ([]models.Campaign, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if before.IsZero() {
		before = time.Now().UTC()
	}
	limit = normalizeLimit(limit, 50)
	var items []models.Campaign
	err := s.db.WithContext(ctx).
		Model(&models.Campaign{}).
		Where("source_tag = ?", models.SourceIngested).
		Where("status IN ?", []string{models.StatusNew, models.StatusProcessing}).
		Where("updated_at < ?", before).
		Order("updated_at asc").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func applyCampaignFilters(query *gorm.DB, params repository.ListCampaignsParams) *gorm.DB {
	if params.Status != nil && strings.TrimSpace(*params.Status) != "" {
		query = query.Where("status = ?", strings.TrimSpace(*params.Status))
	}
	if params.SourceTag != nil && strings.TrimSpace(*params.SourceTag) != "" {
		query = query.Where("source_tag = ?", strings.TrimSpace(*params.SourceTag))
	}
	if params.StoreID != nil && strings.TrimSpace(*params.StoreID) != "" {
		query = query.Where("store_id = ?", strings.TrimSpace(*params.StoreID))
	}
	return query
}

// --- webhook event log -------------------------------------------------------

func (s *Store) AppendWebhookEvent(ctx context.Context, item *models.WebhookEvent) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if item.ReceivedAt.IsZero() {
		item.ReceivedAt = time.Now().UTC()
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) MarkWebhookEventApplied(ctx context.Context, id uint64) error {
	if s == nil || s.db == nil || id == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.WebhookEvent{}).
		Where("id = ?", id).
		Update("applied", true).Error
}

func (s *Store) HasAppliedEvent(ctx context.Context, dedupeKey string) (bool, error) {
	if s == nil || s.db == nil {
		return false, nil
	}
	dedupeKey = strings.TrimSpace(dedupeKey)
	if dedupeKey == "" {
		return false, nil
	}
	var total int64
	err := s.db.WithContext(ctx).
		Model(&models.WebhookEvent{}).
		Where("dedupe_key = ?", dedupeKey).
		Where("applied = ?", true).
		Count(&total).Error
	if err != nil {
		return false, err
	}
	return total > 0, nil
}

func (s *Store) ListWebhookEvents(ctx context.Context, params repository.ListWebhookEventsParams) ([]models.WebhookEvent, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := applyWebhookEventFilters(s.db.WithContext(ctx).Model(&models.WebhookEvent{}), params)
	query = query.Order("received_at desc").Order("id desc")
	limit := normalizeLimit(params.Limit, 100)
	offset := normalizeOffset(params.Offset)
	var items []models.WebhookEvent
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountWebhookEvents(ctx context.Context, params repository.ListWebhookEventsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	query := applyWebhookEventFilters(s.db.WithContext(ctx).Model(&models.WebhookEvent{}), params)
	if err := query.Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func applyWebhookEventFilters(query *gorm.DB, params repository.ListWebhookEventsParams) *gorm.DB {
	if params.CampaignID != nil && strings.TrimSpace(*params.CampaignID) != "" {
		query = query.Where("campaign_id = ?", strings.TrimSpace(*params.CampaignID))
	}
	if params.EventType != nil && strings.TrimSpace(*params.EventType) != "" {
		query = query.Where("event_type = ?", strings.TrimSpace(*params.EventType))
	}
	if params.Verified != nil {
		query = query.Where("verified = ?", *params.Verified)
	}
	if params.Applied != nil {
		query = query.Where("applied = ?", *params.Applied)
	}
	if params.Since != nil && !params.Since.IsZero() {
		query = query.Where("received_at >= ?", *params.Since)
	}
	return query
}

// --- source states -----------------------------------------------------------

func (s *Store) UpsertSourceState(ctx context.Context, item *models.SourceState) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if strings.TrimSpace(item.Tier) == "" {
		return nil
	}
	// A failed attempt must not erase the last success timestamp.
	cols := []string{"last_attempt_at", "last_error", "record_count", "stats_json"}
	if item.LastSuccessAt != nil {
		cols = append(cols, "last_success_at")
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tier"}},
		DoUpdates: clause.AssignmentColumns(cols),
	}).Create(item).Error
}

func (s *Store) ListSourceStates(ctx context.Context) ([]models.SourceState, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var states []models.SourceState
	if err := s.db.WithContext(ctx).Order("tier asc").Find(&states).Error; err != nil {
		return nil, err
	}
	return states, nil
}

// --- helpers -----------------------------------------------------------------

func applyOrder(query *gorm.DB, orderBy string, asc *bool, fallback string) *gorm.DB {
	column := strings.TrimSpace(orderBy)
	if column == "" {
		column = fallback
	}
	direction := "desc"
	if asc != nil && *asc {
		direction = "asc"
	}
	return query.Order(column + " " + direction)
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > 500 {
		return 500
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
