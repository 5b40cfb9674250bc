package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"fundwatch/internal/models"
	"fundwatch/internal/repository"
)

// stubRepo is an in-memory repository.Repository for service tests. It
// captures writes so tests can assert on what a pass persisted.
type stubRepo struct {
	mu        sync.Mutex
	campaigns map[string]*models.Campaign
	events    []models.WebhookEvent
	states    map[string]models.SourceState
	stale     []models.Campaign
	batches   [][]models.Campaign
	nextID    uint64

	failUpsertFetched bool
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		campaigns: map[string]*models.Campaign{},
		states:    map[string]models.SourceState{},
	}
}

func (s *stubRepo) GetCampaign(ctx context.Context, id string) (*models.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (s *stubRepo) SaveCampaign(ctx context.Context, item *models.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *item
	s.campaigns[item.ID] = &cp
	return nil
}

func (s *stubRepo) UpsertFetchedCampaigns(ctx context.Context, items []models.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUpsertFetched {
		return errors.New("stub: upsert rejected")
	}
	batch := make([]models.Campaign, len(items))
	copy(batch, items)
	s.batches = append(s.batches, batch)
	return nil
}

func (s *stubRepo) ListCampaigns(ctx context.Context, params repository.ListCampaignsParams) ([]models.Campaign, error) {
	return nil, nil
}

func (s *stubRepo) CountCampaigns(ctx context.Context, params repository.ListCampaignsParams) (int64, error) {
	return 0, nil
}

func (s *stubRepo) ListStaleCampaigns(ctx context.Context, before time.Time, limit int) ([]models.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.stale
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	cp := make([]models.Campaign, len(out))
	copy(cp, out)
	return cp, nil
}

func (s *stubRepo) AppendWebhookEvent(ctx context.Context, item *models.WebhookEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	item.ID = s.nextID
	s.events = append(s.events, *item)
	return nil
}

func (s *stubRepo) MarkWebhookEventApplied(ctx context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.events {
		if s.events[i].ID == id {
			s.events[i].Applied = true
		}
	}
	return nil
}

func (s *stubRepo) HasAppliedEvent(ctx context.Context, dedupeKey string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.events {
		if e.DedupeKey == dedupeKey && e.Applied {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubRepo) ListWebhookEvents(ctx context.Context, params repository.ListWebhookEventsParams) ([]models.WebhookEvent, error) {
	return nil, nil
}

func (s *stubRepo) CountWebhookEvents(ctx context.Context, params repository.ListWebhookEventsParams) (int64, error) {
	return 0, nil
}

func (s *stubRepo) UpsertSourceState(ctx context.Context, item *models.SourceState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[item.Tier] = *item
	return nil
}

func (s *stubRepo) ListSourceStates(ctx context.Context) ([]models.SourceState, error) {
	return nil, nil
}

func (s *stubRepo) appliedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.events {
		if e.Applied {
			n++
		}
	}
	return n
}

func (s *stubRepo) eventCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func (s *stubRepo) campaign(id string) *models.Campaign {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.campaigns[id]
}
