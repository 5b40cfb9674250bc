package ingest

import (
	"context"
	"errors"
	"sync"
	"time"

	"fundwatch/internal/models"
	"fundwatch/internal/repository"
)

// stubRepo is a test-only in-memory implementation of repository.Repository.
// Campaign and event state are held in maps; list filtering is limited to
// what the ingest tests exercise.
type stubRepo struct {
	mu        sync.Mutex
	campaigns map[string]models.Campaign
	events    []models.WebhookEvent
	nextID    uint64

	failAppend bool
	failSave   bool
}

func newStubRepo() *stubRepo {
	return &stubRepo{campaigns: map[string]models.Campaign{}}
}

func (s *stubRepo) GetCampaign(ctx context.Context, id string) (*models.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.campaigns[id]; ok {
		out := c
		return &out, nil
	}
	return nil, nil
}

func (s *stubRepo) SaveCampaign(ctx context.Context, item *models.Campaign) error {
	if s.failSave {
		return errors.New("save failed")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.campaigns[item.ID] = *item
	return nil
}

func (s *stubRepo) UpsertFetchedCampaigns(ctx context.Context, items []models.Campaign) error {
	return nil
}

func (s *stubRepo) ListCampaigns(ctx context.Context, params repository.ListCampaignsParams) ([]models.Campaign, error) {
	return nil, nil
}

func (s *stubRepo) CountCampaigns(ctx context.Context, params repository.ListCampaignsParams) (int64, error) {
	return 0, nil
}

func (s *stubRepo) ListStaleCampaigns(ctx context.Context, before time.Time, limit int) ([]models.Campaign, error) {
	return nil, nil
}

func (s *stubRepo) AppendWebhookEvent(ctx context.Context, item *models.WebhookEvent) error {
	if s.failAppend {
		return errors.New("append failed")
	}
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
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.WebhookEvent, len(s.events))
	copy(out, s.events)
	return out, nil
}

func (s *stubRepo) CountWebhookEvents(ctx context.Context, params repository.ListWebhookEventsParams) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.events)), nil
}

func (s *stubRepo) UpsertSourceState(ctx context.Context, item *models.SourceState) error {
	return nil
}

func (s *stubRepo) ListSourceStates(ctx context.Context) ([]models.SourceState, error) {
	return nil, nil
}

func (s *stubRepo) campaign(id string) *models.Campaign {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.campaigns[id]; ok {
		out := c
		return &out
	}
	return nil
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
