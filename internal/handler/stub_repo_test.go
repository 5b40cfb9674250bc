package handler

import (
	"context"
	"errors"
	"sync"
	"time"

	"fundwatch/internal/models"
	"fundwatch/internal/repository"
)

type stubRepo struct {
	mu        sync.Mutex
	campaigns []models.Campaign
	events    []models.WebhookEvent
	nextID    uint64

	failAppend bool
	failList   bool
}

func (s *stubRepo) GetCampaign(ctx context.Context, id string) (*models.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.campaigns {
		if s.campaigns[i].ID == id {
			cp := s.campaigns[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *stubRepo) SaveCampaign(ctx context.Context, item *models.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.campaigns {
		if s.campaigns[i].ID == item.ID {
			s.campaigns[i] = *item
			return nil
		}
	}
	s.campaigns = append(s.campaigns, *item)
	return nil
}

func (s *stubRepo) UpsertFetchedCampaigns(ctx context.Context, items []models.Campaign) error {
	return nil
}

func (s *stubRepo) ListCampaigns(ctx context.Context, params repository.ListCampaignsParams) ([]models.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failList {
		return nil, errors.New("stub: list rejected")
	}
	var out []models.Campaign
	for _, c := range s.campaigns {
		if params.Status != nil && c.Status != *params.Status {
			continue
		}
		if params.SourceTag != nil && c.SourceTag != *params.SourceTag {
			continue
		}
		out = append(out, c)
	}
	if params.Offset >= len(out) {
		return nil, nil
	}
	out = out[params.Offset:]
	if params.Limit > 0 && len(out) > params.Limit {
		out = out[:params.Limit]
	}
	return out, nil
}

func (s *stubRepo) CountCampaigns(ctx context.Context, params repository.ListCampaignsParams) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int64(0)
	for _, c := range s.campaigns {
		if params.Status != nil && c.Status != *params.Status {
			continue
		}
		if params.SourceTag != nil && c.SourceTag != *params.SourceTag {
			continue
		}
		n++
	}
	return n, nil
}

func (s *stubRepo) ListStaleCampaigns(ctx context.Context, before time.Time, limit int) ([]models.Campaign, error) {
	return nil, nil
}

func (s *stubRepo) AppendWebhookEvent(ctx context.Context, item *models.WebhookEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAppend {
		return errors.New("stub: append rejected")
	}
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
	cp := make([]models.WebhookEvent, len(s.events))
	copy(cp, s.events)
	return cp, nil
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

func (s *stubRepo) eventCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
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
