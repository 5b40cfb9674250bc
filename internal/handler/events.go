package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fundwatch/internal/repository"
)

// EventHandler exposes the append-only webhook audit log, newest first.
type EventHandler struct {
	Repo repository.Repository
}

func (h *EventHandler) Register(r *gin.Engine) {
	r.GET("/api/v1/events", h.list)
}

// @Summary List webhook event log entries
// @Tags events
// @Param campaign_id query string false "campaign id"
// @Param event_type query string false "event type"
// @Param verified query bool false "signature verified"
// @Param applied query bool false "transition applied"
// @Param since query string false "RFC3339 lower bound on received_at"
// @Param limit query int false "limit"
// @Param offset query int false "offset"
// @Router /api/v1/events [get]
func (h *EventHandler) list(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	params := repository.ListWebhookEventsParams{
		Limit:      limit,
		Offset:     offset,
		CampaignID: strQueryPtr(c, "campaign_id"),
		EventType:  strQueryPtr(c, "event_type"),
		Verified:   boolQueryPtr(c, "verified"),
		Applied:    boolQueryPtr(c, "applied"),
		Since:      timeQueryPtr(c, "since"),
	}
	items, err := h.Repo.ListWebhookEvents(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	total, err := h.Repo.CountWebhookEvents(c.Request.Context(), repository.ListWebhookEventsParams{
		CampaignID: params.CampaignID,
		EventType:  params.EventType,
		Verified:   params.Verified,
		Applied:    params.Applied,
		Since:      params.Since,
	})
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}
