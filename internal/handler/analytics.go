package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fundwatch/internal/aggregate"
	"fundwatch/internal/models"
	"fundwatch/internal/repository"
	"fundwatch/internal/source"
)

// Zero-filling an unbounded window over sparse history would return years of
// empty buckets, so windows are capped.
const maxWindowDays = 366

type AnalyticsHandler struct {
	Repo     repository.Repository
	Resolver *source.Resolver
}

type sourcesResponse struct {
	Breakdown []aggregate.SourceStats
	States    []models.SourceState
}

func (h *AnalyticsHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/analytics")
	group.GET("/overview", h.overview)
	group.GET("/daily", h.daily)
	group.GET("/sources", h.sources)
	group.GET("/top", h.top)
}

// @Summary Funding snapshot over the merged source view
// @Tags analytics
// @Router /api/v1/analytics/overview [get]
func (h *AnalyticsHandler) overview(c *gin.Context) {
	records, ok := h.resolve(c)
	if !ok {
		return
	}
	Ok(c, aggregate.Aggregate(records, nil), nil)
}

// @Summary Daily settled totals
// @Tags analytics
// @Param from query string false "window start YYYY-MM-DD"
// @Param to query string false "window end YYYY-MM-DD (inclusive)"
// @Router /api/v1/analytics/daily [get]
func (h *AnalyticsHandler) daily(c *gin.Context) {
	window, err := parseWindow(c.Query("from"), c.Query("to"))
	if err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	records, ok := h.resolve(c)
	if !ok {
		return
	}
	snap := aggregate.Aggregate(records, window)
	var meta map[string]any
	if window != nil {
		meta = map[string]any{
			"from": window.From.Format("2006-01-02"),
			"to":   window.To.Format("2006-01-02"),
		}
	}
	Ok(c, snap.DailyTotals, meta)
}

func (h *AnalyticsHandler) sources(c *gin.Context) {
	records, ok := h.resolve(c)
	if !ok {
		return
	}
	snap := aggregate.Aggregate(records, nil)
	var states []models.SourceState
	if h.Repo != nil {
		var err error
		states, err = h.Repo.ListSourceStates(c.Request.Context())
		if err != nil {
			Error(c, http.StatusBadGateway, err.Error(), nil)
			return
		}
	}
	Ok(c, sourcesResponse{Breakdown: snap.SourceBreakdown, States: states}, nil)
}

func (h *AnalyticsHandler) top(c *gin.Context) {
	limit := intQuery(c, "limit", 5)
	if limit <= 0 || limit > 100 {
		limit = 5
	}
	records, ok := h.resolve(c)
	if !ok {
		return
	}
	Ok(c, aggregate.TopFunded(records, limit), nil)
}

func (h *AnalyticsHandler) resolve(c *gin.Context) ([]models.Campaign, bool) {
	if h.Resolver == nil {
		Error(c, http.StatusInternalServerError, "resolver unavailable", nil)
		return nil, false
	}
	records, err := h.Resolver.Resolve(c.Request.Context())
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return nil, false
	}
	return records, true
}

func parseWindow(fromRaw, toRaw string) (*aggregate.Window, error) {
	if fromRaw == "" && toRaw == "" {
		return nil, nil
	}
	if fromRaw == "" || toRaw == "" {
		return nil, errors.New("from and to must be supplied together")
	}
	from, err := time.Parse("2006-01-02", fromRaw)
	if err != nil {
		return nil, errors.New("from must be YYYY-MM-DD")
	}
	to, err := time.Parse("2006-01-02", toRaw)
	if err != nil {
		return nil, errors.New("to must be YYYY-MM-DD")
	}
	if to.Before(from) {
		return nil, errors.New("to must not precede from")
	}
	if to.Sub(from) > maxWindowDays*24*time.Hour {
		return nil, errors.New("window exceeds 366 days")
	}
	return &aggregate.Window{From: from, To: to}, nil
}
