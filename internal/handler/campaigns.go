package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"fundwatch/internal/repository"
	"fundwatch/internal/service"
	"fundwatch/internal/source"
)

type CampaignHandler struct {
	Repo      repository.Repository
	Resolver  *source.Resolver
	Refresher *service.SourceRefreshService
}

func (h *CampaignHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/campaigns")
	group.GET("", h.list)
	group.GET("/live", h.live)
	group.GET("/:id", h.get)
	group.POST("/refresh", h.refresh)
}

// @Summary List persisted campaigns
// @Tags campaigns
// @Param status query string false "campaign status"
// @Param source query string false "source tag (live|fallback|ingested)"
// @Param store_id query string false "store id"
// @Param limit query int false "limit"
// @Param offset query int false "offset"
// @Param sort_by query string false "created_at|updated_at|raised_amount|target_amount|status"
// @Param order query string false "asc|desc"
// @Router /api/v1/campaigns [get]
func (h *CampaignHandler) list(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	statusPtr := strQueryPtr(c, "status")
	sourcePtr := strQueryPtr(c, "source")
	storePtr := strQueryPtr(c, "store_id")
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)

	orderBy := parseOrder(c.Query("sort_by"), map[string]string{
		"created_at":    "created_at",
		"updated_at":    "updated_at",
		"raised_amount": "raised_amount",
		"target_amount": "target_amount",
		"status":        "status",
	})
	asc := strings.EqualFold(strings.TrimSpace(c.Query("order")), "asc")

	params := repository.ListCampaignsParams{
		Limit:     limit,
		Offset:    offset,
		Status:    statusPtr,
		SourceTag: sourcePtr,
		StoreID:   storePtr,
		OrderBy:   orderBy,
		Asc:       boolPtr(asc),
	}
	items, err := h.Repo.ListCampaigns(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	total, err := h.Repo.CountCampaigns(c.Request.Context(), repository.ListCampaignsParams{
		Status:    statusPtr,
		SourceTag: sourcePtr,
		StoreID:   storePtr,
	})
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

// live serves the tiered source view merged with ingested state. Nothing is
// persisted on this path.
func (h *CampaignHandler) live(c *gin.Context) {
	if h.Resolver == nil {
		Error(c, http.StatusInternalServerError, "resolver unavailable", nil)
		return
	}
	items, err := h.Resolver.Resolve(c.Request.Context())
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, nil)
}

func (h *CampaignHandler) get(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	item, err := h.Repo.GetCampaign(c.Request.Context(), id)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "campaign not found", nil)
		return
	}
	Ok(c, item, nil)
}

// @Summary Force a source refresh and persist the result
// @Tags campaigns
// @Router /api/v1/campaigns/refresh [post]
func (h *CampaignHandler) refresh(c *gin.Context) {
	if h.Refresher == nil {
		Error(c, http.StatusInternalServerError, "refresher unavailable", nil)
		return
	}
	count, err := h.Refresher.RunOnce(c.Request.Context())
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, gin.H{"records": count}, nil)
}

func intQuery(c *gin.Context, key string, def int) int {
	if val := c.Query(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return def
}

func strQueryPtr(c *gin.Context, key string) *string {
	if val := strings.TrimSpace(c.Query(key)); val != "" {
		return &val
	}
	return nil
}

func boolQueryPtr(c *gin.Context, key string) *bool {
	if val := c.Query(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return &b
		}
	}
	return nil
}

func timeQueryPtr(c *gin.Context, key string) *time.Time {
	if val := strings.TrimSpace(c.Query(key)); val != "" {
		if t, err := time.Parse(time.RFC3339, val); err == nil {
			return &t
		}
	}
	return nil
}

func parseOrder(value string, allow map[string]string) string {
	key := strings.TrimSpace(strings.ToLower(value))
	if key == "" {
		return ""
	}
	if mapped, ok := allow[key]; ok {
		return mapped
	}
	return ""
}

func boolPtr(v bool) *bool { return &v }
