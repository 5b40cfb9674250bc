package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"fundwatch/internal/ingest"
	"fundwatch/internal/metrics"
)

// WebhookHandler terminates payment gateway deliveries. Responses are
// deliberately uniform: 200 for anything durably logged, 400 for bodies the
// parser cannot use, 500 when persistence failed so the gateway redelivers.
// Verification state never changes the response shape.
type WebhookHandler struct {
	Ingestor *ingest.Ingestor
}

func (h *WebhookHandler) Register(r *gin.Engine) {
	r.POST("/webhooks/btcpay", h.receive)
}

// @Summary Receive a payment gateway notification
// @Tags webhooks
// @Accept json
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]any
// @Failure 500 {object} map[string]any
// @Router /webhooks/btcpay [post]
func (h *WebhookHandler) receive(c *gin.Context) {
	if h.Ingestor == nil {
		Error(c, http.StatusInternalServerError, "ingestor unavailable", nil)
		return
	}
	rawBody, err := c.GetRawData()
	if err != nil {
		metrics.WebhookDeliveries.WithLabelValues("malformed").Inc()
		Error(c, http.StatusBadRequest, "unreadable body", nil)
		return
	}

	res, err := h.Ingestor.Ingest(c.Request.Context(), rawBody, c.GetHeader("BTCPay-Sig"))
	switch {
	case errors.Is(err, ingest.ErrMalformedPayload):
		metrics.WebhookDeliveries.WithLabelValues("malformed").Inc()
		Error(c, http.StatusBadRequest, "malformed payload", nil)
	case err != nil:
		metrics.WebhookDeliveries.WithLabelValues("error").Inc()
		Error(c, http.StatusInternalServerError, "event not persisted", nil)
	case res.Duplicate:
		metrics.WebhookDeliveries.WithLabelValues("duplicate").Inc()
		Ok(c, nil, nil)
	case !res.Verified:
		metrics.WebhookDeliveries.WithLabelValues("unverified").Inc()
		Ok(c, nil, nil)
	case res.Applied:
		metrics.WebhookDeliveries.WithLabelValues("applied").Inc()
		Ok(c, nil, nil)
	default:
		metrics.WebhookDeliveries.WithLabelValues("ignored").Inc()
		Ok(c, nil, nil)
	}
}
