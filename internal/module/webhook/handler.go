package webhook

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/packfit/server/internal/module/gateway"
	"github.com/packfit/server/internal/module/webhook/domain"
	"github.com/packfit/server/internal/shared/response"
	"go.uber.org/zap"
)

// maxPayloadBytes bounds a webhook body; the raw payload is persisted
// verbatim, so an unbounded read would balloon the event row.
const maxPayloadBytes = 1 << 20

// Handler receives Mercado Pago webhook deliveries and exposes stored
// events for operators.
type Handler struct {
	service  *Service
	verifier *gateway.SignatureVerifier
	logger   *zap.Logger
}

// NewHandler creates a webhook handler.
func NewHandler(service *Service, verifier *gateway.SignatureVerifier, logger *zap.Logger) *Handler {
	return &Handler{
		service:  service,
		verifier: verifier,
		logger:   logger,
	}
}

// RegisterRoutes registers the webhook routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/webhooks/mercadopago", h.HandleMercadoPago)
	r.GET("/internal/webhook-events", h.ListEvents)
	r.GET("/internal/webhook-events/:id", h.GetEvent)
}

// HandleMercadoPago handles an incoming payment notification. The response
// is always prompt: either the in-line attempt's result or 202 when
// processing continues in the background.
func (h *Handler) HandleMercadoPago(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxPayloadBytes)
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.logger.Warn("webhook payload too large", zap.Int64("limit", tooLarge.Limit))
			response.Error(c, http.StatusRequestEntityTooLarge, "payload too large")
			return
		}
		h.logger.Error("failed to read webhook body", zap.Error(err))
		response.BadRequest(c, "failed to read body")
		return
	}

	var note notification
	if err := json.Unmarshal(payload, &note); err != nil {
		h.logger.Warn("malformed webhook payload", zap.Error(err))
		response.BadRequest(c, "invalid notification")
		return
	}
	// Older notification formats carry the identifiers as query params.
	if note.Data.ID == "" {
		note.Data.ID = c.Query("data.id")
	}
	if note.Type == "" {
		note.Type = c.Query("type")
	}

	if !h.verifier.Verify(c.GetHeader("x-signature"), c.GetHeader("x-request-id"), note.Data.ID) {
		h.logger.Warn("invalid webhook signature",
			zap.String("data_id", note.Data.ID),
			zap.String("client_ip", c.ClientIP()),
		)
		response.Unauthorized(c, "invalid signature")
		return
	}

	if note.Type != string(domain.EventTypePayment) {
		h.logger.Debug("ignoring webhook type", zap.String("type", note.Type))
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}
	if note.Data.ID == "" {
		response.BadRequest(c, "missing data.id")
		return
	}

	result, err := h.service.Ingest(c.Request.Context(), note.Data.ID, domain.EventTypePayment, string(payload))
	if err != nil {
		h.logger.Error("webhook ingestion failed",
			zap.String("data_id", note.Data.ID),
			zap.Error(err),
		)
		response.InternalError(c, "ingestion failed")
		return
	}

	if result.Outcome == nil {
		c.JSON(http.StatusAccepted, gin.H{
			"status":   "accepted",
			"event_id": result.Event.ID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   string(result.Outcome.Status),
		"event_id": result.Event.ID,
	})
}

// GetEvent returns one stored event by id.
func (h *Handler) GetEvent(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}

	ev, err := h.service.GetEvent(c.Request.Context(), id)
	if err != nil {
		response.HandleErrorWithDefault(c, err, []response.ErrorMapping{
			{Err: ErrEventNotFound, Status: http.StatusNotFound},
		})
		return
	}
	c.JSON(http.StatusOK, toEventResponse(ev))
}

// ListEvents returns stored events filtered by status, newest first.
func (h *Handler) ListEvents(c *gin.Context) {
	status := domain.Status(c.DefaultQuery("status", string(domain.StatusNeedsReprocessing)))
	switch status {
	case domain.StatusReceived, domain.StatusSucceeded, domain.StatusFailedPermanent, domain.StatusNeedsReprocessing:
	default:
		response.BadRequest(c, "unknown status")
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		response.BadRequest(c, "invalid limit")
		return
	}
	if limit > 200 {
		limit = 200
	}

	events, err := h.service.ListEvents(c.Request.Context(), status, limit)
	if err != nil {
		h.logger.Error("failed to list webhook events", zap.Error(err))
		response.InternalError(c, "")
		return
	}

	out := make([]EventResponse, len(events))
	for i, ev := range events {
		out[i] = toEventResponse(ev)
	}
	c.JSON(http.StatusOK, gin.H{"events": out, "count": len(out)})
}
