package handoff

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"constructia-backend/internal/audit"
	"constructia-backend/internal/documents"
	"constructia-backend/internal/queue"
	"constructia-backend/internal/shared/server/middleware"
	"constructia-backend/internal/shared/server/respond"
	"constructia-backend/internal/shared/telemetry"
)

// Handler exposes handoff over HTTP.
type Handler struct {
	Svc   *Service
	Queue queue.Client
}

// NewHandler constructs a Handler. A nil queue disables async handoff.
func NewHandler(svc *Service, q queue.Client) *Handler {
	return &Handler{Svc: svc, Queue: q}
}

// RegisterRoutes attaches the handoff route.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents/:id/handoff", h.handoff)
}

func (h *Handler) handoff(c *gin.Context) {
	documentID := c.Param("id")
	c.Set("documentId", documentID)

	var body handoffRequest
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if body.Confidence != nil && (*body.Confidence < 0 || *body.Confidence > 100) {
		respond.Error(c, http.StatusBadRequest, "validation_error", "confidence must be between 0 and 100", nil)
		return
	}
	if body.ClientID != "" {
		c.Set("clientId", body.ClientID)
	}

	tenantID := middleware.TenantIDFromContext(c)
	async, _ := strconv.ParseBool(c.Query("async"))
	if async {
		h.enqueue(c, tenantID, documentID, body.ClientID)
		return
	}

	res, err := h.Svc.Handoff(c.Request.Context(), Request{
		TenantID:       tenantID,
		DocumentID:     documentID,
		ClientID:       body.ClientID,
		Classification: body.Classification,
		Confidence:     body.Confidence,
		ActorID:        middleware.UserIDFromContext(c),
		Origin: audit.Origin{
			RequestID: middleware.RequestIDFromContext(c),
			Source:    "api",
			IP:        c.ClientIP(),
		},
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.Set("statusTransition", "uploading->"+string(res.Document.UploadStatus))
	respond.OK(c, toResponse(res))
}

func (h *Handler) enqueue(c *gin.Context, tenantID, documentID, clientID string) {
	if h.Queue == nil {
		respond.Error(c, http.StatusServiceUnavailable, "queue_unavailable", "async handoff is not configured", nil)
		return
	}

	doc, err := h.Svc.Documents.GetByID(c.Request.Context(), documentID)
	if err != nil || doc.TenantID != tenantID {
		if err == nil || errors.Is(err, documents.ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load document", nil)
		return
	}
	if clientID == "" {
		clientID = doc.ClientID
	}

	msg := queue.Message{
		DocumentID: doc.ID,
		ClientID:   clientID,
		TenantID:   tenantID,
		ActorID:    middleware.UserIDFromContext(c),
		RequestID:  middleware.RequestIDFromContext(c),
		EnqueuedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := h.Queue.Send(c.Request.Context(), msg); err != nil {
		telemetry.Error("handoff.enqueue_failed", map[string]any{
			"tenant_id":   tenantID,
			"document_id": doc.ID,
			"error":       err.Error(),
		})
		respond.Error(c, http.StatusServiceUnavailable, "queue_unavailable", "failed to enqueue handoff", nil)
		return
	}
	respond.Accepted(c, QueuedResponse{DocumentID: doc.ID, Status: "queued"})
}

func writeError(c *gin.Context, err error) {
	var cfgErr *ConfigurationError
	var upErr *ExternalUploadError
	switch {
	case errors.As(err, &cfgErr):
		respond.Error(c, http.StatusUnprocessableEntity, "configuration_error", cfgErr.Error(), nil)
	case errors.As(err, &upErr):
		respond.Error(c, http.StatusBadGateway, "external_upload_failed", "upload failed: "+upErr.Message, map[string]any{
			"attempts": upErr.Attempts,
		})
	case errors.Is(err, documents.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
	case errors.Is(err, documents.ErrVersionConflict),
		errors.Is(err, documents.ErrInvalidTransition),
		errors.Is(err, ErrInProgress):
		respond.Error(c, http.StatusConflict, "conflict", err.Error(), nil)
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, ErrClientMismatch):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "handoff failed", nil)
	}
}
