package audit

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"constructia-backend/internal/shared/server/middleware"
	"constructia-backend/internal/shared/server/respond"
)

// Handler serves the audit trail.
type Handler struct {
	Writer *Writer
}

// NewHandler constructs a Handler.
func NewHandler(w *Writer) *Handler {
	return &Handler{Writer: w}
}

// RegisterRoutes attaches audit routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/audit", h.list)
}

func (h *Handler) list(c *gin.Context) {
	filter := Filter{
		TenantID:   middleware.TenantIDFromContext(c),
		ClientID:   strings.TrimSpace(c.Query("clientId")),
		DocumentID: strings.TrimSpace(c.Query("documentId")),
		Action:     Action(strings.TrimSpace(c.Query("action"))),
		Limit:      50,
	}
	if filter.Action != "" && !filter.Action.valid() {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unknown action", nil)
		return
	}
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			filter.Limit = parsed
		}
	}
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			filter.Offset = parsed
		}
	}

	entries, err := h.Writer.List(c.Request.Context(), filter)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list audit entries", nil)
		return
	}

	resp := make([]EntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, toResponse(e))
	}
	respond.OK(c, resp)
}
