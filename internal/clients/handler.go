package clients

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"constructia-backend/internal/audit"
	"constructia-backend/internal/shared/server/middleware"
	"constructia-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches client routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/clients", h.create)
	rg.GET("/clients", h.list)
	rg.GET("/clients/:id", h.get)
	rg.PUT("/clients/:id/platform-credentials", h.updateCredentials)
}

func (h *Handler) create(c *gin.Context) {
	var req createClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	client, err := h.Svc.Create(c.Request.Context(), middleware.TenantIDFromContext(c), req.Name)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Set("clientId", client.ID)
	respond.Created(c, toResponse(client))
}

func (h *Handler) list(c *gin.Context) {
	limit := 50
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			offset = parsed
		}
	}

	list, err := h.Svc.List(c.Request.Context(), middleware.TenantIDFromContext(c), limit, offset)
	if err != nil {
		h.fail(c, err)
		return
	}
	resp := make([]ClientResponse, 0, len(list))
	for _, client := range list {
		resp = append(resp, toResponse(client))
	}
	respond.OK(c, resp)
}

func (h *Handler) get(c *gin.Context) {
	clientID := c.Param("id")
	c.Set("clientId", clientID)

	client, err := h.Svc.Get(c.Request.Context(), middleware.TenantIDFromContext(c), clientID)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.OK(c, toResponse(client))
}

func (h *Handler) updateCredentials(c *gin.Context) {
	clientID := c.Param("id")
	c.Set("clientId", clientID)

	var req updateCredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	origin := audit.Origin{
		RequestID: middleware.RequestIDFromContext(c),
		Source:    "api",
		IP:        c.ClientIP(),
	}
	client, err := h.Svc.UpdateCredentials(c.Request.Context(), middleware.TenantIDFromContext(c), clientID, middleware.UserIDFromContext(c), origin, CredentialsInput{
		Username: req.Username,
		Password: req.Password,
		APIKey:   req.APIKey,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.OK(c, toResponse(client))
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "client not found", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "client request failed", nil)
	}
}
