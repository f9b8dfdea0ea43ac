package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"constructia-backend/internal/shared/auth"
	"constructia-backend/internal/shared/server/middleware"
	"constructia-backend/internal/shared/server/respond"
)

type meResponse struct {
	UserID   string `json:"userId"`
	TenantID string `json:"tenantId"`
	Role     string `json:"role"`
	Email    string `json:"email,omitempty"`
	CanSweep bool   `json:"canSweep"`
}

// registerMeRoutes attaches the /me endpoint.
func registerMeRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", meHandler)
}

// meHandler echoes the resolved principal so the portal can hide admin actions.
func meHandler(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if userID == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
		return
	}

	role := middleware.RoleFromContext(c)
	respond.OK(c, meResponse{
		UserID:   userID,
		TenantID: middleware.TenantIDFromContext(c),
		Role:     role,
		Email:    middleware.UserEmailFromContext(c),
		CanSweep: role == auth.RoleAdmin,
	})
}
