package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"constructia-backend/internal/shared/auth"
	"constructia-backend/internal/shared/server/respond"
)

const (
	tenantIDKey  = "tenantId"
	userIDKey    = "userId"
	userEmailKey = "userEmail"
	roleKey      = "role"
)

// TokenVerifier validates bearer tokens.
type TokenVerifier interface {
	Verify(token string) (auth.Claims, error)
}

// Auth validates bearer JWTs and stores tenant identity in context. In dev-like
// environments requests may instead identify themselves with X-Tenant-Id and
// X-User-Id headers.
func Auth(verifier TokenVerifier, devHeaders bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		path := c.Request.URL.Path
		if path == "/api/v1/health" || path == "/metrics" {
			c.Next()
			return
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))

		if authHeader != "" {
			if !strings.HasPrefix(authHeader, "Bearer ") || verifier == nil {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}

			token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
			if token == "" {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}

			c.Set(tenantIDKey, claims.TenantID)
			c.Set(userIDKey, claims.UserID)
			if claims.Email != "" {
				c.Set(userEmailKey, claims.Email)
			}
			c.Set(roleKey, claims.Role)
			c.Next()
			return
		}

		if !devHeaders {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		tenantID := strings.TrimSpace(c.GetHeader("X-Tenant-Id"))
		userID := strings.TrimSpace(c.GetHeader("X-User-Id"))
		if tenantID == "" || userID == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
			return
		}

		role := strings.TrimSpace(c.GetHeader("X-Role"))
		if role == "" {
			role = auth.RoleClient
		}
		c.Set(tenantIDKey, tenantID)
		c.Set(userIDKey, userID)
		c.Set(roleKey, role)
		c.Next()
	}
}

// RequireRole rejects requests whose role does not match.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if RoleFromContext(c) != role {
			respond.Error(c, http.StatusForbidden, "forbidden", "insufficient role", nil)
			return
		}
		c.Next()
	}
}

// TenantIDFromContext fetches the tenant ID set by the auth middleware.
func TenantIDFromContext(c *gin.Context) string {
	return contextString(c, tenantIDKey)
}

// UserIDFromContext fetches the user ID set by the auth middleware.
func UserIDFromContext(c *gin.Context) string {
	return contextString(c, userIDKey)
}

// UserEmailFromContext fetches the user email set by the auth middleware.
func UserEmailFromContext(c *gin.Context) string {
	return contextString(c, userEmailKey)
}

// RoleFromContext fetches the role set by the auth middleware.
func RoleFromContext(c *gin.Context) string {
	return contextString(c, roleKey)
}

func contextString(c *gin.Context, key string) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(key)
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}
