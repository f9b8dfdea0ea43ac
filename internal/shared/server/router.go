package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"constructia-backend/internal/audit"
	"constructia-backend/internal/cleanup"
	"constructia-backend/internal/clients"
	"constructia-backend/internal/documents"
	"constructia-backend/internal/handoff"
	"constructia-backend/internal/services/health"
	"constructia-backend/internal/shared/config"
	"constructia-backend/internal/shared/metrics"
	"constructia-backend/internal/shared/server/middleware"
	"constructia-backend/internal/shared/server/respond"
)

// RouterDeps carries the handlers mounted by NewRouter. Nil handlers are skipped.
type RouterDeps struct {
	Config          config.Config
	Verifier        middleware.TokenVerifier
	Health          *health.Service
	DocumentHandler *documents.Handler
	ClientHandler   *clients.Handler
	HandoffHandler  *handoff.Handler
	AuditHandler    *audit.Handler
	CleanupHandler  *cleanup.Handler
	RateLimiter     *middleware.RateLimiter
}

// DefaultRateLimitRules bound per-user request rates by route group.
var DefaultRateLimitRules = map[string]middleware.RateLimitRule{
	"DEFAULT":                        {Rate: 10, Burst: 40},
	middleware.RateLimitGroupUpload:  {Rate: 2, Burst: 10},
	middleware.RateLimitGroupHandoff: {Rate: 0.5, Burst: 5},
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if !deps.Config.IsDevLike() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(deps.Verifier, deps.Config.IsDevLike()),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules:    DefaultRateLimitRules,
			GroupFor: middleware.DocumentGroupFor,
			Limiter:  deps.RateLimiter,
		}),
	)

	r.GET("/metrics", metrics.Handler())

	healthSvc := deps.Health
	if healthSvc == nil {
		healthSvc = health.NewService(nil)
	}

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		body, ok := healthSvc.Status(c.Request.Context())
		status := http.StatusOK
		if !ok {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, body)
	})
	registerMeRoutes(api)

	if deps.DocumentHandler != nil {
		deps.DocumentHandler.RegisterRoutes(api)
	}
	if deps.HandoffHandler != nil {
		deps.HandoffHandler.RegisterRoutes(api)
	}
	if deps.ClientHandler != nil {
		deps.ClientHandler.RegisterRoutes(api)
	}
	if deps.AuditHandler != nil {
		deps.AuditHandler.RegisterRoutes(api)
	}
	if deps.CleanupHandler != nil {
		deps.CleanupHandler.RegisterRoutes(api)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
