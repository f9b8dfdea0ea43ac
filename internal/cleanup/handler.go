package cleanup

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"constructia-backend/internal/shared/auth"
	"constructia-backend/internal/shared/server/middleware"
	"constructia-backend/internal/shared/server/respond"
)

// Handler exposes a manual sweep trigger to admins.
type Handler struct {
	Sweeper *Sweeper
	Now     func() time.Time
}

// NewHandler constructs a Handler.
func NewHandler(s *Sweeper) *Handler {
	return &Handler{Sweeper: s, Now: time.Now}
}

// RegisterRoutes attaches the admin sweep route.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/admin/sweep", middleware.RequireRole(auth.RoleAdmin), h.sweep)
}

func (h *Handler) sweep(c *gin.Context) {
	res, err := h.Sweeper.Sweep(c.Request.Context(), h.Now())
	if err != nil {
		var qErr *SweepQueryError
		if errors.As(err, &qErr) {
			respond.Error(c, http.StatusServiceUnavailable, "sweep_query_failed", "sweep could not list due documents", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "sweep failed", nil)
		return
	}
	respond.OK(c, res)
}
