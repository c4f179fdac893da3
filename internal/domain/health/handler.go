package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// PingFunc checks a dependency and returns an error when it is unreachable.
type PingFunc func(ctx context.Context) error

type Handler struct {
	ping PingFunc
}

func NewHandler(ping PingFunc) *Handler {
	return &Handler{ping: ping}
}

// Health reports 200 when the database answers within two seconds.
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "ok"})
}

func RegisterRoutes(r gin.IRouter, h *Handler) {
	r.GET("/health", h.Health)
}
