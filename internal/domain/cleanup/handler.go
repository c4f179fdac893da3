package cleanup

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Handler exposes the cleanup run to external schedulers.
type Handler struct {
	runner  Runner
	timeout time.Duration
}

func NewHandler(runner Runner, timeout time.Duration) *Handler {
	return &Handler{runner: runner, timeout: timeout}
}

// CleanupImages runs one cleanup pass and returns its summary.
// 200 on success, 500 when the scan or the database update failed.
func (h *Handler) CleanupImages(c *gin.Context) {
	ctx := c.Request.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	result, err := h.runner.Run(ctx)
	if err != nil {
		if result == nil {
			result = &Result{Error: err.Error()}
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, result.Summary())
		return
	}

	c.JSON(http.StatusOK, result.Summary())
}
