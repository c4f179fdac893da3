package cleanup

import "github.com/gin-gonic/gin"

// RegisterRoutes registers the cron trigger. Schedulers differ in the verb
// they send, so both GET and POST are accepted.
func RegisterRoutes(r *gin.RouterGroup, h *Handler, auth gin.HandlerFunc) {
	cron := r.Group("/cron", auth)
	{
		cron.GET("/cleanup-images", h.CleanupImages)
		cron.POST("/cleanup-images", h.CleanupImages)
	}
}
