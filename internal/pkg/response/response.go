package response

import "github.com/gin-gonic/gin"

// Error writes {"success": false, "error": message}, the shape the cron
// callers parse for every non-2xx reply.
func Error(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error":   message,
	})
}

// Abort is Error followed by aborting the handler chain.
func Abort(c *gin.Context, statusCode int, message string) {
	Error(c, statusCode, message)
	c.Abort()
}
