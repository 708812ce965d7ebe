//go:build !gcloud

package auth

import "github.com/gin-gonic/gin"

// TaskCallerMiddleware is a pass-through outside Cloud Run. Local schedulers
// call the fire webhook without credentials.
func TaskCallerMiddleware(_ string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
	}
}
