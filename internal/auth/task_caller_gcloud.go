//go:build gcloud

package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"google.golang.org/api/idtoken"
)

// TaskCallerMiddleware verifies the OIDC token Cloud Tasks attaches to
// webhook calls. An empty audience disables verification.
func TaskCallerMiddleware(audience string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if audience == "" {
			c.Next()
			return
		}

		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
			return
		}

		payload, err := idtoken.Validate(c.Request.Context(), token, audience)
		if err != nil {
			slog.WarnContext(c.Request.Context(), "rejected task caller token",
				slog.String("error", err.Error()),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
			return
		}

		slog.DebugContext(c.Request.Context(), "task caller verified",
			slog.String("subject", payload.Subject),
		)
		c.Next()
	}
}
