package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pxbackup-system/cluster-orchestration/internal/identity"
	iutils "github.com/pxbackup-system/cluster-orchestration/internal/utils"
	"github.com/pxbackup-system/cluster-orchestration/pkg/utils"
)

const (
	ContextUserID = "user_id"
	ContextEmail  = "email"
)

// Auth extracts the bearer token, verifies it with the configured identity
// provider and stores the verified subject in the request context.
func Auth(verifier identity.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.Error(c, iutils.ErrCodeUnauthorized, "Authorization header is required")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			utils.Error(c, iutils.ErrCodeUnauthorized, "Authorization header format must be Bearer {token}")
			c.Abort()
			return
		}

		claims, err := verifier.Verify(c.Request.Context(), parts[1])
		if err != nil {
			utils.Error(c, iutils.ErrCodeUnauthorized, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.Subject)
		c.Set(ContextEmail, claims.Email)
		c.Next()
	}
}

// UserID returns the verified subject stored by Auth, or "" when the route
// is unauthenticated.
func UserID(c *gin.Context) string {
	if v, ok := c.Get(ContextUserID); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
