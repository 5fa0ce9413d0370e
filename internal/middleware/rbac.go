package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/Alexseyf/elo-escola/internal/models"
	appErrors "github.com/Alexseyf/elo-escola/pkg/errors"
	"github.com/Alexseyf/elo-escola/pkg/response"
)

// RequireRoles allows the request through when the session holds any of roles.
// It must run after RequireSession.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "session carries no role information"))
			c.Abort()
			return
		}
		claims, ok := claimsValue.(*models.SessionClaims)
		if !ok || !claims.HasRole(roles...) {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
