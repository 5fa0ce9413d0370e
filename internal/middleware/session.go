package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Alexseyf/elo-escola/internal/models"
	"github.com/Alexseyf/elo-escola/internal/session"
	appErrors "github.com/Alexseyf/elo-escola/pkg/errors"
	"github.com/Alexseyf/elo-escola/pkg/response"
)

const (
	// ContextUserKey is the gin context key storing session claims.
	ContextUserKey = "currentUser"
	// ContextTokenKey is the gin context key storing the bearer token the request presented.
	ContextTokenKey = "sessionToken"
)

// SessionManager is the operator session as seen by the HTTP layer.
type SessionManager interface {
	SetToken(ctx context.Context, token string) (bool, error)
	Matches(token string) bool
	Active() bool
	Claims() *models.SessionClaims
}

// SwitchFunc runs after the console adopts a different bearer token.
type SwitchFunc func(ctx context.Context)

// Session verifies and adopts the bearer token of incoming requests as the
// operator session. Requests without Authorization pass through untouched;
// RequireSession turns them away on guarded routes.
func Session(sess SessionManager, onSwitch SwitchFunc, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}
		token := strings.TrimSpace(parts[1])

		if !sess.Matches(token) {
			changed, err := sess.SetToken(c.Request.Context(), token)
			switch {
			case errors.Is(err, session.ErrTokenRejected):
				logger.Warn("bearer token rejected", zap.String("ip", c.ClientIP()), zap.Error(err))
				response.Error(c, appErrors.Because(appErrors.ErrUnauthorized, err, "invalid access token"))
				c.Abort()
				return
			case err != nil:
				response.Error(c, appErrors.Because(appErrors.ErrUpstream, err, "could not verify access token"))
				c.Abort()
				return
			}
			if changed {
				userID := 0
				if claims := sess.Claims(); claims != nil {
					userID = claims.UserID
				}
				logger.Info("operator session switched", zap.Int("user_id", userID))
				if onSwitch != nil {
					onSwitch(context.WithoutCancel(c.Request.Context()))
				}
			}
		}

		c.Set(ContextTokenKey, token)
		c.Next()
	}
}

// RequestToken returns the bearer token the request presented, or "".
func RequestToken(c *gin.Context) string {
	return c.GetString(ContextTokenKey)
}

// RequireSession lets a request through only when it presented the active,
// unexpired session token, and exposes the claims to handlers.
func RequireSession(sess SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := RequestToken(c)
		if token == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "bearer token required"))
			c.Abort()
			return
		}
		if !sess.Matches(token) {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "session was replaced by another token"))
			c.Abort()
			return
		}
		if !sess.Active() {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "session expired"))
			c.Abort()
			return
		}
		if claims := sess.Claims(); claims != nil {
			c.Set(ContextUserKey, claims)
		}
		c.Next()
	}
}
