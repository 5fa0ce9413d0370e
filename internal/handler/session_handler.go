package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Alexseyf/elo-escola/internal/middleware"
	"github.com/Alexseyf/elo-escola/internal/models"
	"github.com/Alexseyf/elo-escola/pkg/response"
)

type sessionState interface {
	Info() models.SessionInfo
	Matches(token string) bool
	Clear()
}

// SessionHandler reports and ends the operator session.
type SessionHandler struct {
	session  sessionState
	onLogout func(ctx context.Context)
	logger   *zap.Logger
}

// NewSessionHandler constructs SessionHandler. onLogout runs after the session is cleared.
func NewSessionHandler(session sessionState, onLogout func(ctx context.Context), logger *zap.Logger) *SessionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionHandler{session: session, onLogout: onLogout, logger: logger}
}

// Get godoc
// @Summary Current operator session
// @Tags Session
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /session [get]
func (h *SessionHandler) Get(c *gin.Context) {
	// Callers that did not present the active token learn nothing about it.
	if !h.session.Matches(middleware.RequestToken(c)) {
		response.JSON(c, http.StatusOK, models.SessionInfo{})
		return
	}
	response.JSON(c, http.StatusOK, h.session.Info())
}

// Delete godoc
// @Summary Sign the operator out and drop cached data
// @Tags Session
// @Success 204
// @Failure 401 {object} response.Envelope
// @Router /session [delete]
func (h *SessionHandler) Delete(c *gin.Context) {
	h.session.Clear()
	if h.onLogout != nil {
		h.onLogout(c.Request.Context())
	}
	h.logger.Info("operator session cleared")
	response.NoContent(c)
}
