package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Alexseyf/elo-escola/internal/store"
	"github.com/Alexseyf/elo-escola/pkg/response"
)

type stateStore interface {
	State() store.State
	Subscribe() (<-chan store.State, func())
	ClearCache()
}

type chartInvalidator interface {
	Invalidate(ctx context.Context) error
}

// StateHandler exposes the store state to views, as a snapshot or a live stream.
type StateHandler struct {
	store     stateStore
	charts    chartInvalidator
	logger    *zap.Logger
	heartbeat time.Duration
}

// NewStateHandler constructs StateHandler. charts may be nil.
func NewStateHandler(store stateStore, charts chartInvalidator, logger *zap.Logger) *StateHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StateHandler{store: store, charts: charts, logger: logger, heartbeat: 25 * time.Second}
}

// Snapshot godoc
// @Summary Current store state
// @Tags State
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /state [get]
func (h *StateHandler) Snapshot(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.store.State())
}

// Stream godoc
// @Summary Stream store state changes as server-sent events
// @Tags State
// @Produce text/event-stream
// @Router /state/stream [get]
func (h *StateHandler) Stream(c *gin.Context) {
	updates, unsubscribe := h.store.Subscribe()
	defer unsubscribe()

	response.EventStream(c)
	response.Event(c, "state", h.store.State())

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-updates:
			if !ok {
				return
			}
			response.Event(c, "state", st)
		case <-ticker.C:
			response.Event(c, "ping", time.Now().UTC().Format(time.RFC3339))
		}
	}
}

// ClearCache godoc
// @Summary Drop every cached student snapshot and chart
// @Tags State
// @Success 204
// @Router /cache [delete]
func (h *StateHandler) ClearCache(c *gin.Context) {
	h.store.ClearCache()
	if h.charts != nil {
		if err := h.charts.Invalidate(c.Request.Context()); err != nil {
			h.logger.Warn("chart cache not invalidated", zap.Error(err))
		}
	}
	response.NoContent(c)
}
