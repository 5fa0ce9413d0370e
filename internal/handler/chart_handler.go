package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Alexseyf/elo-escola/internal/dto"
	"github.com/Alexseyf/elo-escola/internal/middleware"
	"github.com/Alexseyf/elo-escola/pkg/response"
)

type chartService interface {
	StudentsPerClassroom(ctx context.Context) (*dto.StudentsPerClassroomChart, bool, error)
}

// ChartHandler serves chart datasets.
type ChartHandler struct {
	charts chartService
}

// NewChartHandler constructs ChartHandler.
func NewChartHandler(charts chartService) *ChartHandler {
	return &ChartHandler{charts: charts}
}

// StudentsPerClassroom godoc
// @Summary Number of students per classroom
// @Tags Charts
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /charts/students-per-classroom [get]
func (h *ChartHandler) StudentsPerClassroom(c *gin.Context) {
	chart, hit, err := h.charts.StudentsPerClassroom(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, chart, middleware.ExtractMeta(c))
}
