package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Alexseyf/elo-escola/internal/models"
	"github.com/Alexseyf/elo-escola/internal/service"
	appErrors "github.com/Alexseyf/elo-escola/pkg/errors"
	"github.com/Alexseyf/elo-escola/pkg/response"
)

type reportService interface {
	StudentReport(ctx context.Context, format models.ReportFormat, classroomID *int) (*service.ExportResult, error)
}

// ReportHandler streams student reports as downloads.
type ReportHandler struct {
	reports reportService
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(reports reportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Students godoc
// @Summary Export the student list
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf" default(csv)
// @Param classroomId query int false "Restrict to one classroom"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /reports/students [get]
func (h *ReportHandler) Students(c *gin.Context) {
	format, err := models.ParseReportFormat(c.Query("format"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}

	var classroomID *int
	if raw := c.Query("classroomId"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id <= 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "classroomId must be a positive integer"))
			return
		}
		classroomID = &id
	}

	result, err := h.reports.StudentReport(c.Request.Context(), format, classroomID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("X-Report-Rows", strconv.Itoa(result.Rows))
	response.Attachment(c, result.Filename, result.ContentType, result.Payload)
}
