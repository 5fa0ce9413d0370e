package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/Alexseyf/elo-escola/internal/models"
	"github.com/Alexseyf/elo-escola/internal/store"
	appErrors "github.com/Alexseyf/elo-escola/pkg/errors"
	"github.com/Alexseyf/elo-escola/pkg/response"
)

type studentStore interface {
	FetchAll(ctx context.Context)
	FetchByClassroom(ctx context.Context, classroomID int) []models.Student
	Create(ctx context.Context, req models.CreateStudentRequest) models.OperationResult[models.Student]
	LookupDetail(ctx context.Context, studentID int) store.DetailResult
	CheckDiaryRecord(ctx context.Context, studentID int, date *models.Date) *models.DiaryCheckResult
	AddGuardian(ctx context.Context, studentID, userID int) models.OperationResult[json.RawMessage]
	State() store.State
}

// StudentHandler exposes the student store over HTTP.
type StudentHandler struct {
	store     studentStore
	validator *validator.Validate
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(store studentStore) *StudentHandler {
	return &StudentHandler{store: store, validator: newValidator()}
}

// List godoc
// @Summary Fetch all students
// @Tags Students
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	h.store.FetchAll(c.Request.Context())
	st := h.store.State()
	if st.LastError != "" {
		response.Error(c, appErrors.Clone(appErrors.ErrUpstream, st.LastError))
		return
	}
	response.JSON(c, http.StatusOK, st.Students, map[string]interface{}{
		"count":   len(st.Students),
		"version": st.Version,
	})
}

// ByClassroom godoc
// @Summary Fetch the students of one classroom
// @Tags Students
// @Produce json
// @Param id path int true "Classroom ID"
// @Success 200 {object} response.Envelope
// @Router /classrooms/{id}/students [get]
func (h *StudentHandler) ByClassroom(c *gin.Context) {
	classroomID, ok := pathID(c, "id")
	if !ok {
		return
	}
	students := h.store.FetchByClassroom(c.Request.Context(), classroomID)
	if len(students) == 0 {
		if msg := h.store.State().LastError; msg != "" {
			response.Error(c, appErrors.Clone(appErrors.ErrUpstream, msg))
			return
		}
	}
	response.JSON(c, http.StatusOK, students, map[string]interface{}{"count": len(students)})
}

// Create godoc
// @Summary Create a student
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body models.CreateStudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	var req models.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid payload: "+err.Error()))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.Error(c, validationError(err))
		return
	}

	result := h.store.Create(c.Request.Context(), req)
	if !result.Success {
		response.Error(c, appErrors.Clone(appErrors.ErrOperationFailed, result.Message))
		return
	}
	response.Created(c, result.Data, map[string]interface{}{"message": result.Message})
}

// Get godoc
// @Summary Get student detail
// @Tags Students
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	studentID, ok := pathID(c, "id")
	if !ok {
		return
	}
	res := h.store.LookupDetail(c.Request.Context(), studentID)
	switch {
	case res.Detail != nil:
		response.JSON(c, http.StatusOK, res.Detail)
	case res.Outcome == store.OutcomeNotFound:
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "student not found"))
	case res.Outcome == store.OutcomeUnauthorized:
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "platform rejected the session token"))
	case res.Outcome == store.OutcomeHTTPError:
		response.Error(c, appErrors.Clonef(appErrors.ErrUpstream, "platform answered status %d", res.Status))
	default:
		msg := h.store.State().LastError
		if msg == "" {
			msg = "student detail unavailable"
		}
		response.Error(c, appErrors.Clone(appErrors.ErrUpstream, msg))
	}
}

// DiaryCheck godoc
// @Summary Check whether a student has a daily log
// @Tags Students
// @Produce json
// @Param id path int true "Student ID"
// @Param date query string false "Day (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /students/{id}/diary-check [get]
func (h *StudentHandler) DiaryCheck(c *gin.Context) {
	studentID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var date *models.Date
	if raw := c.Query("date"); raw != "" {
		parsed, err := models.ParseDate(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
			return
		}
		date = &parsed
	}

	result := h.store.CheckDiaryRecord(c.Request.Context(), studentID, date)
	if result == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUpstream, "diary check unavailable"))
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// AddGuardian godoc
// @Summary Link a guardian to a student
// @Tags Students
// @Accept json
// @Produce json
// @Param id path int true "Student ID"
// @Param payload body models.AddGuardianRequest true "Guardian user"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /students/{id}/guardians [post]
func (h *StudentHandler) AddGuardian(c *gin.Context) {
	studentID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.AddGuardianRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid payload: "+err.Error()))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.Error(c, validationError(err))
		return
	}

	result := h.store.AddGuardian(c.Request.Context(), studentID, req.UserID)
	if !result.Success {
		response.Error(c, appErrors.Clone(appErrors.ErrOperationFailed, result.Message))
		return
	}
	var data interface{}
	if result.Data != nil {
		data = *result.Data
	}
	response.Created(c, data, map[string]interface{}{"message": result.Message})
}

func pathID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		response.Error(c, appErrors.Clonef(appErrors.ErrValidation, "%s must be a positive integer", name))
		return 0, false
	}
	return id, true
}
