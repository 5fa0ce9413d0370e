package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/Alexseyf/elo-escola/internal/models"
	"github.com/Alexseyf/elo-escola/internal/store"
	appErrors "github.com/Alexseyf/elo-escola/pkg/errors"
	"github.com/Alexseyf/elo-escola/pkg/export"
)

type reportSource interface {
	FetchAll(ctx context.Context)
	FetchByClassroom(ctx context.Context, classroomID int) []models.Student
	State() store.State
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportResult is a rendered report ready to be streamed.
type ExportResult struct {
	Filename    string
	ContentType string
	Format      models.ReportFormat
	Rows        int
	Payload     []byte
}

// ExportService renders student lists as CSV or PDF.
type ExportService struct {
	students reportSource
	csv      csvRenderer
	pdf      pdfRenderer
	logger   *zap.Logger
	now      func() time.Time
}

var studentReportHeaders = []string{"ID", "Nome", "E-mail", "Matrícula", "Turma"}

// NewExportService constructs an ExportService. Nil renderers use the defaults.
func NewExportService(students reportSource, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter(export.SpreadsheetCSV)
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		students: students,
		csv:      csv,
		pdf:      pdf,
		logger:   logger,
		now:      time.Now,
	}
}

// StudentReport fetches the students (all, or one classroom when classroomID
// is set) and renders them in the requested format.
func (s *ExportService) StudentReport(ctx context.Context, format models.ReportFormat, classroomID *int) (*ExportResult, error) {
	var students []models.Student
	title := "Relatório de alunos"
	scope := "todos"
	if classroomID != nil {
		students = s.students.FetchByClassroom(ctx, *classroomID)
		title = fmt.Sprintf("Relatório de alunos da turma %d", *classroomID)
		scope = "turma-" + strconv.Itoa(*classroomID)
	} else {
		s.students.FetchAll(ctx)
		students = s.students.State().Students
	}
	if msg := s.students.State().LastError; msg != "" {
		return nil, appErrors.Clone(appErrors.ErrUpstream, msg)
	}

	dataset := studentDataset(students)

	var (
		payload []byte
		err     error
	)
	switch format {
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %s", format))
	}
	if err != nil {
		s.logger.Error("render student report", zap.String("format", string(format)), zap.Error(err))
		return nil, appErrors.Because(appErrors.ErrInternal, err, "failed to render report")
	}

	return &ExportResult{
		Filename:    fmt.Sprintf("alunos-%s-%s.%s", scope, s.now().Format("20060102-150405"), format),
		ContentType: format.ContentType(),
		Format:      format,
		Rows:        len(students),
		Payload:     payload,
	}, nil
}

func studentDataset(students []models.Student) export.Dataset {
	rows := make([]map[string]string, 0, len(students))
	for _, st := range students {
		classroom := ""
		if st.Classroom != nil {
			classroom = st.Classroom.Name
		}
		rows = append(rows, map[string]string{
			"ID":        strconv.Itoa(st.ID),
			"Nome":      st.Name,
			"E-mail":    st.Email,
			"Matrícula": st.EnrollmentCode,
			"Turma":     classroom,
		})
	}
	return export.Dataset{Headers: studentReportHeaders, Rows: rows}
}
