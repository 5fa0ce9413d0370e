package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/Alexseyf/elo-escola/internal/client"
	"github.com/Alexseyf/elo-escola/internal/models"
)

const (
	msgUnauthorized   = "Não autorizado"
	msgCreated        = "Aluno cadastrado com sucesso"
	msgCreateFailed   = "Erro ao cadastrar aluno"
	msgGuardianAdded  = "Responsável adicionado com sucesso"
	msgGuardianFailed = "Erro ao adicionar responsável"
)

// FetchAll replaces Students with the server list. On failure Students is
// left untouched. 401 and 403 clear the loading flag without an error.
func (s *Store) FetchAll(ctx context.Context) {
	gen := s.currentGeneration()
	_, _, _ = s.group.Do(flightKey(gen, OpFetchAll), func() (any, error) {
		s.begin(OpFetchAll, gen)

		var students []models.Student
		err := s.api.Do(detach(ctx), client.Request{
			Method:   http.MethodGet,
			Path:     "/alunos",
			Endpoint: "/alunos",
		}, &students)

		f := s.readFailure(OpFetchAll, err)
		s.finish(OpFetchAll, gen, func() {
			switch f.kind {
			case failureNone:
				if students == nil {
					students = []models.Student{}
				}
				s.students = students
			case failureUnauthorized:
			default:
				s.lastError = f.listMessage()
			}
		})
		return nil, nil
	})
}

// FetchByClassroom stores and returns the students of one classroom. Any
// failure returns an empty slice; only non-authorization failures set LastError.
func (s *Store) FetchByClassroom(ctx context.Context, classroomID int) []models.Student {
	gen := s.currentGeneration()
	v, _, _ := s.group.Do(flightKey(gen, OpFetchByClassroom, classroomID), func() (any, error) {
		s.begin(OpFetchByClassroom, gen)

		var students []models.Student
		err := s.api.Do(detach(ctx), client.Request{
			Method:   http.MethodGet,
			Path:     "/turmas/" + strconv.Itoa(classroomID) + "/alunos",
			Endpoint: "/turmas/:id/alunos",
		}, &students)

		f := s.readFailure(OpFetchByClassroom, err)
		s.finish(OpFetchByClassroom, gen, func() {
			switch f.kind {
			case failureNone:
				if students == nil {
					students = []models.Student{}
				}
				s.byClassroom[classroomID] = students
			case failureUnauthorized:
			default:
				s.lastError = f.listMessage()
			}
		})
		if f.kind != failureNone {
			return []models.Student{}, nil
		}
		return students, nil
	})

	out := models.CloneStudents(v.([]models.Student))
	if out == nil {
		out = []models.Student{}
	}
	return out
}

// Create posts a new student. The local cache is not modified; callers refetch.
func (s *Store) Create(ctx context.Context, req models.CreateStudentRequest) models.OperationResult[models.Student] {
	gen := s.currentGeneration()
	s.begin(OpCreate, gen)

	var created models.Student
	err := s.api.Do(detach(ctx), client.Request{
		Method:   http.MethodPost,
		Path:     "/alunos",
		Endpoint: "/alunos",
		Body:     req,
	}, &created)

	f := classify(err)
	s.observe(OpCreate, f.outcome())

	var result models.OperationResult[models.Student]
	lastError := ""
	switch f.kind {
	case failureNone:
		result = models.OperationResult[models.Student]{Success: true, Message: msgCreated, Data: &created}
	case failureUnauthorized:
		result = models.OperationResult[models.Student]{Message: msgUnauthorized}
	case failureHTTP, failureNotFound:
		msg := f.http.Message()
		if msg == "" {
			msg = fmt.Sprintf("%s: %d", msgCreateFailed, f.http.Status)
		}
		lastError = msg
		result = models.OperationResult[models.Student]{Message: msg}
	default:
		lastError = f.err.Error()
		result = models.OperationResult[models.Student]{Message: msgCreateFailed}
	}
	s.finish(OpCreate, gen, func() {
		if lastError != "" {
			s.lastError = lastError
		}
	})

	if f.kind != failureNone {
		s.logger.Warn("create student failed",
			zap.Int("status", f.status()),
			zap.String("outcome", f.outcome()),
			zap.Error(f.err),
		)
	}
	return result
}

// DetailResult is a detail lookup together with how the upstream call ended.
// Status is 0 when no response arrived.
type DetailResult struct {
	Detail  *models.StudentDetail
	Outcome string
	Status  int
}

// GetDetail loads one student into CurrentDetail. Every non-2xx answer is
// soft: the caller gets nil and LastError stays empty. 404 is only logged.
func (s *Store) GetDetail(ctx context.Context, studentID int) *models.StudentDetail {
	return s.LookupDetail(ctx, studentID).Detail
}

// LookupDetail behaves like GetDetail and also reports the outcome, so views
// can tell a missing student from a rejected or failed call.
func (s *Store) LookupDetail(ctx context.Context, studentID int) DetailResult {
	gen := s.currentGeneration()
	v, _, _ := s.group.Do(flightKey(gen, OpGetDetail, studentID), func() (any, error) {
		s.begin(OpGetDetail, gen)

		var detail models.StudentDetail
		err := s.api.Do(detach(ctx), client.Request{
			Method:   http.MethodGet,
			Path:     "/alunos/" + strconv.Itoa(studentID),
			Endpoint: "/alunos/:id",
		}, &detail)

		f := classify(err)
		s.observe(OpGetDetail, f.outcome())

		switch f.kind {
		case failureNotFound:
			s.logger.Info("student not found", zap.Int("student_id", studentID))
		case failureUnauthorized, failureHTTP:
			s.logger.Warn("get student detail failed",
				zap.Int("student_id", studentID),
				zap.Int("status", f.status()),
			)
		}

		s.finish(OpGetDetail, gen, func() {
			switch f.kind {
			case failureNone:
				s.detail = detail.Clone()
			case failureTransport:
				s.lastError = f.err.Error()
			}
		})

		res := DetailResult{Outcome: f.outcome(), Status: f.status()}
		if f.kind == failureNone {
			res.Detail = &detail
		}
		return res, nil
	})

	res := v.(DetailResult)
	res.Detail = res.Detail.Clone()
	return res
}

// CheckDiaryRecord asks whether a daily log exists for the student, optionally
// on a given day. It is a pure probe: no shared state changes and any failure
// yields nil. The platform serves this endpoint without authentication.
func (s *Store) CheckDiaryRecord(ctx context.Context, studentID int, date *models.Date) *models.DiaryCheckResult {
	var query url.Values
	day := ""
	if date != nil && !date.IsZero() {
		day = date.String()
		query = url.Values{"data": {day}}
	}

	key := flightKey(s.currentGeneration(), OpCheckDiary, studentID, day)
	v, _, _ := s.group.Do(key, func() (any, error) {
		var result models.DiaryCheckResult
		err := s.api.Do(detach(ctx), client.Request{
			Method:    http.MethodGet,
			Path:      "/alunos/" + strconv.Itoa(studentID) + "/possui-registro-diario",
			Query:     query,
			Endpoint:  "/alunos/:id/possui-registro-diario",
			Anonymous: true,
		}, &result)

		f := classify(err)
		s.observe(OpCheckDiary, f.outcome())
		if f.kind != failureNone {
			s.logger.Debug("diary check failed",
				zap.Int("student_id", studentID),
				zap.String("date", day),
				zap.Error(err),
			)
			return (*models.DiaryCheckResult)(nil), nil
		}
		return &result, nil
	})

	res := v.(*models.DiaryCheckResult)
	if res == nil {
		return nil
	}
	out := *res
	if res.Entry != nil {
		entry := *res.Entry
		out.Entry = &entry
	}
	return &out
}

// AddGuardian links a user account as guardian of a student. HTTP failures,
// authorization included, come back as a failed result without touching
// LastError. Transport failures also set LastError.
func (s *Store) AddGuardian(ctx context.Context, studentID, userID int) models.OperationResult[json.RawMessage] {
	gen := s.currentGeneration()
	s.begin(OpAddGuardian, gen)

	var payload json.RawMessage
	err := s.api.Do(detach(ctx), client.Request{
		Method:   http.MethodPost,
		Path:     "/usuarios/" + strconv.Itoa(userID) + "/responsavel",
		Endpoint: "/usuarios/:id/responsavel",
		Body:     map[string]int{"alunoId": studentID},
	}, &payload)

	f := classify(err)
	s.observe(OpAddGuardian, f.outcome())

	var result models.OperationResult[json.RawMessage]
	switch f.kind {
	case failureNone:
		result = models.OperationResult[json.RawMessage]{Success: true, Message: msgGuardianAdded}
		if len(payload) > 0 {
			result.Data = &payload
		}
	case failureTransport:
		result = models.OperationResult[json.RawMessage]{Message: msgGuardianFailed}
	default:
		msg := f.http.Payload.Erro
		if msg == "" {
			msg = f.http.Payload.Message
		}
		if msg == "" {
			msg = msgGuardianFailed
		}
		result = models.OperationResult[json.RawMessage]{Message: msg}
	}
	s.finish(OpAddGuardian, gen, func() {
		if f.kind == failureTransport {
			s.lastError = msgGuardianFailed
		}
	})

	if f.kind != failureNone {
		s.logger.Warn("add guardian failed",
			zap.Int("student_id", studentID),
			zap.Int("user_id", userID),
			zap.Int("status", f.status()),
			zap.Error(f.err),
		)
	}
	return result
}

func (s *Store) readFailure(op Operation, err error) failure {
	f := classify(err)
	s.observe(op, f.outcome())
	switch f.kind {
	case failureNone:
	case failureUnauthorized:
		s.logger.Debug("upstream rejected session", zap.String("operation", string(op)), zap.Int("status", f.status()))
	default:
		s.logger.Warn("store read failed",
			zap.String("operation", string(op)),
			zap.Int("status", f.status()),
			zap.Error(f.err),
		)
	}
	return f
}

// detach keeps request values such as the request id but drops cancellation:
// once issued, an upstream call runs until it completes or the transport times out.
func detach(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}
