package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alexseyf/elo-escola/internal/models"
	"github.com/Alexseyf/elo-escola/internal/store"
)

type fakeStudentStore struct {
	mu sync.Mutex

	state        store.State
	byClassroom  []models.Student
	createResult models.OperationResult[models.Student]
	lookup       store.DetailResult
	diary        *models.DiaryCheckResult
	guardian     models.OperationResult[json.RawMessage]

	updates      chan store.State
	unsubscribed chan struct{}

	createCalls int
	lastCreate  models.CreateStudentRequest
	lastDate    *models.Date
	lastUserID  int
	cleared     bool
}

func (f *fakeStudentStore) FetchAll(context.Context) {}

func (f *fakeStudentStore) FetchByClassroom(context.Context, int) []models.Student {
	return f.byClassroom
}

func (f *fakeStudentStore) Create(_ context.Context, req models.CreateStudentRequest) models.OperationResult[models.Student] {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	f.lastCreate = req
	return f.createResult
}

func (f *fakeStudentStore) LookupDetail(context.Context, int) store.DetailResult {
	return f.lookup
}

func (f *fakeStudentStore) CheckDiaryRecord(_ context.Context, _ int, date *models.Date) *models.DiaryCheckResult {
	f.lastDate = date
	return f.diary
}

func (f *fakeStudentStore) AddGuardian(_ context.Context, _ int, userID int) models.OperationResult[json.RawMessage] {
	f.lastUserID = userID
	return f.guardian
}

func (f *fakeStudentStore) State() store.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeStudentStore) Subscribe() (<-chan store.State, func()) {
	if f.updates == nil {
		return make(chan store.State), func() {}
	}
	return f.updates, func() {
		if f.unsubscribed != nil {
			close(f.unsubscribed)
		}
	}
}

func (f *fakeStudentStore) ClearCache() {
	f.cleared = true
}

type responseEnvelope struct {
	Data  json.RawMessage        `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Meta map[string]interface{} `json:"meta"`
}

func serveStudent(t *testing.T, fake *fakeStudentStore, method, target, body string) (*httptest.ResponseRecorder, responseEnvelope) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := NewStudentHandler(fake)
	r := gin.New()
	r.GET("/students", h.List)
	r.POST("/students", h.Create)
	r.GET("/students/:id", h.Get)
	r.GET("/students/:id/diary-check", h.DiaryCheck)
	r.POST("/students/:id/guardians", h.AddGuardian)
	r.GET("/classrooms/:id/students", h.ByClassroom)

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var env responseEnvelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestStudentHandlerList(t *testing.T) {
	fake := &fakeStudentStore{state: store.State{Students: []models.Student{{ID: 1, Name: "Ana"}}, Version: 4}}

	rec, env := serveStudent(t, fake, http.MethodGet, "/students", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":1,"nome":"Ana","email":"","matricula":""}]`, string(env.Data))
	assert.Equal(t, float64(1), env.Meta["count"])
}

func TestStudentHandlerListUpstreamError(t *testing.T) {
	fake := &fakeStudentStore{state: store.State{LastError: "db down"}}

	rec, env := serveStudent(t, fake, http.MethodGet, "/students", "")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UPSTREAM_ERROR", env.Error.Code)
	assert.Equal(t, "db down", env.Error.Message)
}

func TestStudentHandlerCreateValidation(t *testing.T) {
	cases := map[string]string{
		"malformed json":     `{"nome":`,
		"missing name":       `{"dataNasc":"2020-03-01","turmaId":5}`,
		"missing birth date": `{"nome":"Ana","turmaId":5}`,
		"bad birth date":     `{"nome":"Ana","dataNasc":"01/03/2020","turmaId":5}`,
		"zero classroom":     `{"nome":"Ana","dataNasc":"2020-03-01","turmaId":0}`,
		"negative tuition":   `{"nome":"Ana","dataNasc":"2020-03-01","turmaId":5,"mensalidade":-1}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			fake := &fakeStudentStore{}

			rec, env := serveStudent(t, fake, http.MethodPost, "/students", body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			require.NotNil(t, env.Error)
			assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
			assert.Zero(t, fake.createCalls)
		})
	}
}

func TestStudentHandlerCreate(t *testing.T) {
	fake := &fakeStudentStore{createResult: models.OperationResult[models.Student]{
		Success: true,
		Message: "Aluno cadastrado com sucesso",
		Data:    &models.Student{ID: 10, Name: "Ana"},
	}}

	rec, env := serveStudent(t, fake, http.MethodPost, "/students", `{"nome":"Ana","dataNasc":"2020-03-01","turmaId":5,"mensalidade":850}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Aluno cadastrado com sucesso", env.Meta["message"])
	assert.Equal(t, "2020-03-01", fake.lastCreate.BirthDate.String())
	require.NotNil(t, fake.lastCreate.Tuition)
	assert.Equal(t, 850.0, *fake.lastCreate.Tuition)
}

func TestStudentHandlerCreateRejectedUpstream(t *testing.T) {
	fake := &fakeStudentStore{createResult: models.OperationResult[models.Student]{Message: "Turma não encontrada"}}

	rec, env := serveStudent(t, fake, http.MethodPost, "/students", `{"nome":"Ana","dataNasc":"2020-03-01","turmaId":5}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "OPERATION_FAILED", env.Error.Code)
	assert.Equal(t, "Turma não encontrada", env.Error.Message)
}

func TestStudentHandlerGet(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		fake := &fakeStudentStore{lookup: store.DetailResult{
			Detail:  &models.StudentDetail{ID: 1, Name: "Ana"},
			Outcome: store.OutcomeSuccess,
			Status:  http.StatusOK,
		}}
		rec, _ := serveStudent(t, fake, http.MethodGet, "/students/1", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})
	t.Run("not found", func(t *testing.T) {
		fake := &fakeStudentStore{lookup: store.DetailResult{Outcome: store.OutcomeNotFound, Status: http.StatusNotFound}}
		rec, env := serveStudent(t, fake, http.MethodGet, "/students/1", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "NOT_FOUND", env.Error.Code)
	})
	t.Run("server error is not reported as missing", func(t *testing.T) {
		fake := &fakeStudentStore{lookup: store.DetailResult{Outcome: store.OutcomeHTTPError, Status: http.StatusInternalServerError}}
		rec, env := serveStudent(t, fake, http.MethodGet, "/students/1", "")
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Equal(t, "UPSTREAM_ERROR", env.Error.Code)
		assert.Contains(t, env.Error.Message, "500")
	})
	t.Run("rejected session", func(t *testing.T) {
		fake := &fakeStudentStore{lookup: store.DetailResult{Outcome: store.OutcomeUnauthorized, Status: http.StatusForbidden}}
		rec, env := serveStudent(t, fake, http.MethodGet, "/students/1", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "UNAUTHORIZED", env.Error.Code)
	})
	t.Run("transport failure", func(t *testing.T) {
		fake := &fakeStudentStore{
			lookup: store.DetailResult{Outcome: store.OutcomeTransport},
			state:  store.State{LastError: "connection refused"},
		}
		rec, env := serveStudent(t, fake, http.MethodGet, "/students/1", "")
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Equal(t, "connection refused", env.Error.Message)
	})
	t.Run("bad id", func(t *testing.T) {
		rec, _ := serveStudent(t, &fakeStudentStore{}, http.MethodGet, "/students/abc", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestStudentHandlerDiaryCheck(t *testing.T) {
	fake := &fakeStudentStore{diary: &models.DiaryCheckResult{StudentID: 1, HasEntry: true}}

	rec, _ := serveStudent(t, fake, http.MethodGet, "/students/1/diary-check?date=2024-05-10", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, fake.lastDate)
	assert.Equal(t, "2024-05-10", fake.lastDate.String())

	rec, _ = serveStudent(t, fake, http.MethodGet, "/students/1/diary-check", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, fake.lastDate)

	rec, _ = serveStudent(t, fake, http.MethodGet, "/students/1/diary-check?date=ontem", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = serveStudent(t, &fakeStudentStore{}, http.MethodGet, "/students/1/diary-check", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestStudentHandlerAddGuardian(t *testing.T) {
	payload := json.RawMessage(`{"id":3}`)
	fake := &fakeStudentStore{guardian: models.OperationResult[json.RawMessage]{Success: true, Message: "Responsável adicionado com sucesso", Data: &payload}}

	rec, env := serveStudent(t, fake, http.MethodPost, "/students/1/guardians", `{"usuarioId":9}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"id":3}`, string(env.Data))
	assert.Equal(t, 9, fake.lastUserID)

	rec, _ = serveStudent(t, fake, http.MethodPost, "/students/1/guardians", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	failing := &fakeStudentStore{guardian: models.OperationResult[json.RawMessage]{Message: "Responsável já vinculado"}}
	rec, env = serveStudent(t, failing, http.MethodPost, "/students/1/guardians", `{"usuarioId":9}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "Responsável já vinculado", env.Error.Message)
}

func TestStudentHandlerByClassroom(t *testing.T) {
	fake := &fakeStudentStore{byClassroom: []models.Student{{ID: 2}}}
	rec, env := serveStudent(t, fake, http.MethodGet, "/classrooms/5/students", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), env.Meta["count"])

	failing := &fakeStudentStore{byClassroom: []models.Student{}, state: store.State{LastError: "HTTP error! status: 500"}}
	rec, _ = serveStudent(t, failing, http.MethodGet, "/classrooms/5/students", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec, _ = serveStudent(t, fake, http.MethodGet, "/classrooms/0/students", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
