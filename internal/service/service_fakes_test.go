package service

import (
	"context"
	"sync"

	"github.com/Alexseyf/elo-escola/internal/models"
	"github.com/Alexseyf/elo-escola/internal/store"
)

// fakeStudentStore mimics the store contract: operations never fail, they
// only change State.
type fakeStudentStore struct {
	mu          sync.Mutex
	students    []models.Student
	byClassroom map[int][]models.Student
	failWith    string
	fetchCalls  int
	state       store.State
}

func (f *fakeStudentStore) FetchAll(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++
	f.state.LastError = f.failWith
	if f.failWith == "" {
		f.state.Students = models.CloneStudents(f.students)
	}
}

func (f *fakeStudentStore) FetchByClassroom(_ context.Context, id int) []models.Student {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++
	f.state.LastError = f.failWith
	if f.failWith != "" {
		return []models.Student{}
	}
	return models.CloneStudents(f.byClassroom[id])
}

func (f *fakeStudentStore) State() store.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeStudentStore) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetchCalls
}

func sampleStudents() []models.Student {
	return []models.Student{
		{ID: 1, Name: "Ana", Email: "ana@escola.com", EnrollmentCode: "A1", Classroom: &models.ClassroomRef{ID: 7, Name: "Pré II"}},
		{ID: 2, Name: "Bia", Email: "bia@escola.com", EnrollmentCode: "A2", Classroom: &models.ClassroomRef{ID: 5, Name: "Maternal I"}},
		{ID: 3, Name: "Caio", Email: "caio@escola.com", EnrollmentCode: "A3"},
		{ID: 4, Name: "Duda", Email: "duda@escola.com", EnrollmentCode: "A4", Classroom: &models.ClassroomRef{ID: 5, Name: "Maternal I"}},
	}
}
