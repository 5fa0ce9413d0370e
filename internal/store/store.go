// Package store is the cache and command layer for the student resource.
//
// A Store mediates between console views and the platform API: views invoke
// operations, the store performs the upstream calls, commits whole-resource
// snapshots into its state and captures failures. Operations never return Go
// errors. Callers inspect the returned result or the store state instead.
//
// IsLoading and LastError are shared across every operation kind and follow
// completion order, so two overlapping operations can leave them describing
// the one that finished last. InFlight reports how many calls of each kind are
// still running for views that need an exact answer.
//
// ClearCache starts a new generation. Calls issued in an earlier generation
// still finish and answer their own callers, but their results are never
// committed, so a session switch cannot be refilled with the previous
// operator's data.
package store

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/Alexseyf/elo-escola/internal/client"
	"github.com/Alexseyf/elo-escola/internal/models"
)

// Operation identifies a store command for in-flight tracking and metrics.
type Operation string

const (
	OpFetchAll         Operation = "fetch_all"
	OpFetchByClassroom Operation = "fetch_by_classroom"
	OpCreate           Operation = "create"
	OpGetDetail        Operation = "get_detail"
	OpCheckDiary       Operation = "check_diary_record"
	OpAddGuardian      Operation = "add_guardian"
)

// API is the part of the resource client the store depends on.
type API interface {
	Do(ctx context.Context, req client.Request, out any) error
}

// Recorder receives one outcome per finished operation.
type Recorder interface {
	ObserveStoreOperation(operation, outcome string)
}

// Params wires a Store. API is required.
type Params struct {
	API     API
	Logger  *zap.Logger
	Metrics Recorder
}

// State is a point-in-time copy of the store. Mutating it has no effect on the store.
type State struct {
	Students            []models.Student         `json:"students"`
	StudentsByClassroom map[int][]models.Student `json:"studentsByClassroom"`
	CurrentDetail       *models.StudentDetail    `json:"currentDetail"`
	IsLoading           bool                     `json:"isLoading"`
	LastError           string                   `json:"lastError,omitempty"`
	InFlight            map[Operation]int        `json:"inFlight,omitempty"`
	Version             uint64                   `json:"version"`
	Generation          uint64                   `json:"generation"`
}

// Store holds the student cache. The zero value is not usable; use New.
type Store struct {
	api     API
	logger  *zap.Logger
	metrics Recorder
	group   singleflight.Group

	mu          sync.RWMutex
	students    []models.Student
	byClassroom map[int][]models.Student
	detail      *models.StudentDetail
	loading     bool
	lastError   string
	inFlight    map[Operation]int
	version     uint64
	generation  uint64

	subMu  sync.Mutex
	subs   map[int]chan State
	nextID int
}

// New builds an empty store.
func New(p Params) *Store {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		api:         p.API,
		logger:      logger,
		metrics:     p.Metrics,
		byClassroom: make(map[int][]models.Student),
		inFlight:    make(map[Operation]int),
		subs:        make(map[int]chan State),
	}
}

// State returns a deep copy of the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Subscribe returns a channel that receives the latest state after every
// commit. Slow readers only ever see the most recent snapshot. The returned
// func unsubscribes and closes the channel.
func (s *Store) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)

	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
			close(ch)
		})
	}
}

// ClearCache drops every cached snapshot and the last error, and starts a new
// generation. IsLoading is left alone.
func (s *Store) ClearCache() {
	s.commit(func() {
		s.generation++
		s.students = nil
		s.byClassroom = make(map[int][]models.Student)
		s.detail = nil
		s.lastError = ""
	})
	s.logger.Debug("student cache cleared")
}

// currentGeneration returns the generation new calls belong to.
func (s *Store) currentGeneration() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// flightKey scopes a singleflight key to a generation so calls issued after
// ClearCache never join a call issued before it.
func flightKey(gen uint64, op Operation, params ...any) string {
	key := fmt.Sprintf("%d/%s", gen, op)
	for _, p := range params {
		key += fmt.Sprintf(":%v", p)
	}
	return key
}

// begin marks an operation of generation gen as started.
func (s *Store) begin(op Operation, gen uint64) {
	s.commit(func() {
		s.inFlight[op]++
		if gen == s.generation {
			s.lastError = ""
		}
		s.loading = true
	})
}

// finish ends an operation and applies fn in the same commit. fn is skipped
// when the cache was cleared after the operation began.
func (s *Store) finish(op Operation, gen uint64, fn func()) {
	s.commit(func() {
		if s.inFlight[op] > 0 {
			s.inFlight[op]--
		}
		if s.inFlight[op] == 0 {
			delete(s.inFlight, op)
		}
		s.loading = false
		if gen != s.generation {
			s.logger.Debug("dropping result of a cleared generation",
				zap.String("operation", string(op)),
				zap.Uint64("generation", gen),
			)
			return
		}
		if fn != nil {
			fn()
		}
	})
}

func (s *Store) commit(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
	s.version++
	// Publishing under mu keeps subscribers from seeing versions out of order.
	s.publish(s.snapshotLocked())
}

func (s *Store) publish(snap State) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- snap:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

func (s *Store) snapshotLocked() State {
	st := State{
		Students:            models.CloneStudents(s.students),
		StudentsByClassroom: make(map[int][]models.Student, len(s.byClassroom)),
		CurrentDetail:       s.detail.Clone(),
		IsLoading:           s.loading,
		LastError:           s.lastError,
		Version:             s.version,
		Generation:          s.generation,
	}
	if st.Students == nil {
		st.Students = []models.Student{}
	}
	for id, list := range s.byClassroom {
		st.StudentsByClassroom[id] = models.CloneStudents(list)
	}
	if len(s.inFlight) > 0 {
		st.InFlight = make(map[Operation]int, len(s.inFlight))
		for op, n := range s.inFlight {
			st.InFlight[op] = n
		}
	}
	return st
}

func (s *Store) observe(op Operation, outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveStoreOperation(string(op), outcome)
	}
}
