package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Alexseyf/elo-escola/internal/dto"
	"github.com/Alexseyf/elo-escola/internal/models"
	"github.com/Alexseyf/elo-escola/internal/store"
	appErrors "github.com/Alexseyf/elo-escola/pkg/errors"
)

// Chart cache keys. The repository adds its own prefix.
const (
	chartKeyPrefix           = "charts:"
	studentsPerClassroomKey  = chartKeyPrefix + "students-per-classroom"
	chartInvalidationPattern = chartKeyPrefix + "*"
)

type studentSource interface {
	FetchAll(ctx context.Context)
	State() store.State
}

// ChartService builds chart datasets from the student store and caches them.
type ChartService struct {
	students studentSource
	cache    *CacheService
	ttl      time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewChartService constructs a ChartService. cache may be nil.
func NewChartService(students studentSource, cache *CacheService, ttl time.Duration, logger *zap.Logger) *ChartService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChartService{
		students: students,
		cache:    cache,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
	}
}

// StudentsPerClassroom returns the chart, from cache when possible. The bool reports a cache hit.
func (s *ChartService) StudentsPerClassroom(ctx context.Context) (*dto.StudentsPerClassroomChart, bool, error) {
	chart, hit, err := Remember(ctx, s.cache, studentsPerClassroomKey, s.ttl, s.build)
	if err != nil {
		return nil, false, err
	}
	return &chart, hit, nil
}

// Rebuild refetches the student list, recomputes the chart and overwrites the cached copy.
func (s *ChartService) Rebuild(ctx context.Context) (*dto.StudentsPerClassroomChart, error) {
	chart, err := s.build(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, studentsPerClassroomKey, chart, s.ttl); err != nil {
		s.logger.Debug("chart not cached", zap.Error(err))
	}
	return &chart, nil
}

func (s *ChartService) build(ctx context.Context) (dto.StudentsPerClassroomChart, error) {
	s.students.FetchAll(ctx)
	st := s.students.State()
	if st.LastError != "" {
		return dto.StudentsPerClassroomChart{}, appErrors.Clone(appErrors.ErrUpstream, st.LastError)
	}
	chart := BuildStudentsPerClassroom(st.Students)
	chart.GeneratedAt = s.now().UTC()
	return chart, nil
}

// Invalidate drops every cached chart.
func (s *ChartService) Invalidate(ctx context.Context) error {
	return s.cache.Invalidate(ctx, chartInvalidationPattern)
}

// BuildStudentsPerClassroom counts students per classroom, ordered by
// classroom name with unassigned students last.
func BuildStudentsPerClassroom(students []models.Student) dto.StudentsPerClassroomChart {
	type bucket struct {
		id    *int
		name  string
		count int
	}
	buckets := make(map[string]*bucket)
	for _, st := range students {
		key, name := "none", dto.NoClassroomLabel
		var id *int
		if st.Classroom != nil {
			classroomID := st.Classroom.ID
			id = &classroomID
			name = st.Classroom.Name
			key = "name:" + strings.ToLower(name)
		}
		b, ok := buckets[key]
		if !ok {
			b = &bucket{id: id, name: name}
			buckets[key] = b
		}
		b.count++
	}

	items := make([]dto.ClassroomCount, 0, len(buckets))
	for _, b := range buckets {
		items = append(items, dto.ClassroomCount{ClassroomID: b.id, Classroom: b.name, Count: b.count})
	}
	sort.Slice(items, func(i, j int) bool {
		if (items[i].ClassroomID == nil) != (items[j].ClassroomID == nil) {
			return items[j].ClassroomID == nil
		}
		return strings.ToLower(items[i].Classroom) < strings.ToLower(items[j].Classroom)
	})

	return dto.StudentsPerClassroomChart{Total: len(students), Items: items}
}
