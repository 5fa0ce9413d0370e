package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alexseyf/elo-escola/pkg/config"
)

func TestPrefetchServiceWarmsChartCache(t *testing.T) {
	students := &fakeStudentStore{students: sampleStudents()}
	repo := newMemoryCache()
	charts := NewChartService(students, NewCacheService(repo, nil, time.Minute, nil), time.Minute, nil)
	svc := NewPrefetchService(config.PrefetchConfig{Enabled: true, Workers: 1}, charts, nil)
	svc.Start(context.Background())
	defer svc.Stop()

	id, ok := svc.Trigger("session switch")
	require.True(t, ok)
	assert.NotEmpty(t, id)

	require.Eventually(t, func() bool {
		runs, _ := svc.Runs()
		return runs == 1
	}, time.Second, 5*time.Millisecond)
	assert.True(t, repo.has(studentsPerClassroomKey))
}

func TestPrefetchServiceDoesNotRetry(t *testing.T) {
	students := &fakeStudentStore{failWith: "db down"}
	charts := NewChartService(students, nil, 0, nil)
	svc := NewPrefetchService(config.PrefetchConfig{Enabled: true, Workers: 1}, charts, nil)
	svc.Start(context.Background())
	defer svc.Stop()

	_, ok := svc.Trigger("session switch")
	require.True(t, ok)

	require.Eventually(t, func() bool {
		runs, _ := svc.Runs()
		return runs == 1
	}, time.Second, 5*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	runs, err := svc.Runs()
	assert.Equal(t, 1, runs)
	assert.Error(t, err)
	assert.Equal(t, 1, students.calls())
	assert.Equal(t, uint64(1), svc.Stats().Failed)
}

func TestPrefetchServiceDisabled(t *testing.T) {
	svc := NewPrefetchService(config.PrefetchConfig{Enabled: false}, nil, nil)
	svc.Start(context.Background())
	defer svc.Stop()

	_, ok := svc.Trigger("session switch")
	assert.False(t, ok)
	assert.False(t, svc.Enabled())
}
