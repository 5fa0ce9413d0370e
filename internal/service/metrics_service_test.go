package service

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsServiceUpstreamAndStore(t *testing.T) {
	m := NewMetricsService()

	m.ObserveUpstream("GET", "/alunos", 200, 20*time.Millisecond)
	m.ObserveUpstream("GET", "/alunos", 0, 40*time.Millisecond)
	m.ObserveUpstream("POST", "/alunos", 422, 10*time.Millisecond)
	m.ObserveStoreOperation("fetch_all", "success")
	m.ObserveStoreOperation("fetch_all", "success")
	m.ObserveStoreOperation("create", "http_error")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.storeOperations.WithLabelValues("fetch_all", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.storeOperations.WithLabelValues("create", "http_error")))

	summary := m.Snapshot()
	assert.Equal(t, uint64(3), summary.UpstreamCalls)
	assert.Equal(t, uint64(2), summary.UpstreamFailures)
	assert.InDelta(t, 23.33, summary.AverageUpstreamDurationMs, 0.01)
	assert.Equal(t, map[string]uint64{"fetch_all:success": 2, "create:http_error": 1}, summary.StoreOutcomes)
}

func TestMetricsServiceCacheRatio(t *testing.T) {
	m := NewMetricsService()

	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(false, time.Millisecond)
	m.ObserveHTTPRequest("GET", "/api/v1/students", 200, 10*time.Millisecond)

	summary := m.Snapshot()
	assert.Equal(t, uint64(2), summary.CacheHits)
	assert.Equal(t, uint64(1), summary.CacheMisses)
	assert.InDelta(t, 0.666, summary.CacheHitRatio, 0.001)
	assert.Equal(t, uint64(1), summary.RequestsTotal)
	assert.InDelta(t, 0.666, testutil.ToFloat64(m.cacheHitRatio), 0.001)
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService

	assert.NotPanics(t, func() {
		m.ObserveUpstream("GET", "/alunos", 200, time.Millisecond)
		m.ObserveStoreOperation("fetch_all", "success")
		m.RecordCacheOperation(true, time.Millisecond)
		m.ObserveHTTPRequest("GET", "/", 200, time.Millisecond)
	})
	assert.Zero(t, m.Snapshot().UpstreamCalls)
}
