package handler

import (
	"bufio"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alexseyf/elo-escola/internal/models"
	"github.com/Alexseyf/elo-escola/internal/store"
)

type fakeChartInvalidator struct {
	calls int
	err   error
}

func (f *fakeChartInvalidator) Invalidate(context.Context) error {
	f.calls++
	return f.err
}

func TestStateHandlerSnapshot(t *testing.T) {
	gin.SetMode(gin.TestMode)
	fake := &fakeStudentStore{state: store.State{
		Students: []models.Student{{ID: 1, Name: "Ana"}},
		Version:  7,
	}}
	h := NewStateHandler(fake, nil, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/state", nil)
	h.Snapshot(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"version":7`)
	assert.Contains(t, rec.Body.String(), `"isLoading":false`)
}

func TestStateHandlerClearCache(t *testing.T) {
	gin.SetMode(gin.TestMode)
	fake := &fakeStudentStore{}
	charts := &fakeChartInvalidator{err: errors.New("redis down")}
	h := NewStateHandler(fake, charts, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodDelete, "/cache", nil)
	h.ClearCache(c)

	assert.Equal(t, http.StatusNoContent, c.Writer.Status())
	assert.True(t, fake.cleared)
	assert.Equal(t, 1, charts.calls)
}

func TestStateHandlerStream(t *testing.T) {
	gin.SetMode(gin.TestMode)
	fake := &fakeStudentStore{
		state:        store.State{Version: 1},
		updates:      make(chan store.State, 1),
		unsubscribed: make(chan struct{}),
	}
	h := NewStateHandler(fake, nil, nil)
	r := gin.New()
	r.GET("/state/stream", h.Stream)
	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/state/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	first := readEvent(t, reader)
	assert.Equal(t, "state", first.name)
	assert.Contains(t, first.data, `"version":1`)

	fake.updates <- store.State{Version: 2, IsLoading: true}
	second := readEvent(t, reader)
	assert.Equal(t, "state", second.name)
	assert.Contains(t, second.data, `"version":2`)
	assert.Contains(t, second.data, `"isLoading":true`)

	cancel()
	select {
	case <-fake.unsubscribed:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not unsubscribe after the client left")
	}
}

type sseEvent struct {
	name string
	data string
}

func readEvent(t *testing.T, r *bufio.Reader) sseEvent {
	t.Helper()
	var ev sseEvent
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			if ev.name != "" {
				return ev
			}
		case strings.HasPrefix(line, "event:"):
			ev.name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			ev.data += strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
	}
}
