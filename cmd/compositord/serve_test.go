package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/compositor"
)

// newTestServer runs the scroll scenario on a loop that only ticks when
// the test asks it to.
func newTestServer(t *testing.T) (*httptest.Server, *compositor.Loop) {
	t.Helper()
	sc, err := ParseScenario([]byte(scrollScenario))
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	p, err := newScenarioPipeline(&globalFlags{}, sc, reg)
	require.NoError(t, err)
	p.CommitScene(newSceneProducer(sc).Scene())

	l := compositor.NewLoop(p)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	srv := httptest.NewServer(newDebugHandler(l, reg))
	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-done
		l.Close()
		p.Close()
	})
	require.NoError(t, l.OnVsync(time.Now()))
	return srv, l
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func post(t *testing.T, url string) int {
	t.Helper()
	resp, err := http.Post(url, "text/plain", nil)
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode
}

func trees(t *testing.T, srv *httptest.Server) pipelineInfo {
	t.Helper()
	code, body := get(t, srv.URL+"/debug/trees")
	require.Equal(t, http.StatusOK, code)
	var info pipelineInfo
	require.NoError(t, json.Unmarshal([]byte(body), &info))
	return info
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	code, body := get(t, srv.URL+"/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok\n", body)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	code, body := get(t, srv.URL+"/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "compositor_activations_total 1")
	assert.Contains(t, body, "compositor_tile_memory_limit_bytes")
}

func TestDebugTrees(t *testing.T) {
	srv, _ := newTestServer(t)
	info := trees(t, srv)

	require.NotNil(t, info.Active)
	assert.Equal(t, 1, info.Active.SourceFrame)
	assert.Equal(t, 2, info.Active.Layers)
	assert.True(t, info.Active.Drawn)
	assert.Nil(t, info.Pending)
	assert.Equal(t, 1, info.FrameNumber)
	assert.True(t, info.CanDraw)
	assert.True(t, info.Visible)
	assert.False(t, info.CommitInFlight)
}

func TestDebugVisible(t *testing.T) {
	srv, _ := newTestServer(t)

	assert.Equal(t, http.StatusNoContent, post(t, srv.URL+"/debug/visible/false"))
	assert.False(t, trees(t, srv).Visible)
	assert.Equal(t, http.StatusNoContent, post(t, srv.URL+"/debug/visible/true"))
	assert.True(t, trees(t, srv).Visible)

	assert.Equal(t, http.StatusBadRequest, post(t, srv.URL+"/debug/visible/maybe"))
}

func TestDebugCommit(t *testing.T) {
	srv, l := newTestServer(t)
	assert.Equal(t, http.StatusNoContent, post(t, srv.URL+"/debug/commit"))

	var needs bool
	require.NoError(t, l.Do(func(p *compositor.Pipeline) { needs = p.NeedsCommit() }))
	assert.True(t, needs)
}

func TestDebugMemory(t *testing.T) {
	srv, l := newTestServer(t)
	assert.Equal(t, http.StatusBadRequest, post(t, srv.URL+"/debug/memory?bytes=lots"))
	assert.Equal(t, http.StatusNoContent, post(t, srv.URL+"/debug/memory?bytes=4096"))

	var limit uint64
	require.NoError(t, l.Do(func(p *compositor.Pipeline) { limit = p.Budget().Policy().BytesLimitWhenVisible }))
	assert.Equal(t, uint64(4096), limit)
}

func TestDebugSettings(t *testing.T) {
	srv, _ := newTestServer(t)
	code, body := get(t, srv.URL+"/debug/settings")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "snap_angle_degrees: 45")
}
