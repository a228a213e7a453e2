package scheduler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashgrove-labs/taskflow/pkg/audit/memory"
)

func testServer(t *testing.T) (*Scheduler, *httptest.Server) {
	t.Helper()
	s := New(Config{
		QueueCapacity: 10, ProcessWorkers: 1, ThreadWorkers: 2, ThreadBuffer: 4,
		DispatchInterval: 5 * time.Millisecond, ShutdownGrace: time.Second, DefaultMaxRetries: 1,
	}, nil, nil, memory.New())
	require.NoError(t, s.Start(context.Background()))

	srv := httptest.NewServer(NewRouter(s))
	t.Cleanup(func() {
		srv.Close()
		_ = s.Stop()
	})
	return s, srv
}

func TestHTTPSubmitAndStatus(t *testing.T) {
	_, srv := testServer(t)

	body, _ := json.Marshal(map[string]interface{}{
		"name": "io_operation", "priority": "high", "payload": map[string]interface{}{"delay_ms": 1},
	})
	resp, err := http.Post(srv.URL+"/tasks", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var submitOut map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&submitOut))
	taskID := submitOut["task_id"]
	require.NotEmpty(t, taskID)

	require.Eventually(t, func() bool {
		statusResp, err := http.Get(srv.URL + "/tasks/" + taskID)
		require.NoError(t, err)
		defer statusResp.Body.Close()
		var snap Snapshot
		_ = json.NewDecoder(statusResp.Body).Decode(&snap)
		return snap.Status == "completed"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHTTPSubmitUnknownKindReturns400(t *testing.T) {
	_, srv := testServer(t)
	body, _ := json.Marshal(map[string]interface{}{"name": "bogus"})
	resp, err := http.Post(srv.URL+"/tasks", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHTTPStatusUnknownTaskReturns404(t *testing.T) {
	_, srv := testServer(t)
	resp, err := http.Get(srv.URL + "/tasks/does-not-exist")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHTTPHealthAndStats(t *testing.T) {
	_, srv := testServer(t)

	resp, err := http.Get(srv.URL + "/system/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	statsResp, err := http.Get(srv.URL + "/system/scheduler_stats")
	require.NoError(t, err)
	defer statsResp.Body.Close()
	assert.Equal(t, http.StatusOK, statsResp.StatusCode)

	workerResp, err := http.Get(srv.URL + "/system/worker_stats")
	require.NoError(t, err)
	defer workerResp.Body.Close()
	assert.Equal(t, http.StatusOK, workerResp.StatusCode)

	metricsResp, err := http.Get(srv.URL + "/system/metrics")
	require.NoError(t, err)
	defer metricsResp.Body.Close()
	assert.Equal(t, http.StatusOK, metricsResp.StatusCode)
}
