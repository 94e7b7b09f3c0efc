package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/reportd/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{
			Port:            8000,
			LogLevel:        "debug",
			ShutdownTimeout: 5 * time.Second,
		},
		Task:      config.TaskConfig{MaxConcurrent: 2, Timeout: 10 * time.Second},
		Scheduler: config.SchedulerConfig{Timezone: "UTC"},
		Artifacts: config.ArtifactsConfig{Dir: t.TempDir()},
		Generator: config.GeneratorConfig{Kind: "markdown"},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startApp serves a fully wired application on a loopback port and returns
// its base URL plus a stop function that reports the serve error.
func startApp(t *testing.T) (string, func() error) {
	t.Helper()

	app, err := newApplication(testConfig(t), discardLogger())
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.serve(ctx, ln) }()

	var (
		once    sync.Once
		stopErr error
	)
	stop := func() error {
		once.Do(func() {
			cancel()
			select {
			case stopErr = <-done:
			case <-time.After(10 * time.Second):
				t.Error("server did not shut down")
			}
		})
		return stopErr
	}
	t.Cleanup(func() { _ = stop() })

	return "http://" + ln.Addr().String(), stop
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp.StatusCode
}

func postJSON(t *testing.T, url, body string, v any) int {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	if v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp.StatusCode
}

func TestServer_ReportLifecycle(t *testing.T) {
	base, stop := startApp(t)

	var health map[string]any
	require.Equal(t, http.StatusOK, getJSON(t, base+"/api/health", &health))
	assert.Equal(t, "healthy", health["status"])

	var submitted map[string]any
	status := postJSON(t, base+"/api/reports/generate", `{"company":"Acme Corp","code":"0001"}`, &submitted)
	require.Equal(t, http.StatusAccepted, status)
	id, _ := submitted["task_id"].(string)
	require.NotEmpty(t, id)

	var task map[string]any
	require.Eventually(t, func() bool {
		task = nil
		getJSON(t, base+"/api/tasks/"+id, &task)
		return task["status"] == "completed"
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, float64(100), task["progress"])
	assert.Equal(t, "HK", task["market"])
	assert.NotNil(t, task["completed_at"])

	resp, err := http.Get(base + "/api/reports/" + id + "/download")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment; filename=")
	assert.True(t, bytes.Contains(body, []byte("Acme Corp")))

	var list map[string]any
	require.Equal(t, http.StatusOK, getJSON(t, base+"/api/tasks?status=completed", &list))
	assert.Equal(t, float64(1), list["total"])

	var cancelResp map[string]any
	assert.Equal(t, http.StatusConflict, postJSON(t, base+"/api/tasks/"+id+"/cancel", "", &cancelResp))

	require.NoError(t, stop())
}

func TestServer_ScheduledTasks(t *testing.T) {
	base, stop := startApp(t)

	body := `{"task_name":"weekday-acme","cron_expression":"0 9 * * MON-FRI","company":"Acme","code":"0001"}`
	require.Equal(t, http.StatusOK, postJSON(t, base+"/api/scheduled-tasks", body, nil))

	var list struct {
		Tasks []map[string]any `json:"tasks"`
	}
	require.Equal(t, http.StatusOK, getJSON(t, base+"/api/scheduled-tasks", &list))
	require.Len(t, list.Tasks, 1)
	assert.Equal(t, "weekday-acme - Acme", list.Tasks[0]["name"])
	assert.NotEmpty(t, list.Tasks[0]["next_run_time"])

	req, err := http.NewRequest(http.MethodDelete, base+"/api/scheduled-tasks/weekday-acme", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, http.StatusBadRequest,
		postJSON(t, base+"/api/scheduled-tasks",
			`{"task_name":"bad","cron_expression":"not a cron","company":"Acme","code":"0001"}`, nil))

	require.NoError(t, stop())
}

func TestServer_ResponsesCarryTraceAndCORSHeaders(t *testing.T) {
	base, _ := startApp(t)

	resp, err := http.Get(base + "/api/tasks/missing")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Trace-ID"))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestNewApplication_InvalidGenerator(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Generator = config.GeneratorConfig{Kind: "command"}

	_, err := newApplication(cfg, discardLogger())
	assert.Error(t, err)
}

func TestNewApplication_InvalidTimezone(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Scheduler.Timezone = "Mars/Olympus"

	_, err := newApplication(cfg, discardLogger())
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "reportd dev\n", out.String())
}
