package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/qdo/internal/config"
	"github.com/aristath/qdo/internal/di"
	testutil "github.com/aristath/qdo/internal/testing"
)

func setupServer(t *testing.T) *Server {
	t.Helper()
	log := zerolog.New(nil).Level(zerolog.Disabled)

	dir := t.TempDir()
	graphPath := filepath.Join(dir, "graph.json")
	require.NoError(t, os.WriteFile(graphPath, []byte(testutil.SampleJSON), 0o644))

	cfg := &config.Config{
		DataDir:      dir,
		Port:         8000,
		LogLevel:     "info",
		GraphSource:  graphPath,
		GraphDir:     dir,
		SolveTimeout: 30 * time.Second,
		Solver: config.SolverConfig{
			Depth:          1,
			MaxIterations:  20,
			Shots:          128,
			FinalShots:     256,
			MaxQubits:      20,
			MaxEvalRetries: 3,
			Strategy:       "nelder-mead",
			Seed:           11,
		},
		S3: config.S3Config{Region: "us-east-1"},
	}

	container, jobs, err := di.Wire(cfg, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close() })

	return New(Config{
		Log:         log,
		Container:   container,
		Jobs:        jobs,
		GraphSource: cfg.GraphSource,
		Port:        cfg.Port,
		DevMode:     true,
	})
}

func serve(s *Server, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var envelope struct {
		Data     map[string]interface{} `json:"data"`
		Metadata map[string]interface{} `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.NotEmpty(t, envelope.Metadata["timestamp"])
	return envelope.Data
}

func TestServer_Health(t *testing.T) {
	s := setupServer(t)

	w := serve(s, "GET", "/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "healthy", response["status"])
	assert.Equal(t, "qdo", response["service"])
}

func TestServer_LegacyMaxCut(t *testing.T) {
	s := setupServer(t)

	w := serve(s, "GET", "/maxcut?p=1&seed=4", "")
	require.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Len(t, response["quantum_bits"], 5)
	assert.NotEmpty(t, response["run_id"])

	w = serve(s, "GET", "/api/runs", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), response["run_id"].(string))
}

func TestServer_GraphRoundTripThroughCompare(t *testing.T) {
	s := setupServer(t)

	w := serve(s, "PUT", "/api/graphs/triangle", `{"edges": [{"u": 0, "v": 1}, {"u": 1, "v": 2}, {"u": 0, "v": 2}]}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = serve(s, "GET", "/api/maxcut/compare?source=db:triangle&seed=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	classical := data["classical"].(map[string]interface{})
	assert.LessOrEqual(t, classical["cut_value"].(float64), 2.0)
}

func TestServer_FileSourcesStayInGraphDir(t *testing.T) {
	s := setupServer(t)

	w := serve(s, "GET", "/api/maxcut/compare?source=graph.json&seed=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "graph.json", decodeData(t, w)["source"])

	for _, source := range []string{"/etc/hostname", "../x.json", "%2Fdev%2Fzero"} {
		w = serve(s, "GET", "/api/maxcut/compare?source="+source, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, source)
		assert.Contains(t, w.Body.String(), "invalid_source", source)
	}

	w = serve(s, "POST", "/api/maxcut/solve", `{"source": "/etc/passwd"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_Metrics(t *testing.T) {
	s := setupServer(t)

	serve(s, "GET", "/health", "")

	w := serve(s, "GET", "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `api_requests_total{endpoint="/health",method="GET"} 1`)
	assert.Contains(t, body, "maxcut_classical_duration_seconds")
}

func TestServer_SystemStatus(t *testing.T) {
	s := setupServer(t)

	w := serve(s, "GET", "/api/system/status", "")
	require.Equal(t, http.StatusOK, w.Code)

	data := decodeData(t, w)
	assert.Equal(t, "healthy", data["status"])
	assert.Greater(t, data["goroutines"].(float64), 0.0)
	assert.Contains(t, data, "cpu_percent")
	assert.Contains(t, data, "memory_percent")
	assert.NotNil(t, data["database"])
}

func TestServer_DatabaseStats(t *testing.T) {
	s := setupServer(t)

	w := serve(s, "GET", "/api/system/database", "")
	require.Equal(t, http.StatusOK, w.Code)

	data := decodeData(t, w)
	assert.Equal(t, true, data["healthy"])
	assert.Equal(t, "qdo", data["name"])
}

func TestServer_Jobs(t *testing.T) {
	s := setupServer(t)

	w := serve(s, "GET", "/api/system/jobs", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"benchmark"`)
	assert.Contains(t, w.Body.String(), `"name":"maintenance"`)

	w = serve(s, "POST", "/api/system/jobs/maintenance", "")
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "completed", data["status"])

	w = serve(s, "POST", "/api/system/jobs/unknown", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "not_found")
}

func TestServer_UnknownRoute(t *testing.T) {
	s := setupServer(t)

	w := serve(s, "GET", "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
