package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/aristath/qdo/internal/modules/graph"
	"github.com/aristath/qdo/internal/modules/graphs"
	"github.com/aristath/qdo/internal/modules/maxcut"
	"github.com/aristath/qdo/internal/modules/qaoa"
)

type mapLoader map[string]*graph.WeightedGraph

func (m mapLoader) Load(_ context.Context, ref string) (*graph.WeightedGraph, error) {
	g, ok := m[ref]
	if !ok {
		return nil, &graphs.NotFoundError{Source: ref}
	}
	return g, nil
}

type fixedGraph struct{ g *graph.WeightedGraph }

func (f fixedGraph) Get(context.Context) (*graph.WeightedGraph, error) { return f.g, nil }

type memoryRuns struct{ saved int }

func (m *memoryRuns) Save(context.Context, string, *maxcut.Comparison) (string, error) {
	m.saved++
	return "run-id", nil
}

func setupHandler(t *testing.T, runs maxcut.RunStore) *Handler {
	t.Helper()
	logger := zerolog.New(nil).Level(zerolog.Disabled)

	cycle, err := graph.Cycle(4)
	require.NoError(t, err)
	edge, err := graph.FromEdges([]graph.Edge{{U: 0, V: 1, Weight: 5}})
	require.NoError(t, err)

	solver := qaoa.NewSolver(nil, nil, qaoa.Config{Shots: 256, FinalShots: 1024}, logger)
	service := maxcut.NewService(solver, nil, runs, maxcut.Options{Depth: 1, MaxIterations: 40, Seed: 5}, 30*time.Second, logger)
	loader := mapLoader{"db:edge": edge}
	return NewHandler(service, loader, fixedGraph{g: cycle}, "data/sample_graph.json", logger)
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	require.Contains(t, response, "data")
	return response["data"].(map[string]interface{})
}

func TestHandleLegacyMaxCut(t *testing.T) {
	runs := &memoryRuns{}
	handler := setupHandler(t, runs)

	req := httptest.NewRequest("GET", "/maxcut?p=1&seed=3", nil)
	w := httptest.NewRecorder()
	handler.HandleLegacyMaxCut(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var response LegacyResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))

	assert.Len(t, response.QuantumBits, 4)
	assert.LessOrEqual(t, response.ClassicalCut, 4.0)
	assert.LessOrEqual(t, response.QuantumCut, 4.0)
	assert.Equal(t, 4, response.Metadata.NumQubits)
	assert.Equal(t, qaoa.StatevectorBackendName, response.Metadata.Backend)
	assert.Equal(t, "run-id", response.RunID)
	assert.Equal(t, 1, runs.saved)
}

func TestHandleLegacyMaxCut_BadQuery(t *testing.T) {
	handler := setupHandler(t, nil)

	for _, q := range []string{"p=abc", "p=0", "p=11", "seed=x", "strategy=cobyla"} {
		w := httptest.NewRecorder()
		handler.HandleLegacyMaxCut(w, httptest.NewRequest("GET", "/maxcut?"+q, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}

func TestHandleSolve_InlineGraph(t *testing.T) {
	handler := setupHandler(t, nil)

	body := `{"graph": {"edges": [{"u": 0, "v": 1, "weight": 5}]}, "options": {"depth": 1, "max_iterations": 30, "seed": 9}}`
	req := httptest.NewRequest("POST", "/api/maxcut/solve", strings.NewReader(body))
	w := httptest.NewRecorder()
	handler.HandleSolve(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, 5.0, data["cut_value"])
	assert.Len(t, data["bits"], 2)
	metadata := data["metadata"].(map[string]interface{})
	assert.Equal(t, 2.0, metadata["num_qubits"])
	assert.Equal(t, 3.0, metadata["circuit_depth"])
}

func TestHandleSolve_FromSource(t *testing.T) {
	handler := setupHandler(t, nil)

	req := httptest.NewRequest("POST", "/api/maxcut/solve", strings.NewReader(`{"source": "db:edge"}`))
	w := httptest.NewRecorder()
	handler.HandleSolve(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5.0, decodeData(t, w)["cut_value"])
}

func TestHandleSolve_Errors(t *testing.T) {
	handler := setupHandler(t, nil)

	cases := map[string]int{
		`{"source": "db:missing"}`:                                     http.StatusNotFound,
		`{"graph": {"edges": []}}`:                                     http.StatusBadRequest,
		`{"graph": {"edges": [{"u": 1, "v": 1}]}}`:                     http.StatusBadRequest,
		`{"graph": {"edges": [{"u": 0, "v": 1}]}, "source": "db:edge"}`: http.StatusBadRequest,
		`{"options": {"depth": 0, "max_iterations": -1}}`:              http.StatusBadRequest,
		`{"options": {"strategy": "cobyla"}}`:                          http.StatusBadRequest,
		`{not json`:                                                    http.StatusBadRequest,
	}
	for body, status := range cases {
		w := httptest.NewRecorder()
		handler.HandleSolve(w, httptest.NewRequest("POST", "/api/maxcut/solve", strings.NewReader(body)))
		assert.Equal(t, status, w.Code, body)
	}
}

func TestHandleCompare_Get(t *testing.T) {
	runs := &memoryRuns{}
	handler := setupHandler(t, runs)

	req := httptest.NewRequest("GET", "/api/maxcut/compare?seed=11&strategy=compass", nil)
	w := httptest.NewRecorder()
	handler.HandleCompare(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, 11.0, data["seed"])
	assert.Equal(t, "data/sample_graph.json", data["source"])
	assert.Equal(t, "run-id", data["run_id"])
	assert.Contains(t, data, "classical")
	assert.Contains(t, data, "quantum")

	colors := data["quantum_colors"].(map[string]interface{})
	assert.Len(t, colors["node_colors"], 4)
	assert.Len(t, colors["edge_colors"], 4)

	quantum := data["quantum"].(map[string]interface{})
	metadata := quantum["metadata"].(map[string]interface{})
	assert.Equal(t, qaoa.StrategyCompass, metadata["optimizer"])
}

func TestHandleCompare_Post(t *testing.T) {
	handler := setupHandler(t, &memoryRuns{})

	body, _ := json.Marshal(map[string]interface{}{
		"source":  "db:edge",
		"options": map[string]interface{}{"seed": 4},
	})
	req := httptest.NewRequest("POST", "/api/maxcut/compare", bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler.HandleCompare(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "db:edge", data["source"])
	assert.Equal(t, 2.0, data["num_nodes"])
}

func TestRegisterRoutes(t *testing.T) {
	handler := setupHandler(t, nil)
	router := chi.NewRouter()

	assert.NotPanics(t, func() {
		handler.RegisterLegacyRoutes(router)
		router.Route("/api", handler.RegisterRoutes)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/maxcut/compare?source=db:edge", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("DELETE", "/api/maxcut/solve", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestHandleStream(t *testing.T) {
	handler := setupHandler(t, nil)
	router := chi.NewRouter()
	router.Route("/api", handler.RegisterRoutes)
	srv := httptest.NewServer(router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/maxcut/stream?source=db:edge&max_iterations=15&seed=2"
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	progress := 0
	var final StreamMessage
	for {
		var msg StreamMessage
		require.NoError(t, wsjson.Read(ctx, conn, &msg))
		if msg.Type != "progress" {
			final = msg
			break
		}
		require.NotNil(t, msg.Progress)
		progress++
		assert.Equal(t, progress, msg.Progress.Iteration)
	}

	assert.Equal(t, "result", final.Type)
	require.NotNil(t, final.Result)
	assert.Equal(t, 5.0, final.Result.CutValue)
	assert.Equal(t, final.Result.Metadata.Evaluations, progress)
}

func TestHandleStream_UnknownSourceFailsBeforeUpgrade(t *testing.T) {
	handler := setupHandler(t, nil)

	w := httptest.NewRecorder()
	handler.HandleStream(w, httptest.NewRequest("GET", "/api/maxcut/stream?source=db:nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
