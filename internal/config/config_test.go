package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	t.Setenv("DATA_DIR", dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir)
	assert.DirExists(t, dir)
	assert.Equal(t, filepath.Join(dir, "qdo.db"), cfg.DatabasePath())
	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.DevMode)
	assert.Equal(t, "data/sample_graph.json", cfg.GraphSource)
	assert.True(t, filepath.IsAbs(cfg.GraphDir))
	assert.Equal(t, "data", filepath.Base(cfg.GraphDir))
	assert.Equal(t, 60*time.Second, cfg.SolveTimeout)

	assert.Equal(t, SolverConfig{
		Depth:          1,
		MaxIterations:  100,
		Shots:          1024,
		FinalShots:     4096,
		MaxQubits:      20,
		MaxEvalRetries: 3,
		Strategy:       "nelder-mead",
	}, cfg.Solver)

	assert.Empty(t, cfg.Schedule.Benchmark)
	assert.NotEmpty(t, cfg.Schedule.Maintenance)
	assert.Equal(t, "us-east-1", cfg.S3.Region)
	assert.Empty(t, cfg.S3.Buckets)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("PORT", "9100")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("GRAPH_SOURCE", "db:office")
	t.Setenv("SOLVE_TIMEOUT", "5s")
	t.Setenv("QAOA_DEPTH", "3")
	t.Setenv("QAOA_STRATEGY", "compass")
	t.Setenv("QAOA_SEED", "42")
	t.Setenv("BENCHMARK_SCHEDULE", "0 */15 * * * *")
	t.Setenv("S3_ENDPOINT", "http://localhost:9000")
	t.Setenv("S3_BUCKETS", "graphs, shared-graphs,,")
	graphDir := t.TempDir()
	t.Setenv("GRAPH_DIR", graphDir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, "db:office", cfg.GraphSource)
	assert.Equal(t, 5*time.Second, cfg.SolveTimeout)
	assert.Equal(t, 3, cfg.Solver.Depth)
	assert.Equal(t, "compass", cfg.Solver.Strategy)
	assert.Equal(t, int64(42), cfg.Solver.Seed)
	assert.Equal(t, "0 */15 * * * *", cfg.Schedule.Benchmark)
	assert.Equal(t, "http://localhost:9000", cfg.S3.Endpoint)
	assert.Equal(t, []string{"graphs", "shared-graphs"}, cfg.S3.Buckets)
	assert.Equal(t, graphDir, cfg.GraphDir)
}

func TestLoad_MalformedNumbersFallBack(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("PORT", "eighty")
	t.Setenv("SOLVE_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, 60*time.Second, cfg.SolveTimeout)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"QAOA_DEPTH":    "0",
		"QAOA_STRATEGY": "cobyla",
		"PORT":          "70000",
		"LOG_LEVEL":     "loud",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv("DATA_DIR", t.TempDir())
			t.Setenv(key, value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_SolverProfile(t *testing.T) {
	profile := writeFile(t, "deep.toml", `
[solver]
depth = 4
max_iterations = 300
strategy = "compass"
`)
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("QAOA_SHOTS", "2048")
	t.Setenv("QAOA_DEPTH", "2")
	t.Setenv("SOLVER_PROFILE", profile)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Solver.Depth, "profile wins over env")
	assert.Equal(t, 300, cfg.Solver.MaxIterations)
	assert.Equal(t, "compass", cfg.Solver.Strategy)
	assert.Equal(t, 2048, cfg.Solver.Shots, "keys absent from the profile keep env values")
	assert.Equal(t, 4096, cfg.Solver.FinalShots)
}

func TestLoad_SolverProfileErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		t.Setenv("DATA_DIR", t.TempDir())
		t.Setenv("SOLVER_PROFILE", filepath.Join(t.TempDir(), "nope.toml"))
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("syntax", func(t *testing.T) {
		t.Setenv("DATA_DIR", t.TempDir())
		t.Setenv("SOLVER_PROFILE", writeFile(t, "bad.toml", "[solver\ndepth = "))
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("out of range", func(t *testing.T) {
		t.Setenv("DATA_DIR", t.TempDir())
		t.Setenv("SOLVER_PROFILE", writeFile(t, "wide.toml", "[solver]\nmax_qubits = 40\n"))
		_, err := Load()
		assert.Error(t, err)
	})
}
