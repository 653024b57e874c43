// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds application configuration.
// GraphSource is the default graph for GET /maxcut and the benchmark job; a zero
// SolveTimeout disables the per-solve deadline. File references sent by API callers
// are read from GraphDir only.
type Config struct {
	DataDir      string `validate:"required"`
	Port         int    `validate:"min=1,max=65535"`
	LogLevel     string `validate:"oneof=trace debug info warn error fatal panic disabled"`
	DevMode      bool
	GraphSource  string        `validate:"required"`
	GraphDir     string        `validate:"required"`
	SolveTimeout time.Duration `validate:"min=0"`
	Solver       SolverConfig
	Schedule     ScheduleConfig
	S3           S3Config
}

// SolverConfig holds QAOA defaults. A TOML solver profile may override any of them.
type SolverConfig struct {
	Depth          int    `toml:"depth" validate:"min=1,max=10"`
	MaxIterations  int    `toml:"max_iterations" validate:"min=1,max=10000"`
	Shots          int    `toml:"shots" validate:"min=1,max=1000000"`
	FinalShots     int    `toml:"final_shots" validate:"min=1,max=1000000"`
	MaxQubits      int    `toml:"max_qubits" validate:"min=1,max=24"`
	MaxEvalRetries int    `toml:"max_eval_retries" validate:"min=0,max=10"`
	Strategy       string `toml:"strategy" validate:"oneof=nelder-mead compass"`
	Seed           int64  `toml:"seed"`
}

// ScheduleConfig holds cron expressions (with seconds) for background jobs.
// An empty expression disables the job.
// RunRetention of 0 keeps runs forever.
type ScheduleConfig struct {
	Benchmark    string
	Maintenance  string
	RunRetention time.Duration `validate:"min=0"`
}

// S3Config holds object storage settings for s3:// graph sources.
// API callers may only name objects in Buckets; an empty list disables s3:// for them.
type S3Config struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Buckets         []string
}

// DatabasePath returns the SQLite file holding stored graphs and run history.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "qdo.db")
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir, err := filepath.Abs(getEnv("DATA_DIR", "./data"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	graphDir, err := filepath.Abs(getEnv("GRAPH_DIR", "./data"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve graph directory path: %w", err)
	}

	cfg := &Config{
		DataDir:      dataDir,
		Port:         getEnvAsInt("PORT", 8000),
		LogLevel:     strings.ToLower(getEnv("LOG_LEVEL", "info")),
		DevMode:      getEnvAsBool("DEV_MODE", false),
		GraphSource:  getEnv("GRAPH_SOURCE", "data/sample_graph.json"),
		GraphDir:     graphDir,
		SolveTimeout: getEnvAsDuration("SOLVE_TIMEOUT", 60*time.Second),
		Solver: SolverConfig{
			Depth:          getEnvAsInt("QAOA_DEPTH", 1),
			MaxIterations:  getEnvAsInt("QAOA_MAX_ITERATIONS", 100),
			Shots:          getEnvAsInt("QAOA_SHOTS", 1024),
			FinalShots:     getEnvAsInt("QAOA_FINAL_SHOTS", 4096),
			MaxQubits:      getEnvAsInt("QAOA_MAX_QUBITS", 20),
			MaxEvalRetries: getEnvAsInt("QAOA_MAX_EVAL_RETRIES", 3),
			Strategy:       getEnv("QAOA_STRATEGY", "nelder-mead"),
			Seed:           int64(getEnvAsInt("QAOA_SEED", 0)),
		},
		Schedule: ScheduleConfig{
			Benchmark:    getEnv("BENCHMARK_SCHEDULE", ""),
			Maintenance:  getEnv("MAINTENANCE_SCHEDULE", "0 0 3 * * *"),
			RunRetention: getEnvAsDuration("RUN_RETENTION", 30*24*time.Hour),
		},
		S3: S3Config{
			Region:          getEnv("S3_REGION", "us-east-1"),
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
			Buckets:         getEnvAsList("S3_BUCKETS"),
		},
	}

	if profile := getEnv("SOLVER_PROFILE", ""); profile != "" {
		if err := cfg.ApplySolverProfile(profile); err != nil {
			return nil, err
		}
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// solverProfile mirrors SolverConfig with optional fields so a profile only overrides
// the keys it sets.
type solverProfile struct {
	Solver struct {
		Depth          *int    `toml:"depth"`
		MaxIterations  *int    `toml:"max_iterations"`
		Shots          *int    `toml:"shots"`
		FinalShots     *int    `toml:"final_shots"`
		MaxQubits      *int    `toml:"max_qubits"`
		MaxEvalRetries *int    `toml:"max_eval_retries"`
		Strategy       *string `toml:"strategy"`
		Seed           *int64  `toml:"seed"`
	} `toml:"solver"`
}

// ApplySolverProfile overlays the [solver] section of a TOML file onto c.Solver.
func (c *Config) ApplySolverProfile(path string) error {
	var p solverProfile
	if _, err := toml.DecodeFile(path, &p); err != nil {
		return fmt.Errorf("failed to load solver profile %s: %w", path, err)
	}

	s := &c.Solver
	if p.Solver.Depth != nil {
		s.Depth = *p.Solver.Depth
	}
	if p.Solver.MaxIterations != nil {
		s.MaxIterations = *p.Solver.MaxIterations
	}
	if p.Solver.Shots != nil {
		s.Shots = *p.Solver.Shots
	}
	if p.Solver.FinalShots != nil {
		s.FinalShots = *p.Solver.FinalShots
	}
	if p.Solver.MaxQubits != nil {
		s.MaxQubits = *p.Solver.MaxQubits
	}
	if p.Solver.MaxEvalRetries != nil {
		s.MaxEvalRetries = *p.Solver.MaxEvalRetries
	}
	if p.Solver.Strategy != nil {
		s.Strategy = *p.Solver.Strategy
	}
	if p.Solver.Seed != nil {
		s.Seed = *p.Solver.Seed
	}
	return nil
}

var validate = validator.New()

// Validate checks that configuration values are in range
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
