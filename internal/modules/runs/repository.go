// Package runs keeps the history of classical vs QAOA comparison runs.
package runs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/qdo/internal/modules/maxcut"
)

// ErrNotFound is returned when a run id is unknown.
var ErrNotFound = errors.New("run not found")

const (
	// DefaultListLimit is used when List is called with a non-positive limit.
	DefaultListLimit = 50
	// MaxListLimit caps a single List call.
	MaxListLimit = 500
)

// Run is one stored comparison, flattened to the figures worth keeping.
type Run struct {
	ID                       string    `json:"id"`
	Source                   string    `json:"source"`
	Seed                     int64     `json:"seed"`
	NumNodes                 int       `json:"num_nodes"`
	NumEdges                 int       `json:"num_edges"`
	Depth                    int       `json:"depth"`
	Backend                  string    `json:"backend"`
	Optimizer                string    `json:"optimizer"`
	ClassicalCut             float64   `json:"classical_cut"`
	QuantumCut               float64   `json:"quantum_cut"`
	QuantumBits              []int     `json:"quantum_bits"`
	CircuitDepth             int       `json:"circuit_depth"`
	Evaluations              int       `json:"evaluations"`
	ClassicalDurationSeconds float64   `json:"classical_duration_seconds"`
	QuantumDurationSeconds   float64   `json:"quantum_duration_seconds"`
	CreatedAt                time.Time `json:"created_at"`
}

// Filter narrows a List call.
type Filter struct {
	Source string
	Limit  int
}

// Repository stores runs in the runs table.
// Implements maxcut.RunStore.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new run repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "runs").Logger(),
	}
}

// Save records a comparison and returns its new id.
func (r *Repository) Save(ctx context.Context, source string, c *maxcut.Comparison) (string, error) {
	if c == nil || c.Quantum == nil {
		return "", fmt.Errorf("cannot save incomplete comparison")
	}

	bits, err := json.Marshal(c.Quantum.Bits)
	if err != nil {
		return "", fmt.Errorf("failed to encode quantum bits: %w", err)
	}

	id := uuid.New().String()
	meta := c.Quantum.Metadata
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO runs (
			id, source, seed, num_nodes, num_edges, depth, backend, optimizer,
			classical_cut, quantum_cut, quantum_bits, circuit_depth, evaluations,
			classical_duration_seconds, quantum_duration_seconds, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		id, source, c.Seed, c.NumNodes, c.NumEdges, meta.Reps, meta.Backend, meta.Optimizer,
		c.Classical.CutValue, c.Quantum.CutValue, string(bits), meta.CircuitDepth, meta.Evaluations,
		c.ClassicalDurationSeconds, c.QuantumDurationSeconds, time.Now().UnixMilli(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to save run: %w", err)
	}

	r.log.Debug().Str("id", id).Str("source", source).Msg("Run recorded")
	return id, nil
}

// Get returns the run with the given id.
func (r *Repository) Get(ctx context.Context, id string) (*Run, error) {
	row := r.db.QueryRowContext(ctx, selectRuns+" WHERE id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}
	return run, nil
}

// List returns the most recent runs first, optionally restricted to one source.
func (r *Repository) List(ctx context.Context, f Filter) ([]Run, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	query := selectRuns
	args := []interface{}{}
	if f.Source != "" {
		query += " WHERE source = ?"
		args = append(args, f.Source)
	}
	query += " ORDER BY created_at DESC, rowid DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	list := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		list = append(list, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return list, nil
}

// Prune deletes runs older than cutoff and returns how many were removed.
func (r *Repository) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM runs WHERE created_at < ?", cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	return n, nil
}

const selectRuns = `
	SELECT id, source, seed, num_nodes, num_edges, depth, backend, optimizer,
		classical_cut, quantum_cut, quantum_bits, circuit_depth, evaluations,
		classical_duration_seconds, quantum_duration_seconds, created_at
	FROM runs`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(s scanner) (*Run, error) {
	var run Run
	var bits string
	var created int64
	err := s.Scan(
		&run.ID, &run.Source, &run.Seed, &run.NumNodes, &run.NumEdges, &run.Depth,
		&run.Backend, &run.Optimizer, &run.ClassicalCut, &run.QuantumCut, &bits,
		&run.CircuitDepth, &run.Evaluations, &run.ClassicalDurationSeconds,
		&run.QuantumDurationSeconds, &created,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(bits), &run.QuantumBits); err != nil {
		return nil, fmt.Errorf("corrupt quantum_bits for run %s: %w", run.ID, err)
	}
	run.CreatedAt = time.UnixMilli(created).UTC()
	return &run, nil
}
