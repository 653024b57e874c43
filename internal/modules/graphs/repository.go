package graphs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/qdo/internal/modules/graph"
)

// DBPrefix marks a loader reference to a stored graph ("db:<name>").
const DBPrefix = "db:"

// Summary describes a stored graph without its payload.
type Summary struct {
	Name        string    `json:"name"`
	NumNodes    int       `json:"num_nodes"`
	NumEdges    int       `json:"num_edges"`
	TotalWeight float64   `json:"total_weight"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Repository stores named graphs in the graphs table.
// Payloads are msgpack-encoded Documents; the summary columns are denormalized for listing.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new graph repository.
//
// Parameters:
//   - db: Database connection holding the graphs table
//   - log: Structured logger
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "graphs").Logger(),
	}
}

// Put stores g under name, replacing any existing graph with that name.
//
// Returns:
//   - bool: true if the graph was created, false if it replaced an existing one
//   - error: Error if encoding or the write fails
func (r *Repository) Put(ctx context.Context, name string, g *graph.WeightedGraph) (bool, error) {
	payload, err := msgpack.Marshal(DocumentOf(g))
	if err != nil {
		return false, fmt.Errorf("failed to encode graph %s: %w", name, err)
	}

	now := time.Now().Unix()
	var exists int
	err = r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM graphs WHERE name = ?", name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check graph %s: %w", name, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO graphs (name, num_nodes, num_edges, total_weight, payload, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			num_nodes = excluded.num_nodes,
			num_edges = excluded.num_edges,
			total_weight = excluded.total_weight,
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`, name, g.NumNodes(), g.NumEdges(), g.TotalWeight(), payload, now, now)
	if err != nil {
		return false, fmt.Errorf("failed to store graph %s: %w", name, err)
	}

	r.log.Debug().Str("name", name).Int("nodes", g.NumNodes()).Int("edges", g.NumEdges()).Msg("Graph stored")
	return exists == 0, nil
}

// Get loads the graph stored under name.
// Returns a NotFoundError if there is none.
func (r *Repository) Get(ctx context.Context, name string) (*graph.WeightedGraph, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx, "SELECT payload FROM graphs WHERE name = ?", name).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Source: DBPrefix + name}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get graph %s: %w", name, err)
	}

	var doc Document
	if err := msgpack.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode graph %s: %w", name, err)
	}
	return doc.Graph()
}

// Load implements the loader contract for "db:" references.
func (r *Repository) Load(ctx context.Context, name string) (*graph.WeightedGraph, error) {
	return r.Get(ctx, name)
}

// List returns all stored graphs ordered by name.
func (r *Repository) List(ctx context.Context) ([]Summary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT name, num_nodes, num_edges, total_weight, created_at, updated_at
		FROM graphs ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list graphs: %w", err)
	}
	defer rows.Close()

	summaries := []Summary{}
	for rows.Next() {
		var s Summary
		var created, updated int64
		if err := rows.Scan(&s.Name, &s.NumNodes, &s.NumEdges, &s.TotalWeight, &created, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan graph row: %w", err)
		}
		s.CreatedAt = time.Unix(created, 0).UTC()
		s.UpdatedAt = time.Unix(updated, 0).UTC()
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate graphs: %w", err)
	}
	return summaries, nil
}

// Delete removes the graph stored under name.
// Returns a NotFoundError if there is none.
func (r *Repository) Delete(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM graphs WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("failed to delete graph %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete graph %s: %w", name, err)
	}
	if n == 0 {
		return &NotFoundError{Source: DBPrefix + name}
	}
	return nil
}
