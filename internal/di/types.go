/**
 * Package di provides dependency injection type definitions.
 *
 * This package defines the Container type which holds all application dependencies.
 * The Container is the single source of truth for all service instances and is
 * passed to the server and the scheduler.
 */
package di

import (
	"context"

	"github.com/aristath/qdo/internal/database"
	"github.com/aristath/qdo/internal/modules/graph"
	"github.com/aristath/qdo/internal/modules/graphs"
	"github.com/aristath/qdo/internal/modules/maxcut"
	"github.com/aristath/qdo/internal/modules/qaoa"
	"github.com/aristath/qdo/internal/modules/runs"
	"github.com/aristath/qdo/internal/observability"
	"github.com/aristath/qdo/internal/scheduler"
)

// DefaultGraph supplies the configured default graph.
type DefaultGraph interface {
	Get(ctx context.Context) (*graph.WeightedGraph, error)
}

/**
 * Container holds all dependencies for the application.
 *
 * Architecture:
 * - Database: one SQLite file (stored graphs, run history)
 * - Repositories: graphs, runs
 * - Sources: file, stored and S3 graph sources behind one Loader; API callers are
 *   confined to the graph directory and the allowed buckets
 * - Services: QAOA solver, Max-Cut service, metrics collector
 * - Scheduler: cron jobs (benchmark, maintenance)
 */
type Container struct {
	// Database
	DB *database.DB

	// Repositories
	GraphRepo *graphs.Repository
	RunRepo   *runs.Repository

	// Graph sources for API requests
	Files        *graphs.FileSource // confined to the graph directory
	Remote       *graphs.S3Source   // nil when object storage could not be configured
	Loader       *graphs.Loader
	DefaultGraph DefaultGraph
	GraphWatcher *graphs.WatchedFile // nil when the default graph is not a local file

	// Services
	Metrics       *observability.Collector
	Solver        *qaoa.Solver
	MaxCutService *maxcut.Service

	// Background jobs
	Scheduler *scheduler.Scheduler
}

// Close releases the container's resources.
func (c *Container) Close() error {
	if c.GraphWatcher != nil {
		_ = c.GraphWatcher.Stop()
	}
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// JobInstances holds references to all registered jobs
type JobInstances struct {
	Benchmark   scheduler.Job
	Maintenance scheduler.Job
}
