package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/qdo/internal/config"
	"github.com/aristath/qdo/internal/scheduler"
)

// RegisterJobs creates the background jobs and schedules those with a non-empty
// cron expression. Unscheduled jobs can still be run through the scheduler's RunNow.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	if container == nil || container.Scheduler == nil || container.MaxCutService == nil {
		return nil, fmt.Errorf("services must be initialized before jobs")
	}

	instances := &JobInstances{
		Benchmark: scheduler.NewBenchmarkJob(scheduler.BenchmarkConfig{
			Service: container.MaxCutService,
			Graph:   container.DefaultGraph,
			Source:  cfg.GraphSource,
			Timeout: cfg.SolveTimeout,
			Log:     log,
		}),
		Maintenance: scheduler.NewMaintenanceJob(container.DB, container.RunRepo, cfg.Schedule.RunRetention, log),
	}

	if cfg.Schedule.Benchmark != "" {
		if err := container.Scheduler.AddJob(cfg.Schedule.Benchmark, instances.Benchmark); err != nil {
			return nil, fmt.Errorf("failed to register benchmark job: %w", err)
		}
	}
	if cfg.Schedule.Maintenance != "" {
		if err := container.Scheduler.AddJob(cfg.Schedule.Maintenance, instances.Maintenance); err != nil {
			return nil, fmt.Errorf("failed to register maintenance job: %w", err)
		}
	}

	return instances, nil
}
