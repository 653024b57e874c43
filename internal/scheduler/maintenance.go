package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Checkpointer forces a WAL checkpoint.
type Checkpointer interface {
	WALCheckpoint(ctx context.Context, mode string) error
}

// Pruner deletes runs older than a cutoff.
type Pruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// MaintenanceJob prunes old run history and truncates the WAL.
type MaintenanceJob struct {
	db        Checkpointer
	runs      Pruner
	retention time.Duration
	now       func() time.Time
	log       zerolog.Logger
}

// NewMaintenanceJob creates a new maintenance job. A zero retention keeps all runs.
func NewMaintenanceJob(db Checkpointer, runs Pruner, retention time.Duration, log zerolog.Logger) *MaintenanceJob {
	return &MaintenanceJob{
		db:        db,
		runs:      runs,
		retention: retention,
		now:       time.Now,
		log:       log.With().Str("job", "maintenance").Logger(),
	}
}

// Name returns the job name
func (j *MaintenanceJob) Name() string {
	return "maintenance"
}

// Run executes the maintenance job
func (j *MaintenanceJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if j.retention > 0 && j.runs != nil {
		cutoff := j.now().Add(-j.retention)
		removed, err := j.runs.Prune(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("failed to prune run history: %w", err)
		}
		if removed > 0 {
			j.log.Info().Int64("removed", removed).Time("cutoff", cutoff).Msg("Pruned run history")
		}
	}

	if err := j.db.WALCheckpoint(ctx, "TRUNCATE"); err != nil {
		return err
	}

	j.log.Debug().Msg("WAL checkpoint completed")
	return nil
}
