package di

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/qdo/internal/config"
	"github.com/aristath/qdo/internal/modules/graphs"
	"github.com/aristath/qdo/internal/modules/maxcut"
	"github.com/aristath/qdo/internal/modules/qaoa"
	"github.com/aristath/qdo/internal/observability"
	"github.com/aristath/qdo/internal/scheduler"
)

// InitializeServices creates graph sources, the solver and the Max-Cut service.
// Repositories must already be initialized.
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil || container.GraphRepo == nil || container.RunRepo == nil {
		return fmt.Errorf("repositories must be initialized before services")
	}

	// Graph sources. Requests are confined; the configured default graph is trusted.
	container.Files = graphs.NewConfinedFileSource(cfg.GraphDir)
	trustedFiles := graphs.NewFileSource("")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	downloader, err := graphs.NewS3Downloader(ctx, graphs.S3Config{
		Region:          cfg.S3.Region,
		Endpoint:        cfg.S3.Endpoint,
		AccessKeyID:     cfg.S3.AccessKeyID,
		SecretAccessKey: cfg.S3.SecretAccessKey,
	})

	// Interfaces stay nil rather than typed-nil when storage is unavailable
	var remote, trustedRemote graphs.Source
	if err != nil {
		// s3:// references will fail; everything else still works
		log.Warn().Err(err).Msg("Object storage unavailable")
	} else {
		container.Remote = graphs.NewS3Source(downloader, log).RestrictTo(cfg.S3.Buckets...)
		remote = container.Remote
		trustedRemote = graphs.NewS3Source(downloader, log)
	}
	container.Loader = graphs.NewLoader(container.Files, container.GraphRepo, remote, log)

	if graphs.IsFileReference(cfg.GraphSource) {
		container.GraphWatcher = graphs.NewWatchedFile(trustedFiles, cfg.GraphSource, log)
		container.DefaultGraph = container.GraphWatcher
	} else {
		trusted := graphs.NewLoader(trustedFiles, container.GraphRepo, trustedRemote, log)
		container.DefaultGraph = graphs.NewReference(trusted, cfg.GraphSource)
	}

	// Solver and service
	container.Metrics = observability.NewCollector()

	searcher, err := qaoa.NewSearcher(cfg.Solver.Strategy)
	if err != nil {
		return fmt.Errorf("failed to create parameter search: %w", err)
	}
	container.Solver = qaoa.NewSolver(
		qaoa.NewStatevectorBackend(),
		searcher,
		qaoa.Config{
			Shots:          cfg.Solver.Shots,
			FinalShots:     cfg.Solver.FinalShots,
			MaxQubits:      cfg.Solver.MaxQubits,
			MaxEvalRetries: cfg.Solver.MaxEvalRetries,
		},
		log,
	)

	container.MaxCutService = maxcut.NewService(
		container.Solver,
		container.Metrics,
		container.RunRepo,
		maxcut.Options{
			Depth:         cfg.Solver.Depth,
			MaxIterations: cfg.Solver.MaxIterations,
			Shots:         cfg.Solver.Shots,
			FinalShots:    cfg.Solver.FinalShots,
			Seed:          cfg.Solver.Seed,
			Strategy:      cfg.Solver.Strategy,
		},
		cfg.SolveTimeout,
		log,
	)

	container.Scheduler = scheduler.New(log)

	log.Info().
		Str("graph_source", cfg.GraphSource).
		Str("graph_dir", cfg.GraphDir).
		Strs("s3_buckets", cfg.S3.Buckets).
		Str("strategy", searcher.Name()).
		Int("max_qubits", cfg.Solver.MaxQubits).
		Msg("Services initialized")
	return nil
}
