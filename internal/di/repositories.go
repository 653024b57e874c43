package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/qdo/internal/modules/graphs"
	"github.com/aristath/qdo/internal/modules/runs"
)

// InitializeRepositories creates all repositories on the container's database
func InitializeRepositories(container *Container, log zerolog.Logger) error {
	if container == nil || container.DB == nil {
		return fmt.Errorf("database must be initialized before repositories")
	}

	container.GraphRepo = graphs.NewRepository(container.DB.Conn(), log)
	container.RunRepo = runs.NewRepository(container.DB.Conn(), log)

	log.Info().Msg("Repositories initialized")
	return nil
}
