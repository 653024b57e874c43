package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/qdo/internal/config"
	"github.com/aristath/qdo/internal/database"
)

// InitializeDatabases opens qdo.db and applies its schema
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	db, err := database.New(database.Config{
		Path:    cfg.DatabasePath(),
		Profile: database.ProfileStandard,
		Name:    "qdo",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize qdo database: %w", err)
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate qdo database: %w", err)
	}

	log.Info().Str("path", db.Path()).Msg("Database initialized")
	return &Container{DB: db}, nil
}
