package main

import (
	"context"

	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"

	"github.com/Cheertaboi/storefront/internal/config"
	"github.com/Cheertaboi/storefront/internal/models"
	"github.com/Cheertaboi/storefront/internal/repository"
	"github.com/Cheertaboi/storefront/internal/repository/memory"
	"github.com/Cheertaboi/storefront/pkg/db"
)

// openStore returns the configured store and a func releasing it.
func openStore(ctx context.Context, cfg *config.Config, logger log.FieldLogger, migrateUp bool) (models.Store, func(), error) {
	if cfg.Storage == config.StorageMemory {
		logger.Warn("using in-memory storage, data is lost on exit")
		return memory.NewStore(), func() {}, nil
	}

	conn, err := openPostgres(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	if migrateUp {
		if err := db.MigrateUp(conn); err != nil {
			conn.Close()
			return nil, nil, err
		}
		logger.Info("migrations applied")
	}
	return repository.NewStore(conn), func() { conn.Close() }, nil
}

func openPostgres(ctx context.Context, cfg *config.Config, logger log.FieldLogger) (*sqlx.DB, error) {
	return db.NewPostgresConnection(ctx, cfg.DB, logger.WithField("component", "postgres"))
}
