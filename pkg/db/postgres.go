package db

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// NewPostgresConnection opens the pool and pings it, retrying a fixed number
// of times with a fixed delay. This is the only retry loop in the service.
func NewPostgresConnection(ctx context.Context, cfg PostgresConfig, logger log.FieldLogger) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, errors.Wrap(err, "open db")
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	attempts := cfg.ConnectRetries
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; ; attempt++ {
		err = ping(ctx, db)
		if err == nil {
			logger.WithField("attempt", attempt).Info("connected to postgres")
			return db, nil
		}
		entry := logger.WithError(err).WithFields(log.Fields{"attempt": attempt, "max": attempts})
		if attempt >= attempts {
			entry.Error("postgres unavailable, giving up")
			_ = db.Close()
			return nil, errors.Wrapf(err, "db ping failed after %d attempts", attempts)
		}
		entry.Warn("postgres not ready, retrying")

		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, ctx.Err()
		case <-time.After(cfg.ConnectRetryDelay):
		}
	}
}

func ping(ctx context.Context, db *sqlx.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return db.PingContext(ctx)
}
