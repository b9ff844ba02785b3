package main

import (
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/Cheertaboi/storefront/internal/config"
	"github.com/Cheertaboi/storefront/pkg/db"
)

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "apply or roll back database migrations",
		Subcommands: []*cli.Command{
			{
				Name:  "up",
				Usage: "apply all pending migrations",
				Action: func(c *cli.Context) error {
					return withPostgres(c, db.MigrateUp)
				},
			},
			{
				Name:  "down",
				Usage: "roll back migrations",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "steps", Value: 1, Usage: "number of migrations to roll back"},
				},
				Action: func(c *cli.Context) error {
					steps := c.Int("steps")
					if steps < 1 {
						return errors.New("--steps must be at least 1")
					}
					return withPostgres(c, func(conn *sqlx.DB) error {
						return db.MigrateDown(conn, steps)
					})
				},
			},
		},
	}
}

func withPostgres(c *cli.Context, fn func(conn *sqlx.DB) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Storage != config.StoragePostgres {
		return errors.Errorf("migrations need STORAGE=%s", config.StoragePostgres)
	}
	logger := cfg.NewLogger()
	conn, err := openPostgres(c.Context, cfg, logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := fn(conn); err != nil {
		return err
	}
	logger.WithField("command", c.Command.FullName()).Info("migration finished")
	return nil
}
