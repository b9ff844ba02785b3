package main

import (
	"github.com/urfave/cli/v2"

	"github.com/Cheertaboi/storefront/internal/config"
	"github.com/Cheertaboi/storefront/internal/pricing"
	"github.com/Cheertaboi/storefront/internal/seed"
	"github.com/Cheertaboi/storefront/internal/service"
)

func seedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "create the admin account and sample catalog",
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.Storage == config.StorageMemory {
				return cli.Exit("seeding the in-memory store has no lasting effect, use serve --seed", 1)
			}
			logger := cfg.NewLogger()
			policy, err := cfg.Pricing.Policy()
			if err != nil {
				return err
			}
			store, closeStore, err := openStore(c.Context, cfg, logger, true)
			if err != nil {
				return err
			}
			defer closeStore()

			return seed.Run(c.Context, store, service.NewBcryptPasswords(cfg.BcryptCost),
				pricing.NewCalculator(policy), seedOptions(cfg), logger)
		},
	}
}

func seedOptions(cfg *config.Config) seed.Options {
	return seed.Options{AdminEmail: cfg.AdminEmail, AdminPassword: cfg.AdminPassword}
}
