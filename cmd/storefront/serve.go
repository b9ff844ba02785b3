package main

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/Cheertaboi/storefront/internal/api"
	"github.com/Cheertaboi/storefront/internal/cache"
	"github.com/Cheertaboi/storefront/internal/concurrency"
	"github.com/Cheertaboi/storefront/internal/config"
	"github.com/Cheertaboi/storefront/internal/notify"
	"github.com/Cheertaboi/storefront/internal/pricing"
	"github.com/Cheertaboi/storefront/internal/realtime"
	"github.com/Cheertaboi/storefront/internal/seed"
	"github.com/Cheertaboi/storefront/internal/service"
)

const (
	janitorInterval = time.Minute
	hubBuffer       = 16
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP API",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "seed", Usage: "create the admin account and sample catalog before serving"},
		},
		Action: serve,
	}
}

func serve(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := cfg.NewLogger()

	policy, err := cfg.Pricing.Policy()
	if err != nil {
		return err
	}
	store, closeStore, err := openStore(c.Context, cfg, logger, cfg.AutoMigrate)
	if err != nil {
		return err
	}
	defer closeStore()

	calc := pricing.NewCalculator(policy)
	passwords := service.NewBcryptPasswords(cfg.BcryptCost)
	pool := concurrency.NewPool(cfg.MailWorkers, cfg.MailQueue, cfg.MailTimeout, logger.WithField("component", "mail"))
	mail := notify.NewDispatcher(pool, notify.NewMailer(cfg.SMTP, logger.WithField("component", "mailer")))
	sessions := cache.NewSessionCache(cfg.SessionTTL)
	hub := realtime.NewHub(hubBuffer)

	carts := service.NewCartService(store, logger)
	accounts := service.NewAccountService(store, passwords, carts, mail, cfg.MaxAddresses, logger)
	discounts := service.NewDiscountService(store, calc, logger)

	if c.Bool("seed") {
		if err := seed.Run(c.Context, store, passwords, calc, seedOptions(cfg), logger); err != nil {
			return err
		}
	}

	handler := api.NewRouter(api.Deps{
		Accounts:     accounts,
		Carts:        carts,
		Checkout:     service.NewCheckoutService(store, accounts, discounts, calc, passwords, mail, logger),
		Discounts:    discounts,
		Orders:       service.NewOrderService(store, cfg.Location(), logger),
		Catalog:      service.NewCatalogService(store, hub, logger),
		Admin:        service.NewAdminService(store, logger),
		Sessions:     sessions,
		Hub:          hub,
		SecureCookie: cfg.SecureCookie,
		Logger:       logger,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       60 * time.Second,
		// WriteTimeout stays unset so product streams are not cut off.
	}

	g, ctx := errgroup.WithContext(c.Context)
	g.Go(func() error {
		sessions.RunJanitor(ctx, janitorInterval)
		return nil
	})
	g.Go(func() error {
		logger.WithField("addr", cfg.Addr).Info("starting storefront")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "listen")
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("HTTP server shutdown")
		}
		if err := pool.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("mail queue not drained")
		}
		return nil
	})

	err = g.Wait()
	logger.Info("server stopped")
	return err
}
