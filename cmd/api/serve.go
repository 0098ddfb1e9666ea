// cmd/api/serve.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/your-org/storefront-core/internal/config"
	"github.com/your-org/storefront-core/internal/domain/auth"
	"github.com/your-org/storefront-core/internal/domain/catalog"
	"github.com/your-org/storefront-core/internal/domain/checkout"
	"github.com/your-org/storefront-core/internal/domain/pricing"
	"github.com/your-org/storefront-core/internal/infrastructure/database/postgres"
	"github.com/your-org/storefront-core/internal/infrastructure/database/redis"
	"github.com/your-org/storefront-core/internal/infrastructure/storage"
	"github.com/your-org/storefront-core/internal/interfaces/http"
	"github.com/your-org/storefront-core/internal/interfaces/http/routes"
	pkgauth "github.com/your-org/storefront-core/internal/pkg/auth"
	"github.com/your-org/storefront-core/internal/pkg/logger"
	"gorm.io/gorm"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.New(cfg)
	log.WithFields(logrus.Fields{
		"name":        cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	}).Info("Starting storefront")

	redisClient, err := redis.NewConnection(cfg, log)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	remote := catalog.NewRemoteSource(cfg.Storefront.ProductSourceURL, catalog.RemoteOptions{
		Timeout:         cfg.Storefront.RequestTimeout,
		BreakerFailures: cfg.Storefront.BreakerFailures,
		BreakerCooldown: cfg.Storefront.BreakerCooldown,
	}, log)

	var (
		source catalog.ProductSource = remote
		gdb    *gorm.DB
	)
	if cfg.Storefront.CatalogMode == config.CatalogModePostgres {
		db, err := openCatalogMirror(cfg, log)
		if err != nil {
			return err
		}
		defer db.Close()
		gdb = db.GetDB()

		mirror := catalog.NewDBSource(gdb)
		syncCtx, cancel := context.WithTimeout(ctx, cfg.Storefront.RequestTimeout)
		count, err := mirror.SyncFrom(syncCtx, remote)
		cancel()
		if err != nil {
			log.WithError(err).Warn("Catalog sync failed, serving the existing mirror")
		} else {
			log.WithField("products", count).Info("Catalog mirror synced")
		}
		source = mirror
	}

	authSource, err := newAuthSource(cfg, log)
	if err != nil {
		return err
	}

	checkoutService, err := newCheckoutService(cfg, log)
	if err != nil {
		return err
	}

	server := http.NewServer(cfg, gdb, redisClient.GetClient(), routes.Dependencies{
		Stores:     storage.NewRedisFactory(redisClient.GetClient(), cfg.Redis.KeyPrefix, log),
		Catalog:    catalog.NewService(source, redisClient.GetClient(), cfg.Redis.KeyPrefix, cfg.Storefront.CatalogCacheTTL, log),
		AuthSource: authSource,
		Checkout:   checkoutService,
		Logger:     log,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("Shutting down gracefully")
	}

	// Give server 30 seconds to shutdown gracefully
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(shutdownCtx); err != nil {
		log.WithError(err).Error("Failed to shutdown HTTP server gracefully")
		return err
	}

	log.Info("Server shutdown completed")
	return nil
}

func openCatalogMirror(cfg *config.Config, log *logrus.Logger) (*postgres.DB, error) {
	db, err := postgres.NewConnection(cfg, log)
	if err != nil {
		return nil, err
	}

	migration := postgres.NewMigration(db.GetDB(), log)
	if err := migration.RunAutoMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}
	if err := migration.CreateIndexes(); err != nil {
		log.WithError(err).Warn("Index creation failed")
	}

	return db, nil
}

func newAuthSource(cfg *config.Config, log *logrus.Logger) (auth.Source, error) {
	if cfg.Storefront.AuthMode == config.AuthModeLocal {
		return auth.NewLocalSource(
			cfg.Storefront.LocalUsername,
			cfg.Storefront.LocalPasswordHash,
			pkgauth.NewPasswordManager(cfg.Security.BcryptCost),
			pkgauth.NewJWTManager(cfg),
		), nil
	}

	return auth.NewRemoteSource(
		cfg.Storefront.ProductSourceURL,
		cfg.Storefront.RequestTimeout,
		cfg.Storefront.BreakerFailures,
		cfg.Storefront.BreakerCooldown,
		log,
	), nil
}

func newCheckoutService(cfg *config.Config, log *logrus.Logger) (*checkout.Service, error) {
	engine, err := pricing.NewEngineFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid pricing configuration: %w", err)
	}

	table, err := pricing.ParseCoupons(cfg.Pricing.Coupons)
	if err != nil {
		return nil, fmt.Errorf("invalid coupon configuration: %w", err)
	}
	resolver, err := pricing.NewResolver(table)
	if err != nil {
		return nil, fmt.Errorf("invalid coupon configuration: %w", err)
	}

	return checkout.NewService(engine, resolver, cfg.Checkout.Delay, log, checkout.WithCouponTTL(cfg.Checkout.CouponTTL)), nil
}
