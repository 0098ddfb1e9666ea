// cmd/api/tools.go
package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/your-org/storefront-core/internal/config"
	"github.com/your-org/storefront-core/internal/domain/catalog"
	pkgauth "github.com/your-org/storefront-core/internal/pkg/auth"
	"github.com/your-org/storefront-core/internal/pkg/logger"
)

// newSyncCatalogCommand refreshes the Postgres mirror without starting the server
func newSyncCatalogCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sync-catalog",
		Short: "Copy the remote product catalog into the Postgres mirror",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			log := logger.New(cfg)

			db, err := openCatalogMirror(cfg, log)
			if err != nil {
				return err
			}
			defer db.Close()

			remote := catalog.NewRemoteSource(cfg.Storefront.ProductSourceURL, catalog.RemoteOptions{
				Timeout:         cfg.Storefront.RequestTimeout,
				BreakerFailures: cfg.Storefront.BreakerFailures,
				BreakerCooldown: cfg.Storefront.BreakerCooldown,
			}, log)

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			count, err := catalog.NewDBSource(db.GetDB()).SyncFrom(ctx, remote)
			if err != nil {
				return fmt.Errorf("catalog sync failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Synced %d products\n", count)
			return nil
		},
	}
}

// newHashPasswordCommand prints a bcrypt hash for LOCAL_AUTH_PASSWORD_HASH
func newHashPasswordCommand() *cobra.Command {
	var cost int

	cmd := &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Generate a bcrypt hash for the local auth source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := pkgauth.ValidatePassword(args[0]); err != nil {
				return err
			}

			passwords := pkgauth.NewPasswordManager(cost)
			hash, err := passwords.HashPassword(args[0])
			if err != nil {
				return fmt.Errorf("error generating hash: %w", err)
			}
			if err := passwords.VerifyPassword(args[0], hash); err != nil {
				return fmt.Errorf("hash verification failed: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}

	cmd.Flags().IntVar(&cost, "cost", 12, "bcrypt cost")
	return cmd
}
