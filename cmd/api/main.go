// cmd/api/main.go
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newRootCommand runs the API server unless a subcommand is given
func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "storefront",
		Short:         "Storefront API server",
		Long:          "Serves the product catalog, per-browser cart, coupons and checkout over HTTP.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newSyncCatalogCommand())
	cmd.AddCommand(newHashPasswordCommand())

	return cmd
}
