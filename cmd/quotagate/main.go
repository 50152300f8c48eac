package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/quotagate/quotagate/internal/interfaces/cli/migrate"
	"github.com/quotagate/quotagate/internal/interfaces/cli/policy"
	"github.com/quotagate/quotagate/internal/interfaces/cli/registry"
	"github.com/quotagate/quotagate/internal/interfaces/cli/server"
	"github.com/quotagate/quotagate/internal/interfaces/cli/token"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "quotagate",
		Short:        "quotagate - subscription and quota gate for metered APIs",
		Long:         `quotagate decides whether a user may call a protected endpoint based on their plan, subscription window and call quota, and records every admitted call.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
		policy.NewCommand(),
		registry.NewCommand(),
		token.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
