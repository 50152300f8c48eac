package policy

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quotagate/quotagate/internal/infrastructure/database"
	"github.com/quotagate/quotagate/internal/infrastructure/permission"
	"github.com/quotagate/quotagate/internal/infrastructure/storage"
	"github.com/quotagate/quotagate/internal/interfaces/cli/cliutil"
	"github.com/quotagate/quotagate/internal/shared/logger"
)

var flags cliutil.Flags

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Manage admin authorization policies",
		Long: `List, grant and revoke the role policies guarding the admin API.
Policies live in the sql backend; send SIGHUP to a running server to reload them.`,
	}

	flags.Bind(cmd)

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List stored policies",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withEnforcer(func(e *permission.Enforcer, log logger.Interface) error {
					for _, rule := range e.Policies() {
						fmt.Fprintln(cmd.OutOrStdout(), strings.Join(rule, "\t"))
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "grant ROLE RESOURCE ACTION",
			Short: "Allow a role to perform an action on a resource",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withEnforcer(func(e *permission.Enforcer, log logger.Interface) error {
					if err := e.AddPolicy(args[0], args[1], args[2]); err != nil {
						return err
					}
					log.Infow("policy granted", "role", args[0], "resource", args[1], "action", args[2])
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "revoke ROLE RESOURCE ACTION",
			Short: "Remove a previously granted policy",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withEnforcer(func(e *permission.Enforcer, log logger.Interface) error {
					if err := e.RemovePolicy(args[0], args[1], args[2]); err != nil {
						return err
					}
					log.Infow("policy revoked", "role", args[0], "resource", args[1], "action", args[2])
					return nil
				})
			},
		},
	)

	return cmd
}

// withEnforcer opens the policy store, installs the default policies when it
// is empty and runs fn.
func withEnforcer(fn func(*permission.Enforcer, logger.Interface) error) error {
	cfg, log, err := flags.Init()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Storage.Backend != storage.BackendSQL {
		return fmt.Errorf("policies are only persisted with the sql storage backend, configured backend is %q", cfg.Storage.Backend)
	}

	db, err := database.Open(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}
	defer sqlDB.Close()

	enforcer, err := permission.NewEnforcer(db, log.Named("permission"))
	if err != nil {
		return err
	}
	if err := enforcer.SeedDefaults(); err != nil {
		return err
	}
	return fn(enforcer, log)
}
