package migrate

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quotagate/quotagate/internal/infrastructure/config"
	"github.com/quotagate/quotagate/internal/infrastructure/database"
	"github.com/quotagate/quotagate/internal/infrastructure/ledger"
	"github.com/quotagate/quotagate/internal/infrastructure/migration"
	"github.com/quotagate/quotagate/internal/interfaces/cli/cliutil"
	"github.com/quotagate/quotagate/internal/shared/logger"
)

var (
	flags       cliutil.Flags
	steps       int
	ledgerStore bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tools",
		Long:  `Apply, roll back and inspect the embedded schema migrations of the sql backend or the Postgres usage ledger.`,
	}

	flags.Bind(cmd)
	cmd.PersistentFlags().BoolVar(&ledgerStore, "ledger", false, "Target the Postgres usage ledger instead of the sql backend")

	cmd.AddCommand(
		newUpCommand(),
		newDownCommand(),
		newStatusCommand(),
	)

	return cmd
}

func newUpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Run all pending migrations",
		RunE:  runUp,
	}
}

func newDownCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Rollback migrations",
		RunE:  runDown,
	}

	cmd.Flags().IntVarP(&steps, "steps", "n", 1, "Number of migrations to rollback")

	return cmd
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE:  runStatus,
	}
}

// target opens the database selected by --ledger and returns the matching
// goose strategy.
func target(ctx context.Context, cfg *config.Config) (*sql.DB, *migration.GooseStrategy, error) {
	if ledgerStore {
		pg, err := ledger.OpenPostgres(ctx, &cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		return pg, migration.NewGooseStrategy("postgres").(*migration.GooseStrategy), nil
	}

	gormDB, err := database.Open(&cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, nil, err
	}
	dialect := migration.GooseDialect(cfg.Database.Driver)
	return sqlDB, migration.NewGooseStrategy(dialect).(*migration.GooseStrategy), nil
}

func withTarget(cmd *cobra.Command, fn func(sqlDB *sql.DB, strategy *migration.GooseStrategy, log logger.Interface) error) error {
	cfg, log, err := flags.Init()
	if err != nil {
		return err
	}
	defer logger.Sync()

	sqlDB, strategy, err := target(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	return fn(sqlDB, strategy, log)
}

func runUp(cmd *cobra.Command, args []string) error {
	return withTarget(cmd, func(sqlDB *sql.DB, strategy *migration.GooseStrategy, log logger.Interface) error {
		log.Infow("running up migrations", "environment", flags.Environment(), "ledger", ledgerStore)
		if err := strategy.Up(sqlDB); err != nil {
			log.Errorw("migration failed", "error", err)
			return fmt.Errorf("migration failed: %w", err)
		}
		log.Infow("migrations completed successfully")
		return nil
	})
}

func runDown(cmd *cobra.Command, args []string) error {
	return withTarget(cmd, func(sqlDB *sql.DB, strategy *migration.GooseStrategy, log logger.Interface) error {
		log.Infow("running down migrations", "environment", flags.Environment(), "steps", steps)
		if err := strategy.Down(sqlDB, steps); err != nil {
			log.Errorw("down migration failed", "error", err)
			return fmt.Errorf("down migration failed: %w", err)
		}
		log.Infow("down migration completed successfully")
		return nil
	})
}

func runStatus(cmd *cobra.Command, args []string) error {
	return withTarget(cmd, func(sqlDB *sql.DB, strategy *migration.GooseStrategy, log logger.Interface) error {
		version, err := strategy.Version(sqlDB)
		if err != nil {
			log.Errorw("failed to get migration version", "error", err)
			return fmt.Errorf("failed to get migration version: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "\nMigration Status:\n")
		fmt.Fprintf(out, "  Environment:     %s\n", flags.Environment())
		fmt.Fprintf(out, "  Current Version: %d\n\n", version)

		if err := strategy.Status(sqlDB, out); err != nil {
			log.Errorw("failed to get detailed status", "error", err)
			return fmt.Errorf("failed to get detailed status: %w", err)
		}
		return nil
	})
}
