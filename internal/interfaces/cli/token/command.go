package token

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/quotagate/quotagate/internal/infrastructure/auth"
	"github.com/quotagate/quotagate/internal/interfaces/cli/cliutil"
	"github.com/quotagate/quotagate/internal/shared/logger"
)

var (
	flags   cliutil.Flags
	userID  string
	isAdmin bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token",
		Long:  `Sign a bearer token for a user id with the configured JWT secret. Intended for operators and local testing.`,
		RunE:  run,
	}

	flags.Bind(cmd)
	cmd.Flags().StringVarP(&userID, "user", "u", "", "User id the token is issued for (required)")
	cmd.Flags().BoolVar(&isAdmin, "admin", false, "Grant the administrator role")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	cfg, log, err := flags.Init()
	if err != nil {
		return err
	}
	defer logger.Sync()

	jwtService := auth.NewJWTService(cfg.Auth.JWT.Secret, cfg.Auth.JWT.Issuer, cfg.Auth.JWT.AccessExpMinutes)
	signed, expiresAt, err := jwtService.Generate(userID, isAdmin)
	if err != nil {
		return fmt.Errorf("failed to sign token: %w", err)
	}

	log.Infow("token issued", "user_id", userID, "is_admin", isAdmin, "expires_at", expiresAt)
	fmt.Fprintln(cmd.OutOrStdout(), signed)
	fmt.Fprintf(cmd.ErrOrStderr(), "expires at %s\n", expiresAt.Format(time.RFC3339))
	return nil
}
