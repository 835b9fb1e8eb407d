package cli

import (
	"fmt"
	"time"

	"sysmon/internal/config"
	"sysmon/internal/middleware"
	"sysmon/internal/services"

	"github.com/spf13/cobra"
)

func newTokenCommand(load func() (*config.Config, error)) *cobra.Command {
	var serverName string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Generate an access token for the panel API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !middleware.NewInputValidator().ValidateServerName(serverName) {
				return fmt.Errorf("invalid server name %q", serverName)
			}

			cfg, err := load()
			if err != nil {
				return err
			}

			services.InitAuthService(cfg.Auth.Secret, services.DefaultSecretKeyFile(), cfg.Auth.TokenExpiry)
			token, err := services.GenerateToken(serverName)
			if err != nil {
				return fmt.Errorf("failed to generate token: %w", err)
			}
			middleware.NewSecurityLogger().LogTokenGenerated("cli", serverName)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "token:   %s\n", token)
			fmt.Fprintf(out, "server:  %s\n", serverName)
			fmt.Fprintf(out, "expires: %s\n", services.GetTokenExpiry().Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&serverName, "server-name", "sysmon", "server name embedded in the token")
	return cmd
}
