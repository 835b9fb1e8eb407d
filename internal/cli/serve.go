package cli

import (
	"context"
	"os/signal"
	"syscall"

	"sysmon/internal/config"
	"sysmon/internal/middleware"
	"sysmon/internal/server"
	"sysmon/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func newServeCommand(load func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the monitor panels over HTTP and WebSocket",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			gin.SetMode(gin.ReleaseMode)
			middleware.NewSecurityLogger()
			if cfg.Auth.Enabled {
				services.InitAuthService(cfg.Auth.Secret, services.DefaultSecretKeyFile(), cfg.Auth.TokenExpiry)
			}

			source := services.GopsutilDiskSource{AllPartitions: cfg.Disks.AllPartitions}
			pollCtx, cancel := context.WithTimeout(ctx, cfg.Disks.PollTimeout)
			srv := server.New(pollCtx, cfg, source)
			cancel()

			return srv.Run(ctx)
		},
	}
}
