// File: cmd/serve.go
package cmd

import (
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/triage-cli/internal/observability"
	"github.com/xkilldash9x/triage-cli/internal/resultcache"
	"github.com/xkilldash9x/triage-cli/internal/server"
)

// newServeCmd creates and configures the `serve` command.
func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the triage API over HTTP",
		Long: `Starts the HTTP front end. Credentials can come from the environment
or be supplied per request via the X-Github-Token, X-Agent-Api-Key and
X-Repo headers; without either, endpoints serve demo fixtures.`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Stop serving cleanly on Ctrl-C or SIGTERM.
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger := observability.GetLogger()
			cfg := appConfig
			cfg.Server.Addr = viper.GetString("server.addr")

			store, closeStore, err := resultcache.FromConfig(ctx, cfg.Cache, logger)
			if err != nil {
				return err
			}
			defer closeStore()

			srv := server.New(cfg, store, logger)
			logger.Info("Starting API server",
				zap.String("addr", cfg.Server.Addr),
				zap.Bool("live_credentials", cfg.HasCredentials()))

			if err := srv.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			logger.Info("API server stopped")
			return nil
		},
	}

	serveCmd.Flags().String("addr", "127.0.0.1:8080", "Listen address for the API server (Overrides config/env)")

	return serveCmd
}
