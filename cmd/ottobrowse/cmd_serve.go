package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hammamikhairi/ottobrowse/internal/metrics"
	"github.com/hammamikhairi/ottobrowse/internal/server"
)

var allowedOrigins []string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the configured recipe source over the /api/recipes HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		p, closeProvider, err := openProvider(cfg.Provider, log)
		if err != nil {
			return err
		}
		defer closeProvider()

		opts := []server.Option{
			server.WithMetrics(metrics.NewCollector()),
			server.WithRequestTimeout(cfg.Provider.Timeout),
		}
		if len(allowedOrigins) > 0 {
			opts = append(opts, server.WithAllowedOrigins(allowedOrigins...))
		}
		return server.New(p, log.Named("server"), opts...).Run(ctx, cfg.Server.Addr)
	},
}

func init() {
	serveCmd.Flags().StringSliceVar(&allowedOrigins, "cors-origin", nil, "allowed CORS origins (default: any)")
}
