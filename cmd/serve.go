// =============================================================================
// CDATA Enricher - Serve Command
// =============================================================================
//
// This file defines the 'serve' command, which runs the HTTP endpoint used
// by the chat bot front end:
//
//   GET  /healthz     - Liveness and lookup table size
//   POST /api/enrich  - Body: document, response: enriched document
//
// =============================================================================

package cmd

import (
	"os/signal"
	"syscall"

	"github.com/ginjaninja78/cdata-enricher/internal/server"
	"github.com/spf13/cobra"
)

// addr overrides server.addr from the configuration.
var addr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP enrichment endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := loadTable(appConfig)
		if err != nil {
			return err
		}

		cfg := server.Config{
			Addr:           appConfig.Server.Addr,
			MaxBodyBytes:   appConfig.Server.MaxBodyBytes,
			RequestTimeout: appConfig.Server.RequestTimeout,
			Options:        transformOptions(appConfig),
		}
		if addr != "" {
			cfg.Addr = addr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return server.New(cfg, table, logger).Start(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
}
