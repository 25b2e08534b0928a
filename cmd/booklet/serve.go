package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/booklet/internal/server"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the booklet server",
	Long: `Start the booklet HTTP server.

The server provides:
  - GET  /health   - Basic server health check
  - GET  /ready    - Readiness check (engine wired)
  - GET  /status   - Handlers and grayscale converter status
  - GET  /metrics  - Build counts, page totals and latency
  - POST /assemble - Build a booklet, returns the PDF
  - POST /estimate - Page accounting without building

The config file is watched; edits rewire the engine without a restart.

Examples:
  booklet serve                    # Start on the configured port (8090)
  booklet serve --port 3000        # Start on custom port
  booklet serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mgr, h, err := loadConfig()
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		logger := newLogger(os.Stdout, mgr.Get().LogLevel)
		if file := mgr.File(); file != "" {
			logger.Info("using config file", "path", file)
			mgr.WatchConfig()
		}

		srv, err := server.New(server.Config{
			Host:          serveHost,
			Port:          servePort,
			ConfigManager: mgr,
			Home:          h,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (default: server.host)")
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (default: server.port)")

	rootCmd.AddCommand(serveCmd)
}
