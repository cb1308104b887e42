package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/weftdom/weft/internal/config"
	"github.com/weftdom/weft/pkg/server"
)

func serveCmd() *cobra.Command {
	var (
		port       int
		host       string
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the reconciliation server",
		Long: `Start the reconciliation server.

The server accepts tree submissions on POST /tree and over the
WebSocket, and streams patch frames to every subscriber on /ws.
Prometheus metrics are exposed on /metrics.

Configuration is read from weft.yaml in the working directory when
present; flags override the file.

Examples:
  weft serve
  weft serve --port=9000
  weft serve --config=/etc/weft/weft.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port, host, configPath)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from weft.yaml)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from weft.yaml)")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to weft.yaml")

	return cmd
}

func runServe(port int, host string, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	if port > 0 {
		cfg.Server.Port = port
	}
	if host != "" {
		cfg.Server.Host = host
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := cfg.Logger(os.Stderr)

	printBanner()
	info("listening on %s", cfg.Address())
	info("metrics on /metrics, patches on /ws")

	srv := server.New(&server.Config{
		Address:          cfg.Address(),
		ShutdownTimeout:  cfg.ShutdownTimeout(),
		TickInterval:     cfg.TickInterval(),
		MaxDepth:         cfg.Scheduler.MaxDepth,
		HistoryCapacity:  cfg.History.Capacity,
		MetricsNamespace: cfg.Metrics.Namespace,
		Logger:           logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Run(ctx)
}

// loadConfig resolves the effective config: an explicit path must
// exist, otherwise weft.yaml in the working directory is optional.
func loadConfig(configPath string) (*config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	if config.Exists(wd) {
		return config.Load(wd)
	}
	return config.New(), nil
}
