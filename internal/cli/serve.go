package cli

import (
	"github.com/spf13/cobra"

	"github.com/aryankumar/batchexec/internal/api"
	"github.com/aryankumar/batchexec/internal/executor"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP shell",
		Long: `Start the HTTP shell. Batch requests fan synthetic sub-requests out through
dedicated pools, /v1/shared uses the process-wide shared executor, and
/metrics exposes Prometheus metrics. SIGINT or SIGTERM triggers a graceful
shutdown that drains in-flight requests and closes the shared executor.`,
		Example: `  # Listen on the configured address (server.addr, default :8080)
  batchexec serve

  # Listen on a specific address
  batchexec serve --addr 127.0.0.1:9090

  # Try it
  curl 'localhost:8080/v1/batch?tasks=10&fail=3&mode=partial'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *a.cfg
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}

			shared := executor.NewShared(cfg.SharedExecutorConfig(), a.logger)
			srv := api.NewServer(cfg, shared, a.logger)
			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")

	return cmd
}
