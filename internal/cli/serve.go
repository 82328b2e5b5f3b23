package cli

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/se-tech-pvt-ltd/recorder-dashboard/internal/server"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Connect to the database, provision the schema and serve the API",
		Long: `serve validates the configuration, opens the connection pool, proves the
database is reachable and creates any missing dashboard tables before
listening on HTTP_ADDR. A failed connection aborts startup; a failed table
is logged and the server starts anyway.

SIGINT and SIGTERM drain in-flight requests before the pool is closed.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cmd.SetContext(ctx)

	cfg, rt, err := bootstrap(cmd, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	ln, err := net.Listen("tcp", cfg.HTTP.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.HTTP.Addr, err)
	}

	logger := newLogger(cmd)
	handler := server.NewHandler(rt.Executor, rt.Pool, logger)
	return server.Serve(ctx, ln, handler.Routes(), cfg.HTTP.ShutdownTimeout, logger)
}
