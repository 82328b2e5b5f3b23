package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the configuration and database connectivity",
		Args:  cobra.NoArgs,
		RunE:  runCheck,
	}
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, rt, err := bootstrap(cmd, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	stats := rt.Pool.Stat()
	fmt.Fprintf(cmd.OutOrStdout(), "database %s on %s:%d reachable (max %d connections, queue limit %d)\n",
		cfg.Database.Name, cfg.Database.Host, cfg.Database.Port, stats.MaxConns, stats.QueueLimit)
	return nil
}
