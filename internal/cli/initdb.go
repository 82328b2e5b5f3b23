package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInitDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Create any missing dashboard tables and exit",
		Long: `init-db runs the same startup sequence as serve without starting the HTTP
server. Existing tables are left untouched. Unlike serve, a table that
cannot be created makes the command fail.`,
		Args: cobra.NoArgs,
		RunE: runInitDB,
	}
}

func runInitDB(cmd *cobra.Command, args []string) error {
	_, rt, err := bootstrap(cmd, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	out := cmd.OutOrStdout()
	for _, name := range rt.Schema.Ready {
		fmt.Fprintf(out, "ready\t%s\n", name)
	}
	for _, failure := range rt.Schema.Failures {
		fmt.Fprintf(out, "failed\t%s\t%v\n", failure.Table, failure.Err)
	}

	if err := rt.Schema.Err(); err != nil {
		return fmt.Errorf("schema initialization incomplete: %w", err)
	}
	return nil
}
