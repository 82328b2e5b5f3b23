package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/se-tech-pvt-ltd/recorder-dashboard/internal/logging"
	"github.com/se-tech-pvt-ltd/recorder-dashboard/pkg/recorder"
	"github.com/spf13/cobra"
)

const longDescription = `recorder serves the voice-recorder dashboard API on top of PostgreSQL.

Configuration is layered: recorder.yaml, then the .env file, then the
process environment. The database password is only ever read from DB_PASS.

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration or missing credentials
  11 - Database connection failed`

// newRootCmd builds the command tree. Each call returns fresh flag state.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "recorder",
		Short:         "Recorder dashboard API server",
		Long:          longDescription,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for all commands")
	root.PersistentFlags().String("env-file", ".env", "Environment file loaded before reading DB_* variables")
	root.PersistentFlags().StringP("config", "c", recorderConfigFile, "Path to the YAML configuration file")

	root.AddCommand(newServeCmd(), newInitDBCmd(), newCheckCmd(), newVersionCmd())
	return root
}

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo(os.Stdout)
		return nil
	}
	err := newRootCmd().Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}

func newLogger(cmd *cobra.Command) recorder.Logger {
	return logging.NewWriterLogger(cmd.ErrOrStderr(), getVerboseFlag(cmd))
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
