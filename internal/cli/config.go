package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/se-tech-pvt-ltd/recorder-dashboard/internal/config"
	"github.com/se-tech-pvt-ltd/recorder-dashboard/internal/startup"
	"github.com/se-tech-pvt-ltd/recorder-dashboard/pkg/recorder"
	"github.com/spf13/cobra"
)

const recorderConfigFile = config.ConfigFileName

// loadConfig resolves recorder.yaml, the env file and the process
// environment, in that order of increasing precedence, and validates the result.
// Missing default files are fine; files named explicitly on the command line must exist.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	if err := godotenv.Load(envFile); err != nil {
		if !errors.Is(err, fs.ErrNotExist) || cmd.Flags().Changed("env-file") {
			return nil, fmt.Errorf("%w: loading env file %s: %v", recorder.ErrInvalidConfig, envFile, err)
		}
	}

	path, _ := cmd.Flags().GetString("config")
	var (
		cfg *config.Config
		err error
	)
	if cmd.Flags().Changed("config") {
		cfg, err = config.Load(path)
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, fmt.Errorf("%w: %s does not exist", recorder.ErrInvalidConfig, path)
		}
	} else {
		cfg, err = config.LoadOrDefault(path)
	}
	if err != nil {
		return nil, err
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// bootstrap loads the configuration and brings the database layer up.
func bootstrap(cmd *cobra.Command, skipSchema bool) (*config.Config, *startup.Runtime, error) {
	logger := newLogger(cmd)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	conn, err := cfg.ConnectionConfig()
	if err != nil {
		return nil, nil, err
	}
	if getVerboseFlag(cmd) {
		logger.Verbose("Connection resolved: %s", conn.String())
	}

	rt, err := startup.Run(commandContext(cmd), startup.Options{
		Config:     &conn,
		Logger:     logger,
		Retry:      cfg.RetryExecutor(),
		SkipSchema: skipSchema,
	})
	if err != nil {
		return nil, nil, err
	}
	return cfg, rt, nil
}
