package main

import (
	"github.com/spf13/cobra"

	"github.com/dtroode/gophauth-server/internal/config"
	"github.com/dtroode/gophauth-server/internal/logger"
)

// envFile is loaded before the environment is parsed, if it exists.
var envFile string

// NewRootCmd creates the root command for the gophauth CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gophauth",
		Short: "gophauth - username/password authentication server",
		Long: `gophauth registers accounts, verifies passwords and issues
bearer session tokens over HTTP and gRPC.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "env file loaded before the environment")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewAccountCmd())

	return cmd
}

func loadConfig() (*config.Config, *logger.Logger, error) {
	cfg, err := config.NewConfig(envFile)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger.New(cfg.LogLevel), nil
}
