package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/dtroode/gophauth-server/database"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	var statusOnly bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Apply all pending migrations to the PostgreSQL database named by DATABASE_CONNECTION_URI.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Database.ConnectionURI == "" {
				return oops.Code("CONFIG_INVALID").Errorf("DATABASE_CONNECTION_URI is required")
			}

			ctx := cmd.Context()

			if !statusOnly {
				cmd.Println("Running migrations...")
				if err := database.Migrate(ctx, cfg.Database.ConnectionURI); err != nil {
					return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
				}
			}

			version, err := database.Version(ctx, cfg.Database.ConnectionURI)
			if err != nil {
				return oops.Code("MIGRATION_FAILED").With("operation", "read schema version").Wrap(err)
			}
			cmd.Printf("Schema version: %d\n", version)
			return nil
		},
	}

	cmd.Flags().BoolVar(&statusOnly, "status", false, "only print the current schema version")

	return cmd
}
