package main

import (
	"context"

	"devops_platform_backend/internal/app"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, cleanup, err := initializeStore(loadConfig())
		if err != nil {
			return err
		}
		defer cleanup()

		if err := app.Migrate(s.DB); err != nil {
			return err
		}
		s.Logger.Info("Database schema is up to date")
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the demo tenant and the seed platform admin",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		s, cleanup, err := initializeStore(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		if err := app.Migrate(s.DB); err != nil {
			return err
		}
		return app.Seed(context.Background(), s.DB, cfg, s.Hasher, s.Logger)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
}
