package main

import (
	"context"
	"time"

	"devops_platform_backend/internal/grafana"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	folderTitle  string
	folderUID    string
	dashboardUID string
)

var grafanaCmd = &cobra.Command{
	Use:   "grafana",
	Short: "Grafana helpers",
}

var grafanaProvisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Ensure the Apps folder and the app observability dashboard exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		logger, cleanup, err := provideLogger(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		client := grafana.NewClient(cfg, logger)
		folder, err := client.EnsureFolder(ctx, folderTitle, folderUID)
		if err != nil {
			return err
		}
		res, err := client.UpsertDashboard(ctx, folder.UID, grafana.AppObservabilityDashboard(dashboardUID))
		if err != nil {
			return err
		}
		logger.Info("Grafana provisioned",
			zap.String("folder", folder.UID),
			zap.String("dashboard", res.UID),
			zap.String("url", res.URL),
		)
		return nil
	},
}

func init() {
	grafanaProvisionCmd.Flags().StringVar(&folderTitle, "folder-title", grafana.DefaultFolderTitle, "folder title")
	grafanaProvisionCmd.Flags().StringVar(&folderUID, "folder-uid", grafana.DefaultFolderUID, "folder uid")
	grafanaProvisionCmd.Flags().StringVar(&dashboardUID, "dashboard-uid", grafana.DefaultDashboardUID, "dashboard uid")
	grafanaCmd.AddCommand(grafanaProvisionCmd)
	rootCmd.AddCommand(grafanaCmd)
}
