package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"devops_platform_backend/internal/app"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Migrate, seed and run the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe() error {
	cfg := loadConfig()

	application, cleanup, err := initializeApplication(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}
	defer cleanup()

	logger := application.Logger
	if err := app.Migrate(application.DB); err != nil {
		return err
	}
	if err := app.Seed(context.Background(), application.DB, cfg, application.Hasher, logger); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- application.Server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		logger.Info("Received signal, shutting down server", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerTimeout)
	defer cancel()
	if err := application.Server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
		return err
	}
	logger.Info("Server shutdown complete")
	return nil
}
