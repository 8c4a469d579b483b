// File: cmd/server/main.go
package main

import (
	"fmt"
	"log"
	"os"

	"devops_platform_backend/internal/config"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "devops-platform",
	Short: "Multi-tenant DevOps platform API",
	Long: `devops-platform serves the tenant onboarding, workload and monitoring API
on top of a Kubernetes cluster. Without a subcommand it runs the HTTP server.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

// loadConfig is shared by every subcommand. Standard log is used because zap
// is not built yet.
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	return cfg
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
