package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noob2628/Inventory-App/config"
	"github.com/noob2628/Inventory-App/internal/logger"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "inventory",
	Short: "Warehouse inventory tracker API",
	Long: `Warehouse inventory tracker: a REST API for recording deliveries,
counting stock and tracking refill status, plus admin tooling.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads configuration and builds the process logger.
func setup() (config.Config, *zap.Logger) {
	cfg := config.LoadConfig()
	return cfg, logger.Must(logger.New(cfg.LogLevel))
}
