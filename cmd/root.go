package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jespergran98/originGuessr-Analyzer/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "originguessr-analyzer",
	Short: "Historical artifact collection analyzer",
	Long:  "Loads the originGuessr artifact collection, computes aggregate statistics, scores image quality, and serves the dashboard data API.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
