package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/kirillkom/trial-balance-analyzer/internal/adapters/cli"
	"github.com/kirillkom/trial-balance-analyzer/internal/bootstrap"
	"github.com/kirillkom/trial-balance-analyzer/internal/config"
	"github.com/kirillkom/trial-balance-analyzer/internal/observability/logging"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: .env: %v\n", err)
	}
	cfg := config.Load()
	slog.SetDefault(logging.NewTextLogger(os.Stderr, "tbreport", cfg.LogLevel))

	rootCmd := cli.NewRootCmd(bootstrap.NewAnalyzer(cfg, nil), cfg.DefaultTaxRate)
	if err := rootCmd.Execute(); err != nil {
		slog.Error("tbreport failed", "error", err)
		os.Exit(1)
	}
}
