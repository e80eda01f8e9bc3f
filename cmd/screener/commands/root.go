package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/twscreener/pkg/config"
)

var (
	// Global flags
	market    string
	logFormat string
	verbose   bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "screener",
	Short: "台股選股掃描 - FinMind 호출 예산 기반 스크리너",
	Long: `Taiwan stock screener

FinMind 시간당 호출 한도 안에서 전 종목을 5단계 필터로 스캔하고
조건을 만족한 종목을 Telegram으로 알립니다.

Usage:
  go run ./cmd/screener [command]

Examples:
  go run ./cmd/screener scan
  go run ./cmd/screener scan --market tpex
  go run ./cmd/screener schedule`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&market, "market", "", "market preset (twse|tpex|all), overrides SCAN_MARKET")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (json|console), overrides LOG_FORMAT")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// loadConfig loads the environment config and applies flag overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if market != "" {
		cfg.Scan.Market = market
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	return cfg, nil
}
