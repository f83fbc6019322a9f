package main

import (
	"fmt"
	"os"

	"github.com/NotCoffee418/p1plus_monitor/pkg/config"
	"github.com/NotCoffee418/p1plus_monitor/pkg/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "p1plus",
	Short: "P1 smart meter congestion monitor",
	Long: `p1plus reads telegrams from the P1 port of a DSMR smart meter, validates them
and lights an indicator while the grid operator announces congestion limits.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to the config file (default /etc/p1plus_monitor/p1plus.toml)")
	rootCmd.PersistentFlags().String("log-level", "", "Override the configured log level")
	rootCmd.PersistentFlags().String("log-format", "console", "Log output format: console or json")
}

// loadConfig loads the config file and builds the logger for a command.
func loadConfig(cmd *cobra.Command) (*config.MonitorConfig, zerolog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	if err := config.LoadMonitorConfig(path); err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}
	cfg := config.ActiveMonitorConfig
	return cfg, newLogger(cmd, cfg.LogLevel), nil
}

func newLogger(cmd *cobra.Command, level string) zerolog.Logger {
	if override, _ := cmd.Flags().GetString("log-level"); override != "" {
		level = override
	}
	format, _ := cmd.Flags().GetString("log-format")
	if format == "json" {
		return logging.NewJSON(level, cmd.ErrOrStderr())
	}
	return logging.New(level, cmd.ErrOrStderr())
}
