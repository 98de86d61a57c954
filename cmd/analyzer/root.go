package main

import (
	"github.com/spf13/cobra"

	"github.com/Alias1177/matchminer/internal/config"
)

var (
	// Global flags (override config if set)
	flagDataFile string
	flagSheet    string
	flagLogLevel string
	flagWorkers  int

	// Loaded configuration
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "analyzer",
	Short:         "Discover conditional patterns in historical football matches",
	Long:          `analyzer scans a match history for segments where an outcome is strongly skewed, finds the most skewed over/under thresholds and reports descriptive statistics.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDataFile, "data", "", "CSV or XLSX match history (overrides DATA_FILE)")
	rootCmd.PersistentFlags().StringVar(&flagSheet, "sheet", "", "XLSX sheet name (overrides SHEET_NAME)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level (overrides LOG_LEVEL)")
	rootCmd.PersistentFlags().IntVar(&flagWorkers, "workers", 0, "parallel segment evaluations, 0 for all CPUs (overrides WORKERS)")

	rootCmd.AddCommand(scanCmd, thresholdsCmd, describeCmd)
}

func loadConfig(cmd *cobra.Command) error {
	c, err := config.Load()
	if err != nil {
		return err
	}

	// Apply CLI overrides if provided
	f := cmd.Flags()
	if f.Changed("data") {
		c.DataFile = flagDataFile
	}
	if f.Changed("sheet") {
		c.SheetName = flagSheet
	}
	if f.Changed("log-level") {
		c.LogLevel = flagLogLevel
	}
	if f.Changed("workers") {
		c.Workers = flagWorkers
	}
	applyScanFlags(f, c)

	if err := c.Validate(); err != nil {
		return err
	}
	setupLogging(c.LogLevel)
	printConfig(c)
	cfg = c
	return nil
}
