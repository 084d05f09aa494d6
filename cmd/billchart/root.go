package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jgoulah/billchart/internal/config"
	"github.com/jgoulah/billchart/internal/database"
	"github.com/jgoulah/billchart/pkg/models"
)

var (
	cfgFile  string
	dbPath   string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "billchart",
	Short: "Chart utility bill consumption for electricity, water and gas",
	Long: `BillChart is a CLI tool to collect monthly utility bill data and chart consumption over time.
Records are imported from CSV exports or a bill-data API, stored in a local SQLite database,
and rendered as PNG/SVG line charts, served over HTTP or published to MQTT and Home Assistant.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database file (default is ./billchart.db)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: trace, debug, info, warn, error (default from config, then info)")
}

// setupLogging applies the log level from the flag or the config file
func setupLogging(cmd *cobra.Command, args []string) error {
	level := logLevel
	if level == "" {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		level = cfg.GetLogLevel()
	}

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level: %s", level)
	}
	logrus.SetLevel(parsed)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return nil
}

// getConfigPath returns the config file path
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultConfigPath()
}

// getDBPath returns the database file path (local directory)
func getDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	return "billchart.db"
}

// loadConfig loads the configuration file
func loadConfig() (*config.Config, error) {
	return config.Load(getConfigPath())
}

// openDB opens the database connection
func openDB() (*database.DB, error) {
	path := getDBPath()

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	return database.New(path)
}

// parseCommodityArg parses the <commodity|all> positional argument
func parseCommodityArg(args []string) ([]models.Commodity, error) {
	if len(args) == 0 {
		return models.Commodities(), nil
	}
	return models.ParseCommodities(args[0])
}
