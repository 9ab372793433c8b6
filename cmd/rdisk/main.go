package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/sigreer/rdisk/internal/config"
	"github.com/sigreer/rdisk/internal/db"
	"github.com/sigreer/rdisk/internal/logger"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "rdisk",
	Short: "RAM disk manager",
	Long: `rdisk creates and ejects memory-backed volumes on macOS and, when
persistence is on, brings the same set of disks back after a restart.

Run 'rdisk run' as a login agent to keep the restoration records current.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is /etc/rdisk/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(ejectCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(persistCmd)
	rootCmd.AddCommand(recordsCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(versionCmd)
}

// mustLoad reads the configuration and sets up logging, exiting on error
func mustLoad() (*config.Config, zerolog.Logger) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	level := cfg.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	return cfg, logger.Configure(level, cfg.Log.Format)
}

func mustOpenDB(cfg *config.Config) *db.DB {
	database, err := db.New(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	return database
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
