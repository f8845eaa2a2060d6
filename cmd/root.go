package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	cfgpkg "github.com/KaramelBytes/autoclean-cli/internal/config"
)

var (
	// Global flags
	cfgFile     string
	debug       bool
	flagWorkers int

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "autoclean",
	Short: "autoclean: normalize and filter vehicle price datasets",
	Long: `autoclean reads car and electric vehicle datasets (CSV, TSV, XLSX), turns messy
numeric text such as "$1,100,000" or "300-350 hp" into numbers, drops duplicate,
incomplete and implausible rows, and writes the cleaned table to CSV or SQLite.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	err := rootCmd.ExecuteContext(ctx)
	_ = zap.L().Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.autoclean/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().IntVar(&flagWorkers, "workers", 0, "parallel normalization workers (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: allow running commands that don't need config
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = &cfgpkg.Global{LogLevel: "info", LogFormat: "console", Workers: 1, OutputDir: "."}
	}
	cfg = c

	// Apply CLI overrides if provided
	f := rootCmd.PersistentFlags()
	if f.Changed("workers") && flagWorkers > 0 {
		cfg.Workers = flagWorkers
	}
	if debug {
		cfg.LogLevel = "debug"
	}
	if err := cfgpkg.InitLogger(cfg.Log()); err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: logger setup failed: %v\n", err)
	}
}
