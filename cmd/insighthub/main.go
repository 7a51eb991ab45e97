// Command insighthub runs multi-agent business analyses from the terminal.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hupe1980/insighthub"
	"github.com/hupe1980/insighthub/config"
)

var (
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "insighthub",
	Short: "Multi-agent business analysis",
	Long: `InsightHub answers business questions by coordinating a quantitative
analyst, a market researcher and a synthesis writer.

Configuration is read from insighthub.yaml (working directory or user config
directory), then overridden by INSIGHTHUB_* environment variables. Provider
credentials are taken from OPENAI_API_KEY or ANTHROPIC_API_KEY; without them
the built-in mock model answers every prompt.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default insighthub.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")

	rootCmd.AddCommand(analyzeCmd, agentsCmd, classifyCmd, memoryCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	if logLevel != "" {
		cfg.Log.Level = logLevel
		if err := config.Validate(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func newHub() (*insighthub.Hub, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	hub, err := insighthub.New(func(o *insighthub.Options) {
		o.Config = cfg
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create hub: %w", err)
	}

	return hub, cfg, nil
}
