package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mcdev12/nexora/go/internal/config"
)

const appName = "nexora"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type globalFlags struct {
	configPath string
	logLevel   string
	storage    string
}

func rootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Focus tracking daemon",
		Long: `Nexora tracks focus sessions, progress, rewards and distractions for a
single local profile.

Run "nexora serve" to start the HTTP, WebSocket and Connect API, or use the
other commands to work with the same profile from the terminal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "config file path (default nexora.yaml)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "override the configured log level")
	cmd.PersistentFlags().StringVar(&flags.storage, "storage", "", "override the storage driver (memory, file, sqlite, postgres, pgx)")

	cmd.AddCommand(newServeCmd(flags))
	cmd.AddCommand(newTimerCmd(flags))
	cmd.AddCommand(newRemoteCmd())
	cmd.AddCommand(newProgressCmd(flags))
	cmd.AddCommand(newRewardsCmd(flags))
	cmd.AddCommand(newRoutesCmd(flags))

	return cmd
}

// loadConfig loads the config file and applies the global flag overrides.
func loadConfig(flags *globalFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if flags.storage != "" {
		cfg.Storage.Driver = flags.storage
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	setupLogging(cfg.Log)
	return cfg, nil
}

func setupLogging(cfg config.LogConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if cfg.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}
