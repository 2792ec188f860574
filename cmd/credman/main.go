package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/openclaw/credman/cmd/credman/commands"
	"github.com/openclaw/credman/internal/config"
	"github.com/openclaw/credman/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Global flags
	var (
		configFile     string
		noColor        bool
		debug          bool
		nonInteractive bool
	)

	cfg := &config.Config{}

	rootCmd := &cobra.Command{
		Use:   "credman",
		Short: "Credential discovery and secure vault",
		Long: `credman finds credentials scattered across config files, folds them
into a single owner-only store under canonical names, and keeps the
high-risk ones in an encrypted container with rotation tracking.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger := logging.New(debug, noColor)

			cfg.Path = configFile
			cfg.Logger = logger
			cfg.NonInteractive = nonInteractive
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", config.DefaultPath, "Config file path")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&nonInteractive, "non-interactive", false, "Non-interactive mode")

	rootCmd.AddCommand(
		commands.NewScanCommand(cfg),
		commands.NewDeepScanCommand(cfg),
		commands.NewConsolidateCommand(cfg),
		commands.NewEncryptCommand(cfg),
		commands.NewGetCommand(cfg),
		commands.NewRotationCommand(cfg),
		commands.NewValidateCommand(cfg),
		commands.NewCleanupCommand(cfg),
		commands.NewGuardCommand(cfg),
		commands.NewServicesCommand(cfg),
	)

	return rootCmd.Execute()
}
