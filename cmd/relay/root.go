package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"mercator-hq/relay/pkg/cli"
)

var (
	// Global flags
	cfgFile string
	envFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "relay",
	Short: "Relay - resilient calls to external model providers",
	Long: `Relay wraps calls to external model providers with the pieces needed to
survive them in production:

  - Bounded exponential backoff with jitter and retry-after hints
  - Client-side token buckets for request and token rate limits
  - Ordered fallback across models with per-candidate retries
  - Per-request, daily and monthly spend budgets

Configuration is read from a YAML file (--config) with RELAY_* environment
overrides. A .env file in the working directory is loaded first when present.`,
	Version:           Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadEnvFile,
}

// Execute runs the root command and exits with a code describing the failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (built-in defaults when empty)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the config, skipped when missing")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
}

// loadEnvFile loads --env-file into the process environment. Variables that
// are already set win over the file.
func loadEnvFile(cmd *cobra.Command, args []string) error {
	if envFile == "" {
		return nil
	}
	if err := godotenv.Load(envFile); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return cli.NewConfigError("", fmt.Sprintf("failed to load %s: %v", envFile, err))
	}
	return nil
}
