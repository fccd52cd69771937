package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/medsim/medsim/internal"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
	apiHost    string
	locale     string
	dataDir    string
	version    string = "dev"
	commit     string = "unknown"
	date       string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "medsim",
	Short: "Terminal client for the virtual doctor's office",
	Long: `A terminal client for the medical diagnosis simulator.

Talk to a simulated patient, ask questions, and submit a diagnosis to get
a score and feedback from the server.

Features:
  • Interactive play screen with past games, transcript and inputs
  • One-shot commands for scripting (new, send, end)
  • Offline transcript cache and export (Markdown, JSON, JSONL, YAML)
  • Results that fail to save are queued and retried with 'sync'

Quick Start:
  medsim login                   # Sign in
  medsim play                    # Open the interactive screen
  medsim new --difficulty hard   # Start a game from the shell
  medsim list                    # List past games`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		internal.SetVerbose(verbose)
		return loadDotEnv(".env")
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	defer internal.SyncLogs()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadDotEnv reads KEY=value pairs into the environment. Variables that are
// already set win.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil {
		internal.LogDebug("Loaded environment from %s", path)
		return nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return &internal.ConfigError{Source: path, Err: err}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/medsim/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiHost, "host", "", "Backend URL, e.g. http://127.0.0.1:8000")
	rootCmd.PersistentFlags().StringVar(&locale, "locale", "", "Message language (en, ru); defaults to $LANG")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Directory for the login, cache and logs (default ~/.medsim)")

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
