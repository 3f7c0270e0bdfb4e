// Package cmd provides the CLI commands for commitwatch.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	// Version info (set at build time via ldflags)
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"

	// Global flags
	configPath   string
	workDir      string
	jsonOutput   bool
	strategyFlag string
)

const (
	// annotationNoRepo marks commands that only need the configuration.
	annotationNoRepo = "commitwatch/no-repo"

	// annotationWatch marks commands that present watcher output live.
	annotationWatch = "commitwatch/watch"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "commitwatch",
	Short: "commitwatch - get notified when your branch falls behind its remote",
	Long: `commitwatch watches the current git branch and tells you when the
remote has commits you don't have locally.

It compares HEAD with the remote branch either by fetching that branch and
diffing the logs, or by asking the hosting provider's API (GitHub, Bitbucket)
for the branch tip. It never merges, rebases or touches your working tree.

Run "commitwatch watch" to start watching the repository in the current
directory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeServices(cmd)
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return cleanupServices()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		_ = cleanupServices()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the config file (default: ~/.commitwatch/config.toml)")
	rootCmd.PersistentFlags().StringVarP(&workDir, "dir", "C", "", "Directory inside the repository to watch (default: current directory)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output results in JSON format")
	rootCmd.PersistentFlags().StringVar(&strategyFlag, "strategy", "", "Detection strategy: local or remote-api (overrides config)")

	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("commitwatch\nVersion: {{.Version}}\n")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(mcpCmd)
}

// setupSignalHandler returns a context canceled on interrupt signals.
func setupSignalHandler() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// writeJSON prints v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
