package cmd

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xvierd/commitwatch/internal/config"
)

var noRepo = map[string]string{annotationNoRepo: "true"}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View and edit the configuration",
	Long: `Show the effective configuration, change a single setting, or print the
location of the config file. Settings can also be overridden with
COMMITWATCH_* environment variables (e.g. COMMITWATCH_CHECK_INTERVAL=60).`,
	Annotations: noRepo,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowCmd.RunE(cmd, args)
	},
}

var configShowCmd = &cobra.Command{
	Use:         "show",
	Short:       "Show the effective configuration",
	Args:        cobra.NoArgs,
	Annotations: noRepo,
	RunE: func(cmd *cobra.Command, args []string) error {
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), redacted(app.config))
		}
		printConfig(cmd.OutOrStdout(), app.config)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting and save the config file",
	Long: `Change a setting and save the config file. A running "commitwatch watch"
picks up check_interval and notification changes immediately.

Keys: ` + strings.Join(sortedKeys(), ", "),
	Args:        cobra.ExactArgs(2),
	Annotations: noRepo,
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		if err := app.loader.Set(key, value); err != nil {
			return fmt.Errorf("failed to set %s: %w", key, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s = %s\n", key, displayValue(key, value))
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:         "path",
	Short:       "Print the config file location",
	Args:        cobra.NoArgs,
	Annotations: noRepo,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), app.loader.Path())
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)
}

func sortedKeys() []string {
	keys := config.KnownKeys()
	slices.Sort(keys)
	return keys
}

// isSecret reports whether key holds a credential.
func isSecret(key string) bool {
	return key == "github.token" || key == "bitbucket.app_password"
}

func displayValue(key, value string) string {
	if isSecret(key) && value != "" {
		return "********"
	}
	return value
}

// redacted returns a copy of cfg with credentials masked.
func redacted(cfg *config.Config) *config.Config {
	out := *cfg
	out.GitHub.Token = displayValue("github.token", cfg.GitHub.Token)
	out.Bitbucket.AppPassword = displayValue("bitbucket.app_password", cfg.Bitbucket.AppPassword)
	return &out
}

func printConfig(w io.Writer, cfg *config.Config) {
	c := redacted(cfg)
	branch := c.Branch
	if branch == "" {
		branch = "(current branch)"
	}
	logFile := c.Log.File
	if logFile == "" {
		logFile = "(stderr)"
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Current configuration:")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "    check_interval:             %ds\n", c.CheckInterval)
	fmt.Fprintf(w, "    strategy:                   %s\n", c.Strategy)
	fmt.Fprintf(w, "    remote:                     %s\n", c.Remote)
	fmt.Fprintf(w, "    branch:                     %s\n", branch)
	fmt.Fprintf(w, "    timeout:                    %s\n", c.Timeout)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "    github.base_url:            %s\n", c.GitHub.BaseURL)
	fmt.Fprintf(w, "    github.token:               %s\n", orNone(c.GitHub.Token))
	fmt.Fprintf(w, "    bitbucket.base_url:         %s\n", c.Bitbucket.BaseURL)
	fmt.Fprintf(w, "    bitbucket.username:         %s\n", orNone(c.Bitbucket.Username))
	fmt.Fprintf(w, "    bitbucket.app_password:     %s\n", orNone(c.Bitbucket.AppPassword))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "    notifications.enabled:      %v\n", c.Notifications.Enabled)
	fmt.Fprintf(w, "    notifications.persistence:  %s\n", c.Notifications.Persistence)
	fmt.Fprintf(w, "    notifications.sound:        %v\n", c.Notifications.Sound)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "    log.level:                  %s\n", c.Log.Level)
	fmt.Fprintf(w, "    log.file:                   %s\n", logFile)
	fmt.Fprintln(w)
}

func orNone(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}
