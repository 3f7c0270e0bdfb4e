package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/xvierd/commitwatch/internal/domain"
	"github.com/xvierd/commitwatch/internal/services"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the remote branch for new commits now",
	Long: `Run a single check: compare the current branch with its remote
counterpart and list the commits you don't have yet. A desktop notification
is shown when new commits are found and notifications are enabled.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := setupSignalHandler()
		defer cancel()

		report, err := app.watcher.CheckNow(ctx)
		if err != nil {
			return fmt.Errorf("failed to check: %w", err)
		}

		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), report)
		}

		if report.Result.Kind == domain.KindUnknown {
			return fmt.Errorf("check failed: %s", report.Result.Reason)
		}
		printReport(cmd.OutOrStdout(), report, app.watcher.Status().Remote)
		return nil
	},
}

// printReport writes a human-readable check result.
func printReport(w io.Writer, report *domain.CheckReport, remote string) {
	result := report.Result
	if result.Kind != domain.KindAhead {
		fmt.Fprintf(w, "✓ %s is up to date with %s/%s\n", report.Branch, remote, report.Branch)
		return
	}

	n := services.NotificationFor(result, false)
	fmt.Fprintf(w, "%s on %s/%s\n\n", n.Title, remote, report.Branch)
	for _, c := range result.Commits {
		fmt.Fprintf(w, "  %s  %-19s  %-16s  %s\n", c.ShortHash(), c.Date, truncate(c.Author, 16), c.Subject())
	}
}

// truncate shortens s to n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
