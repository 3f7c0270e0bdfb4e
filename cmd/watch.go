package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xvierd/commitwatch/internal/adapters/tui"
	"github.com/xvierd/commitwatch/internal/domain"
	"github.com/xvierd/commitwatch/internal/services"
)

var (
	plainOutput    bool
	detailsOnAlert bool
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the remote branch for new commits",
	Long: `Start periodic checking. One check runs immediately, then one every
check_interval seconds. Edits to check_interval in the config file take
effect without a restart.

On a terminal an interactive screen is shown (c: check now, s: start/stop,
d: details, q: quit). Otherwise, or with --plain, results are printed as
lines until interrupted. With --details the full report of the newest
remote commit follows each new-commit alert.`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationWatch: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := setupSignalHandler()
		defer cancel()

		if branch := app.config.Branch; branch != "" && app.inspector != nil {
			var unknown *services.UnknownBranchError
			if err := services.VerifyBranch(ctx, app.inspector, branch); errors.As(err, &unknown) {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
			} else if err != nil {
				app.logger.Warn("could not verify branch", "branch", branch, "error", err)
			}
		}

		followConfigChanges()

		if app.program != nil {
			return app.program.Run(ctx, tui.NewModel(ctx, app.watcher, true))
		}

		status := app.watcher.Status()
		fmt.Fprintf(cmd.OutOrStdout(), "Watching %s on %s every %s (%s). Press Ctrl+C to stop.\n",
			status.Repository, status.Remote, status.Interval, status.Strategy)

		if err := app.watcher.Start(ctx); err != nil && !errors.Is(err, domain.ErrAlreadyWatching) {
			return err
		}
		<-ctx.Done()
		return nil
	},
}

func init() {
	watchCmd.Flags().BoolVar(&plainOutput, "plain", false, "Print results as lines instead of the interactive screen")
	watchCmd.Flags().BoolVar(&detailsOnAlert, "details", false, "Show the newest remote commit's details with each alert")
}
