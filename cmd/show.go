package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xvierd/commitwatch/internal/services"
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show [ref]",
	Short: "Show the details of a remote commit",
	Long: `Show author, committer and the full message of a commit.

Without arguments the tracked branch is fetched and its remote tip is shown.
With an argument, that commit-ish is described instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := setupSignalHandler()
		defer cancel()

		var ref string
		if len(args) == 1 {
			ref = args[0]
		}

		detail, err := app.watcher.ShowRemoteCommit(ctx, ref)
		if err != nil {
			return err
		}

		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), detail)
		}
		fmt.Fprint(cmd.OutOrStdout(), services.FormatDetails(detail))
		return nil
	},
}
