package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/xvierd/commitwatch/internal/domain"
)

// statusView is what commitwatch resolved for the current directory.
type statusView struct {
	Repository    string                 `json:"repository"`
	Branch        string                 `json:"branch"`
	TrackedBranch string                 `json:"tracked_branch,omitempty"`
	Head          string                 `json:"head"`
	Remote        string                 `json:"remote"`
	RemoteURL     string                 `json:"remote_url"`
	Location      *domain.RemoteLocation `json:"location"`
	Strategy      domain.Strategy        `json:"strategy"`
	Interval      string                 `json:"interval"`
	Timeout       string                 `json:"timeout"`
	Notifications string                 `json:"notifications"`
	ConfigFile    string                 `json:"config_file"`
}

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what would be watched",
	Long: `Display the repository, branch and remote commitwatch resolves for the
current directory, the detection strategy in use and the effective settings.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		view := buildStatus()
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), view)
		}
		printStatus(cmd.OutOrStdout(), view)
		return nil
	},
}

func buildStatus() statusView {
	cfg := app.config
	notifications := "off"
	if cfg.Notifications.Enabled {
		notifications = cfg.Notifications.Persistence
		if cfg.Notifications.Sound {
			notifications += " (with sound)"
		}
	}

	return statusView{
		Repository:    app.repo.Root,
		Branch:        app.repo.Branch,
		TrackedBranch: cfg.Branch,
		Head:          app.repo.Head,
		Remote:        app.repo.RemoteName,
		RemoteURL:     app.repo.RemoteURL,
		Location:      app.location,
		Strategy:      app.strategy,
		Interval:      cfg.Interval().String(),
		Timeout:       cfg.CommandTimeout().String(),
		Notifications: notifications,
		ConfigFile:    app.loader.Path(),
	}
}

func printStatus(w io.Writer, v statusView) {
	branch := v.Branch
	if v.TrackedBranch != "" {
		branch = v.TrackedBranch + " (configured)"
	}
	if branch == "" {
		branch = "(none)"
	}

	provider := "unsupported"
	if v.Location != nil {
		provider = fmt.Sprintf("%s %s", v.Location.Provider, v.Location.String())
	}

	fmt.Fprintf(w, "Repository:     %s\n", v.Repository)
	fmt.Fprintf(w, "Branch:         %s\n", branch)
	if v.Head != "" {
		fmt.Fprintf(w, "HEAD:           %s\n", domain.ShortHash(v.Head))
	}
	fmt.Fprintf(w, "Remote:         %s (%s)\n", v.Remote, v.RemoteURL)
	fmt.Fprintf(w, "Provider:       %s\n", provider)
	fmt.Fprintf(w, "Strategy:       %s\n", v.Strategy)
	fmt.Fprintf(w, "Interval:       %s\n", v.Interval)
	fmt.Fprintf(w, "Timeout:        %s\n", v.Timeout)
	fmt.Fprintf(w, "Notifications:  %s\n", v.Notifications)
	fmt.Fprintf(w, "Config:         %s\n", v.ConfigFile)
}
