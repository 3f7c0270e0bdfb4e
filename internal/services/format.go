package services

import (
	"fmt"
	"strings"

	"github.com/xvierd/commitwatch/internal/domain"
	"github.com/xvierd/commitwatch/internal/ports"
)

// maxListedCommits caps the commits listed in a notification body.
const maxListedCommits = 3

// NotificationFor builds the alert for an Ahead result.
func NotificationFor(result domain.DivergenceResult, persistent bool) ports.Notification {
	count := len(result.Commits)

	title := "1 New Remote Commit Available"
	if count != 1 {
		title = fmt.Sprintf("%d New Remote Commits Available", count)
	}

	var body strings.Builder
	if count == 1 {
		c := result.Commits[0]
		fmt.Fprintf(&body, "%s - %s\nBy %s on %s", c.ShortHash(), c.Subject(), c.Author, c.Date)
	} else {
		fmt.Fprintf(&body, "%d commits:", count)
		for i, c := range result.Commits {
			if i == maxListedCommits {
				body.WriteString("\n...and more")
				break
			}
			fmt.Fprintf(&body, "\n• %s (%s): %s", c.ShortHash(), c.Date, c.Subject())
		}
	}

	return ports.Notification{
		Title:      title,
		Body:       body.String(),
		Persistent: persistent,
		Actions:    []string{ports.ActionViewDetails},
	}
}

// StatusFor builds the status indicator for a result. It is hidden unless
// the remote is ahead.
func StatusFor(result domain.DivergenceResult) ports.StatusIndicator {
	if !result.IsAhead() {
		return ports.StatusIndicator{}
	}

	count := len(result.Commits)
	tooltip := "1 new remote commit available"
	if count != 1 {
		tooltip = fmt.Sprintf("%d new remote commits available", count)
	}

	return ports.StatusIndicator{
		Visible: true,
		Text:    "Remote: " + strings.Join(result.Authors(), ", "),
		Tooltip: tooltip,
		Urgent:  true,
	}
}

// FormatDetails renders the remote commit details report.
func FormatDetails(d *domain.CommitDetail) string {
	var b strings.Builder
	b.WriteString("=== REMOTE COMMIT DETAILS ===\n")
	fmt.Fprintf(&b, "Commit Hash: %s\n\n", d.Hash)
	b.WriteString("Author:\n")
	fmt.Fprintf(&b, "  Name : %s\n", d.AuthorName)
	fmt.Fprintf(&b, "  Email: %s\n", d.AuthorEmail)
	fmt.Fprintf(&b, "  Date : %s\n\n", d.AuthorDate)
	b.WriteString("Committer:\n")
	fmt.Fprintf(&b, "  Name : %s\n", d.CommitterName)
	fmt.Fprintf(&b, "  Email: %s\n", d.CommitterEmail)
	fmt.Fprintf(&b, "  Date : %s\n\n", d.CommitterDate)
	b.WriteString("Message:\n")
	b.WriteString(d.Message)
	b.WriteString("\n")
	return b.String()
}

// FormatReport renders a one-line summary of a check.
func FormatReport(r *domain.CheckReport) string {
	switch r.Result.Kind {
	case domain.KindAhead:
		n := len(r.Result.Commits)
		noun := "commits"
		if n == 1 {
			noun = "commit"
		}
		return fmt.Sprintf("%s: %d new remote %s (newest %s)", r.Branch, n, noun, domain.ShortHash(r.Result.NewestHash))
	case domain.KindUpToDate:
		return fmt.Sprintf("%s: up to date", r.Branch)
	default:
		return fmt.Sprintf("check failed: %s", r.Result.Reason)
	}
}
