package domain

// DivergenceKind tags the variant held by a DivergenceResult.
type DivergenceKind string

const (
	KindUpToDate DivergenceKind = "up_to_date"
	KindAhead    DivergenceKind = "ahead"
	KindUnknown  DivergenceKind = "unknown"
)

// DivergenceResult is the outcome of comparing the local branch with its
// remote counterpart.
//
// For KindAhead, Commits is ordered newest-first and is never empty, and
// NewestHash equals Commits[0].Hash. Reason is only set for KindUnknown.
type DivergenceResult struct {
	Kind       DivergenceKind `json:"kind"`
	Commits    []CommitRecord `json:"commits,omitempty"`
	NewestHash string         `json:"newest_hash,omitempty"`
	Reason     string         `json:"reason,omitempty"`
}

// UpToDate reports that local and remote point at the same commit.
func UpToDate() DivergenceResult {
	return DivergenceResult{Kind: KindUpToDate}
}

// Ahead reports that the remote has the given commits, newest first.
// An empty list has nothing to announce and yields UpToDate.
func Ahead(commits []CommitRecord) DivergenceResult {
	if len(commits) == 0 {
		return UpToDate()
	}
	owned := make([]CommitRecord, len(commits))
	copy(owned, commits)
	return DivergenceResult{
		Kind:       KindAhead,
		Commits:    owned,
		NewestHash: owned[0].Hash,
	}
}

// Unknown reports that divergence could not be determined.
func Unknown(reason string) DivergenceResult {
	if reason == "" {
		reason = "unknown error"
	}
	return DivergenceResult{Kind: KindUnknown, Reason: reason}
}

// IsAhead returns true if the remote has commits not present locally.
func (r DivergenceResult) IsAhead() bool {
	return r.Kind == KindAhead
}

// Authors returns the distinct commit authors in first-seen order.
func (r DivergenceResult) Authors() []string {
	seen := make(map[string]bool, len(r.Commits))
	var authors []string
	for _, c := range r.Commits {
		if seen[c.Author] {
			continue
		}
		seen[c.Author] = true
		authors = append(authors, c.Author)
	}
	return authors
}
