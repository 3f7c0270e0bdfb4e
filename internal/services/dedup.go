package services

import (
	"sync"

	"github.com/xvierd/commitwatch/internal/domain"
)

// Decision is what to do with a check result.
type Decision int

const (
	// DecisionNone leaves notification state untouched.
	DecisionNone Decision = iota
	// DecisionNotify presents a notification for a commit not yet announced.
	DecisionNotify
	// DecisionSuppress skips a notification already shown for this commit.
	DecisionSuppress
	// DecisionReset clears the state after local caught up with remote.
	DecisionReset
)

// Deduplicator remembers the newest commit a notification was shown for.
type Deduplicator struct {
	mu               sync.Mutex
	lastNotifiedHash string
}

// NewDeduplicator creates an empty deduplicator.
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{}
}

// Observe decides how to present result. An UpToDate result clears the
// remembered hash, so the same commit is announced again if it reappears.
func (d *Deduplicator) Observe(result domain.DivergenceResult) Decision {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch result.Kind {
	case domain.KindAhead:
		if result.NewestHash == d.lastNotifiedHash {
			return DecisionSuppress
		}
		return DecisionNotify
	case domain.KindUpToDate:
		d.lastNotifiedHash = ""
		return DecisionReset
	default:
		return DecisionNone
	}
}

// MarkNotified records that a notification for hash was shown.
func (d *Deduplicator) MarkNotified(hash string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastNotifiedHash = hash
}

// LastNotified returns the remembered hash, or "".
func (d *Deduplicator) LastNotified() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastNotifiedHash
}
