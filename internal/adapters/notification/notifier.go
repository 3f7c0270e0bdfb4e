// Package notification provides desktop notifications and presenter
// composition.
package notification

import (
	"context"
	"sync"

	"github.com/gen2brain/beeep"

	"github.com/xvierd/commitwatch/internal/config"
	"github.com/xvierd/commitwatch/internal/domain"
	"github.com/xvierd/commitwatch/internal/ports"
)

// AppName is shown as the notification source where the platform supports it.
const AppName = "commitwatch"

// Notifier handles desktop notifications.
type Notifier struct {
	mu  sync.RWMutex
	cfg config.NotificationConfig

	notify func(title, message string, icon any) error
	alert  func(title, message string, icon any) error
	beep   func(freq float64, duration int) error
}

// New creates a new notifier with the given configuration.
func New(cfg config.NotificationConfig) *Notifier {
	beeep.AppName = AppName
	return &Notifier{
		cfg:    cfg,
		notify: beeep.Notify,
		alert:  beeep.Alert,
		beep:   beeep.Beep,
	}
}

// Ensure Notifier implements ports.Presenter.
var _ ports.Presenter = (*Notifier)(nil)

// ShowNotification displays a desktop notification if enabled. Persistent
// notifications are raised as alerts. Desktop notifications carry no
// actions, so the returned action is always empty.
func (n *Notifier) ShowNotification(_ context.Context, note ports.Notification) (string, error) {
	n.mu.RLock()
	cfg := n.cfg
	n.mu.RUnlock()

	if !cfg.Enabled {
		return "", nil
	}

	if note.Persistent {
		return "", n.alert(note.Title, note.Body, "")
	}
	if err := n.notify(note.Title, note.Body, ""); err != nil {
		return "", err
	}
	if cfg.Sound {
		return "", n.beep(beeep.DefaultFreq, beeep.DefaultDuration)
	}
	return "", nil
}

// UpdateStatus is a no-op; the desktop has no status indicator.
func (n *Notifier) UpdateStatus(ports.StatusIndicator) {}

// ShowDetails is a no-op; details are rendered by the terminal presenters.
func (n *Notifier) ShowDetails(*domain.CommitDetail) {}

// IsEnabled returns true if notifications are enabled.
func (n *Notifier) IsEnabled() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.cfg.Enabled
}

// Configure replaces the notification settings.
func (n *Notifier) Configure(cfg config.NotificationConfig) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cfg = cfg
}
