package notification

import (
	"context"
	"errors"
	"log/slog"

	"github.com/xvierd/commitwatch/internal/domain"
	"github.com/xvierd/commitwatch/internal/ports"
)

// Fanout forwards everything to several presenters.
type Fanout struct {
	presenters []ports.Presenter
	logger     *slog.Logger
}

// NewFanout combines presenters. Nil entries are ignored.
func NewFanout(logger *slog.Logger, presenters ...ports.Presenter) *Fanout {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	f := &Fanout{logger: logger}
	for _, p := range presenters {
		if p != nil {
			f.presenters = append(f.presenters, p)
		}
	}
	return f
}

// Ensure Fanout implements ports.Presenter.
var _ ports.Presenter = (*Fanout)(nil)

// ShowNotification shows n on every presenter and returns the first action
// chosen. One failing presenter does not stop the others. An error is
// returned only when no presenter showed the notification; partial failures
// are logged.
func (f *Fanout) ShowNotification(ctx context.Context, n ports.Notification) (string, error) {
	var action string
	var errs []error
	shown := 0
	for _, p := range f.presenters {
		chosen, err := p.ShowNotification(ctx, n)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		shown++
		if action == "" {
			action = chosen
		}
	}

	err := errors.Join(errs...)
	if err != nil && shown > 0 {
		f.logger.Warn("notification not shown by every presenter", "shown", shown, "error", err)
		return action, nil
	}
	return action, err
}

// UpdateStatus forwards the status to every presenter.
func (f *Fanout) UpdateStatus(s ports.StatusIndicator) {
	for _, p := range f.presenters {
		p.UpdateStatus(s)
	}
}

// ShowDetails forwards the details to every presenter.
func (f *Fanout) ShowDetails(d *domain.CommitDetail) {
	for _, p := range f.presenters {
		p.ShowDetails(d)
	}
}
