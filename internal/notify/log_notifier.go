package notify

import (
	"context"

	"github.com/incari/credit-tractor-app-sub000/internal/log"
	"github.com/incari/credit-tractor-app-sub000/internal/ports"
)

// LogNotifier writes reminders to the log. Used when SMTP is not configured.
type LogNotifier struct {
	logger *log.Logger
}

var _ ports.Notifier = (*LogNotifier)(nil)

func NewLogNotifier(logger *log.Logger) *LogNotifier {
	if logger == nil {
		logger = log.Discard()
	}
	return &LogNotifier{logger: logger.WithComponent(log.ComponentNotify)}
}

func (n *LogNotifier) SendReminder(ctx context.Context, r ports.Reminder) error {
	n.logger.InfoContext(ctx, Subject(r),
		log.FieldUserID, r.UserID,
		"to", r.To,
		"upcoming", len(r.Upcoming),
		"overdue", len(r.Overdue))
	return nil
}
