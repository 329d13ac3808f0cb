package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/incari/credit-tractor-app-sub000/internal/core"
	"github.com/incari/credit-tractor-app-sub000/internal/log"
	"github.com/incari/credit-tractor-app-sub000/internal/ports"
)

// ReminderStore is the storage surface the reminder job reads.
type ReminderStore interface {
	ports.UserLister
	ports.PaymentStore
	ports.SettingsStore
}

// ReminderProcessor e-mails each user the installments that are overdue or
// due within the configured window.
type ReminderProcessor struct {
	store      ReminderStore
	notifier   ports.Notifier
	windowDays int
	logger     *log.Logger
}

func NewReminderProcessor(store ReminderStore, notifier ports.Notifier, windowDays int, logger *log.Logger) *ReminderProcessor {
	if logger == nil {
		logger = log.Discard()
	}
	return &ReminderProcessor{
		store:      store,
		notifier:   notifier,
		windowDays: windowDays,
		logger:     logger.WithComponent(log.ComponentReminder),
	}
}

// Process sends one reminder per user with something to pay and returns how
// many were sent. A failure for one user does not stop the others.
func (p *ReminderProcessor) Process(ctx context.Context, now time.Time) (int, error) {
	if p.store == nil || p.notifier == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	users, err := p.store.ListUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}

	today := core.DateOf(now)
	p.logger.InfoContext(ctx, "Processing payment reminders",
		"users", len(users),
		"processing_date", today.String(),
		"window_days", p.windowDays)

	sent := 0
	var errs []error
	for _, userID := range users {
		if err := ctx.Err(); err != nil {
			return sent, err
		}

		reminder, ok, err := p.buildReminder(ctx, userID, today)
		if err != nil {
			errs = append(errs, fmt.Errorf("user %s: %w", userID, err))
			continue
		}
		if !ok {
			continue
		}

		if err := p.notifier.SendReminder(ctx, reminder); err != nil {
			p.logger.ErrorContext(ctx, "Failed to send reminder",
				log.FieldUserID, userID,
				log.FieldError, err)
			errs = append(errs, fmt.Errorf("user %s: send: %w", userID, err))
			continue
		}
		sent++
	}

	p.logger.InfoContext(ctx, "Reminder processing complete",
		log.FieldReminderCount, sent,
		"failed", len(errs))

	return sent, errors.Join(errs...)
}

// buildReminder reports ok=false when the user has no address or nothing is due.
func (p *ReminderProcessor) buildReminder(ctx context.Context, userID string, today core.Date) (ports.Reminder, bool, error) {
	settings, err := p.store.GetSettings(ctx, userID)
	if errors.Is(err, ports.ErrNotFound) {
		return ports.Reminder{}, false, nil
	}
	if err != nil {
		return ports.Reminder{}, false, fmt.Errorf("get settings: %w", err)
	}
	if settings.ReminderEmail == "" {
		return ports.Reminder{}, false, nil
	}

	payments, err := p.store.ListPayments(ctx, userID)
	if err != nil {
		return ports.Reminder{}, false, fmt.Errorf("list payments: %w", err)
	}

	installments := core.ScheduleFor(payments)
	reminder := ports.Reminder{
		UserID:   userID,
		To:       settings.ReminderEmail,
		Currency: settings.Currency,
		Today:    today,
		Upcoming: core.DueWithin(installments, today, p.windowDays),
		Overdue:  core.Bucket(installments, today).Overdue,
	}
	return reminder, !reminder.Empty(), nil
}
