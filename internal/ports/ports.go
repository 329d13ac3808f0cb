// Package ports declares the outbound interfaces the services depend on.
// Storage backends, the schedule exporter, the mailer and the event bus
// each satisfy one of them.
package ports

import (
	"context"
	"errors"
	"time"

	"github.com/incari/credit-tractor-app-sub000/internal/core"
)

// ErrNotFound is returned by stores when a record does not exist for the caller.
var ErrNotFound = errors.New("not found")

type (
	PaymentStore interface {
		ListPayments(ctx context.Context, userID string) ([]core.Payment, error)
		GetPayment(ctx context.Context, userID, id string) (core.Payment, error)
		// CreatePayment assigns the ID and returns the stored record.
		CreatePayment(ctx context.Context, p core.Payment) (core.Payment, error)
		UpdatePayment(ctx context.Context, p core.Payment) (core.Payment, error)
		DeletePayment(ctx context.Context, userID, id string) error
	}

	CardStore interface {
		ListCards(ctx context.Context, userID string) ([]core.CreditCard, error)
		GetCard(ctx context.Context, userID, id string) (core.CreditCard, error)
		CreateCard(ctx context.Context, c core.CreditCard) (core.CreditCard, error)
		DeleteCard(ctx context.Context, userID, id string) error
	}

	SettingsStore interface {
		// GetSettings returns ErrNotFound when the user never saved settings.
		GetSettings(ctx context.Context, userID string) (core.Settings, error)
		SaveSettings(ctx context.Context, s core.Settings) (core.Settings, error)
	}

	// UserLister enumerates users owning at least one payment. The reminder
	// job walks it.
	UserLister interface {
		ListUsers(ctx context.Context) ([]string, error)
	}

	// Store is the full persistence surface a backend provides.
	Store interface {
		PaymentStore
		CardStore
		SettingsStore
		UserLister
		Close() error
	}

	// ScheduleExporter mirrors a user's full installment schedule somewhere
	// outside the service.
	ScheduleExporter interface {
		ExportSchedule(ctx context.Context, userID string, installments []core.Installment) error
	}

	// Notifier delivers reminder messages.
	Notifier interface {
		SendReminder(ctx context.Context, r Reminder) error
	}

	// EventPublisher announces payment changes.
	EventPublisher interface {
		PublishPaymentEvent(ctx context.Context, e PaymentEvent) error
	}
)

// EventAction names what happened to a payment.
type EventAction string

const (
	ActionCreated     EventAction = "created"
	ActionUpdated     EventAction = "updated"
	ActionDeleted     EventAction = "deleted"
	ActionPaidToggled EventAction = "paid_toggled"
)

// PaymentEvent is published after every successful payment mutation.
type PaymentEvent struct {
	UserID    string      `json:"user_id"`
	PaymentID string      `json:"payment_id"`
	Action    EventAction `json:"action"`
	Timestamp time.Time   `json:"timestamp"`
}

// Reminder lists the installments a user should pay soon or is late on.
type Reminder struct {
	UserID   string
	To       string
	Currency string
	Today    core.Date
	Upcoming []core.Installment
	Overdue  []core.Installment
}

// Empty reports whether there is nothing to remind about.
func (r Reminder) Empty() bool {
	return len(r.Upcoming) == 0 && len(r.Overdue) == 0
}
