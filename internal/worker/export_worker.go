package worker

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/incari/credit-tractor-app-sub000/internal/core"
	"github.com/incari/credit-tractor-app-sub000/internal/log"
	"github.com/incari/credit-tractor-app-sub000/internal/ports"
)

// ExportStore is what the export worker reads from.
type ExportStore interface {
	ports.UserLister
	ListPayments(ctx context.Context, userID string) ([]core.Payment, error)
}

// ExportWorker rewrites a user's exported schedule whenever one of their
// payments changes.
type ExportWorker struct {
	store       ExportStore
	exporter    ports.ScheduleExporter
	concurrency int
	logger      *log.Logger
}

func NewExportWorker(store ExportStore, exporter ports.ScheduleExporter, concurrency int, logger *log.Logger) *ExportWorker {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &ExportWorker{
		store:       store,
		exporter:    exporter,
		concurrency: concurrency,
		logger:      logger.WithComponent(log.ComponentWorker),
	}
}

// HandlePaymentEvent processes a single payment event from AMQP. The whole
// schedule of the event's user is exported, so deletes and toggles are
// handled the same way as creates.
func (w *ExportWorker) HandlePaymentEvent(ctx context.Context, e ports.PaymentEvent) error {
	w.logger.InfoContext(ctx, "Processing payment event",
		log.FieldUserID, e.UserID,
		log.FieldPaymentID, e.PaymentID,
		log.FieldEventAction, string(e.Action))

	return w.ExportUser(ctx, e.UserID)
}

// ExportUser regenerates and exports the schedule of every payment owned by userID.
func (w *ExportWorker) ExportUser(ctx context.Context, userID string) error {
	payments, err := w.store.ListPayments(ctx, userID)
	if err != nil {
		return fmt.Errorf("list payments for %s: %w", userID, err)
	}

	schedule := core.ScheduleFor(payments)
	if err := w.exporter.ExportSchedule(ctx, userID, schedule); err != nil {
		w.logger.ErrorContext(ctx, "Failed to export schedule",
			log.FieldUserID, userID,
			log.FieldError, err)
		return fmt.Errorf("export schedule for %s: %w", userID, err)
	}

	w.logger.InfoContext(ctx, "Exported schedule",
		log.FieldUserID, userID,
		log.FieldInstallments, len(schedule))
	return nil
}

// ExportAll exports every known user. It is the startup catch-up for events
// that were lost while the worker was down.
func (w *ExportWorker) ExportAll(ctx context.Context) (int, error) {
	users, err := w.store.ListUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}
	if len(users) == 0 {
		return 0, nil
	}

	w.logger.InfoContext(ctx, "Exporting all schedules", "users", len(users))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for _, userID := range users {
		g.Go(func() error {
			return w.ExportUser(gctx, userID)
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(users), nil
}
