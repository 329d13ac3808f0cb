package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/incari/credit-tractor-app-sub000/internal/amqp"
	"github.com/incari/credit-tractor-app-sub000/internal/backend"
	"github.com/incari/credit-tractor-app-sub000/internal/cli"
	"github.com/incari/credit-tractor-app-sub000/internal/log"
	"github.com/incari/credit-tractor-app-sub000/internal/notify"
	"github.com/incari/credit-tractor-app-sub000/internal/ports"
	"github.com/incari/credit-tractor-app-sub000/internal/services"
	gsheet "github.com/incari/credit-tractor-app-sub000/internal/sheets/google"
	sheetsmem "github.com/incari/credit-tractor-app-sub000/internal/sheets/memory"
	"github.com/incari/credit-tractor-app-sub000/internal/worker"
)

const exportConcurrency = 4

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig(log.ComponentWorker)
	logger.Info("Starting tracker-worker")

	ctx, stop := cli.ShutdownContext()
	defer stop()

	if cfg.DataBackend == string(backend.MemoryBackend) {
		logger.Warn("Memory backend is per process; the worker will not see API data")
	}
	result := cli.MustOpenBackend(ctx, cfg, logger)
	defer result.Cleanup()

	var exporter ports.ScheduleExporter
	if cfg.SheetsEnabled() {
		g, err := gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		}, logger)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets exporter", log.FieldError, err)
			os.Exit(1)
		}
		exporter = g
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		exporter = sheetsmem.New(cfg.GoogleSheetName)
		logger.Info("Google Sheets disabled - schedules are exported in memory only")
	}
	exportWorker := worker.NewExportWorker(result.Store, exporter, exportConcurrency, logger)

	var notifier ports.Notifier
	if cfg.EmailEnabled() {
		notifier = notify.NewEmailSender(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		}, logger)
		logger.Info("Reminder e-mails enabled", "smtp_host", cfg.SMTPHost)
	} else {
		notifier = notify.NewLogNotifier(logger)
		logger.Info("SMTP disabled - reminders are logged only")
	}
	reminders := services.NewReminderProcessor(result.Store, notifier, cfg.ReminderWindowDays, logger)

	g, gctx := errgroup.WithContext(ctx)

	// Catch up on changes made while the worker was down.
	g.Go(func() error {
		n, err := exportWorker.ExportAll(gctx)
		if err != nil {
			logger.Error("Startup export failed", log.FieldError, err)
			return nil
		}
		logger.Info("Startup export complete", "users", n)
		return nil
	})

	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		g.Go(func() error {
			err := amqpClient.ConsumePaymentEvents(gctx, exportWorker.HandlePaymentEvent)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	} else {
		logger.Info("Skipping AMQP consumption - no AMQP_URL provided")
	}

	scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := scheduler.AddFunc(cfg.ReminderSchedule, func() {
		sent, err := reminders.Process(gctx, time.Now())
		if err != nil {
			logger.Error("Reminder run failed", log.FieldError, err, log.FieldReminderCount, sent)
		}
	}); err != nil {
		logger.Error("Invalid reminder schedule", log.FieldError, err, "schedule", cfg.ReminderSchedule)
		os.Exit(1)
	}
	scheduler.Start()
	logger.Info("Reminder scheduler started", "schedule", cfg.ReminderSchedule, "window_days", cfg.ReminderWindowDays)

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down worker...")
		// Wait for a reminder run in flight.
		<-scheduler.Stop().Done()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
