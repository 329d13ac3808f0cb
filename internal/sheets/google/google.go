// Package google exports installment schedules to a Google spreadsheet, one
// tab per user.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"github.com/incari/credit-tractor-app-sub000/internal/core"
	"github.com/incari/credit-tractor-app-sub000/internal/log"
	"github.com/incari/credit-tractor-app-sub000/internal/ports"
	"github.com/incari/credit-tractor-app-sub000/internal/sheets"
)

// Config selects the spreadsheet and the service account used to write it.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	baseName      string
	logger        *log.Logger

	mu        sync.Mutex
	knownTabs map[string]bool
}

var _ ports.ScheduleExporter = (*Exporter)(nil)

// New creates an exporter authenticated with a service account. Extra client
// options are appended after the credentials.
func New(ctx context.Context, cfg Config, logger *log.Logger, opts ...goption.ClientOption) (*Exporter, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet ID")
	}

	credentialsJSON, err := loadCredentials(cfg)
	if err != nil {
		return nil, err
	}

	clientOpts := []goption.ClientOption{
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope),
	}
	svc, err := gsheet.NewService(ctx, append(clientOpts, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return NewWithService(svc, cfg.SpreadsheetID, cfg.SheetName, logger), nil
}

// NewWithService wraps an already configured Sheets service.
func NewWithService(svc *gsheet.Service, spreadsheetID, baseName string, logger *log.Logger) *Exporter {
	if logger == nil {
		logger = log.Discard()
	}
	if baseName == "" {
		baseName = "Installments"
	}
	return &Exporter{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		baseName:      baseName,
		logger:        logger.WithComponent(log.ComponentSheets),
		knownTabs:     map[string]bool{},
	}
}

func loadCredentials(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		return []byte(cfg.CredentialsJSON), nil
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		b, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
}

// TabName returns the tab a user's schedule is written to.
func (e *Exporter) TabName(userID string) string {
	return sheets.TabName(e.baseName, userID)
}

// ExportSchedule replaces the user's tab with the given installments.
func (e *Exporter) ExportSchedule(ctx context.Context, userID string, installments []core.Installment) error {
	if e.svc == nil {
		return errors.New("sheets service not initialized")
	}

	tab := e.TabName(userID)
	if err := e.ensureTab(ctx, tab); err != nil {
		return err
	}

	rng := a1Range(tab, sheets.Columns)
	if _, err := e.svc.Spreadsheets.Values.Clear(e.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		// The tab may have been removed by hand; re-check on the next export.
		e.ForgetTabs()
		return fmt.Errorf("clear %s: %w", rng, err)
	}

	rows := sheets.Rows(installments)
	target := a1Range(tab, "A1")
	_, err := e.svc.Spreadsheets.Values.Update(e.spreadsheetID, target, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}

	e.logger.InfoContext(ctx, "Schedule exported",
		log.FieldUserID, userID,
		log.FieldSheetTab, tab,
		log.FieldInstallments, len(installments))
	return nil
}

// ensureTab creates tab when the spreadsheet does not have it yet. Known
// titles are remembered so steady-state exports skip the metadata read.
func (e *Exporter) ensureTab(ctx context.Context, tab string) error {
	e.mu.Lock()
	known := e.knownTabs[tab]
	e.mu.Unlock()
	if known {
		return nil
	}

	ss, err := e.svc.Spreadsheets.Get(e.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet metadata: %w", err)
	}

	exists := false
	e.mu.Lock()
	for _, sh := range ss.Sheets {
		if sh.Properties == nil {
			continue
		}
		e.knownTabs[sh.Properties.Title] = true
		if sh.Properties.Title == tab {
			exists = true
		}
	}
	e.mu.Unlock()
	if exists {
		return nil
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{
				Properties: &gsheet.SheetProperties{Title: tab},
			},
		}},
	}
	if _, err := e.svc.Spreadsheets.BatchUpdate(e.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %q: %w", tab, err)
	}

	e.mu.Lock()
	e.knownTabs[tab] = true
	e.mu.Unlock()

	e.logger.InfoContext(ctx, "Created sheet tab", log.FieldSheetTab, tab)
	return nil
}

// ForgetTabs drops the remembered tab titles, e.g. after a tab was deleted by hand.
func (e *Exporter) ForgetTabs() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.knownTabs = map[string]bool{}
}

// a1Range quotes a tab title for A1 notation.
func a1Range(tab, cells string) string {
	return fmt.Sprintf("'%s'!%s", strings.ReplaceAll(tab, "'", "''"), cells)
}
