package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/incari/credit-tractor-app-sub000/internal/config"
	"github.com/incari/credit-tractor-app-sub000/internal/log"
)

func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger(&config.Config{LogLevel: "warn"}, log.ComponentWorker, &buf)

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info record written at warn level")
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "component=worker") {
		t.Errorf("output = %q", out)
	}
	if logger.Component() != log.ComponentWorker {
		t.Errorf("Component() = %q", logger.Component())
	}
}

func TestSetupLogger_BadLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger(&config.Config{LogLevel: "loud"}, log.ComponentApp, &buf)
	logger.Info("visible")
	logger.Debug("invisible")
	if !strings.Contains(buf.String(), "visible") || strings.Contains(buf.String(), "invisible") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestOpenBackend(t *testing.T) {
	ctx := context.Background()

	result, err := OpenBackend(ctx, &config.Config{DataBackend: "memory"}, log.Discard())
	if err != nil {
		t.Fatalf("OpenBackend(memory) error = %v", err)
	}
	defer result.Cleanup()
	if users, err := result.Store.ListUsers(ctx); err != nil || len(users) != 0 {
		t.Errorf("ListUsers() = %v, %v", users, err)
	}

	if _, err := OpenBackend(ctx, &config.Config{DataBackend: "postgres"}, log.Discard()); err == nil {
		t.Error("OpenBackend(postgres) should fail")
	}

	path := t.TempDir() + "/tracker.db"
	sqlite, err := OpenBackend(ctx, &config.Config{DataBackend: "sqlite", SQLiteDBPath: path}, log.Discard())
	if err != nil {
		t.Fatalf("OpenBackend(sqlite) error = %v", err)
	}
	if err := sqlite.Cleanup(); err != nil {
		t.Errorf("Cleanup() error = %v", err)
	}
}
