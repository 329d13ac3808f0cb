package memory

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/incari/credit-tractor-app-sub000/internal/core"
)

func TestExporter_ExportAndRead(t *testing.T) {
	e := New("")
	ctx := context.Background()

	installments := []core.Installment{
		{PaymentID: "p1", PaymentName: "Laptop", Amount: 100, DueDate: core.NewDate(2024, 2, 15), Currency: "EUR"},
		{PaymentID: "p1", PaymentName: "Laptop", Amount: 100, DueDate: core.NewDate(2024, 3, 15), Currency: "EUR", IsPaid: true, Index: 1},
	}
	if err := e.ExportSchedule(ctx, "u1", installments); err != nil {
		t.Fatalf("ExportSchedule() error = %v", err)
	}

	rows, ok := e.Rows("u1")
	if !ok {
		t.Fatal("Rows() found nothing for u1")
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header plus 2", len(rows))
	}

	// Callers get a copy.
	rows[1][0] = "mutated"
	again, _ := e.Rows("u1")
	if reflect.DeepEqual(again[1], rows[1]) {
		t.Error("Rows() returned shared storage")
	}

	if _, ok := e.Rows("u2"); ok {
		t.Error("Rows() found data for a user never exported")
	}
}

func TestExporter_ReplacesTab(t *testing.T) {
	e := New("Plans")
	ctx := context.Background()

	one := []core.Installment{{PaymentID: "p1", DueDate: core.NewDate(2024, 1, 1)}}
	_ = e.ExportSchedule(ctx, "u1", append(one, one...))
	_ = e.ExportSchedule(ctx, "u1", one)
	_ = e.ExportSchedule(ctx, "u2", nil)

	rows, _ := e.Rows("u1")
	if len(rows) != 2 {
		t.Errorf("rows after re-export = %d, want 2", len(rows))
	}
	if got := e.Tabs(); len(got) != 2 {
		t.Errorf("Tabs() = %v, want 2 tabs", got)
	}
	if e.Exports() != 3 {
		t.Errorf("Exports() = %d, want 3", e.Exports())
	}
}

func TestExporter_CanceledContext(t *testing.T) {
	e := New("")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := e.ExportSchedule(ctx, "u1", nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("ExportSchedule() error = %v, want context.Canceled", err)
	}
	if e.Exports() != 0 {
		t.Error("canceled export was counted")
	}
}
