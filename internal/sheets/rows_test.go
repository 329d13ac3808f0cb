package sheets

import (
	"testing"

	"github.com/incari/credit-tractor-app-sub000/internal/core"
)

func TestRows(t *testing.T) {
	installments := []core.Installment{
		{PaymentName: "tv", Index: 1, Amount: 33.333333, DueDate: core.NewDate(2024, 3, 1), Currency: "USD"},
		{PaymentName: "tv", Index: 0, Amount: 33.333333, DueDate: core.NewDate(2024, 2, 1), Currency: "USD", IsPaid: true, CreditCard: "4242"},
	}

	rows := Rows(installments)
	if len(rows) != 3 {
		t.Fatalf("Rows() returned %d rows, want 3", len(rows))
	}
	if rows[0][0] != "Payment" || len(rows[0]) != 8 {
		t.Errorf("header = %v", rows[0])
	}

	first := rows[1]
	if first[1] != 1 || first[2] != "2024-02-01" || first[3] != 33.33 || first[4] != "$33.33" || first[5] != true || first[6] != "4242" {
		t.Errorf("first data row = %v", first)
	}
	if rows[2][2] != "2024-03-01" {
		t.Errorf("rows not in due-date order: %v", rows[2])
	}
	if installments[0].Index != 1 {
		t.Error("input slice was reordered")
	}
}

func TestRows_Empty(t *testing.T) {
	if rows := Rows(nil); len(rows) != 1 {
		t.Errorf("Rows(nil) = %v, want header only", rows)
	}
}

func TestTabName(t *testing.T) {
	if got := TabName("Installments", "u1"); got != "Installments u1" {
		t.Errorf("TabName() = %q", got)
	}
}
