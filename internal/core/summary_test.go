package core

import (
	"math"
	"testing"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name     string
		payments []Payment
		want     Summary
	}{
		{
			name: "no payments",
			want: Summary{},
		},
		{
			name: "nothing paid",
			payments: []Payment{
				{Name: "a", Price: 300, Installments: 3, FirstPaymentDate: NewDate(2024, 1, 15), Type: Monthly, Currency: "USD"},
			},
			want: Summary{TotalAmount: 300, TotalPaid: 0, TotalToPay: 300},
		},
		{
			name: "interest applied once",
			payments: []Payment{
				{Name: "a", Price: 1000, InterestRate: 10, Installments: 2, FirstPaymentDate: NewDate(2024, 1, 15), Type: Monthly, Currency: "USD",
					PaidInstallments: NewIndexSet(0)},
			},
			want: Summary{TotalAmount: 1100, TotalPaid: 550, TotalToPay: 550},
		},
		{
			name: "initial payment counted once",
			payments: []Payment{
				{Name: "a", Price: 300, InitialPayment: 60, Installments: 3, FirstPaymentDate: NewDate(2024, 1, 15), Type: Beginning, Currency: "USD",
					PaidInstallments: NewIndexSet(0, 1)},
			},
			want: Summary{TotalAmount: 300, TotalPaid: 180, TotalToPay: 120},
		},
		{
			name: "unpaid initial payment is not paid",
			payments: []Payment{
				{Name: "a", Price: 300, InitialPayment: 60, Installments: 3, FirstPaymentDate: NewDate(2024, 1, 15), Type: Beginning, Currency: "USD"},
			},
			want: Summary{TotalAmount: 300, TotalPaid: 0, TotalToPay: 300},
		},
		{
			name: "several payments",
			payments: []Payment{
				{Name: "a", Price: 300, Installments: 3, FirstPaymentDate: NewDate(2024, 1, 15), Type: Monthly, Currency: "USD",
					PaidInstallments: NewIndexSet(0, 1, 2)},
				{Name: "b", Price: 200, Installments: 4, FirstPaymentDate: NewDate(2024, 1, 15), Type: Ending, Currency: "EUR",
					PaidInstallments: NewIndexSet(3)},
			},
			want: Summary{TotalAmount: 500, TotalPaid: 350, TotalToPay: 150},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(tt.payments)
			if !approx(got.TotalAmount, tt.want.TotalAmount) ||
				!approx(got.TotalPaid, tt.want.TotalPaid) ||
				!approx(got.TotalToPay, tt.want.TotalToPay) {
				t.Errorf("Summarize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSummarize_Stable(t *testing.T) {
	payments := []Payment{
		{Name: "a", Price: 99.99, InterestRate: 3.5, Installments: 7, FirstPaymentDate: NewDate(2024, 2, 29), Type: Custom, CustomDayOfMonth: 31, Currency: "GBP",
			PaidInstallments: NewIndexSet(2, 4)},
	}
	first := Summarize(payments)
	for i := 0; i < 5; i++ {
		if got := Summarize(payments); got != first {
			t.Fatalf("call %d returned %+v, first call %+v", i, got, first)
		}
	}
}
