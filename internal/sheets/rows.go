// Package sheets renders installment schedules as spreadsheet rows. The
// google and memory subpackages write those rows somewhere.
package sheets

import (
	"fmt"
	"math"
	"sort"

	"github.com/incari/credit-tractor-app-sub000/internal/core"
)

// Header is the first row of every exported tab.
var Header = []any{"Payment", "Installment", "Due date", "Amount", "Formatted", "Paid", "Card", "Currency"}

// Columns is the A1 column span covered by Header.
const Columns = "A:H"

// TabName is the per-user tab title.
func TabName(base, userID string) string {
	return fmt.Sprintf("%s %s", base, userID)
}

// Rows returns Header followed by one row per installment in due-date order.
// The input slice is not modified.
func Rows(installments []core.Installment) [][]any {
	sorted := append([]core.Installment(nil), installments...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].DueDate.Before(sorted[j].DueDate)
	})

	rows := make([][]any, 0, len(sorted)+1)
	rows = append(rows, Header)
	for _, inst := range sorted {
		rows = append(rows, []any{
			inst.PaymentName,
			inst.Index + 1,
			inst.DueDate.String(),
			math.Round(inst.Amount*100) / 100,
			core.FormatAmount(inst.Amount, inst.Currency),
			inst.IsPaid,
			inst.CreditCard,
			inst.Currency,
		})
	}
	return rows
}
