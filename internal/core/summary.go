package core

// Summary holds plan level totals across a set of payments.
type Summary struct {
	TotalAmount float64 `json:"total_amount"`
	TotalPaid   float64 `json:"total_paid"`
	TotalToPay  float64 `json:"total_to_pay"`
}

// Summarize reduces payments into totals. The initial payment counts towards
// TotalPaid only through its index 0 installment, never on top of it.
func Summarize(payments []Payment) Summary {
	var s Summary
	for _, p := range payments {
		s.TotalAmount += p.TotalWithInterest()
		for _, inst := range GenerateSchedule(p) {
			if inst.IsPaid {
				s.TotalPaid += inst.Amount
			}
		}
	}
	s.TotalToPay = s.TotalAmount - s.TotalPaid
	return s
}

// MonthTotal is a compact summary of installments due in one calendar month.
type MonthTotal struct {
	Year   int     `json:"year"`
	Month  int     `json:"month"` // 1-12
	Total  float64 `json:"total"`
	Paid   float64 `json:"paid"`
	Unpaid float64 `json:"unpaid"`
	Count  int     `json:"count"`
}
