// Package core holds the payment plan engine: schedule generation, summaries
// and card utilization. Nothing in this package performs I/O or reads the clock.
package core

// GenerateSchedule expands a payment into its installments, ordered by index.
//
// The amortized remainder (total with interest minus the initial payment) is
// split flat across the remaining installments. A positive initial payment
// takes index 0 and is due on the first payment date itself. Without an
// initial payment every installment is pushed one month later, so index 0 is
// due one month after the first payment date.
func GenerateSchedule(p Payment) []Installment {
	if p.Installments < 1 {
		return nil
	}

	hasInitial := p.InitialPayment > 0
	remainingAmount := p.TotalWithInterest() - p.InitialPayment
	remainingInstallments := p.Installments
	if hasInitial {
		remainingInstallments--
	}

	var installmentAmount float64
	if remainingInstallments > 0 {
		installmentAmount = remainingAmount / float64(remainingInstallments)
	}

	out := make([]Installment, 0, p.Installments)
	start := 0
	if hasInitial {
		out = append(out, p.installment(0, p.InitialPayment, p.FirstPaymentDate))
		start = 1
	}

	policy := PolicyFor(p)
	for i := start; i < p.Installments; i++ {
		monthOffset := i + 1
		if hasInitial {
			monthOffset = i
		}
		due := policy.DueDate(p.FirstPaymentDate, monthOffset, hasInitial && i == 1)
		out = append(out, p.installment(i, installmentAmount, due))
	}

	return out
}

// ScheduleFor flattens the schedules of several payments, keeping each
// payment's installments together in input order.
func ScheduleFor(payments []Payment) []Installment {
	var out []Installment
	for _, p := range payments {
		out = append(out, GenerateSchedule(p)...)
	}
	return out
}

func (p Payment) installment(index int, amount float64, due Date) Installment {
	return Installment{
		PaymentID:   p.ID,
		PaymentName: p.Name,
		Amount:      amount,
		DueDate:     due,
		IsPaid:      p.IsPaid(index),
		CreditCard:  p.CreditCard,
		Currency:    p.Currency,
		Index:       index,
	}
}
