package core

import "sort"

// Buckets splits installments by payment state relative to a reference day.
type Buckets struct {
	Paid     []Installment `json:"paid"`
	Overdue  []Installment `json:"overdue"`
	Upcoming []Installment `json:"upcoming"`
}

// Bucket sorts installments into paid, overdue (unpaid and due before today)
// and upcoming (unpaid and due today or later). Each bucket is ordered by due
// date. today is supplied by the caller; the engine never reads the clock.
func Bucket(installments []Installment, today Date) Buckets {
	var b Buckets
	for _, inst := range installments {
		switch {
		case inst.IsPaid:
			b.Paid = append(b.Paid, inst)
		case inst.DueDate.Before(today):
			b.Overdue = append(b.Overdue, inst)
		default:
			b.Upcoming = append(b.Upcoming, inst)
		}
	}
	sortByDue(b.Paid)
	sortByDue(b.Overdue)
	sortByDue(b.Upcoming)
	return b
}

// DueWithin returns unpaid installments due between today and today+days,
// both inclusive, ordered by due date.
func DueWithin(installments []Installment, today Date, days int) []Installment {
	until := today.AddDays(days)
	var out []Installment
	for _, inst := range installments {
		if inst.IsPaid || inst.DueDate.Before(today) || until.Before(inst.DueDate) {
			continue
		}
		out = append(out, inst)
	}
	sortByDue(out)
	return out
}

// MonthlyTotals aggregates installments per calendar month for months
// consecutive months starting at from's month. Installments outside the window
// are ignored.
func MonthlyTotals(installments []Installment, from Date, months int) []MonthTotal {
	if months < 1 {
		return nil
	}
	out := make([]MonthTotal, months)
	for i := range out {
		first := NewDate(from.Year(), from.Month()+i, 1)
		out[i] = MonthTotal{Year: first.Year(), Month: first.Month()}
	}

	base := from.Year()*12 + from.Month() - 1
	for _, inst := range installments {
		idx := inst.DueDate.Year()*12 + inst.DueDate.Month() - 1 - base
		if idx < 0 || idx >= months {
			continue
		}
		mt := &out[idx]
		mt.Total += inst.Amount
		mt.Count++
		if inst.IsPaid {
			mt.Paid += inst.Amount
		} else {
			mt.Unpaid += inst.Amount
		}
	}
	return out
}

func sortByDue(installments []Installment) {
	sort.SliceStable(installments, func(i, j int) bool {
		return installments[i].DueDate.Before(installments[j].DueDate)
	})
}
