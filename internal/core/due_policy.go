// This file implements the due-date placement policies. Each schedule type has
// its own policy that decides on which calendar day an amortized installment
// falls, given how many months it sits after the first payment date.

package core

import "time"

// DuePolicy places one amortized installment on the calendar.
type DuePolicy interface {
	// DueDate returns the due date for the installment monthOffset months after
	// the anchor month. afterInitial is true for the first amortized
	// installment directly following an initial payment.
	DueDate(first Date, monthOffset int, afterInitial bool) Date
}

// MonthlyPolicy keeps the day of month of the first payment date.
type MonthlyPolicy struct{}

// DueDate clamps to the last day of the target month when the day is missing.
func (MonthlyPolicy) DueDate(first Date, monthOffset int, _ bool) Date {
	return clampedDay(first.Year(), first.Month()+monthOffset, first.Day())
}

// BeginningPolicy places installments on the 1st of the month.
type BeginningPolicy struct{}

func (BeginningPolicy) DueDate(first Date, monthOffset int, _ bool) Date {
	return NewDate(first.Year(), first.Month()+monthOffset, 1)
}

// EndingPolicy places installments on the last day of the month.
type EndingPolicy struct{}

func (EndingPolicy) DueDate(first Date, monthOffset int, afterInitial bool) Date {
	if afterInitial {
		return lastDayOf(first.Year(), first.Month()+1)
	}
	return lastDayOf(first.Year(), first.Month()+monthOffset)
}

// CustomDayPolicy places installments on a configured day, clamped to month end.
type CustomDayPolicy struct {
	Day int
}

func (p CustomDayPolicy) DueDate(first Date, monthOffset int, _ bool) Date {
	return clampedDay(first.Year(), first.Month()+monthOffset, p.Day)
}

// PolicyFor returns the due-date policy of a payment. Unknown or missing
// types fall back to the monthly policy so generation stays total.
func PolicyFor(p Payment) DuePolicy {
	switch p.Type {
	case Monthly:
		return MonthlyPolicy{}
	case Beginning:
		return BeginningPolicy{}
	case Ending:
		return EndingPolicy{}
	case Custom:
		return CustomDayPolicy{Day: p.CustomDayOfMonth}
	default:
		return MonthlyPolicy{}
	}
}

// lastDayOf returns the last day of a month. month may overflow 1..12;
// time.Date normalizes it. Day 0 of the following month is the last day of
// this one.
func lastDayOf(year, month int) Date {
	return Date{Time: time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC)}
}

// clampedDay returns day in the given month, or the month's last day when the
// month is shorter.
func clampedDay(year, month, day int) Date {
	last := lastDayOf(year, month)
	if day > last.Day() {
		return last
	}
	if day < 1 {
		day = 1
	}
	return NewDate(last.Year(), last.Month(), day)
}
