package view

import (
	"expensetracker/internal/core"
)

// DefaultAverageWindowDays is the fixed window for the daily spending
// rate shown on the dashboard.
const DefaultAverageWindowDays = 30

// Total sums all record amounts. Order-independent; an empty list sums
// to zero.
func Total(records []core.ExpenseRecord) core.Money {
	var cents int64
	for _, r := range records {
		cents += r.Amount.Cents
	}
	return core.Money{Cents: cents}
}

// MonthlyTotal sums records dated on or after the first calendar day of
// the month containing ref. Records without a usable date are skipped.
func MonthlyTotal(records []core.ExpenseRecord, ref core.Date) core.Money {
	start := ref.MonthStart()
	var cents int64
	for _, r := range records {
		if r.Date.IsZero() || r.Date.Before(start) {
			continue
		}
		cents += r.Amount.Cents
	}
	return core.Money{Cents: cents}
}

// DailyAverage divides the spend within [ref-windowDays, ref] by
// windowDays. The divisor is the window length, not the number of days
// with records: this is a spending rate, not a per-record average.
func DailyAverage(records []core.ExpenseRecord, ref core.Date, windowDays int) core.Money {
	if windowDays <= 0 {
		return core.Money{}
	}
	start := ref.AddDays(-windowDays)
	var cents int64
	for _, r := range records {
		if r.Date.IsZero() || r.Date.Before(start) || r.Date.After(ref) {
			continue
		}
		cents += r.Amount.Cents
	}
	w := int64(windowDays)
	return core.Money{Cents: (cents + w/2) / w}
}

// Stats bundles the dashboard aggregates.
type Stats struct {
	Total        core.Money
	MonthTotal   core.Money
	DailyAverage core.Money
}

// Summarize computes the dashboard aggregates relative to ref.
func Summarize(records []core.ExpenseRecord, ref core.Date) Stats {
	return Stats{
		Total:        Total(records),
		MonthTotal:   MonthlyTotal(records, ref),
		DailyAverage: DailyAverage(records, ref, DefaultAverageWindowDays),
	}
}
