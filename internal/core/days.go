package core

import (
	"fmt"
	"sort"
)

// DaySummary is a list-view row for one day bucket: its total, a display
// date and the day's expenses keyed by category in insertion order.
type DaySummary struct {
	DayID      string
	TotalCents int64
	// DateDisplay is "M-D-YYYY" with a 1-based month.
	DateDisplay string
	// ExpensesByCategory maps category id to that category's expenses for
	// the day, in the order they appear on the day bucket.
	ExpensesByCategory map[string][]Expense
}

// SummarizeDays sorts days latest-first and folds each into a DaySummary.
// The input slice is not modified.
func SummarizeDays(days []Day) []DaySummary {
	sorted := make([]Day, len(days))
	copy(sorted, days)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Year != b.Year {
			return a.Year > b.Year
		}
		if a.Month != b.Month {
			return a.Month > b.Month
		}
		return a.Day > b.Day
	})

	out := make([]DaySummary, 0, len(sorted))
	for _, d := range sorted {
		byCategory := make(map[string][]Expense)
		var total int64
		for _, e := range d.Expenses {
			byCategory[e.CategoryID] = append(byCategory[e.CategoryID], e)
			total += e.AmountCents
		}
		out = append(out, DaySummary{
			DayID:              d.ID,
			TotalCents:         total,
			DateDisplay:        fmt.Sprintf("%d-%d-%d", d.Month+1, d.Day, d.Year),
			ExpensesByCategory: byCategory,
		})
	}
	return out
}
