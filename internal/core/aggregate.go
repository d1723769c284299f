package core

import (
	"fmt"
	"strings"
)

// CategoryTotal is one chart-ready row of a category breakdown.
type CategoryTotal struct {
	CategoryID string
	Name       string
	Color      Color
	TotalCents int64
	// Share is TotalCents over the selected total. It is only meaningful
	// when ShareKnown is true: unselected categories and a zero selected
	// total have no share.
	Share      float64
	ShareKnown bool
}

// Breakdown is the aggregate over a filtered day set.
type Breakdown struct {
	// GlobalTotalCents sums only the expenses of selected categories.
	GlobalTotalCents int64
	// Rows holds one entry per category seen, in first-seen order.
	// Unselected categories keep their totals but no share.
	Rows []CategoryTotal
}

// Aggregate groups every expense of every supplied day by category, sums
// per-category cents and computes each selected category's share of the
// selected total. Rows appear in the order their category is first seen,
// which gives callers a stable base ordering to sort on top of.
func Aggregate(days []Day, categories []Category, selected map[string]bool) Breakdown {
	nameByID := make(map[string]string, len(categories))
	colorByID := make(map[string]Color, len(categories))
	for _, c := range categories {
		nameByID[c.ID] = c.Name
		colorByID[c.ID] = c.Color
	}

	rowByID := make(map[string]int)
	var rows []CategoryTotal
	var globalTotal int64
	for _, d := range days {
		for _, e := range d.Expenses {
			i, ok := rowByID[e.CategoryID]
			if !ok {
				i = len(rows)
				rowByID[e.CategoryID] = i
				rows = append(rows, CategoryTotal{
					CategoryID: e.CategoryID,
					Name:       nameByID[e.CategoryID],
					Color:      colorByID[e.CategoryID],
				})
			}
			rows[i].TotalCents += e.AmountCents
			if selected[e.CategoryID] {
				globalTotal += e.AmountCents
			}
		}
	}

	if globalTotal > 0 {
		for i := range rows {
			if selected[rows[i].CategoryID] {
				rows[i].Share = float64(rows[i].TotalCents) / float64(globalTotal)
				rows[i].ShareKnown = true
			}
		}
	}
	return Breakdown{GlobalTotalCents: globalTotal, Rows: rows}
}

// FormatSharePercent renders a category's share of the selected total as a
// percentage with up to two decimal places. The value is truncated, never
// rounded up, so displayed percentages cannot sum past 100%. Integer
// arithmetic keeps the truncation exact.
func FormatSharePercent(totalCents, globalTotal int64) string {
	if globalTotal <= 0 {
		return ""
	}
	hundredths := totalCents * 10000 / globalTotal
	s := fmt.Sprintf("%d.%02d", hundredths/100, hundredths%100)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	return s
}
