package core

import "testing"

func TestAggregateSelectedSubset(t *testing.T) {
	categories := []Category{
		{ID: "a", Name: "Groceries", Color: "emerald"},
		{ID: "b", Name: "Rent", Color: "blue"},
	}
	days := []Day{
		{ID: "d1", Year: 2024, Month: 0, Day: 1, Expenses: []Expense{
			{ID: "e1", CategoryID: "a", DayID: "d1", AmountCents: 100},
			{ID: "e2", CategoryID: "a", DayID: "d1", AmountCents: 200},
		}},
		{ID: "d2", Year: 2024, Month: 0, Day: 2, Expenses: []Expense{
			{ID: "e3", CategoryID: "b", DayID: "d2", AmountCents: 300},
		}},
	}

	got := Aggregate(days, categories, map[string]bool{"a": true})

	if got.GlobalTotalCents != 300 {
		t.Fatalf("global total = %d, want 300", got.GlobalTotalCents)
	}
	if len(got.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got.Rows))
	}

	a := got.Rows[0]
	if a.CategoryID != "a" || a.TotalCents != 300 {
		t.Fatalf("row a = %+v", a)
	}
	if !a.ShareKnown || a.Share != 1.0 {
		t.Fatalf("row a share = %v (known=%v), want 1.0", a.Share, a.ShareKnown)
	}

	b := got.Rows[1]
	if b.CategoryID != "b" || b.TotalCents != 300 {
		t.Fatalf("row b = %+v", b)
	}
	if b.ShareKnown {
		t.Fatal("unselected category must not carry a share")
	}
	if b.Name != "Rent" || b.Color != "blue" {
		t.Fatalf("row b lost its category attributes: %+v", b)
	}
}

func TestAggregateFirstSeenOrder(t *testing.T) {
	days := []Day{
		{Expenses: []Expense{
			{CategoryID: "c", AmountCents: 1},
			{CategoryID: "a", AmountCents: 1},
		}},
		{Expenses: []Expense{
			{CategoryID: "b", AmountCents: 1},
			{CategoryID: "a", AmountCents: 1},
		}},
	}
	got := Aggregate(days, nil, nil)
	want := []string{"c", "a", "b"}
	if len(got.Rows) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(got.Rows))
	}
	for i, id := range want {
		if got.Rows[i].CategoryID != id {
			t.Fatalf("row %d = %q, want %q", i, got.Rows[i].CategoryID, id)
		}
	}
}

func TestAggregateZeroGlobalTotal(t *testing.T) {
	days := []Day{
		{Expenses: []Expense{{CategoryID: "a", AmountCents: 500}}},
	}
	// Nothing selected: totals survive, shares are all omitted.
	got := Aggregate(days, nil, map[string]bool{})
	if got.GlobalTotalCents != 0 {
		t.Fatalf("global total = %d, want 0", got.GlobalTotalCents)
	}
	for _, r := range got.Rows {
		if r.ShareKnown {
			t.Fatalf("share must be omitted when the selected total is zero: %+v", r)
		}
	}
}

func TestFormatSharePercent(t *testing.T) {
	cases := []struct {
		total, global int64
		want          string
	}{
		{300, 300, "100"},
		{150, 300, "50"},
		{100, 300, "33.33"}, // truncated, not rounded
		{200, 300, "66.66"},
		{1, 300, "0.33"},
		{1, 10000, "0.01"},
		{1, 100000, "0"},
		{0, 300, "0"},
		{300, 0, ""},
	}
	for _, tc := range cases {
		if got := FormatSharePercent(tc.total, tc.global); got != tc.want {
			t.Errorf("FormatSharePercent(%d, %d) = %q, want %q", tc.total, tc.global, got, tc.want)
		}
	}
}
