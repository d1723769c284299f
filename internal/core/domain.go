package core

import (
	"errors"
	"strings"
)

type (
	// Color is one of the fixed palette values a category can be painted with.
	Color string

	// Category groups expenses under a user-chosen name and palette color.
	// The name is unique per owner, case-sensitive.
	Category struct {
		ID     string
		UserID string
		Name   string
		Color  Color
	}

	// Expense is a single recorded amount in integer cents. It references its
	// Category and Day by id only; it owns neither.
	Expense struct {
		ID          string
		UserID      string
		CategoryID  string
		DayID       string
		AmountCents int64
	}

	// Day is the per-user, per-calendar-date bucket that owns zero or more
	// expenses. The date is stored as discrete integers (month index 0-11,
	// day of month, year) so no timezone normalization is ever needed.
	Day struct {
		ID       string
		UserID   string
		Month    int // 0-11
		Day      int // 1-31
		Year     int
		Expenses []Expense
	}

	// DMY is a calendar date as discrete (year, month-index, day) integers.
	DMY struct {
		Year  int
		Month int // 0-11
		Day   int
	}
)

// DefaultColor is assigned when a category is created without one.
const DefaultColor Color = "pink"

// Palette is the fixed set of category colors.
var Palette = []Color{
	"rose", "pink", "fuchsia", "purple", "violet", "indigo",
	"blue", "sky", "cyan", "teal", "emerald", "green",
	"lime", "yellow", "amber", "orange", "red", "slate",
}

var (
	ErrAmountFormat = errors.New("invalid amount format")
	ErrInvalidColor = errors.New("color not in palette")
	ErrEmptyName    = errors.New("empty category name")
	ErrInvalidDate  = errors.New("invalid date")
	ErrNotFound     = errors.New("not found")
	ErrPersistence  = errors.New("storage reported no rows affected")
)

// Valid reports whether c is one of the palette colors.
func (c Color) Valid() bool {
	for _, p := range Palette {
		if c == p {
			return true
		}
	}
	return false
}

func (d DMY) Validate() error {
	if d.Month < 0 || d.Month > 11 {
		return ErrInvalidDate
	}
	if d.Day < 1 || d.Day > 31 {
		return ErrInvalidDate
	}
	return nil
}

// Date returns the day's calendar date.
func (d Day) Date() DMY {
	return DMY{Year: d.Year, Month: d.Month, Day: d.Day}
}

func ValidateCategoryName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	return nil
}
