package ledger

import (
	"context"

	"basil/internal/core"
)

// Store is the storage collaborator the ledger drives. Every call is scoped
// to one owner; implementations must never leak rows across users.
//
// Lookup methods return a nil pointer, not an error, when nothing matches.
// Delete methods return the number of rows removed so callers can tell an
// absent target from a storage failure.
type Store interface {
	FindDay(ctx context.Context, userID string, monthIdx, day, year int) (*core.Day, error)
	CreateDay(ctx context.Context, userID string, monthIdx, day, year int) (*core.Day, error)
	DeleteDay(ctx context.Context, id, userID string) (int64, error)

	CreateExpense(ctx context.Context, userID, categoryID, dayID string, amountCents int64) (*core.Expense, error)
	DeleteExpense(ctx context.Context, id, userID string) (*core.Expense, error)
	FindExpensesByDay(ctx context.Context, dayID string) ([]core.Expense, error)

	// FindDaysInYearRange returns every day bucket in the inclusive
	// [fromYear, toYear] span, each with its nested expenses.
	FindDaysInYearRange(ctx context.Context, userID string, fromYear, toYear int) ([]core.Day, error)

	FindCategories(ctx context.Context, userID string) ([]core.Category, error)
	CreateCategory(ctx context.Context, userID, name string, color core.Color) (*core.Category, error)
	UpdateCategory(ctx context.Context, id, userID, name string, color core.Color) (*core.Category, error)
	// DeleteCategory cascades to the category's expenses; the cascade is
	// the storage's foreign keys, not ledger code.
	DeleteCategory(ctx context.Context, id, userID string) (int64, error)
}

// EventPublisher receives expense lifecycle notifications. Publishing is
// best effort: the ledger never fails an operation over a publish error.
type EventPublisher interface {
	PublishExpenseCreated(ctx context.Context, id, userID string) error
	PublishExpenseDeleted(ctx context.Context, id, userID string) error
}
