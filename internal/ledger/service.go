// Package ledger implements day-bucket resolution and the expense/category
// lifecycle on top of a storage collaborator.
package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"basil/internal/core"
)

// Service orchestrates ledger operations across storage and the optional
// event publisher.
type Service struct {
	store  Store
	events EventPublisher
}

func NewService(store Store, events EventPublisher) *Service {
	return &Service{store: store, events: events}
}

// ResolveDay finds the unique day bucket for (owner, date), creating it when
// no expense has been recorded on that date yet.
func (s *Service) ResolveDay(ctx context.Context, userID string, date core.DMY) (*core.Day, error) {
	if err := date.Validate(); err != nil {
		return nil, err
	}
	day, err := s.store.FindDay(ctx, userID, date.Month, date.Day, date.Year)
	if err != nil {
		return nil, fmt.Errorf("find day: %w", err)
	}
	if day != nil {
		return day, nil
	}
	day, err = s.store.CreateDay(ctx, userID, date.Month, date.Day, date.Year)
	if err != nil {
		return nil, fmt.Errorf("create day: %w", err)
	}
	if day == nil {
		return nil, fmt.Errorf("create day (%d-%d-%d): %w", date.Month, date.Day, date.Year, core.ErrPersistence)
	}
	return day, nil
}

// RecordExpense validates the typed amount, resolves the day bucket and
// inserts the expense. The day always exists before the expense insert is
// attempted; a failed day creation aborts without touching expenses.
func (s *Service) RecordExpense(ctx context.Context, userID, categoryID, amount string, date core.DMY) (*core.Expense, error) {
	if core.IsZeroAmount(amount) {
		return nil, fmt.Errorf("amount %q: %w", amount, core.ErrAmountFormat)
	}
	cents, err := core.ToCents(amount)
	if err != nil {
		return nil, err
	}

	day, err := s.ResolveDay(ctx, userID, date)
	if err != nil {
		return nil, err
	}

	expense, err := s.store.CreateExpense(ctx, userID, categoryID, day.ID, cents)
	if err != nil {
		return nil, fmt.Errorf("create expense: %w", err)
	}
	if expense == nil {
		return nil, fmt.Errorf("create expense: %w", core.ErrPersistence)
	}

	if err := s.publishCreated(ctx, expense.ID, userID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish expense created event",
			"id", expense.ID, "error", err)
		// Expense is saved; the event stream is best effort.
	}
	return expense, nil
}

// DeleteExpense removes the expense owned by userID and, when it was the
// day's last expense, removes the now-empty day bucket. A failed day
// cleanup leaves an inert empty day behind; that is logged and tolerated,
// never surfaced.
func (s *Service) DeleteExpense(ctx context.Context, id, userID string) (*core.Expense, error) {
	deleted, err := s.store.DeleteExpense(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("delete expense: %w", err)
	}
	if deleted == nil {
		return nil, fmt.Errorf("expense %s: %w", id, core.ErrNotFound)
	}

	remaining, err := s.store.FindExpensesByDay(ctx, deleted.DayID)
	if err != nil {
		slog.WarnContext(ctx, "Could not check day for remaining expenses, leaving day in place",
			"day_id", deleted.DayID, "error", err)
	} else if len(remaining) == 0 {
		if _, err := s.store.DeleteDay(ctx, deleted.DayID, userID); err != nil {
			slog.WarnContext(ctx, "Failed to delete empty day, orphan day left behind",
				"day_id", deleted.DayID, "error", err)
		}
	}

	if err := s.publishDeleted(ctx, deleted.ID, userID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish expense deleted event",
			"id", deleted.ID, "error", err)
	}
	return deleted, nil
}

// DaysInYearRange is the bulk year-bounded fetch the window cache runs on.
func (s *Service) DaysInYearRange(ctx context.Context, userID string, fromYear, toYear int) ([]core.Day, error) {
	days, err := s.store.FindDaysInYearRange(ctx, userID, fromYear, toYear)
	if err != nil {
		return nil, fmt.Errorf("find days in year range [%d, %d]: %w", fromYear, toYear, err)
	}
	return days, nil
}

func (s *Service) Categories(ctx context.Context, userID string) ([]core.Category, error) {
	cats, err := s.store.FindCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find categories: %w", err)
	}
	return cats, nil
}

func (s *Service) CreateCategory(ctx context.Context, userID, name string, color core.Color) (*core.Category, error) {
	if err := core.ValidateCategoryName(name); err != nil {
		return nil, err
	}
	if !color.Valid() {
		return nil, fmt.Errorf("color %q: %w", color, core.ErrInvalidColor)
	}
	cat, err := s.store.CreateCategory(ctx, userID, name, color)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	if cat == nil {
		return nil, fmt.Errorf("create category: %w", core.ErrPersistence)
	}
	return cat, nil
}

func (s *Service) UpdateCategory(ctx context.Context, id, userID, name string, color core.Color) (*core.Category, error) {
	if err := core.ValidateCategoryName(name); err != nil {
		return nil, err
	}
	if !color.Valid() {
		return nil, fmt.Errorf("color %q: %w", color, core.ErrInvalidColor)
	}
	cat, err := s.store.UpdateCategory(ctx, id, userID, name, color)
	if err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	if cat == nil {
		return nil, fmt.Errorf("category %s: %w", id, core.ErrNotFound)
	}
	return cat, nil
}

// DeleteCategory removes the category; its expenses go with it via the
// storage's cascade. Day buckets emptied by the cascade stay behind as
// inert rows until their date is reused.
func (s *Service) DeleteCategory(ctx context.Context, id, userID string) error {
	n, err := s.store.DeleteCategory(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("category %s: %w", id, core.ErrNotFound)
	}
	return nil
}

func (s *Service) publishCreated(ctx context.Context, id, userID string) error {
	if s.events == nil {
		return nil
	}
	return s.events.PublishExpenseCreated(ctx, id, userID)
}

func (s *Service) publishDeleted(ctx context.Context, id, userID string) error {
	if s.events == nil {
		return nil
	}
	return s.events.PublishExpenseDeleted(ctx, id, userID)
}
