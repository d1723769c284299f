// Package worker mirrors newly recorded expenses into a Google Sheet by
// consuming ledger events and enriching them from SQLite.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"basil/internal/core"
	"basil/internal/events"
	"basil/internal/export"
	"basil/internal/storage"
)

// ExportWorker handles mirroring of expenses from SQLite to Google Sheets.
type ExportWorker struct {
	storage *storage.Repository
	sheet   *export.Client
}

func NewExportWorker(storage *storage.Repository, sheet *export.Client) *ExportWorker {
	return &ExportWorker{
		storage: storage,
		sheet:   sheet,
	}
}

// HandleEvent processes a single expense event. Created expenses are looked
// up in storage and appended to the sheet; deleted expenses are only logged,
// since exported rows are append-only history.
func (w *ExportWorker) HandleEvent(ctx context.Context, evt *events.ExpenseEvent) error {
	slog.InfoContext(ctx, "Processing expense event",
		"id", evt.ID,
		"action", evt.Action)

	switch evt.Action {
	case events.ActionCreated:
		return w.exportExpense(ctx, evt.ID)
	case events.ActionDeleted:
		slog.InfoContext(ctx, "Expense deleted, sheet row kept as history",
			"id", evt.ID)
		return nil
	default:
		slog.WarnContext(ctx, "Unknown event action, dropping",
			"id", evt.ID,
			"action", evt.Action)
		return nil
	}
}

func (w *ExportWorker) exportExpense(ctx context.Context, id string) error {
	expense, err := w.storage.GetExpense(ctx, id)
	if err != nil {
		// The expense may have been deleted before we got to the event.
		if errors.Is(err, core.ErrNotFound) {
			slog.WarnContext(ctx, "Expense gone before export, skipping", "id", id)
			return nil
		}
		return fmt.Errorf("get expense from storage: %w", err)
	}

	day, err := w.storage.GetDay(ctx, expense.DayID)
	if err != nil {
		return fmt.Errorf("get day from storage: %w", err)
	}

	category, err := w.storage.GetCategory(ctx, expense.CategoryID)
	if err != nil {
		return fmt.Errorf("get category from storage: %w", err)
	}

	if err := w.sheet.AppendExpense(ctx, *expense, *day, category.Name); err != nil {
		return fmt.Errorf("append expense to sheet: %w", err)
	}

	slog.InfoContext(ctx, "Successfully exported expense",
		"id", id,
		"category", category.Name,
		"amount_cents", expense.AmountCents)

	return nil
}
