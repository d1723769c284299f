package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"basil/internal/core"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "basil_test.db"))
	require.NoError(t, err, "failed to open test database")
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestDayUniquePerOwnerAndDate(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	d1, err := repo.CreateDay(ctx, "u1", 2, 14, 2024)
	require.NoError(t, err)
	require.NotNil(t, d1)

	// Same (owner, month, day, year) again violates the unique index.
	_, err = repo.CreateDay(ctx, "u1", 2, 14, 2024)
	assert.Error(t, err)

	// Same date for another owner is a different bucket.
	d2, err := repo.CreateDay(ctx, "u2", 2, 14, 2024)
	require.NoError(t, err)
	assert.NotEqual(t, d1.ID, d2.ID)

	found, err := repo.FindDay(ctx, "u1", 2, 14, 2024)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, d1.ID, found.ID)

	missing, err := repo.FindDay(ctx, "u1", 2, 15, 2024)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestExpenseLifecycle(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	cat, err := repo.CreateCategory(ctx, "u1", "Groceries", "emerald")
	require.NoError(t, err)
	day, err := repo.CreateDay(ctx, "u1", 0, 2, 2024)
	require.NoError(t, err)

	exp, err := repo.CreateExpense(ctx, "u1", cat.ID, day.ID, 1250)
	require.NoError(t, err)
	assert.Equal(t, int64(1250), exp.AmountCents)

	byDay, err := repo.FindExpensesByDay(ctx, day.ID)
	require.NoError(t, err)
	require.Len(t, byDay, 1)

	// Wrong owner cannot delete.
	gone, err := repo.DeleteExpense(ctx, exp.ID, "u2")
	require.NoError(t, err)
	assert.Nil(t, gone)

	gone, err = repo.DeleteExpense(ctx, exp.ID, "u1")
	require.NoError(t, err)
	require.NotNil(t, gone)
	assert.Equal(t, exp.ID, gone.ID)
	assert.Equal(t, day.ID, gone.DayID)

	byDay, err = repo.FindExpensesByDay(ctx, day.ID)
	require.NoError(t, err)
	assert.Empty(t, byDay)
}

func TestFindDaysInYearRangeNestsExpenses(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	cat, err := repo.CreateCategory(ctx, "u1", "Rent", "blue")
	require.NoError(t, err)

	d2023, err := repo.CreateDay(ctx, "u1", 11, 31, 2023)
	require.NoError(t, err)
	d2024, err := repo.CreateDay(ctx, "u1", 0, 1, 2024)
	require.NoError(t, err)
	_, err = repo.CreateDay(ctx, "u1", 0, 1, 2020) // outside the span
	require.NoError(t, err)

	_, err = repo.CreateExpense(ctx, "u1", cat.ID, d2023.ID, 100)
	require.NoError(t, err)
	_, err = repo.CreateExpense(ctx, "u1", cat.ID, d2024.ID, 200)
	require.NoError(t, err)
	_, err = repo.CreateExpense(ctx, "u1", cat.ID, d2024.ID, 300)
	require.NoError(t, err)

	// Another user's day in the same span stays invisible.
	other, err := repo.CreateDay(ctx, "u2", 5, 5, 2023)
	require.NoError(t, err)
	_, err = repo.CreateExpense(ctx, "u2", cat.ID, other.ID, 999)
	require.NoError(t, err)

	days, err := repo.FindDaysInYearRange(ctx, "u1", 2023, 2024)
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, d2023.ID, days[0].ID)
	require.Len(t, days[0].Expenses, 1)
	assert.Equal(t, d2024.ID, days[1].ID)
	require.Len(t, days[1].Expenses, 2)
}

func TestCategoryCascadeDeletesExpenses(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	cat, err := repo.CreateCategory(ctx, "u1", "Travel", "sky")
	require.NoError(t, err)
	keep, err := repo.CreateCategory(ctx, "u1", "Food", "lime")
	require.NoError(t, err)

	day, err := repo.CreateDay(ctx, "u1", 6, 4, 2024)
	require.NoError(t, err)
	_, err = repo.CreateExpense(ctx, "u1", cat.ID, day.ID, 5000)
	require.NoError(t, err)
	kept, err := repo.CreateExpense(ctx, "u1", keep.ID, day.ID, 700)
	require.NoError(t, err)

	n, err := repo.DeleteCategory(ctx, cat.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	left, err := repo.FindExpensesByDay(ctx, day.ID)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, kept.ID, left[0].ID)

	// Deleting again reports zero rows.
	n, err = repo.DeleteCategory(ctx, cat.ID, "u1")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUpdateCategory(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	cat, err := repo.CreateCategory(ctx, "u1", "Misc", "slate")
	require.NoError(t, err)

	updated, err := repo.UpdateCategory(ctx, cat.ID, "u1", "Other", "amber")
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "Other", updated.Name)
	assert.Equal(t, core.Color("amber"), updated.Color)

	missing, err := repo.UpdateCategory(ctx, cat.ID, "u2", "Nope", "amber")
	require.NoError(t, err)
	assert.Nil(t, missing)

	cats, err := repo.FindCategories(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "Other", cats[0].Name)
}
