// Package storage is the SQLite-backed storage collaborator for the ledger.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"basil/internal/core"
	"basil/internal/ledger"
)

// Repository implements ledger.Store on a local SQLite database.
type Repository struct {
	db *sql.DB
}

var _ ledger.Store = (*Repository)(nil)

func NewRepository(dbPath string) (*Repository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	// Foreign keys drive the category -> expense cascade; SQLite wants the
	// pragma per connection.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) FindDay(ctx context.Context, userID string, monthIdx, day, year int) (*core.Day, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, month, day, year FROM day
		 WHERE user_id = ? AND month = ? AND day = ? AND year = ?`,
		userID, monthIdx, day, year)

	var d core.Day
	if err := row.Scan(&d.ID, &d.UserID, &d.Month, &d.Day, &d.Year); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find day: %w", err)
	}
	return &d, nil
}

func (r *Repository) CreateDay(ctx context.Context, userID string, monthIdx, day, year int) (*core.Day, error) {
	d := core.Day{
		ID:     uuid.NewString(),
		UserID: userID,
		Month:  monthIdx,
		Day:    day,
		Year:   year,
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO day (id, user_id, month, day, year) VALUES (?, ?, ?, ?, ?)`,
		d.ID, d.UserID, d.Month, d.Day, d.Year)
	if err != nil {
		return nil, fmt.Errorf("insert day: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, nil
	}

	slog.DebugContext(ctx, "Day bucket created",
		"id", d.ID, "month", d.Month, "day", d.Day, "year", d.Year)
	return &d, nil
}

func (r *Repository) DeleteDay(ctx context.Context, id, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM day WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return 0, fmt.Errorf("delete day: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete day rows affected: %w", err)
	}
	return n, nil
}

func (r *Repository) CreateExpense(ctx context.Context, userID, categoryID, dayID string, amountCents int64) (*core.Expense, error) {
	e := core.Expense{
		ID:          uuid.NewString(),
		UserID:      userID,
		CategoryID:  categoryID,
		DayID:       dayID,
		AmountCents: amountCents,
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO expense (id, user_id, category_id, day_id, amount_cents)
		 VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.CategoryID, e.DayID, e.AmountCents)
	if err != nil {
		return nil, fmt.Errorf("insert expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", e.ID, "amount_cents", e.AmountCents, "day_id", e.DayID)
	return &e, nil
}

func (r *Repository) DeleteExpense(ctx context.Context, id, userID string) (*core.Expense, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT id, user_id, category_id, day_id, amount_cents FROM expense
		 WHERE id = ? AND user_id = ?`, id, userID)
	var e core.Expense
	if err := row.Scan(&e.ID, &e.UserID, &e.CategoryID, &e.DayID, &e.AmountCents); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load expense: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`DELETE FROM expense WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return nil, fmt.Errorf("delete expense: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, nil
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit delete: %w", err)
	}
	return &e, nil
}

func (r *Repository) FindExpensesByDay(ctx context.Context, dayID string) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, category_id, day_id, amount_cents FROM expense
		 WHERE day_id = ? ORDER BY created_at, id`, dayID)
	if err != nil {
		return nil, fmt.Errorf("query expenses by day: %w", err)
	}
	defer rows.Close()
	return scanExpenses(rows)
}

// FindDaysInYearRange loads every day bucket of the inclusive year span with
// its nested expenses. This is the window cache's bulk fetch.
func (r *Repository) FindDaysInYearRange(ctx context.Context, userID string, fromYear, toYear int) ([]core.Day, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, month, day, year FROM day
		 WHERE user_id = ? AND year >= ? AND year <= ?
		 ORDER BY year, month, day`,
		userID, fromYear, toYear)
	if err != nil {
		return nil, fmt.Errorf("query days in year range: %w", err)
	}
	defer rows.Close()

	var days []core.Day
	index := make(map[string]int)
	for rows.Next() {
		var d core.Day
		if err := rows.Scan(&d.ID, &d.UserID, &d.Month, &d.Day, &d.Year); err != nil {
			return nil, fmt.Errorf("scan day: %w", err)
		}
		index[d.ID] = len(days)
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate days: %w", err)
	}

	expRows, err := r.db.QueryContext(ctx,
		`SELECT e.id, e.user_id, e.category_id, e.day_id, e.amount_cents
		 FROM expense e JOIN day d ON e.day_id = d.id
		 WHERE d.user_id = ? AND d.year >= ? AND d.year <= ?
		 ORDER BY e.created_at, e.id`,
		userID, fromYear, toYear)
	if err != nil {
		return nil, fmt.Errorf("query expenses in year range: %w", err)
	}
	defer expRows.Close()

	expenses, err := scanExpenses(expRows)
	if err != nil {
		return nil, err
	}
	for _, e := range expenses {
		if i, ok := index[e.DayID]; ok {
			days[i].Expenses = append(days[i].Expenses, e)
		}
	}
	return days, nil
}

func (r *Repository) FindCategories(ctx context.Context, userID string) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, color FROM expense_category
		 WHERE user_id = ? ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var cats []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Color); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return cats, nil
}

func (r *Repository) CreateCategory(ctx context.Context, userID, name string, color core.Color) (*core.Category, error) {
	c := core.Category{
		ID:     uuid.NewString(),
		UserID: userID,
		Name:   name,
		Color:  color,
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO expense_category (id, user_id, name, color) VALUES (?, ?, ?, ?)`,
		c.ID, c.UserID, c.Name, string(c.Color))
	if err != nil {
		return nil, fmt.Errorf("insert category: %w", err)
	}
	return &c, nil
}

func (r *Repository) UpdateCategory(ctx context.Context, id, userID, name string, color core.Color) (*core.Category, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE expense_category SET name = ?, color = ? WHERE id = ? AND user_id = ?`,
		name, string(color), id, userID)
	if err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, nil
	}
	return &core.Category{ID: id, UserID: userID, Name: name, Color: color}, nil
}

// DeleteCategory removes the category; the schema's ON DELETE CASCADE takes
// its expenses with it.
func (r *Repository) DeleteCategory(ctx context.Context, id, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM expense_category WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return 0, fmt.Errorf("delete category: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete category rows affected: %w", err)
	}
	if n > 0 {
		slog.InfoContext(ctx, "Category deleted with cascading expenses", "id", id)
	}
	return n, nil
}

// GetExpense loads a single expense by id regardless of owner; the export
// worker uses it to enrich event messages.
func (r *Repository) GetExpense(ctx context.Context, id string) (*core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, category_id, day_id, amount_cents FROM expense WHERE id = ?`, id)
	var e core.Expense
	if err := row.Scan(&e.ID, &e.UserID, &e.CategoryID, &e.DayID, &e.AmountCents); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("expense %s: %w", id, core.ErrNotFound)
		}
		return nil, fmt.Errorf("get expense: %w", err)
	}
	return &e, nil
}

// GetDay loads a single day bucket by id without its expenses.
func (r *Repository) GetDay(ctx context.Context, id string) (*core.Day, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, month, day, year FROM day WHERE id = ?`, id)
	var d core.Day
	if err := row.Scan(&d.ID, &d.UserID, &d.Month, &d.Day, &d.Year); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("day %s: %w", id, core.ErrNotFound)
		}
		return nil, fmt.Errorf("get day: %w", err)
	}
	return &d, nil
}

// GetCategory loads a single category by id.
func (r *Repository) GetCategory(ctx context.Context, id string) (*core.Category, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, color FROM expense_category WHERE id = ?`, id)
	var c core.Category
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Color); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("category %s: %w", id, core.ErrNotFound)
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &c, nil
}

func scanExpenses(rows *sql.Rows) ([]core.Expense, error) {
	var out []core.Expense
	for rows.Next() {
		var e core.Expense
		if err := rows.Scan(&e.ID, &e.UserID, &e.CategoryID, &e.DayID, &e.AmountCents); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, nil
}
