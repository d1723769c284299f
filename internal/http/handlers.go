package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"basil/internal/core"
	"basil/internal/window"
)

// LedgerService is the slice of the ledger the handlers need.
type LedgerService interface {
	RecordExpense(ctx context.Context, userID, categoryID, amount string, date core.DMY) (*core.Expense, error)
	DeleteExpense(ctx context.Context, id, userID string) (*core.Expense, error)
	Categories(ctx context.Context, userID string) ([]core.Category, error)
	CreateCategory(ctx context.Context, userID, name string, color core.Color) (*core.Category, error)
	UpdateCategory(ctx context.Context, id, userID, name string, color core.Color) (*core.Category, error)
	DeleteCategory(ctx context.Context, id, userID string) error
}

type expenseRequest struct {
	CategoryID string `json:"category_id"`
	Amount     string `json:"amount"`
	Year       int    `json:"year"`
	Month      int    `json:"month"` // zero-based, January = 0
	Day        int    `json:"day"`
}

type expenseResponse struct {
	ID          string `json:"id"`
	CategoryID  string `json:"category_id"`
	DayID       string `json:"day_id"`
	AmountCents int64  `json:"amount_cents"`
	Amount      string `json:"amount"`
}

type categoryRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type categoryResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type categoryTotalResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Color        string  `json:"color"`
	TotalCents   int64   `json:"total_cents"`
	Total        string  `json:"total"`
	SharePercent *string `json:"share_percent,omitempty"`
}

type daySummaryResponse struct {
	ID         string `json:"id"`
	Date       string `json:"date"`
	TotalCents int64  `json:"total_cents"`
	Total      string `json:"total"`
}

type ledgerResponse struct {
	Window           windowResponse          `json:"window"`
	GlobalTotalCents int64                   `json:"global_total_cents"`
	GlobalTotal      string                  `json:"global_total"`
	Categories       []categoryTotalResponse `json:"categories"`
	Days             []daySummaryResponse    `json:"days"`
}

type windowResponse struct {
	FromYear int `json:"from_year"`
	ToYear   int `json:"to_year"`
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var req expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	date := core.DMY{Year: req.Year, Month: req.Month, Day: req.Day}
	expense, err := s.ledger.RecordExpense(r.Context(), userID, req.CategoryID, req.Amount, date)
	if err != nil {
		s.writeServiceError(w, r, "Create expense failed", err)
		return
	}
	s.invalidateWindow()

	writeJSON(w, http.StatusCreated, expenseResponse{
		ID:          expense.ID,
		CategoryID:  expense.CategoryID,
		DayID:       expense.DayID,
		AmountCents: expense.AmountCents,
		Amount:      core.ToDisplay(expense.AmountCents),
	})
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	if _, err := s.ledger.DeleteExpense(r.Context(), r.PathValue("id"), userID); err != nil {
		s.writeServiceError(w, r, "Delete expense failed", err)
		return
	}
	s.invalidateWindow()

	w.WriteHeader(http.StatusNoContent)
}

// handleLedger serves the filtered day list and category breakdown for a
// date range. Without from/to it uses the default window; with them it
// widens the window to cover the requested years first.
func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireUser(w, r); !ok {
		return
	}

	fromStr := strings.TrimSpace(r.URL.Query().Get("from"))
	toStr := strings.TrimSpace(r.URL.Query().Get("to"))
	if (fromStr == "") != (toStr == "") {
		writeError(w, http.StatusBadRequest, "from and to must be given together")
		return
	}

	var (
		from, to  core.DMY
		requested *window.Span
	)
	if fromStr != "" {
		var err error
		if from, err = parseDate(fromStr); err != nil {
			writeError(w, http.StatusBadRequest, "invalid from date, want YYYY-MM-DD")
			return
		}
		if to, err = parseDate(toStr); err != nil {
			writeError(w, http.StatusBadRequest, "invalid to date, want YYYY-MM-DD")
			return
		}
		requested = &window.Span{FromYear: from.Year, ToYear: to.Year}
	}

	payload, err := s.cache.Ensure(r.Context(), requested)
	if err != nil {
		s.writeServiceError(w, r, "Window load failed", err)
		return
	}
	if requested == nil {
		from, to = s.cache.DefaultRange()
	}

	days := core.FilterByRange(payload.Days, from, to)
	selected := selectedCategories(r, payload.Categories)
	breakdown := core.Aggregate(days, payload.Categories, selected)
	summaries := core.SummarizeDays(days)

	span, _ := s.cache.Window()
	resp := ledgerResponse{
		Window:           windowResponse{FromYear: span.FromYear, ToYear: span.ToYear},
		GlobalTotalCents: breakdown.GlobalTotalCents,
		GlobalTotal:      core.ToDisplay(breakdown.GlobalTotalCents),
		Categories:       make([]categoryTotalResponse, 0, len(breakdown.Rows)),
		Days:             make([]daySummaryResponse, 0, len(summaries)),
	}
	for _, row := range breakdown.Rows {
		cr := categoryTotalResponse{
			ID:         row.CategoryID,
			Name:       row.Name,
			Color:      string(row.Color),
			TotalCents: row.TotalCents,
			Total:      core.ToDisplay(row.TotalCents),
		}
		if row.ShareKnown {
			pct := core.FormatSharePercent(row.TotalCents, breakdown.GlobalTotalCents)
			cr.SharePercent = &pct
		}
		resp.Categories = append(resp.Categories, cr)
	}
	for _, d := range summaries {
		resp.Days = append(resp.Days, daySummaryResponse{
			ID:         d.DayID,
			Date:       d.DateDisplay,
			TotalCents: d.TotalCents,
			Total:      core.ToDisplay(d.TotalCents),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	categories, err := s.ledger.Categories(r.Context(), userID)
	if err != nil {
		s.writeServiceError(w, r, "List categories failed", err)
		return
	}

	resp := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		resp = append(resp, categoryResponse{ID: c.ID, Name: c.Name, Color: string(c.Color)})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Color == "" {
		req.Color = string(core.DefaultColor)
	}

	category, err := s.ledger.CreateCategory(r.Context(), userID, req.Name, core.Color(req.Color))
	if err != nil {
		s.writeServiceError(w, r, "Create category failed", err)
		return
	}
	s.invalidateWindow()

	writeJSON(w, http.StatusCreated, categoryResponse{
		ID: category.ID, Name: category.Name, Color: string(category.Color),
	})
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	category, err := s.ledger.UpdateCategory(r.Context(), r.PathValue("id"), userID, req.Name, core.Color(req.Color))
	if err != nil {
		s.writeServiceError(w, r, "Update category failed", err)
		return
	}
	s.invalidateWindow()

	writeJSON(w, http.StatusOK, categoryResponse{
		ID: category.ID, Name: category.Name, Color: string(category.Color),
	})
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	if err := s.ledger.DeleteCategory(r.Context(), r.PathValue("id"), userID); err != nil {
		s.writeServiceError(w, r, "Delete category failed", err)
		return
	}
	s.invalidateWindow()

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, err := s.auth.UserID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return "", false
	}
	return userID, true
}

func (s *Server) invalidateWindow() {
	if s.cache != nil {
		s.cache.Invalidate()
	}
}

func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), msg, "error", err, "url", r.URL.Path)
		writeError(w, status, "internal error")
		return
	}
	slog.WarnContext(r.Context(), msg, "error", err, "url", r.URL.Path)
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrAmountFormat),
		errors.Is(err, core.ErrInvalidColor),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrInvalidDate):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// selectedCategories builds the selected-id set from the categories query
// parameter. No parameter means everything is selected.
func selectedCategories(r *http.Request, all []core.Category) map[string]bool {
	selected := make(map[string]bool)
	raw := strings.TrimSpace(r.URL.Query().Get("categories"))
	if raw == "" {
		for _, c := range all {
			selected[c.ID] = true
		}
		return selected
	}
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			selected[id] = true
		}
	}
	return selected
}

// parseDate parses YYYY-MM-DD into the zero-based-month date form.
func parseDate(s string) (core.DMY, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return core.DMY{}, err
	}
	return core.DMY{Year: t.Year(), Month: int(t.Month()) - 1, Day: t.Day()}, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Encode response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
