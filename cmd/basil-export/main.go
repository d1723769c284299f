// basil-export appends a one-shot category breakdown for a date range to
// the configured Google Sheet.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"basil/internal/config"
	"basil/internal/core"
	"basil/internal/export"
	"basil/internal/storage"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	fromFlag := flag.String("from", "", "range start, YYYY-MM-DD (default: January 1st last year)")
	toFlag := flag.String("to", "", "range end, YYYY-MM-DD (default: today)")
	flag.Parse()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if err := cfg.ValidateExport(); err != nil {
		logger.Error("Export configuration validation failed", "error", err)
		os.Exit(1)
	}

	now := time.Now()
	from := core.DMY{Year: now.Year() - 1, Month: 0, Day: 1}
	to := core.DMY{Year: now.Year(), Month: int(now.Month()) - 1, Day: now.Day()}
	var err error
	if *fromFlag != "" {
		if from, err = parseDate(*fromFlag); err != nil {
			logger.Error("Invalid -from date", "error", err, "value", *fromFlag)
			os.Exit(1)
		}
	}
	if *toFlag != "" {
		if to, err = parseDate(*toFlag); err != nil {
			logger.Error("Invalid -to date", "error", err, "value", *toFlag)
			os.Exit(1)
		}
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	sheetClient, err := export.NewFromEnv(ctx)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}

	days, err := repo.FindDaysInYearRange(ctx, cfg.LedgerUser, from.Year, to.Year)
	if err != nil {
		logger.Error("Failed to load days", "error", err)
		os.Exit(1)
	}
	categories, err := repo.FindCategories(ctx, cfg.LedgerUser)
	if err != nil {
		logger.Error("Failed to load categories", "error", err)
		os.Exit(1)
	}

	selected := make(map[string]bool, len(categories))
	for _, c := range categories {
		selected[c.ID] = true
	}
	filtered := core.FilterByRange(days, from, to)
	breakdown := core.Aggregate(filtered, categories, selected)

	label := fmt.Sprintf("%d-%d-%d .. %d-%d-%d",
		from.Month+1, from.Day, from.Year, to.Month+1, to.Day, to.Year)
	if err := sheetClient.AppendBreakdown(ctx, label, breakdown); err != nil {
		logger.Error("Failed to export breakdown", "error", err)
		os.Exit(1)
	}

	logger.Info("Breakdown exported",
		"label", label,
		"days", len(filtered),
		"categories", len(breakdown.Rows),
		"global_total_cents", breakdown.GlobalTotalCents)
}

func parseDate(s string) (core.DMY, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return core.DMY{}, err
	}
	return core.DMY{Year: t.Year(), Month: int(t.Month()) - 1, Day: t.Day()}, nil
}
