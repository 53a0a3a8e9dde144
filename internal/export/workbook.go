// Package export writes the query log to an Excel workbook.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/trendlens/internal/models"
)

const (
	SheetQueries = "Queries"
	SheetTrend   = "Trend"

	KindActual   = "actual"
	KindForecast = "forecast"
)

var (
	queriesHeader = []any{"id", "keyword", "created_at", "source", "average", "latest", "positive", "neutral", "negative", "summary"}
	trendHeader   = []any{"keyword", "created_at", "date", "value", "kind"}
)

// WriteWorkbook writes entries as a Queries sheet (one row per entry) and a Trend
// sheet (one row per trend or forecast point). Entries whose result cannot be decoded
// are listed on the Queries sheet with blank metrics.
func WriteWorkbook(w io.Writer, entries []*models.QueryLogEntry) error {
	f, err := build(entries)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// SaveWorkbook writes the workbook to path, creating parent directories.
func SaveWorkbook(path string, entries []*models.QueryLogEntry) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}
	}
	f, err := build(entries)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func build(entries []*models.QueryLogEntry) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), SheetQueries); err != nil {
		_ = f.Close()
		return nil, err
	}
	if _, err := f.NewSheet(SheetTrend); err != nil {
		_ = f.Close()
		return nil, err
	}

	queryRow, trendRow := 1, 1
	add := func(sheet string, row *int, values []any) error {
		cell, err := excelize.CoordinatesToCellName(1, *row)
		if err != nil {
			return err
		}
		*row++
		return f.SetSheetRow(sheet, cell, &values)
	}
	if err := add(SheetQueries, &queryRow, queriesHeader); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := add(SheetTrend, &trendRow, trendHeader); err != nil {
		_ = f.Close()
		return nil, err
	}

	for _, e := range entries {
		created := e.CreatedAt.UTC().Format(time.RFC3339)
		res, err := e.Result()
		if err != nil {
			if err := add(SheetQueries, &queryRow, []any{e.ID, e.Keyword, created}); err != nil {
				_ = f.Close()
				return nil, err
			}
			continue
		}

		latest := 0
		if n := len(res.TrendData); n > 0 {
			latest = res.TrendData[n-1].Value
		}
		row := []any{
			e.ID, e.Keyword, created, res.Source,
			res.TrendData.Average(), latest,
			res.Sentiment.Positive, res.Sentiment.Neutral, res.Sentiment.Negative,
			res.Summary,
		}
		if err := add(SheetQueries, &queryRow, row); err != nil {
			_ = f.Close()
			return nil, err
		}

		for _, p := range res.TrendData {
			if err := add(SheetTrend, &trendRow, []any{e.Keyword, created, p.Date, p.Value, KindActual}); err != nil {
				_ = f.Close()
				return nil, err
			}
		}
		for i, v := range res.Forecast {
			date := forecastDate(res.TrendData, i+1)
			if err := add(SheetTrend, &trendRow, []any{e.Keyword, created, date, v, KindForecast}); err != nil {
				_ = f.Close()
				return nil, err
			}
		}
	}
	return f, nil
}

// forecastDate returns the date monthsAhead after the last point, or "" if it cannot be parsed.
func forecastDate(series models.TrendSeries, monthsAhead int) string {
	if len(series) == 0 {
		return ""
	}
	last, err := time.Parse(models.DateLayout, series[len(series)-1].Date)
	if err != nil {
		return ""
	}
	return last.AddDate(0, monthsAhead, 0).Format(models.DateLayout)
}
