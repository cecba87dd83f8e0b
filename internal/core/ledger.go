package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Header names located in row 1, compared after Normalize.
const (
	HeaderDate     = "date"
	HeaderCategory = "category"
	HeaderAmount   = "amount"
)

// LedgerSource reads raw cell values from a worksheet.
type LedgerSource interface {
	// RowValues returns the cells of a single 1-based row.
	RowValues(ctx context.Context, row int) ([]string, error)
	// AllValues returns every row of the worksheet, header included.
	AllValues(ctx context.Context) ([][]string, error)
}

// ResolveColumns finds the 1-based date, category and amount columns in a
// header row.
func ResolveColumns(header []string) (Columns, error) {
	var cols Columns
	for i, h := range header {
		switch Normalize(h) {
		case HeaderDate:
			if cols.Date == 0 {
				cols.Date = i + 1
			}
		case HeaderCategory:
			if cols.Category == 0 {
				cols.Category = i + 1
			}
		case HeaderAmount:
			if cols.Amount == 0 {
				cols.Amount = i + 1
			}
		}
	}
	var missing []string
	if cols.Date == 0 {
		missing = append(missing, HeaderDate)
	}
	if cols.Category == 0 {
		missing = append(missing, HeaderCategory)
	}
	if cols.Amount == 0 {
		missing = append(missing, HeaderAmount)
	}
	if len(missing) > 0 {
		return Columns{}, fmt.Errorf("%w: %s; got headers=%v", ErrMissingColumn, strings.Join(missing, ","), header)
	}
	return cols, nil
}

// CalculateTotal sums the amounts of rows whose date lies in r and whose
// normalized category equals the normalized query category.
//
// Rows with an unparseable date or amount are logged and skipped; only a
// failure to read the worksheet or resolve its header is returned.
func CalculateTotal(ctx context.Context, src LedgerSource, category string, r DateRange) (LedgerSummary, error) {
	summary := LedgerSummary{Category: category, Range: r}
	want := Normalize(category)
	if want == "" {
		return summary, ErrEmptyCategory
	}
	if err := r.Validate(); err != nil {
		return summary, err
	}

	header, err := src.RowValues(ctx, 1)
	if err != nil {
		return summary, fmt.Errorf("read header: %w", err)
	}
	cols, err := ResolveColumns(header)
	if err != nil {
		return summary, err
	}
	rows, err := src.AllValues(ctx)
	if err != nil {
		return summary, fmt.Errorf("read rows: %w", err)
	}

	for i, row := range rows {
		if i == 0 {
			continue
		}
		rowNum := i + 1
		dateCell, ok1 := cell(row, cols.Date)
		catCell, ok2 := cell(row, cols.Category)
		amtCell, ok3 := cell(row, cols.Amount)
		if !ok1 || !ok2 || !ok3 || strings.TrimSpace(dateCell+catCell+amtCell) == "" {
			summary.Skipped++
			slog.DebugContext(ctx, "Skipping incomplete ledger row", "row", rowNum, "cells", len(row))
			continue
		}
		date, err := ParseDate(dateCell)
		if err != nil {
			summary.Skipped++
			slog.WarnContext(ctx, "Skipping ledger row", "row", rowNum, "error", err)
			continue
		}
		amount, err := ParseAmount(amtCell)
		if err != nil {
			summary.Skipped++
			slog.WarnContext(ctx, "Skipping ledger row", "row", rowNum, "error", err)
			continue
		}
		if !r.Contains(date) || Normalize(catCell) != want {
			continue
		}
		summary.Total += amount
		summary.Matched++
	}
	return summary, nil
}

func cell(row []string, col int) (string, bool) {
	if col < 1 || col > len(row) {
		return "", false
	}
	return row[col-1], true
}
