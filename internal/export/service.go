package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/invoice-tracker/internal/entity"
	"github.com/joseph-ayodele/invoice-tracker/internal/repository"
)

const (
	invoicesSheet  = "Invoices"
	lineItemsSheet = "Line Items"
)

// Service produces XLSX workbooks from stored invoices.
type Service struct {
	invoices repository.InvoiceRepository
	logger   *slog.Logger
}

func NewService(invoices repository.InvoiceRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{invoices: invoices, logger: logger}
}

// ExportInvoicesXLSX returns a workbook (as bytes) with one row per invoice matching
// filter and a second sheet listing every line item. from/to bound the upload date
// inclusively; either may be nil.
func (s *Service) ExportInvoicesXLSX(ctx context.Context, filter repository.ListFilter, from, to *time.Time) ([]byte, error) {
	start := time.Now()

	invs, err := s.invoices.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("query invoices: %w", err)
	}
	invs = withinDates(invs, from, to)

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", invoicesSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(lineItemsSheet); err != nil {
		return nil, err
	}

	writeRow(f, invoicesSheet, 1, []any{
		"Invoice ID", "File Name", "Upload Date", "Status", "Invoice Number", "Invoice Date",
		"Vendor", "Currency", "Subtotal", "Tax", "Total", "Due Date", "Confidence", "Error",
	})
	writeRow(f, lineItemsSheet, 1, []any{"Invoice ID", "Description", "Quantity", "Unit Price", "Total"})

	row, itemRow := 2, 2
	for _, inv := range invs {
		vals := []any{
			inv.ID.String(),
			inv.FileName,
			inv.UploadDate.UTC().Format("2006-01-02"),
			string(inv.Status),
		}
		fields := inv.ExtractedFields
		if fields == nil {
			fields = &entity.ExtractedFields{}
		}
		vals = append(vals,
			fields.InvoiceNumber,
			fields.Date,
			fields.Vendor,
			fields.Currency,
			amount(fields.Subtotal),
			amount(fields.Tax),
			amount(fields.TotalAmount),
			fields.DueDate,
		)
		if inv.Confidence != nil {
			vals = append(vals, inv.Confidence.Overall)
		} else {
			vals = append(vals, "")
		}
		vals = append(vals, truncate(inv.ErrorMessage, 140))
		writeRow(f, invoicesSheet, row, vals)
		row++

		for _, li := range fields.LineItems {
			writeRow(f, lineItemsSheet, itemRow, []any{inv.ID.String(), li.Description, li.Quantity, li.UnitPrice, li.Total})
			itemRow++
		}
	}

	_ = f.SetColWidth(invoicesSheet, "A", "A", 38)
	_ = f.SetColWidth(invoicesSheet, "B", "B", 32)
	_ = f.SetColWidth(invoicesSheet, "C", "F", 14)
	_ = f.SetColWidth(invoicesSheet, "G", "G", 32)
	_ = f.SetColWidth(invoicesSheet, "H", "M", 12)
	_ = f.SetColWidth(invoicesSheet, "N", "N", 48)
	_ = f.SetColWidth(lineItemsSheet, "A", "A", 38)
	_ = f.SetColWidth(lineItemsSheet, "B", "B", 36)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(invs),
		"line_items", itemRow-2,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, vals []any) {
	for i, v := range vals {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}

// withinDates keeps invoices uploaded on [from, to] by calendar day (UTC).
func withinDates(invs []*entity.Invoice, from, to *time.Time) []*entity.Invoice {
	if from == nil && to == nil {
		return invs
	}
	day := func(t time.Time) time.Time {
		t = t.UTC()
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
	out := invs[:0:0]
	for _, inv := range invs {
		d := day(inv.UploadDate)
		if from != nil && d.Before(day(*from)) {
			continue
		}
		if to != nil && d.After(day(*to)) {
			continue
		}
		out = append(out, inv)
	}
	return out
}

func amount(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
