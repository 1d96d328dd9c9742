package dashboard

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	domain "expense-approval-backend/internal/domain/expense"

	"github.com/xuri/excelize/v2"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

var ErrUnsupportedFormat = fmt.Errorf("unsupported export format")

var exportHeader = []string{
	"Expense ID", "Employee ID", "Amount", "Currency", "Converted Amount",
	"Category", "Description", "Date", "Status", "Submitted At",
}

func exportRow(e *domain.Expense) []string {
	return []string{
		e.ExpenseID,
		e.EmployeeID,
		strconv.FormatFloat(e.Amount, 'f', 2, 64),
		e.Currency,
		strconv.FormatFloat(e.ConvertedAmount, 'f', 2, 64),
		string(e.Category),
		e.Description,
		e.Date.Format("2006-01-02"),
		string(e.Status),
		e.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// render returns the encoded document and its MIME type.
func render(items []domain.Expense, format Format) ([]byte, string, error) {
	switch format {
	case FormatCSV, "":
		return renderCSV(items)
	case FormatXLSX:
		return renderXLSX(items)
	default:
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

func renderCSV(items []domain.Expense) ([]byte, string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, "", err
	}
	for i := range items {
		if err := w.Write(exportRow(&items[i])); err != nil {
			return nil, "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), "text/csv", nil
}

func renderXLSX(items []domain.Expense) ([]byte, string, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Expenses"
	f.SetSheetName("Sheet1", sheet)

	for col, h := range exportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, "", err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, "", err
		}
	}
	for row := range items {
		for col, v := range exportRow(&items[row]) {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, "", err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, "", err
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", nil
}
