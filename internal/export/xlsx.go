// Package export writes invoice listings to spreadsheets.
package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/garyjia/invoice-service/internal/document"
	"github.com/garyjia/invoice-service/internal/domain/entity"
	"github.com/garyjia/invoice-service/internal/domain/money"
)

// SheetName is the worksheet holding the invoice rows
const SheetName = "Invoices"

// ContentType is the MIME type of the generated workbook
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var headers = []string{"Invoice #", "Created", "Customer", "Client Email", "Status", "Currency", "Amount", "Amount (minor)", "Due Date", "Items"}

// WriteInvoices renders invoices as a single-sheet XLSX workbook
func WriteInvoices(invoices []*entity.Invoice) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#EBEBEB"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	for col, title := range headers {
		if err := setCell(f, col, 1, title); err != nil {
			return nil, err
		}
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(SheetName, "A1", lastHeader, headerStyle); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}

	for i, inv := range invoices {
		row := i + 2
		values := []interface{}{
			document.ShortID(inv.ID),
			inv.CreatedAt.UTC().Format("2006-01-02"),
			inv.Customer,
			inv.ClientEmail,
			inv.Status,
			strings.ToUpper(inv.Currency),
			money.Format(inv.Amount, inv.Currency),
			inv.Amount,
			inv.DueDate,
			len(inv.Items),
		}
		for col, v := range values {
			if err := setCell(f, col, row, v); err != nil {
				return nil, err
			}
		}
	}

	if err := f.SetColWidth(SheetName, "C", "D", 28); err != nil {
		return nil, fmt.Errorf("set column width: %w", err)
	}
	if err := f.SetPanes(SheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return nil, fmt.Errorf("freeze header: %w", err)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func setCell(f *excelize.File, col, row int, value interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col+1, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := f.SetCellValue(SheetName, cell, value); err != nil {
		return fmt.Errorf("set %s: %w", cell, err)
	}
	return nil
}
