package audit

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

var exportColumns = []string{"ID", "Actor", "Action", "Entity Type", "Entity ID", "Detail", "Created At"}

// ExportXLSX writes the entries as a styled spreadsheet for auditors.
func ExportXLSX(w io.Writer, entries []AuditLog) error {
	f := excelize.NewFile()
	const sheet = "Audit Trail"
	f.SetSheetName("Sheet1", sheet)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"4472C4"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to build header style: %w", err)
	}

	for i, col := range exportColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}
	endHeader, _ := excelize.CoordinatesToCellName(len(exportColumns), 1)
	if err := f.SetCellStyle(sheet, "A1", endHeader, headerStyle); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for row, entry := range entries {
		values := []any{
			entry.ID,
			entry.Actor,
			entry.Action,
			entry.EntityType,
			entry.EntityID,
			entry.Detail,
			entry.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("failed to write row %d: %w", row+1, err)
			}
		}
	}

	f.SetColWidth(sheet, "F", "F", 60)
	f.SetColWidth(sheet, "G", "G", 20)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
