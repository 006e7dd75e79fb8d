package export

import (
	"fmt"
	"io"

	"github.com/nexushq/nexus/internal/domain"
	"github.com/xuri/excelize/v2"
)

const rosterSheet = "Users"

// WriteRosterExcel renders the roster as a single-sheet workbook.
func WriteRosterExcel(w io.Writer, users []domain.User) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(rosterSheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	header := make([]any, len(rosterHeaders))
	for i, h := range rosterHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(rosterSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, u := range users {
		cells := rosterRow(u)
		row := make([]any, len(cells))
		for j, c := range cells {
			row[j] = c
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetSheetRow(rosterSheet, cell, &row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
