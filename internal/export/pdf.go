package export

import (
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/nexushq/nexus/internal/domain"
)

// Landscape A4 column widths in mm, one per roster header.
var pdfColWidths = []float64{40, 28, 45, 25, 25, 20, 22, 26, 26, 18}

// WriteRosterPDF renders the roster as a landscape table.
func WriteRosterPDF(w io.Writer, users []domain.User, generatedAt time.Time) error {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 10, "User Report")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 9)
	pdf.Cell(0, 6, "Generated "+generatedAt.Format("2006-01-02 15:04 MST"))
	pdf.Ln(10)

	writeHeader := func() {
		pdf.SetFont("Helvetica", "B", 8)
		pdf.SetFillColor(230, 230, 230)
		for i, h := range rosterHeaders {
			pdf.CellFormat(pdfColWidths[i], 7, h, "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 8)
	}
	writeHeader()

	_, pageH := pdf.GetPageSize()
	for _, u := range users {
		if pdf.GetY() > pageH-20 {
			pdf.AddPage()
			writeHeader()
		}
		for i, cell := range rosterRow(u) {
			pdf.CellFormat(pdfColWidths[i], 6, cell, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}
