package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

const pageWidth = 190.0

// PDFExporter renders documents into A4 PDFs.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF with an optional title and a single table.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	return e.RenderDocument(Document{Title: title, Sections: []Section{{Table: data}}})
}

// RenderDocument lays out the document top to bottom; gofpdf breaks pages.
func (e *PDFExporter) RenderDocument(doc Document) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if doc.Title != "" {
		pdf.SetFont("Arial", "B", 16)
		pdf.CellFormat(0, 10, tr(doc.Title), "", 1, "L", false, 0, "")
	}
	if len(doc.Header) > 0 {
		pdf.SetFont("Arial", "", 10)
		for _, line := range doc.Header {
			pdf.CellFormat(0, 6, tr(line), "", 1, "L", false, 0, "")
		}
	}
	rule(pdf)

	for _, section := range doc.Sections {
		if section.Heading != "" {
			pdf.SetFont("Arial", "B", 12)
			pdf.CellFormat(0, 8, tr(section.Heading), "", 1, "L", false, 0, "")
		}
		if len(section.Table.Headers) > 0 {
			table(pdf, tr, section.Table)
		}
		if len(section.Lines) > 0 {
			pdf.SetFont("Arial", "", 10)
			for _, line := range section.Lines {
				pdf.MultiCell(0, 6, tr(line), "", "L", false)
			}
		}
		pdf.Ln(3)
	}

	if len(doc.Footer) > 0 {
		rule(pdf)
		pdf.SetFont("Arial", "B", 12)
		for _, line := range doc.Footer {
			pdf.CellFormat(0, 8, tr(line), "", 1, "L", false, 0, "")
		}
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func rule(pdf *gofpdf.Fpdf) {
	y := pdf.GetY() + 2
	pdf.Line(10, y, 10+pageWidth, y)
	pdf.SetY(y + 3)
}

func table(pdf *gofpdf.Fpdf, tr func(string) string, data Dataset) {
	colWidth := pageWidth / float64(len(data.Headers))
	maxChars := int(colWidth / 1.9)

	pdf.SetFont("Arial", "B", 10)
	for _, header := range data.Headers {
		pdf.CellFormat(colWidth, 8, tr(truncate(header, maxChars)), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range data.Rows {
		for _, header := range data.Headers {
			pdf.CellFormat(colWidth, 7, tr(truncate(row[header], maxChars)), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}
}

func truncate(value string, max int) string {
	runes := []rune(strings.TrimSpace(value))
	if max <= 3 || len(runes) <= max {
		return string(runes)
	}
	return string(runes[:max-3]) + "..."
}
