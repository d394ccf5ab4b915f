package export

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// XLSXExporter renders documents into a single-sheet workbook.
type XLSXExporter struct {
	SheetName string
}

// NewXLSXExporter constructs an exporter writing to a sheet named "Report".
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{SheetName: "Report"}
}

// RenderDocument writes the title, header lines, and each section top to bottom.
// Numeric table cells are stored as numbers so spreadsheets can aggregate them.
func (e *XLSXExporter) RenderDocument(doc Document) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	sheet := e.SheetName
	if sheet == "" {
		sheet = "Report"
	}
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}

	w := &sheetWriter{f: f, sheet: sheet, row: 1}
	if doc.Title != "" {
		w.line(bold, doc.Title)
	}
	for _, line := range doc.Header {
		w.line(0, line)
	}
	widest := 1
	for _, section := range doc.Sections {
		w.row++
		if section.Heading != "" {
			w.line(bold, section.Heading)
		}
		if n := len(section.Table.Headers); n > 0 {
			if n > widest {
				widest = n
			}
			w.table(bold, section.Table)
		}
		for _, line := range section.Lines {
			w.line(0, line)
		}
	}
	if len(doc.Footer) > 0 {
		w.row++
		for _, line := range doc.Footer {
			w.line(bold, line)
		}
	}
	if w.err != nil {
		return nil, fmt.Errorf("write workbook: %w", w.err)
	}

	last, err := excelize.ColumnNumberToName(widest)
	if err != nil {
		return nil, err
	}
	if err := f.SetColWidth(sheet, "A", last, 22); err != nil {
		return nil, fmt.Errorf("size columns: %w", err)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

type sheetWriter struct {
	f     *excelize.File
	sheet string
	row   int
	err   error
}

func (w *sheetWriter) set(col int, value interface{}, style int) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, w.row)
	if err != nil {
		w.err = err
		return
	}
	if err := w.f.SetCellValue(w.sheet, cell, value); err != nil {
		w.err = err
		return
	}
	if style != 0 {
		w.err = w.f.SetCellStyle(w.sheet, cell, cell, style)
	}
}

func (w *sheetWriter) line(style int, text string) {
	w.set(1, text, style)
	w.row++
}

func (w *sheetWriter) table(headerStyle int, data Dataset) {
	for i, header := range data.Headers {
		w.set(i+1, header, headerStyle)
	}
	w.row++
	for _, row := range data.Rows {
		for i, header := range data.Headers {
			w.set(i+1, cellValue(row[header]), 0)
		}
		w.row++
	}
}

func cellValue(raw string) interface{} {
	if raw == "" {
		return raw
	}
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		return v
	}
	return raw
}
