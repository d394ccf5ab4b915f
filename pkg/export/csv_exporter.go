package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// CSVExporter renders Dataset records into CSV bytes.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes for the dataset.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writeDataset(writer, data); err != nil {
		return nil, err
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderDocument writes every table of the document, separated by a blank
// record and preceded by the section heading.
func (e *CSVExporter) RenderDocument(doc Document) ([]byte, error) {
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	written := 0
	for _, section := range doc.Sections {
		if len(section.Table.Headers) == 0 {
			continue
		}
		if written > 0 {
			if err := writer.Write([]string{""}); err != nil {
				return nil, fmt.Errorf("write csv separator: %w", err)
			}
		}
		if section.Heading != "" {
			if err := writer.Write([]string{section.Heading}); err != nil {
				return nil, fmt.Errorf("write csv heading: %w", err)
			}
		}
		if err := writeDataset(writer, section.Table); err != nil {
			return nil, err
		}
		written++
	}
	if written == 0 {
		return nil, fmt.Errorf("csv requires at least one table")
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func writeDataset(writer *csv.Writer, data Dataset) error {
	if err := writer.Write(data.Headers); err != nil {
		return fmt.Errorf("write csv headers: %w", err)
	}
	for _, row := range data.Rows {
		record := make([]string, len(data.Headers))
		for i, header := range data.Headers {
			record[i] = row[header]
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	return nil
}
