package export

import (
	"bytes"
	"fmt"
	"strings"
	"text/tabwriter"
)

// TextExporter renders documents as plain text for terminals and logs.
type TextExporter struct{}

// NewTextExporter constructs a text exporter.
func NewTextExporter() *TextExporter {
	return &TextExporter{}
}

// RenderDocument writes the document with tables aligned into columns.
func (e *TextExporter) RenderDocument(doc Document) ([]byte, error) {
	buf := &bytes.Buffer{}
	if doc.Title != "" {
		fmt.Fprintln(buf, doc.Title)
	}
	for _, line := range doc.Header {
		fmt.Fprintln(buf, line)
	}
	for _, section := range doc.Sections {
		if section.Heading != "" {
			fmt.Fprintln(buf)
			fmt.Fprintln(buf, section.Heading)
		}
		if len(section.Table.Headers) > 0 {
			tw := tabwriter.NewWriter(buf, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, strings.Join(section.Table.Headers, "\t"))
			for _, row := range section.Table.Rows {
				cells := make([]string, len(section.Table.Headers))
				for i, header := range section.Table.Headers {
					cells[i] = row[header]
				}
				fmt.Fprintln(tw, strings.Join(cells, "\t"))
			}
			if err := tw.Flush(); err != nil {
				return nil, fmt.Errorf("render text table: %w", err)
			}
		}
		for _, line := range section.Lines {
			fmt.Fprintln(buf, line)
		}
	}
	if len(doc.Footer) > 0 {
		fmt.Fprintln(buf)
		for _, line := range doc.Footer {
			fmt.Fprintln(buf, line)
		}
	}
	return buf.Bytes(), nil
}
