package export

// Dataset defines tabular export content. Rows are keyed by header.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

// Section is one titled block of a document: an optional table followed by free lines.
type Section struct {
	Heading string
	Table   Dataset
	Lines   []string
}

// Document is a renderer-neutral report: a title, header lines, sections and a footer.
// Every renderer in this package is a pure function of a Document.
type Document struct {
	Title    string
	Header   []string
	Sections []Section
	Footer   []string
}

// Datasets returns the non-empty tables of the document in order.
func (d Document) Datasets() []Dataset {
	out := make([]Dataset, 0, len(d.Sections))
	for _, s := range d.Sections {
		if len(s.Table.Headers) > 0 {
			out = append(out, s.Table)
		}
	}
	return out
}
