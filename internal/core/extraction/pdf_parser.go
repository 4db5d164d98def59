package extraction

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFParser parses PDFs in-process with ledongthuc/pdf.
type PDFParser struct{}

func (PDFParser) Open(data []byte) (Document, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	return &pdfDocument{reader: r}, nil
}

type pdfDocument struct {
	reader *pdf.Reader
}

func (d *pdfDocument) NumPages() int {
	return d.reader.NumPage()
}

// PageRuns returns one run per text row, glyphs of a row concatenated.
func (d *pdfDocument) PageRuns(i int) ([]string, error) {
	page := d.reader.Page(i)
	if page.V.IsNull() {
		return nil, nil
	}
	rows, err := page.GetTextByRow()
	if err != nil {
		return nil, fmt.Errorf("read rows of page %d: %w", i, err)
	}

	runs := make([]string, 0, len(rows))
	for _, row := range rows {
		var b strings.Builder
		for _, t := range row.Content {
			b.WriteString(t.S)
		}
		if s := strings.TrimSpace(b.String()); s != "" {
			runs = append(runs, s)
		}
	}
	return runs, nil
}
