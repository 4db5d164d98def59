package extraction

import (
	"bytes"
	"fmt"
	"strings"

	"code.sajari.com/docconv"
)

const pdfContentType = "application/pdf"

// DocconvParser converts PDFs with docconv (poppler's pdftotext under the hood).
// docconv does not keep page boundaries, so the whole body is a single page.
type DocconvParser struct {
	UseReadability bool
}

func (p DocconvParser) Open(data []byte) (Document, error) {
	res, err := docconv.Convert(bytes.NewReader(data), pdfContentType, p.UseReadability)
	if err != nil {
		return nil, fmt.Errorf("docconv: %w", err)
	}

	var lines []string
	for _, line := range strings.Split(res.Body, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return textDocument{lines}, nil
}

// textDocument holds already extracted pages, each a slice of runs.
type textDocument [][]string

func (d textDocument) NumPages() int { return len(d) }

func (d textDocument) PageRuns(i int) ([]string, error) {
	if i < 1 || i > len(d) {
		return nil, fmt.Errorf("page %d out of range", i)
	}
	return d[i-1], nil
}
