package extraction

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeParser struct {
	doc   Document
	err   error
	panic bool
}

func (p fakeParser) Open([]byte) (Document, error) {
	if p.panic {
		panic("malformed xref")
	}
	return p.doc, p.err
}

type brokenPage struct{}

func (brokenPage) NumPages() int { return 2 }

func (brokenPage) PageRuns(i int) ([]string, error) {
	if i == 1 {
		return nil, errors.New("bad content stream")
	}
	return []string{"second", "page"}, nil
}

func TestExtractText_PageOrder(t *testing.T) {
	doc := textDocument{
		{"OBJETO", "(RASTREAMENTO):", "AB123456789CD"},
		{"page", "two"},
		{},
	}
	e := NewTextExtractor(fakeParser{doc: doc}, nil)

	got := e.ExtractText(context.Background(), []byte("%PDF"))
	assert.Equal(t, "OBJETO (RASTREAMENTO): AB123456789CD\npage two\n\n", got)
}

func TestExtractText_SwallowsFailures(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	logger := zap.New(core)

	t.Run("parse error", func(t *testing.T) {
		e := NewTextExtractor(fakeParser{err: errors.New("not a pdf")}, logger)
		assert.Equal(t, "", e.ExtractText(context.Background(), []byte("garbage")))
		assert.Equal(t, 1, logs.FilterMessage("pdf extraction failed").Len())
	})

	t.Run("parser panic", func(t *testing.T) {
		e := NewTextExtractor(fakeParser{panic: true}, logger)
		assert.Equal(t, "", e.ExtractText(context.Background(), []byte("garbage")))
		assert.Equal(t, 1, logs.FilterMessage("pdf parser panicked").Len())
	})

	t.Run("unreadable page keeps the others", func(t *testing.T) {
		e := NewTextExtractor(fakeParser{doc: brokenPage{}}, logger)
		assert.Equal(t, "\nsecond page\n", e.ExtractText(context.Background(), nil))
		assert.Equal(t, 1, logs.FilterMessage("page text unreadable").Len())
	})

	t.Run("real parser on garbage", func(t *testing.T) {
		e := NewTextExtractor(PDFParser{}, logger)
		assert.Equal(t, "", e.ExtractText(context.Background(), []byte("definitely not a pdf")))
	})
}

func TestPDFParser_ReadsPagesInOrder(t *testing.T) {
	data := buildPDF(t, "Hello World", "AB123456789CD")
	e := NewTextExtractor(PDFParser{}, nil)

	text := e.ExtractText(context.Background(), data)
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Hello")
	assert.Contains(t, lines[1], "AB123456789CD")
}

func TestNewParser(t *testing.T) {
	p, err := NewParser("")
	require.NoError(t, err)
	assert.IsType(t, PDFParser{}, p)

	p, err = NewParser("docconv")
	require.NoError(t, err)
	assert.IsType(t, DocconvParser{}, p)

	_, err = NewParser("tesseract")
	assert.Error(t, err)
}

// buildPDF writes a minimal PDF with one line of Helvetica text per page.
func buildPDF(t *testing.T, pages ...string) []byte {
	t.Helper()

	n := len(pages)
	fontID := 3 + 2*n
	var objects []string
	kids := make([]string, n)
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 3+2*i)
	}
	objects = append(objects,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), n),
	)
	for i, text := range pages {
		stream := fmt.Sprintf("BT /F1 12 Tf 72 712 Td (%s) Tj ET", text)
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>", fontID, 4+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
		)
	}
	objects = append(objects, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}
