// Package pdf extracts the text layer of PDF documents using
// github.com/ledongthuc/pdf.
package pdf

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/fwojciec/research"
	"github.com/ledongthuc/pdf"
)

// Ensure Extractor implements research.PDFExtractor at compile time.
var _ research.PDFExtractor = (*Extractor)(nil)

// Extractor reads plain text from PDF bytes.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractPDF implements research.PDFExtractor.
func (e *Extractor) ExtractPDF(data []byte) (out *research.PDFText, err error) {
	if !bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("%PDF-")) {
		return nil, research.Errorf(research.EINVALID, "not a PDF document")
	}

	// The parser panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, research.Errorf(research.EINVALID, "parse PDF: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, research.Errorf(research.EINVALID, "open PDF: %v", err)
	}

	plain, err := r.GetPlainText()
	if err != nil {
		return nil, research.Errorf(research.EINVALID, "extract PDF text: %v", err)
	}
	var buf strings.Builder
	if _, err := io.Copy(&buf, plain); err != nil {
		return nil, fmt.Errorf("read PDF text: %w", err)
	}

	text := Sanitize(buf.String())
	if text == "" {
		return nil, research.Errorf(research.EINVALID, "PDF has no extractable text")
	}

	return &research.PDFText{
		Title: Sanitize(r.Trailer().Key("Info").Key("Title").Text()),
		Text:  text,
		Pages: r.NumPage(),
	}, nil
}

// Sanitize drops NUL bytes and non-printing control characters other than
// newlines and tabs, then trims surrounding whitespace.
func Sanitize(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, ch := range s {
		switch {
		case ch == '\n' || ch == '\t':
			b.WriteRune(ch)
		case ch == '\r':
			b.WriteByte('\n')
		case ch < 0x20 || ch == 0x7f:
		default:
			b.WriteRune(ch)
		}
	}
	return strings.TrimSpace(b.String())
}
