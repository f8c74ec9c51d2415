package mock

import "github.com/fwojciec/research"

var _ research.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of research.Extractor.
type Extractor struct {
	ExtractFn func(html string) (*research.ExtractResult, error)
}

func (e *Extractor) Extract(html string) (*research.ExtractResult, error) {
	return e.ExtractFn(html)
}

var _ research.PDFExtractor = (*PDFExtractor)(nil)

// PDFExtractor is a mock implementation of research.PDFExtractor.
type PDFExtractor struct {
	ExtractPDFFn func(data []byte) (*research.PDFText, error)
}

func (e *PDFExtractor) ExtractPDF(data []byte) (*research.PDFText, error) {
	return e.ExtractPDFFn(data)
}
