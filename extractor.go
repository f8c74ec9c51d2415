package research

import "strings"

// ExtractResult holds the extracted content from an HTML page.
type ExtractResult struct {
	// Title is the page title extracted from metadata.
	Title string

	// ContentHTML is the main content as clean HTML.
	// Boilerplate (nav, footer, sidebar, ads) has been removed.
	ContentHTML string
}

// Extractor extracts main content from HTML pages, removing boilerplate.
type Extractor interface {
	// Extract processes raw HTML and returns the main content.
	// The title comes from page metadata (meta tags, JSON+LD, etc.).
	// The content HTML has boilerplate removed but preserves structure.
	Extract(html string) (*ExtractResult, error)
}

// PDFText is the text layer of a PDF file.
type PDFText struct {
	Title string
	Text  string
	Pages int
}

// PDFExtractor extracts text from PDF bytes.
type PDFExtractor interface {
	// ExtractPDF returns EINVALID when the data is not a readable PDF or
	// contains no extractable text.
	ExtractPDF(data []byte) (*PDFText, error)
}

// Extractors tries each extractor in turn and returns the first result
// with non-empty content. If all fail, the last error is returned.
type Extractors []Extractor

// Extract implements Extractor.
func (es Extractors) Extract(html string) (*ExtractResult, error) {
	err := error(Errorf(EINVALID, "no extractors configured"))
	for _, e := range es {
		var res *ExtractResult
		res, err = e.Extract(html)
		if err == nil && strings.TrimSpace(res.ContentHTML) != "" {
			return res, nil
		}
		if err == nil {
			err = Errorf(EINVALID, "no main content found")
		}
	}
	return nil, err
}
