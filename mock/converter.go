package mock

import "github.com/fwojciec/research"

var _ research.Converter = (*Converter)(nil)

// Converter is a mock implementation of research.Converter.
type Converter struct {
	ConvertFn func(html string) (string, error)
}

func (c *Converter) Convert(html string) (string, error) {
	return c.ConvertFn(html)
}
