package chunk

import (
	"slices"
	"strings"
)

// Window is one chunk of text and its rune offset in the source.
type Window struct {
	Text  string
	Start int
}

// separators are preferred break points, strongest first.
var separators = [][]rune{
	[]rune("\n\n"),
	[]rune("\n"),
	[]rune(". "),
	[]rune(" "),
}

// Split cuts text into windows of at most size runes where each window
// after the first begins exactly overlap runes before the previous one ends.
// Dropping the first overlap runes of every window but the first and
// concatenating reproduces text. Window ends prefer a paragraph, line,
// sentence or word boundary in the second half of the window.
//
// Blank text yields no windows. Callers must ensure 0 <= overlap < size.
func Split(text string, size, overlap int) []Window {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	runes := []rune(text)
	n := len(runes)

	var out []Window
	start := 0
	for {
		end := start + size
		if end >= n {
			out = append(out, Window{Text: string(runes[start:]), Start: start})
			return out
		}
		end = boundary(runes, start, end, overlap, size)
		out = append(out, Window{Text: string(runes[start:end]), Start: start})
		start = end - overlap
	}
}

// boundary returns the preferred end of the window [start, end). The result
// is always greater than start+overlap so the next window makes progress.
func boundary(runes []rune, start, end, overlap, size int) int {
	minEnd := start + max(overlap+1, size/2)
	if minEnd >= end {
		return end
	}
	for _, sep := range separators {
		for i := end - len(sep); i+len(sep) >= minEnd && i >= start; i-- {
			if slices.Equal(runes[i:i+len(sep)], sep) {
				return i + len(sep)
			}
		}
	}
	return end
}
