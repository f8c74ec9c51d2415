package research

import (
	"fmt"
	"strings"
)

// FormatContext formats sources as a numbered context block for a
// generator prompt. Sources are added in order until the next one would
// push the block past maxChars; maxChars <= 0 disables the limit. It
// returns the formatted block and how many sources it includes.
func FormatContext(sources []Source, maxChars int) (string, int) {
	if len(sources) == 0 {
		return "", 0
	}

	parts := make([]string, 0, len(sources))
	length := 0
	for i, s := range sources {
		header := s.Title
		if header == "" {
			header = s.Location
		}
		part := fmt.Sprintf("[%d] %s\n%s", i+1, header, strings.TrimSpace(s.Text))

		sep := 0
		if len(parts) > 0 {
			sep = 2
		}
		if maxChars > 0 && length+sep+len(part) > maxChars {
			break
		}
		parts = append(parts, part)
		length += sep + len(part)
	}

	return strings.Join(parts, "\n\n"), len(parts)
}
