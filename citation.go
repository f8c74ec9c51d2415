package research

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// CitationEntry is one numbered entry of an answer's source list.
type CitationEntry struct {
	Number     int    `json:"number"`
	DocumentID string `json:"documentId"`
	Title      string `json:"title"`

	// Location is the URL of an online document or the path of a local one.
	Location string `json:"location"`
}

// CitationAssembler assigns session-wide citation numbers to documents.
// Numbers are dense, start at 1, follow first citation order and are never
// reassigned. A CitationAssembler is not safe for concurrent use.
type CitationAssembler struct {
	numbers map[string]int
	order   []string
	meta    map[string]CitationEntry
}

// NewCitationAssembler returns an assembler with no numbers assigned.
func NewCitationAssembler() *CitationAssembler {
	return &CitationAssembler{
		numbers: make(map[string]int),
		meta:    make(map[string]CitationEntry),
	}
}

// Assign numbers every unseen document ID in the order given and returns
// the numbers of all the given IDs.
func (a *CitationAssembler) Assign(ids []string) map[string]int {
	out := make(map[string]int, len(ids))
	for _, id := range ids {
		n, ok := a.numbers[id]
		if !ok {
			a.order = append(a.order, id)
			n = len(a.order)
			a.numbers[id] = n
		}
		out[id] = n
	}
	return out
}

// Number returns the number assigned to a document, if any.
func (a *CitationAssembler) Number(id string) (int, bool) {
	n, ok := a.numbers[id]
	return n, ok
}

// Describe records the title and location used for a document's entry.
func (a *CitationAssembler) Describe(docs ...Document) {
	for _, d := range docs {
		a.meta[d.ID] = CitationEntry{DocumentID: d.ID, Title: d.Metadata.Title, Location: d.Metadata.Source}
	}
}

// Entries returns the entries of every numbered document in number order.
func (a *CitationAssembler) Entries() ([]CitationEntry, error) {
	entries := make([]CitationEntry, 0, len(a.order))
	for i, id := range a.order {
		n := a.numbers[id]
		if n != i+1 {
			return nil, Errorf(EINTEGRITY, "citation numbering not dense: %s has %d at position %d", id, n, i+1)
		}
		entry, ok := a.meta[id]
		if !ok {
			return nil, Errorf(EINTEGRITY, "cited document %s has no description", id)
		}
		entry.Number = n
		entries = append(entries, entry)
	}
	return entries, nil
}

// Citation numbers have at most three digits, so years such as "[2020]"
// are left as prose.
var markerPattern = regexp.MustCompile(`\[(\s*\d{1,3}\s*(?:[-–]\s*\d{1,3}\s*)?(?:,\s*\d{1,3}\s*(?:[-–]\s*\d{1,3}\s*)?)*)\]`)

// Annotate rewrites the citation markers of a generated answer. Markers in
// the answer refer to sources by position (1-based); each is replaced by the
// compressed session numbers of the cited documents. Markers that refer to
// no known source are removed together with the whitespace before them.
func (a *CitationAssembler) Annotate(answer string, sources []Source) string {
	for _, s := range sources {
		a.meta[s.DocumentID] = CitationEntry{DocumentID: s.DocumentID, Title: s.Title, Location: s.Location}
	}

	resolve := func(marker string) []string {
		var ids []string
		for _, n := range parseMarker(marker, len(sources)) {
			if n >= 1 && n <= len(sources) {
				ids = append(ids, sources[n-1].DocumentID)
			}
		}
		return ids
	}

	for _, m := range markerPattern.FindAllStringSubmatch(answer, -1) {
		a.Assign(resolve(m[1]))
	}

	var b strings.Builder
	last := 0
	for _, loc := range markerPattern.FindAllStringSubmatchIndex(answer, -1) {
		var nums []int
		for _, id := range resolve(answer[loc[2]:loc[3]]) {
			nums = append(nums, a.numbers[id])
		}
		rendered := RenderMarkers(nums)
		prefix := answer[last:loc[0]]
		if rendered == "" {
			prefix = strings.TrimRight(prefix, " \t")
		}
		b.WriteString(prefix)
		b.WriteString(rendered)
		last = loc[1]
	}
	b.WriteString(answer[last:])
	return b.String()
}

// parseMarker expands "1, 3-5" into [1 3 4 5]. Ranges are clamped to limit
// elements so that a malformed marker cannot expand without bound.
func parseMarker(s string, limit int) []int {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.ReplaceAll(part, "–", "-")
		lo, hi, isRange := strings.Cut(part, "-")
		a, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			continue
		}
		if !isRange {
			out = append(out, a)
			continue
		}
		b, err := strconv.Atoi(strings.TrimSpace(hi))
		if err != nil {
			continue
		}
		if b < a {
			a, b = b, a
		}
		if b-a > limit {
			b = a + limit
		}
		for n := a; n <= b; n++ {
			out = append(out, n)
		}
	}
	return out
}

// RenderMarkers compresses citation numbers into a bracketed marker: runs of
// two or more consecutive numbers become dash ranges, e.g. [1,2,3,5,7,8]
// renders as "[1-3,5,7-8]". Input order and duplicates do not matter. An
// empty input renders as "".
func RenderMarkers(nums []int) string {
	if len(nums) == 0 {
		return ""
	}
	sorted := slices.Clone(nums)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	var parts []string
	start := sorted[0]
	prev := start
	flush := func() {
		if prev > start {
			parts = append(parts, fmt.Sprintf("%d-%d", start, prev))
		} else {
			parts = append(parts, strconv.Itoa(start))
		}
	}
	for _, n := range sorted[1:] {
		if n == prev+1 {
			prev = n
			continue
		}
		flush()
		start, prev = n, n
	}
	flush()

	return "[" + strings.Join(parts, ",") + "]"
}

// FormatSources renders the numbered source list appended to an answer.
func FormatSources(entries []CitationEntry) string {
	if len(entries) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("## Sources\n")
	for _, e := range entries {
		if e.Title != "" && e.Title != e.Location {
			fmt.Fprintf(&b, "\n[%d] %s (%s)", e.Number, e.Title, e.Location)
		} else {
			fmt.Fprintf(&b, "\n[%d] %s", e.Number, e.Location)
		}
	}
	return b.String()
}
