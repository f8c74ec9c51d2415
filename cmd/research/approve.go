package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/fwojciec/research"
)

// Ensure TerminalApprover implements research.Approver at compile time.
var _ research.Approver = (*TerminalApprover)(nil)

// TerminalApprover lists candidates and reads a selection such as
// "1,3-5" from the user.
type TerminalApprover struct {
	In  io.Reader
	Out io.Writer

	// All approves every candidate without asking.
	All bool
}

// Approve implements research.Approver.
func (a *TerminalApprover) Approve(ctx context.Context, candidates []research.Candidate) ([]research.Candidate, error) {
	if len(candidates) == 0 || a.All {
		return candidates, nil
	}

	PrintCandidates(a.Out, candidates)
	fmt.Fprintf(a.Out, "\nSelect sources (e.g. 1,3-5, all, none) [all]: ")

	line, err := readLine(ctx, a.In)
	if err != nil {
		return nil, err
	}
	picked, err := ParseSelection(line, len(candidates))
	if err != nil {
		return nil, err
	}

	approved := make([]research.Candidate, 0, len(picked))
	for _, n := range picked {
		approved = append(approved, candidates[n-1])
	}
	return approved, nil
}

// readLine reads one line from r, giving up when ctx is done.
func readLine(ctx context.Context, r io.Reader) (string, error) {
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := bufio.NewReader(r).ReadString('\n')
		if err == io.EOF && line != "" {
			err = nil
		}
		ch <- result{line, err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.err == io.EOF {
			return "", research.Errorf(research.EINVALID, "no selection entered")
		}
		return strings.TrimSpace(res.line), res.err
	}
}

// ParseSelection parses a selection of 1-based candidate numbers such as
// "1,3-5,7". "all" or an empty selection picks every candidate; "none"
// picks nothing. The result is sorted and free of duplicates.
func ParseSelection(s string, n int) ([]int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", "all", "a":
		all := make([]int, n)
		for i := range all {
			all[i] = i + 1
		}
		return all, nil
	case "none", "n":
		return []int{}, nil
	}

	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, isRange := strings.Cut(part, "-")
		first, err := selectionNumber(lo, n)
		if err != nil {
			return nil, err
		}
		last := first
		if isRange {
			if last, err = selectionNumber(hi, n); err != nil {
				return nil, err
			}
			if last < first {
				return nil, research.Errorf(research.EINVALID, "invalid range %q", part)
			}
		}
		for i := first; i <= last; i++ {
			out = append(out, i)
		}
	}

	slices.Sort(out)
	return slices.Compact(out), nil
}

func selectionNumber(s string, n int) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, research.Errorf(research.EINVALID, "invalid selection %q", s)
	}
	if v < 1 || v > n {
		return 0, research.Errorf(research.EINVALID, "selection %d out of range 1-%d", v, n)
	}
	return v, nil
}

// PrintCandidates writes a numbered list of candidates.
func PrintCandidates(w io.Writer, candidates []research.Candidate) {
	for i, c := range candidates {
		var flags []string
		if c.Kind != "" && c.Kind != research.SourceArticle {
			flags = append(flags, string(c.Kind))
		}
		if c.Paywalled {
			flags = append(flags, "paywalled")
		}
		suffix := ""
		if len(flags) > 0 {
			suffix = " [" + strings.Join(flags, ", ") + "]"
		}

		title := c.Title
		if title == "" {
			title = c.URL
		}
		fmt.Fprintf(w, "%2d. %s (%.2f)%s\n    %s\n", i+1, title, c.RelevanceScore, suffix, c.URL)
		if about := describe(c); about != "" {
			fmt.Fprintf(w, "    %s\n", about)
		}
	}
}

// maxSnippetRunes bounds a snippet shown in place of a missing summary.
const maxSnippetRunes = 200

// describe returns the candidate's summary, or its snippet when there is none.
func describe(c research.Candidate) string {
	if s := strings.Join(strings.Fields(c.Summary), " "); s != "" {
		return s
	}
	s := strings.Join(strings.Fields(c.Snippet), " ")
	if runes := []rune(s); len(runes) > maxSnippetRunes {
		s = string(runes[:maxSnippetRunes]) + "..."
	}
	return s
}
