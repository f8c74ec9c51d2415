package research

import (
	"errors"
	"fmt"
	"strings"
)

// AcquisitionFailure records a source that could not be turned into a
// Document. Either Candidate or Path is set.
type AcquisitionFailure struct {
	Candidate *Candidate
	Path      string
	Err       error
}

// Source returns the URL or local path that failed.
func (f *AcquisitionFailure) Source() string {
	if f.Candidate != nil {
		return f.Candidate.URL
	}
	return f.Path
}

// Reason returns a short human-readable cause.
func (f *AcquisitionFailure) Reason() string {
	var e *Error
	if errors.As(f.Err, &e) {
		return e.Message
	}
	if f.Err == nil {
		return "unknown error"
	}
	return f.Err.Error()
}

func (f *AcquisitionFailure) Error() string {
	return fmt.Sprintf("acquire %s: %s", f.Source(), f.Reason())
}

func (f *AcquisitionFailure) Unwrap() error {
	return f.Err
}

// FormatAcquisitionSummary reports how many sources were loaded, e.g.
// "12 of 15 sources loaded; 3 failed: a (HTTP 404), ...".
func FormatAcquisitionSummary(loaded int, failures []AcquisitionFailure) string {
	total := loaded + len(failures)
	summary := fmt.Sprintf("%d of %d sources loaded", loaded, total)
	if len(failures) == 0 {
		return summary
	}

	parts := make([]string, 0, len(failures))
	for i := range failures {
		parts = append(parts, fmt.Sprintf("%s (%s)", failures[i].Source(), failures[i].Reason()))
	}
	return fmt.Sprintf("%s; %d failed: %s", summary, len(failures), strings.Join(parts, ", "))
}
