package research_test

import (
	"testing"
	"time"

	"github.com/fwojciec/research"
	"github.com/stretchr/testify/assert"
)

func TestTranscript_Text(t *testing.T) {
	t.Parallel()

	t.Run("formats segments with timestamps", func(t *testing.T) {
		t.Parallel()

		tr := research.Transcript{Segments: []research.TranscriptSegment{
			{Start: 0, Text: "Hello"},
			{Start: 75*time.Second + 400*time.Millisecond, Text: " world "},
		}}

		assert.Equal(t, "[00:00] Hello\n[01:15] world", tr.Text())
	})

	t.Run("uses hours for long videos", func(t *testing.T) {
		t.Parallel()

		tr := research.Transcript{Segments: []research.TranscriptSegment{
			{Start: time.Hour + 2*time.Minute + 3*time.Second, Text: "late"},
		}}

		assert.Equal(t, "[1:02:03] late", tr.Text())
	})

	t.Run("skips blank segments", func(t *testing.T) {
		t.Parallel()

		tr := research.Transcript{Segments: []research.TranscriptSegment{
			{Start: 0, Text: "  "},
			{Start: time.Second, Text: "kept"},
		}}

		assert.Equal(t, "[00:01] kept", tr.Text())
	})
}
