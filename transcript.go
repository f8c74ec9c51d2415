package research

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// TranscriptSegment is one timed caption line.
type TranscriptSegment struct {
	Start time.Duration
	Text  string
}

// Transcript is the caption track of a video.
type Transcript struct {
	VideoID  string
	Title    string
	Language string
	Segments []TranscriptSegment
}

// Text renders the transcript as "[MM:SS] text" lines.
func (t *Transcript) Text() string {
	var b strings.Builder
	for _, s := range t.Segments {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("[" + formatTimestamp(s.Start) + "] " + text)
	}
	return b.String()
}

func formatTimestamp(d time.Duration) string {
	total := int(d / time.Second)
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// TranscriptFetcher retrieves video transcripts by video ID.
type TranscriptFetcher interface {
	// FetchTranscript returns ENOTFOUND when the video has no usable captions.
	FetchTranscript(ctx context.Context, videoID string) (*Transcript, error)
}
