// Package youtube fetches video caption tracks from YouTube watch pages.
package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"html"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/beevik/etree"
	"github.com/fwojciec/research"
)

// DefaultBaseURL is the origin watch pages are fetched from.
const DefaultBaseURL = "https://www.youtube.com"

// Ensure Transcripts implements research.TranscriptFetcher at compile time.
var _ research.TranscriptFetcher = (*Transcripts)(nil)

// Transcripts fetches transcripts through a research.Fetcher. English
// tracks are preferred, and manually created captions win over
// automatically generated ones.
type Transcripts struct {
	Fetcher research.Fetcher

	// BaseURL defaults to DefaultBaseURL.
	BaseURL string

	// Languages lists acceptable language codes in order of preference.
	// Defaults to English.
	Languages []string
}

// NewTranscripts creates a Transcripts using fetcher.
func NewTranscripts(fetcher research.Fetcher) *Transcripts {
	return &Transcripts{Fetcher: fetcher}
}

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

var captionTracksKey = []byte(`"captionTracks":`)

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
}

func (t captionTrack) generated() bool {
	return t.Kind == "asr"
}

// FetchTranscript implements research.TranscriptFetcher.
func (s *Transcripts) FetchTranscript(ctx context.Context, videoID string) (*research.Transcript, error) {
	if !videoIDPattern.MatchString(videoID) {
		return nil, research.Errorf(research.EINVALID, "invalid video ID %q", videoID)
	}

	base := s.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	page, err := s.Fetcher.Fetch(ctx, base+"/watch?v="+videoID)
	if err != nil {
		return nil, err
	}

	tracks, err := parseCaptionTracks(page.Body)
	if err != nil {
		return nil, err
	}
	track, ok := selectTrack(tracks, s.languages())
	if !ok {
		return nil, research.Errorf(research.ENOTFOUND, "video %s has no captions in %s", videoID, strings.Join(s.languages(), ", "))
	}

	captions, err := s.Fetcher.Fetch(ctx, track.BaseURL)
	if err != nil {
		return nil, err
	}
	segments, err := ParseTimedText(captions.Body)
	if err != nil {
		return nil, err
	}
	if len(segments) == 0 {
		return nil, research.Errorf(research.ENOTFOUND, "video %s has an empty transcript", videoID)
	}

	return &research.Transcript{
		VideoID:  videoID,
		Title:    parseTitle(page.Body),
		Language: track.LanguageCode,
		Segments: segments,
	}, nil
}

func (s *Transcripts) languages() []string {
	if len(s.Languages) == 0 {
		return []string{"en"}
	}
	return s.Languages
}

func parseCaptionTracks(page []byte) ([]captionTrack, error) {
	i := bytes.Index(page, captionTracksKey)
	if i < 0 {
		return nil, research.Errorf(research.ENOTFOUND, "no captions available")
	}
	// The player response continues after the array; decode one value only.
	var tracks []captionTrack
	dec := json.NewDecoder(bytes.NewReader(page[i+len(captionTracksKey):]))
	if err := dec.Decode(&tracks); err != nil {
		return nil, research.Errorf(research.EINVALID, "parse caption tracks: %v", err)
	}
	return tracks, nil
}

// selectTrack picks the best track for the preferred languages: manual
// captions first, then generated ones. A language "en" also matches
// regional variants such as "en-GB".
func selectTrack(tracks []captionTrack, languages []string) (captionTrack, bool) {
	for _, generated := range []bool{false, true} {
		for _, lang := range languages {
			for _, t := range tracks {
				if t.BaseURL == "" || t.generated() != generated {
					continue
				}
				if t.LanguageCode == lang || strings.HasPrefix(t.LanguageCode, lang+"-") {
					return t, true
				}
			}
		}
	}
	return captionTrack{}, false
}

func parseTitle(page []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return ""
	}
	if title, ok := doc.Find(`meta[name="title"]`).Attr("content"); ok && strings.TrimSpace(title) != "" {
		return strings.TrimSpace(title)
	}
	return strings.TrimSpace(strings.TrimSuffix(doc.Find("title").First().Text(), " - YouTube"))
}

// ParseTimedText parses a timedtext XML document:
//
//	<transcript><text start="1.2" dur="3.4">Hello</text></transcript>
func ParseTimedText(data []byte) ([]research.TranscriptSegment, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, research.Errorf(research.EINVALID, "parse timed text: %v", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, research.Errorf(research.EINVALID, "empty timed text")
	}

	var segments []research.TranscriptSegment
	for _, el := range root.SelectElements("text") {
		// Caption text arrives HTML-escaped inside XML.
		text := strings.Join(strings.Fields(html.UnescapeString(el.Text())), " ")
		if text == "" {
			continue
		}
		start, err := strconv.ParseFloat(el.SelectAttrValue("start", "0"), 64)
		if err != nil {
			return nil, research.Errorf(research.EINVALID, "invalid segment start %q", el.SelectAttrValue("start", ""))
		}
		segments = append(segments, research.TranscriptSegment{
			Start: time.Duration(start * float64(time.Second)),
			Text:  text,
		})
	}
	return segments, nil
}
