package acquire

import (
	"bytes"
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/fwojciec/research"
	"github.com/fwojciec/research/retry"
)

// loaded is the parsed content of one source before it becomes a Document.
type loaded struct {
	title    string
	content  string
	kind     research.SourceKind
	artifact *research.Artifact
}

func (a *Acquirer) policy() retry.Policy {
	if a.Retry.Delays == nil {
		p := retry.DefaultPolicy()
		p.Logf = a.Retry.Logf
		return p
	}
	return a.Retry
}

func (a *Acquirer) minContentLength() int {
	if a.MinContentLength <= 0 {
		return DefaultMinContentLength
	}
	return a.MinContentLength
}

func (a *Acquirer) load(ctx context.Context, t *task) (*loaded, error) {
	if t.candidate == nil {
		return a.loadLocal(ctx, t.key)
	}
	c := t.candidate
	switch c.Kind {
	case research.SourceVideo:
		return a.loadVideo(ctx, c)
	case research.SourcePDF:
		return a.loadPDF(ctx, c)
	case research.SourceArticle, "":
		return a.loadArticle(ctx, c)
	}
	return nil, research.Errorf(research.EUNSUPPORTED, "unsupported source kind %q", c.Kind)
}

// fetch retrieves a URL under the retry policy, waiting on the domain
// limiter before every attempt.
func (a *Acquirer) fetch(ctx context.Context, rawURL string) (*research.Resource, error) {
	if a.Fetcher == nil {
		return nil, research.Errorf(research.EUNSUPPORTED, "no fetcher configured")
	}
	return retry.Do(ctx, a.policy(), rawURL, func(ctx context.Context) (*research.Resource, error) {
		if a.RateLimiter != nil {
			if u, err := url.Parse(rawURL); err == nil {
				if err := a.RateLimiter.Wait(ctx, u.Hostname()); err != nil {
					return nil, err
				}
			}
		}
		return a.Fetcher.Fetch(ctx, rawURL)
	})
}

func (a *Acquirer) loadArticle(ctx context.Context, c *research.Candidate) (*loaded, error) {
	res, err := a.fetch(ctx, c.URL)
	if err != nil {
		return nil, err
	}

	switch mt := res.MediaType(); {
	case mt == "application/pdf" || bytes.HasPrefix(res.Body, []byte("%PDF-")):
		return a.parsePDF(c, res.Body)
	case mt == "text/plain":
		return a.checkArticle(c, c.Title, string(res.Body))
	case mt == "" || mt == "text/html" || mt == "application/xhtml+xml":
	default:
		return nil, research.Errorf(research.EUNSUPPORTED, "unsupported content type %q", mt)
	}

	if a.Extractor == nil || a.Converter == nil {
		return nil, research.Errorf(research.EUNSUPPORTED, "no article extractor configured")
	}
	extracted, err := a.Extractor.Extract(string(res.Body))
	if err != nil {
		return nil, err
	}
	markdown, err := a.Converter.Convert(extracted.ContentHTML)
	if err != nil {
		return nil, err
	}

	title := extracted.Title
	if title == "" {
		title = c.Title
	}
	return a.checkArticle(c, title, markdown)
}

func (a *Acquirer) checkArticle(c *research.Candidate, title, text string) (*loaded, error) {
	text = strings.TrimSpace(text)
	if n := utf8.RuneCountInString(text); n < a.minContentLength() {
		return nil, research.Errorf(research.EINVALID, "extracted content too short (%d characters)", n)
	}
	if title == "" {
		title = c.URL
	}
	return &loaded{
		title:   title,
		content: text,
		kind:    research.SourceArticle,
		artifact: &research.Artifact{
			Title:   title,
			Source:  c.URL,
			Kind:    research.SourceArticle,
			Ext:     ".md",
			Content: text,
		},
	}, nil
}

func (a *Acquirer) loadPDF(ctx context.Context, c *research.Candidate) (*loaded, error) {
	res, err := a.fetch(ctx, c.URL)
	if err != nil {
		return nil, err
	}
	return a.parsePDF(c, res.Body)
}

func (a *Acquirer) parsePDF(c *research.Candidate, data []byte) (*loaded, error) {
	if a.PDF == nil {
		return nil, research.Errorf(research.EUNSUPPORTED, "no PDF extractor configured")
	}
	text, err := a.PDF.ExtractPDF(data)
	if err != nil {
		return nil, err
	}
	content := strings.TrimSpace(text.Text)
	if content == "" {
		return nil, research.Errorf(research.EINVALID, "PDF has no extractable text")
	}

	title := c.Title
	if title == "" {
		title = text.Title
	}
	if title == "" {
		title = c.URL
	}
	return &loaded{
		title:   title,
		content: content,
		kind:    research.SourcePDF,
		artifact: &research.Artifact{
			Title:  title,
			Source: c.URL,
			Kind:   research.SourcePDF,
			Ext:    ".pdf",
			Raw:    data,
		},
	}, nil
}

func (a *Acquirer) loadVideo(ctx context.Context, c *research.Candidate) (*loaded, error) {
	if a.Transcripts == nil {
		return nil, research.Errorf(research.EUNSUPPORTED, "no transcript fetcher configured")
	}
	id, ok := research.VideoID(c.URL)
	if !ok {
		return nil, research.Errorf(research.EUNSUPPORTED, "cannot derive video ID from %s", c.URL)
	}

	tr, err := retry.Do(ctx, a.policy(), c.URL, func(ctx context.Context) (*research.Transcript, error) {
		return a.Transcripts.FetchTranscript(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	content := tr.Text()
	if content == "" {
		return nil, research.Errorf(research.ENOTFOUND, "transcript for video %s is empty", id)
	}

	title := c.Title
	if title == "" {
		title = tr.Title
	}
	if title == "" {
		title = "YouTube video " + id
	}
	return &loaded{
		title:   title,
		content: content,
		kind:    research.SourceVideo,
		artifact: &research.Artifact{
			Title:   title,
			Source:  c.URL,
			Kind:    research.SourceVideo,
			Ext:     ".txt",
			Content: content,
		},
	}, nil
}

// loadLocal reads a file from disk. Local files are not copied to the
// scratch directory.
func (a *Acquirer) loadLocal(ctx context.Context, path string) (*loaded, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, research.Errorf(research.ENOTFOUND, "file %s does not exist", path)
		}
		return nil, err
	}

	base := filepath.Base(path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		l, err := a.parsePDF(&research.Candidate{URL: path}, data)
		if err != nil {
			return nil, err
		}
		if l.title == path {
			l.title = strings.TrimSuffix(base, filepath.Ext(base))
		}
		l.artifact = nil
		return l, nil
	case ".txt", ".md":
		title, content := splitTitle(string(data))
		if title == "" {
			title = strings.TrimSuffix(base, filepath.Ext(base))
		}
		if strings.TrimSpace(content) == "" {
			return nil, research.Errorf(research.EINVALID, "file %s is empty", path)
		}
		return &loaded{title: title, content: content, kind: research.SourceText}, nil
	}
	return nil, research.Errorf(research.EUNSUPPORTED, "unsupported file type %s", base)
}

// splitTitle extracts the title from a leading header of "Title:" and
// "Source:" lines, optionally closed by a rule of "=" characters. This is
// the header written to saved text artifacts.
func splitTitle(text string) (string, string) {
	var title string
	rest := text
	for range 3 {
		line, tail, _ := strings.Cut(rest, "\n")
		trimmed := strings.TrimSpace(line)
		if t, ok := strings.CutPrefix(trimmed, "Title:"); ok {
			title, rest = strings.TrimSpace(t), tail
			continue
		}
		if strings.HasPrefix(trimmed, "Source:") {
			rest = tail
			continue
		}
		if title != "" && trimmed != "" && strings.Trim(trimmed, "=") == "" {
			rest = tail
		}
		break
	}
	if title == "" {
		return "", text
	}
	return title, strings.TrimLeft(rest, "\n")
}

func absPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", research.Errorf(research.EINVALID, "invalid path %q: %v", path, err)
	}
	return abs, nil
}
