// Package acquire turns approved candidates and local files into documents
// using a bounded pool of concurrent fetches.
package acquire

import (
	"context"
	"sync"

	"github.com/fwojciec/research"
	"github.com/fwojciec/research/retry"
	"golang.org/x/sync/errgroup"
)

// Defaults.
const (
	DefaultConcurrency      = 5
	DefaultMinContentLength = 200
)

// Acquirer fetches and parses sources. Fetcher, Extractor and Converter are
// required for articles; PDF and Transcripts enable their source kinds.
// Artifacts and RateLimiter are optional.
type Acquirer struct {
	Fetcher     research.Fetcher
	Extractor   research.Extractor
	Converter   research.Converter
	PDF         research.PDFExtractor
	Transcripts research.TranscriptFetcher
	Artifacts   research.ArtifactStore
	RateLimiter research.DomainLimiter

	// Concurrency bounds in-flight tasks. Defaults to DefaultConcurrency.
	Concurrency int

	// Retry applies to each network call. A policy without delays falls
	// back to retry.DefaultPolicy.
	Retry retry.Policy

	// MinContentLength is the minimum rune count of parsed article text.
	MinContentLength int

	// Progress, if set, receives events from the goroutine that called Collect.
	Progress ProgressFunc
}

// Result holds the documents that loaded and the sources that did not.
type Result struct {
	Documents []research.Document
	Failures  []research.AcquisitionFailure
}

// Summary reports e.g. "12 of 15 sources loaded; 3 failed: ...".
func (r *Result) Summary() string {
	return research.FormatAcquisitionSummary(len(r.Documents), r.Failures)
}

// ProgressEvent reports progress while a batch is collected.
type ProgressEvent struct {
	Type      ProgressType
	Completed int
	Total     int
	Source    string
	Error     error
}

// ProgressType indicates the type of progress event.
type ProgressType int

const (
	ProgressStarted ProgressType = iota
	ProgressCompleted
	ProgressFailed
	ProgressFinished
)

// ProgressFunc is a callback for reporting acquisition progress.
type ProgressFunc func(event ProgressEvent)

// Acquire loads approved candidates and local paths. Individual failures
// are reported in Result.Failures; an error is returned only when ctx is
// cancelled or two sources resolve to the same document ID.
func (a *Acquirer) Acquire(ctx context.Context, approved []research.Candidate, localPaths []string) (*Result, error) {
	return a.Start(ctx, approved, localPaths).Collect(approved)
}

// task is the unit of work for one source.
type task struct {
	position  int
	candidate *research.Candidate
	path      string
	key       string
	keyErr    error

	ctx    context.Context
	cancel context.CancelFunc

	out *loaded
	err error
}

// Batch is a set of acquisitions started before approval completes.
type Batch struct {
	acquirer *Acquirer
	ctx      context.Context
	cancel   context.CancelFunc
	tasks    []*task
	finished chan int

	mu        sync.Mutex
	collected bool
}

// Start begins acquiring candidates and local paths in the background.
// Call Collect with the approved candidates to wait for their results;
// tasks for candidates that are not approved are cancelled and their
// results are never materialized.
func (a *Acquirer) Start(ctx context.Context, candidates []research.Candidate, localPaths []string) *Batch {
	concurrency := a.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	bctx, cancel := context.WithCancel(ctx)
	b := &Batch{
		acquirer: a,
		ctx:      bctx,
		cancel:   cancel,
		finished: make(chan int, len(candidates)+len(localPaths)),
	}

	for i := range candidates {
		c := candidates[i]
		t := &task{position: len(b.tasks), candidate: &c}
		t.key, t.keyErr = research.CanonicalURL(c.URL)
		b.tasks = append(b.tasks, t)
	}
	for _, p := range localPaths {
		t := &task{position: len(b.tasks), path: p}
		t.key, t.keyErr = absPath(p)
		b.tasks = append(b.tasks, t)
	}
	for _, t := range b.tasks {
		t.ctx, t.cancel = context.WithCancel(bctx)
	}

	var g errgroup.Group
	g.SetLimit(concurrency)

	go func() {
		for _, t := range b.tasks {
			g.Go(func() error {
				defer func() { b.finished <- t.position }()
				defer t.cancel()
				if err := t.ctx.Err(); err != nil {
					t.err = err
					return nil
				}
				if t.keyErr != nil {
					t.err = t.keyErr
					return nil
				}
				t.out, t.err = a.load(t.ctx, t)
				return nil
			})
		}
		_ = g.Wait()
	}()

	return b
}

// Collect waits for the approved candidates and every local path, then
// builds documents in start order. Candidates that were not part of the
// batch are reported as failures. Collect may be called once.
func (b *Batch) Collect(approved []research.Candidate) (*Result, error) {
	b.mu.Lock()
	if b.collected {
		b.mu.Unlock()
		return nil, research.Errorf(research.EINVALID, "batch already collected")
	}
	b.collected = true
	b.mu.Unlock()
	defer b.cancel()

	a := b.acquirer
	result := &Result{Documents: []research.Document{}}

	byKey := make(map[string]*task, len(b.tasks))
	for _, t := range b.tasks {
		if t.candidate != nil && t.keyErr == nil {
			byKey[t.key] = t
		}
	}

	wanted := make(map[int]bool, len(b.tasks))
	for i := range approved {
		key, err := research.CanonicalURL(approved[i].URL)
		t, ok := byKey[key]
		if err != nil || !ok {
			// Approved candidates with unparseable URLs match by raw URL.
			if t, ok = b.rawMatch(approved[i].URL); !ok {
				c := approved[i]
				result.Failures = append(result.Failures, research.AcquisitionFailure{
					Candidate: &c,
					Err:       research.Errorf(research.EINVALID, "candidate %s was not offered for approval", c.URL),
				})
				continue
			}
		}
		wanted[t.position] = true
	}
	for _, t := range b.tasks {
		if t.candidate == nil {
			wanted[t.position] = true
		} else if !wanted[t.position] {
			t.cancel()
		}
	}

	total := len(wanted)
	if a.Progress != nil {
		a.Progress(ProgressEvent{Type: ProgressStarted, Total: total})
	}

	completed := 0
	for completed < total {
		select {
		case <-b.ctx.Done():
			return nil, b.ctx.Err()
		case pos := <-b.finished:
			if !wanted[pos] {
				continue
			}
			completed++
			t := b.tasks[pos]
			if a.Progress != nil {
				event := ProgressEvent{Type: ProgressCompleted, Completed: completed, Total: total, Source: t.source()}
				if t.err != nil {
					event.Type = ProgressFailed
					event.Error = t.err
				}
				a.Progress(event)
			}
		}
	}
	if err := b.ctx.Err(); err != nil {
		return nil, err
	}

	seen := make(map[string]string, total)
	for _, t := range b.tasks {
		if !wanted[t.position] {
			continue
		}
		if t.err != nil {
			result.Failures = append(result.Failures, t.failure(t.err))
			continue
		}

		doc, err := b.materialize(t)
		if err != nil {
			if err := b.ctx.Err(); err != nil {
				return nil, err
			}
			result.Failures = append(result.Failures, t.failure(err))
			continue
		}
		if prev, ok := seen[doc.ID]; ok {
			return nil, research.Errorf(research.EINTEGRITY, "sources %s and %s resolve to document %s", prev, t.source(), doc.ID)
		}
		seen[doc.ID] = t.source()
		result.Documents = append(result.Documents, doc)
	}

	if a.Progress != nil {
		a.Progress(ProgressEvent{Type: ProgressFinished, Completed: completed, Total: total})
	}
	return result, nil
}

func (b *Batch) rawMatch(rawURL string) (*task, bool) {
	for _, t := range b.tasks {
		if t.candidate != nil && t.candidate.URL == rawURL {
			return t, true
		}
	}
	return nil, false
}

// materialize saves the artifact, if any, and builds the document.
func (b *Batch) materialize(t *task) (research.Document, error) {
	out := t.out
	doc := research.Document{
		ID:      research.DocumentID(t.key),
		Content: out.content,
		Metadata: research.DocumentMetadata{
			Source:     t.key,
			SourceType: out.kind,
			Title:      out.title,
			Origin:     research.OriginOnline,
		},
	}
	if t.candidate == nil {
		doc.Metadata.Origin = research.OriginLocal
	}

	if out.artifact != nil && b.acquirer.Artifacts != nil {
		path, err := b.acquirer.Artifacts.SaveArtifact(b.ctx, out.artifact)
		if err != nil {
			return research.Document{}, err
		}
		doc.Metadata.ArtifactPath = path
	}
	return doc, doc.Validate()
}

func (t *task) source() string {
	if t.candidate != nil {
		return t.candidate.URL
	}
	return t.path
}

func (t *task) failure(err error) research.AcquisitionFailure {
	return research.AcquisitionFailure{Candidate: t.candidate, Path: t.path, Err: err}
}
