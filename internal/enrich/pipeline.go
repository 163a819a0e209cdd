// Package enrich runs the asynchronous document enrichment pipeline:
// extract text, summarize, persist. Jobs are fire-and-forget; the request
// that enqueues one returns immediately with the document's current state.
package enrich

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Job identifies one enrichment run for a document.
type Job struct {
	DocID    int64
	OwnerID  int64
	Path     string
	MIMEType string
}

// Extractor produces best-effort plain text for a file. It never fails;
// degraded extraction shows up as placeholder content.
type Extractor func(path, mimeType string) string

// Summarizer produces a bounded summary of extracted text.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Store persists the enrichment result. Both fields are written together so
// readers never observe a torn pair.
type Store interface {
	SaveEnrichment(ctx context.Context, docID int64, extractedText, summary string) error
}

// Pipeline drains an unbounded job queue with a small worker pool.
//
// Runs for the same document are not serialized: concurrent re-scans race
// and the last write to land wins. That is the documented contract; do not
// add per-document locking.
type Pipeline struct {
	store      Store
	summarizer Summarizer
	extract    Extractor
	logger     *slog.Logger
	workers    int

	// OnEnriched, when set, is called after a job's result is persisted.
	OnEnriched func(job Job)

	mu    sync.Mutex
	queue []Job
	wake  chan struct{}
}

// New creates a pipeline with the given worker count (minimum 1).
func New(store Store, summarizer Summarizer, extract Extractor, workers int, logger *slog.Logger) *Pipeline {
	if workers < 1 {
		workers = 1
	}
	return &Pipeline{
		store:      store,
		summarizer: summarizer,
		extract:    extract,
		logger:     logger,
		workers:    workers,
		wake:       make(chan struct{}, workers),
	}
}

// Enqueue adds a job and returns immediately. The queue is unbounded; a slow
// summarizer backs up memory, not callers.
func (p *Pipeline) Enqueue(job Job) {
	p.mu.Lock()
	p.queue = append(p.queue, job)
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Run blocks, processing jobs with the worker pool until ctx is cancelled.
// Jobs still queued at cancellation are dropped; a re-scan can replay them.
func (p *Pipeline) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)
	for i := 0; i < p.workers; i++ {
		g.Go(func() error {
			return p.worker(gCtx)
		})
	}
	return g.Wait()
}

func (p *Pipeline) worker(ctx context.Context) error {
	for {
		if job, ok := p.pop(); ok {
			p.process(ctx, job)
			continue
		}
		select {
		case <-ctx.Done():
			return nil
		case <-p.wake:
		}
	}
}

func (p *Pipeline) pop() (Job, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.queue) == 0 {
		return Job{}, false
	}
	job := p.queue[0]
	p.queue = p.queue[1:]
	return job, true
}

// process runs one enrichment attempt. Extraction cannot fail; a summarizer
// failure aborts the attempt without persisting, so the document keeps its
// previous (possibly empty) fields and a later re-scan can retry.
func (p *Pipeline) process(ctx context.Context, job Job) {
	text := p.extract(job.Path, job.MIMEType)

	summary := ""
	if text != "" {
		s, err := p.summarizer.Summarize(ctx, text)
		if err != nil {
			p.logger.Warn("enrich: summarize failed",
				slog.Int64("doc_id", job.DocID),
				slog.String("error", err.Error()))
			return
		}
		summary = s
	}

	if err := p.store.SaveEnrichment(ctx, job.DocID, text, summary); err != nil {
		p.logger.Warn("enrich: persist failed",
			slog.Int64("doc_id", job.DocID),
			slog.String("error", err.Error()))
		return
	}

	p.logger.Debug("enrich: document processed", slog.Int64("doc_id", job.DocID))
	if p.OnEnriched != nil {
		p.OnEnriched(job)
	}
}
