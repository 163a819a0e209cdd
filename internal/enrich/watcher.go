package enrich

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vaultkeep/vaultkeep/internal/models"
)

// DocumentLookup resolves a stored file name to its document row.
type DocumentLookup func(ctx context.Context, storedName string) (*models.Document, error)

const settleDelay = 200 * time.Millisecond

// Watcher re-enqueues enrichment when a stored upload is rewritten in place.
// Fresh uploads land via rename and are enqueued by the upload path itself,
// so only write events matter here.
//
// A rewrite fires several write events in a burst (truncate, then one or
// more writes), so pending names are debounced and checksummed only after
// the burst settles. Unchanged content is suppressed.
type Watcher struct {
	root     string
	lookup   DocumentLookup
	pipeline *Pipeline
	logger   *slog.Logger

	pending   map[string]struct{}
	checksums map[string]string
}

func NewWatcher(root string, lookup DocumentLookup, pipeline *Pipeline, logger *slog.Logger) *Watcher {
	return &Watcher{
		root:      root,
		lookup:    lookup,
		pipeline:  pipeline,
		logger:    logger,
		pending:   make(map[string]struct{}),
		checksums: make(map[string]string),
	}
}

// Run watches the uploads directory until ctx is cancelled. All state is
// owned by this goroutine.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("enrich: create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.root); err != nil {
		return fmt.Errorf("enrich: watch %s: %w", w.root, err)
	}
	w.logger.Info("enrich: watching uploads", slog.String("dir", w.root))

	var settleTimer *time.Timer
	var settleCh <-chan time.Time

	scheduleSettle := func() {
		if settleTimer == nil {
			settleTimer = time.NewTimer(settleDelay)
			settleCh = settleTimer.C
		} else {
			settleTimer.Reset(settleDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if settleTimer != nil {
				settleTimer.Stop()
			}
			return nil

		case <-settleCh:
			w.processPending(ctx)

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			name := filepath.Base(event.Name)

			switch {
			case event.Op.Has(fsnotify.Remove):
				delete(w.pending, name)
				delete(w.checksums, name)
				w.logger.Warn("enrich: stored file removed outside the app", slog.String("file", name))

			case event.Op.Has(fsnotify.Write):
				w.pending[name] = struct{}{}
				scheduleSettle()
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("enrich: watcher error", slog.String("error", err.Error()))
		}
	}
}

func (w *Watcher) processPending(ctx context.Context) {
	for name := range w.pending {
		delete(w.pending, name)

		path := filepath.Join(w.root, name)
		sum, err := fileChecksum(path)
		if err != nil {
			// Gone again already; the remove event will clean up.
			continue
		}
		if w.checksums[name] == sum {
			continue
		}
		w.checksums[name] = sum

		doc, err := w.lookup(ctx, name)
		if err != nil {
			w.logger.Debug("enrich: rewritten file has no document", slog.String("file", name))
			continue
		}

		w.logger.Info("enrich: stored file rewritten, re-enriching",
			slog.String("file", name), slog.Int64("doc_id", doc.ID))
		w.pipeline.Enqueue(Job{
			DocID:   doc.ID,
			OwnerID: doc.UserID,
			Path:    path,
		})
	}
}

func fileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
