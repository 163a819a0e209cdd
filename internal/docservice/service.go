// Package docservice implements document upload and lifecycle operations.
// Enrichment happens asynchronously; upload responses return the row before
// extraction or summarization has run.
package docservice

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/vaultkeep/vaultkeep/internal/apperr"
	"github.com/vaultkeep/vaultkeep/internal/enrich"
	"github.com/vaultkeep/vaultkeep/internal/models"
	"github.com/vaultkeep/vaultkeep/internal/storage"
	"github.com/vaultkeep/vaultkeep/internal/store"
)

// allowedExts are the upload formats the extractor understands.
var allowedExts = map[string]struct{}{
	".pdf":  {},
	".docx": {},
	".txt":  {},
}

// Service coordinates the uploads directory, the store, and the pipeline.
type Service struct {
	store    *store.Store
	uploads  *storage.Uploads
	pipeline *enrich.Pipeline
}

func NewService(st *store.Store, uploads *storage.Uploads, pipeline *enrich.Pipeline) *Service {
	return &Service{store: st, uploads: uploads, pipeline: pipeline}
}

// Upload stores the file, records the document, and enqueues enrichment.
// The returned document has empty extracted text and summary; clients learn
// about completion via the event stream or by re-fetching.
func (s *Service) Upload(ctx context.Context, ownerID int64, originalName, mimeType string, r io.Reader) (*models.Document, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if _, ok := allowedExts[ext]; !ok {
		return nil, fmt.Errorf("%w: unsupported file type %q", apperr.ErrInvalidInput, ext)
	}

	storedName, size, err := s.uploads.Save(originalName, r)
	if err != nil {
		return nil, err
	}

	doc := &models.Document{
		UserID:       ownerID,
		StoredName:   storedName,
		OriginalName: originalName,
		FileURL:      "/uploads/" + storedName,
		FileSize:     size,
	}
	if err := s.store.InsertDocument(ctx, doc); err != nil {
		_ = s.uploads.Remove(storedName)
		return nil, err
	}

	path, err := s.uploads.Path(storedName)
	if err != nil {
		return nil, err
	}
	s.pipeline.Enqueue(enrich.Job{
		DocID:    doc.ID,
		OwnerID:  ownerID,
		Path:     path,
		MIMEType: mimeType,
	})
	return doc, nil
}

// List returns the owner's documents, newest first.
func (s *Service) List(ctx context.Context, ownerID int64) ([]models.Document, error) {
	return s.store.ListDocuments(ctx, ownerID)
}

// Get returns one document.
func (s *Service) Get(ctx context.Context, id, ownerID int64) (*models.Document, error) {
	return s.store.DocumentByID(ctx, id, ownerID)
}

// Delete removes the row and the stored file. A missing file is tolerated;
// the row is authoritative.
func (s *Service) Delete(ctx context.Context, id, ownerID int64) error {
	doc, err := s.store.DocumentByID(ctx, id, ownerID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteDocument(ctx, id, ownerID); err != nil {
		return err
	}
	return s.uploads.Remove(doc.StoredName)
}

// Rescan re-enqueues enrichment for an existing document. The previous
// enrichment stays in place until the new run persists.
func (s *Service) Rescan(ctx context.Context, id, ownerID int64) (*models.Document, error) {
	doc, err := s.store.DocumentByID(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	path, err := s.uploads.Path(doc.StoredName)
	if err != nil {
		return nil, err
	}
	s.pipeline.Enqueue(enrich.Job{
		DocID:   doc.ID,
		OwnerID: ownerID,
		Path:    path,
	})
	return doc, nil
}

// DownloadPath resolves the on-disk path for a document the owner may read.
func (s *Service) DownloadPath(ctx context.Context, id, ownerID int64) (string, *models.Document, error) {
	doc, err := s.store.DocumentByID(ctx, id, ownerID)
	if err != nil {
		return "", nil, err
	}
	path, err := s.uploads.Path(doc.StoredName)
	if err != nil {
		return "", nil, err
	}
	return path, doc, nil
}
