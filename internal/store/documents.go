package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vaultkeep/vaultkeep/internal/apperr"
	"github.com/vaultkeep/vaultkeep/internal/models"
)

const documentColumns = `id, user_id, stored_name, original_name, file_url, extracted_text, summary, file_size, created_at`

// InsertDocument persists a new document row and fills in its id and
// creation time. Enrichment fields start empty.
func (s *Store) InsertDocument(ctx context.Context, d *models.Document) error {
	now := time.Now().UTC()
	res, err := s.conn.ExecContext(ctx, `
		INSERT INTO documents (user_id, stored_name, original_name, file_url, file_size, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, d.UserID, d.StoredName, d.OriginalName, d.FileURL, d.FileSize, now)
	if err != nil {
		return fmt.Errorf("store: insert document: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("store: insert document id: %w", err)
	}
	d.ID = id
	d.CreatedAt = now
	return nil
}

// DocumentByID returns the owner's document, or ErrNotFound.
func (s *Store) DocumentByID(ctx context.Context, id, ownerID int64) (*models.Document, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = ? AND user_id = ?`, id, ownerID)
	return scanDocument(row)
}

// DocumentByStoredName resolves a document from its on-disk name. Used by the
// uploads watcher, which sees files rather than owners.
func (s *Store) DocumentByStoredName(ctx context.Context, storedName string) (*models.Document, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE stored_name = ?`, storedName)
	return scanDocument(row)
}

// ListDocuments returns all the owner's documents, most recent first.
func (s *Store) ListDocuments(ctx context.Context, ownerID int64) ([]models.Document, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE user_id = ? ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("store: list documents: %w", err)
	}
	return collectDocuments(rows)
}

// DeleteDocument removes the owner's document row, or returns ErrNotFound.
// The caller is responsible for the backing file.
func (s *Store) DeleteDocument(ctx context.Context, id, ownerID int64) error {
	res, err := s.conn.ExecContext(ctx,
		`DELETE FROM documents WHERE id = ? AND user_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("store: delete document: %w", err)
	}
	return requireAffected(res, "delete document")
}

// SaveEnrichment overwrites both enrichment fields in one statement, so a
// reader never observes a torn pair. It is idempotent and last-write-wins
// under concurrent re-scans.
func (s *Store) SaveEnrichment(ctx context.Context, docID int64, extractedText, summary string) error {
	res, err := s.conn.ExecContext(ctx,
		`UPDATE documents SET extracted_text = ?, summary = ? WHERE id = ?`,
		extractedText, summary, docID)
	if err != nil {
		return fmt.Errorf("store: save enrichment: %w", err)
	}
	return requireAffected(res, "save enrichment")
}

// SearchDocumentCandidates runs the coarse substring filter over original
// names and summaries, most recent first, capped at limit.
func (s *Store) SearchDocumentCandidates(ctx context.Context, ownerID int64, terms []string, limit int) ([]models.Document, error) {
	if len(terms) == 0 {
		return nil, nil
	}
	var conds []string
	args := []any{ownerID}
	for _, term := range terms {
		conds = append(conds, "(original_name LIKE ? OR summary LIKE ?)")
		pattern := "%" + term + "%"
		args = append(args, pattern, pattern)
	}
	args = append(args, limit)

	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents
		 WHERE user_id = ? AND (`+strings.Join(conds, " OR ")+`)
		 ORDER BY created_at DESC LIMIT ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("store: search documents: %w", err)
	}
	return collectDocuments(rows)
}

func scanDocument(row interface{ Scan(...any) error }) (*models.Document, error) {
	var d models.Document
	err := row.Scan(&d.ID, &d.UserID, &d.StoredName, &d.OriginalName, &d.FileURL,
		&d.ExtractedText, &d.Summary, &d.FileSize, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: scan document: %w", err)
	}
	return &d, nil
}

func collectDocuments(rows *sql.Rows) ([]models.Document, error) {
	defer rows.Close()
	var out []models.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}
