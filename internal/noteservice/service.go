// Package noteservice implements note operations on top of the store and
// the content cipher. Bodies are encrypted at rest and decrypted on read.
package noteservice

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vaultkeep/vaultkeep/internal/crypto"
	"github.com/vaultkeep/vaultkeep/internal/models"
	"github.com/vaultkeep/vaultkeep/internal/search"
	"github.com/vaultkeep/vaultkeep/internal/store"
)

// NoteDetail is the full representation of a note with its decrypted body.
type NoteDetail struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Tags      []string  `json:"tags"`
	Pinned    bool      `json:"is_pinned"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NoteListItem is a lightweight item in a list response. Bodies stay
// encrypted; listing never decrypts.
type NoteListItem struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Tags      []string  `json:"tags"`
	Pinned    bool      `json:"is_pinned"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NoteChanges describes a partial update. Nil fields are left untouched.
type NoteChanges struct {
	Title  *string
	Body   *string
	Tags   *[]string
	Pinned *bool
}

// Summarizer produces a bounded summary of note text.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Service coordinates store, cipher, and summarizer for note operations.
type Service struct {
	store      *store.Store
	cipher     *crypto.Cipher
	summarizer Summarizer
	logger     *slog.Logger
}

func NewService(st *store.Store, cipher *crypto.Cipher, summarizer Summarizer, logger *slog.Logger) *Service {
	return &Service{store: st, cipher: cipher, summarizer: summarizer, logger: logger}
}

// Create encrypts the body and persists a new note.
func (s *Service) Create(ctx context.Context, ownerID int64, title, body string, tags []string, pinned bool) (*NoteDetail, error) {
	encrypted, err := s.cipher.Encrypt(body)
	if err != nil {
		return nil, fmt.Errorf("noteservice: encrypt body: %w", err)
	}

	note := &models.Note{
		UserID:        ownerID,
		Title:         title,
		EncryptedBody: encrypted,
		Tags:          tags,
		Pinned:        pinned,
	}
	if err := s.store.InsertNote(ctx, note); err != nil {
		return nil, err
	}
	return s.detail(note), nil
}

// Get returns a note with its decrypted body. A body that no longer decrypts
// (key rotated, row tampered with) comes back empty rather than failing the
// whole read.
func (s *Service) Get(ctx context.Context, id, ownerID int64) (*NoteDetail, error) {
	note, err := s.store.NoteByID(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	return s.detail(note), nil
}

// List returns the owner's notes, pinned first, without decrypting bodies.
func (s *Service) List(ctx context.Context, ownerID int64) ([]NoteListItem, error) {
	notes, err := s.store.ListNotes(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	items := make([]NoteListItem, 0, len(notes))
	for _, n := range notes {
		items = append(items, NoteListItem{
			ID:        n.ID,
			Title:     n.Title,
			Tags:      n.Tags,
			Pinned:    n.Pinned,
			UpdatedAt: n.UpdatedAt,
		})
	}
	return items, nil
}

// Update applies a partial update, re-encrypting the body when it changes.
func (s *Service) Update(ctx context.Context, id, ownerID int64, changes NoteChanges) (*NoteDetail, error) {
	upd := store.NoteUpdate{
		Title:  changes.Title,
		Tags:   changes.Tags,
		Pinned: changes.Pinned,
	}
	if changes.Body != nil {
		encrypted, err := s.cipher.Encrypt(*changes.Body)
		if err != nil {
			return nil, fmt.Errorf("noteservice: encrypt body: %w", err)
		}
		upd.Body = &encrypted
	}

	if err := s.store.UpdateNote(ctx, id, ownerID, upd); err != nil {
		return nil, err
	}
	return s.Get(ctx, id, ownerID)
}

// Delete removes a note.
func (s *Service) Delete(ctx context.Context, id, ownerID int64) error {
	return s.store.DeleteNote(ctx, id, ownerID)
}

// Related returns up to five of the owner's other notes ranked by tag
// overlap. A note without tags has no related notes.
func (s *Service) Related(ctx context.Context, id, ownerID int64) ([]search.RelatedNote, error) {
	note, err := s.store.NoteByID(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	candidates, err := s.store.ListOtherNotes(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	return search.RelatedByTags(note.Tags, candidates), nil
}

// Summarize decrypts the note body and summarizes it on demand.
func (s *Service) Summarize(ctx context.Context, id, ownerID int64) (string, error) {
	note, err := s.store.NoteByID(ctx, id, ownerID)
	if err != nil {
		return "", err
	}
	return s.summarizer.Summarize(ctx, s.decryptBody(note))
}

func (s *Service) detail(note *models.Note) *NoteDetail {
	return &NoteDetail{
		ID:        note.ID,
		Title:     note.Title,
		Body:      s.decryptBody(note),
		Tags:      note.Tags,
		Pinned:    note.Pinned,
		CreatedAt: note.CreatedAt,
		UpdatedAt: note.UpdatedAt,
	}
}

func (s *Service) decryptBody(note *models.Note) string {
	body, err := s.cipher.Decrypt(note.EncryptedBody)
	if err != nil {
		s.logger.Warn("noteservice: body failed to decrypt", slog.Int64("note_id", note.ID))
		return ""
	}
	return body
}
