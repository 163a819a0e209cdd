package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vaultkeep/vaultkeep/internal/apperr"
	"github.com/vaultkeep/vaultkeep/internal/models"
)

const noteColumns = `id, user_id, title, encrypted_body, tags, is_pinned, created_at, updated_at`

// NoteUpdate describes a partial note edit. Nil fields are left untouched.
// Body, when set, must already be a cipher token.
type NoteUpdate struct {
	Title  *string
	Body   *string
	Tags   *[]string
	Pinned *bool
}

// InsertNote persists a new note and fills in its id and timestamps.
func (s *Store) InsertNote(ctx context.Context, n *models.Note) error {
	now := time.Now().UTC()
	res, err := s.conn.ExecContext(ctx, `
		INSERT INTO notes (user_id, title, encrypted_body, tags, is_pinned, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, n.UserID, n.Title, n.EncryptedBody, marshalTags(n.Tags), boolToInt(n.Pinned), now, now)
	if err != nil {
		return fmt.Errorf("store: insert note: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("store: insert note id: %w", err)
	}
	n.ID = id
	n.CreatedAt = now
	n.UpdatedAt = now
	return nil
}

// NoteByID returns the owner's note, or ErrNotFound (also for rows owned by
// someone else).
func (s *Store) NoteByID(ctx context.Context, id, ownerID int64) (*models.Note, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE id = ? AND user_id = ?`, id, ownerID)
	n, err := scanNote(row)
	if err != nil {
		return nil, err
	}
	return n, nil
}

// ListNotes returns all the owner's notes, pinned first, most recently
// updated first within each group.
func (s *Store) ListNotes(ctx context.Context, ownerID int64) ([]models.Note, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE user_id = ? ORDER BY is_pinned DESC, updated_at DESC`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("store: list notes: %w", err)
	}
	return collectNotes(rows)
}

// ListOtherNotes returns every note of the owner except excludeID, for the
// related-notes scorer.
func (s *Store) ListOtherNotes(ctx context.Context, ownerID, excludeID int64) ([]models.Note, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE user_id = ? AND id != ?`, ownerID, excludeID)
	if err != nil {
		return nil, fmt.Errorf("store: list other notes: %w", err)
	}
	return collectNotes(rows)
}

// UpdateNote applies a partial edit and re-stamps updated_at. ErrNotFound is
// returned when the owner has no such note.
func (s *Store) UpdateNote(ctx context.Context, id, ownerID int64, upd NoteUpdate) error {
	var sets []string
	var args []any
	if upd.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *upd.Title)
	}
	if upd.Body != nil {
		sets = append(sets, "encrypted_body = ?")
		args = append(args, *upd.Body)
	}
	if upd.Tags != nil {
		sets = append(sets, "tags = ?")
		args = append(args, marshalTags(*upd.Tags))
	}
	if upd.Pinned != nil {
		sets = append(sets, "is_pinned = ?")
		args = append(args, boolToInt(*upd.Pinned))
	}
	if len(sets) == 0 {
		// Nothing to change; still verify the note exists for this owner.
		_, err := s.NoteByID(ctx, id, ownerID)
		return err
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC(), id, ownerID)

	res, err := s.conn.ExecContext(ctx,
		`UPDATE notes SET `+strings.Join(sets, ", ")+` WHERE id = ? AND user_id = ?`, args...)
	if err != nil {
		return fmt.Errorf("store: update note: %w", err)
	}
	return requireAffected(res, "update note")
}

// DeleteNote removes the owner's note, or returns ErrNotFound.
func (s *Store) DeleteNote(ctx context.Context, id, ownerID int64) error {
	res, err := s.conn.ExecContext(ctx,
		`DELETE FROM notes WHERE id = ? AND user_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("store: delete note: %w", err)
	}
	return requireAffected(res, "delete note")
}

// SearchNoteCandidates runs the coarse substring filter for relevance search:
// any term matching the title or serialized tags, most recently updated
// first, capped at limit.
func (s *Store) SearchNoteCandidates(ctx context.Context, ownerID int64, terms []string, limit int) ([]models.Note, error) {
	if len(terms) == 0 {
		return nil, nil
	}
	var conds []string
	args := []any{ownerID}
	for _, term := range terms {
		conds = append(conds, "(title LIKE ? OR tags LIKE ?)")
		pattern := "%" + term + "%"
		args = append(args, pattern, pattern)
	}
	args = append(args, limit)

	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+noteColumns+` FROM notes
		 WHERE user_id = ? AND (`+strings.Join(conds, " OR ")+`)
		 ORDER BY updated_at DESC LIMIT ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("store: search notes: %w", err)
	}
	return collectNotes(rows)
}

func scanNote(row interface{ Scan(...any) error }) (*models.Note, error) {
	var n models.Note
	var tagsJSON string
	var pinned int
	err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.EncryptedBody, &tagsJSON, &pinned, &n.CreatedAt, &n.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: scan note: %w", err)
	}
	n.Tags = unmarshalTags(tagsJSON)
	n.Pinned = pinned != 0
	return &n, nil
}

func collectNotes(rows *sql.Rows) ([]models.Note, error) {
	defer rows.Close()
	var out []models.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

func marshalTags(tags []string) string {
	if tags == nil {
		tags = []string{}
	}
	data, _ := json.Marshal(tags)
	return string(data)
}

func unmarshalTags(raw string) []string {
	tags := []string{}
	if raw != "" {
		_ = json.Unmarshal([]byte(raw), &tags)
	}
	return tags
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func requireAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: %s: %w", op, err)
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
