// Package models defines the domain types for Vaultkeep.
package models

import "time"

// User owns notes and documents. The password hash is a bcrypt digest and is
// never serialized into responses.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Note is a user note. EncryptedBody holds the cipher token as persisted; the
// plaintext body exists only transiently in request and response memory.
type Note struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	Title         string    `json:"title"`
	EncryptedBody string    `json:"-"`
	Tags          []string  `json:"tags"`
	Pinned        bool      `json:"is_pinned"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Document is an uploaded file plus its enrichment output. ExtractedText and
// Summary stay empty until the enrichment pipeline has run at least once.
type Document struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	StoredName    string    `json:"filename"`
	OriginalName  string    `json:"original_name"`
	FileURL       string    `json:"file_url"`
	ExtractedText string    `json:"-"`
	Summary       string    `json:"summary"`
	FileSize      int64     `json:"file_size"`
	CreatedAt     time.Time `json:"created_at"`
}
