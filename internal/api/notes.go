package api

import (
	"errors"
	"net/http"

	"github.com/vaultkeep/vaultkeep/internal/ai"
	"github.com/vaultkeep/vaultkeep/internal/noteservice"
)

// ListNotes handles GET /api/notes.
//
//	@Summary		List the account's notes, pinned first
//	@Tags			notes
//	@Produce		json
//	@Success		200	{array}	NoteListItem
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	items, err := h.notes.List(r.Context(), currentUser(r).ID)
	if err != nil {
		h.writeError(w, "list notes", err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// CreateNote handles POST /api/notes.
//
//	@Summary		Create a note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateNoteRequest	true	"Note to create"
//	@Success		201		{object}	NoteDetail
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if !decodeBody(w, r, &req) {
		return
	}

	note, err := h.notes.Create(r.Context(), currentUser(r).ID, req.Title, req.Body, req.Tags, req.Pinned)
	if err != nil {
		h.writeError(w, "create note", err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// GetNote handles GET /api/notes/{id}.
//
//	@Summary		Get a note with its decrypted body
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		int	true	"Note id"
//	@Success		200	{object}	NoteDetail
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid note id"))
		return
	}

	note, err := h.notes.Get(r.Context(), id, currentUser(r).ID)
	if err != nil {
		h.writeError(w, "get note", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// UpdateNote handles PUT /api/notes/{id}.
//
//	@Summary		Partially update a note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int					true	"Note id"
//	@Param			body	body		UpdateNoteRequest	true	"Fields to change"
//	@Success		200		{object}	NoteDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [put]
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid note id"))
		return
	}

	var req UpdateNoteRequest
	if !decodeBody(w, r, &req) {
		return
	}

	note, err := h.notes.Update(r.Context(), id, currentUser(r).ID, noteservice.NoteChanges{
		Title:  req.Title,
		Body:   req.Body,
		Tags:   req.Tags,
		Pinned: req.Pinned,
	})
	if err != nil {
		h.writeError(w, "update note", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// DeleteNote handles DELETE /api/notes/{id}.
//
//	@Summary		Delete a note
//	@Tags			notes
//	@Param			id	path	int	true	"Note id"
//	@Success		204	"Note deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [delete]
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid note id"))
		return
	}

	if err := h.notes.Delete(r.Context(), id, currentUser(r).ID); err != nil {
		h.writeError(w, "delete note", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RelatedNotes handles GET /api/notes/{id}/related.
//
//	@Summary		List up to five notes related by tag overlap
//	@Tags			notes
//	@Produce		json
//	@Param			id	path	int	true	"Note id"
//	@Success		200	{array}	search.RelatedNote
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/related [get]
func (h *Handler) RelatedNotes(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid note id"))
		return
	}

	related, err := h.notes.Related(r.Context(), id, currentUser(r).ID)
	if err != nil {
		h.writeError(w, "related notes", err)
		return
	}
	writeJSON(w, http.StatusOK, related)
}

// SummarizeNote handles POST /api/notes/{id}/summarize.
//
//	@Summary		Summarize a note's body on demand
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		int	true	"Note id"
//	@Success		200	{object}	SummaryResponse
//	@Failure		404	{object}	errResponse
//	@Failure		503	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/summarize [post]
func (h *Handler) SummarizeNote(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid note id"))
		return
	}

	summary, err := h.notes.Summarize(r.Context(), id, currentUser(r).ID)
	if err != nil {
		if errors.Is(err, ai.ErrUnavailable) {
			writeJSON(w, http.StatusServiceUnavailable, errorBody("summarizer unavailable"))
			return
		}
		h.writeError(w, "summarize note", err)
		return
	}
	writeJSON(w, http.StatusOK, SummaryResponse{Summary: summary})
}
