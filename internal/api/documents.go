package api

import (
	"net/http"
)

const maxUploadBytes = 50 << 20 // 50 MB

// ListDocuments handles GET /api/documents.
//
//	@Summary		List the account's documents, newest first
//	@Tags			documents
//	@Produce		json
//	@Success		200	{array}	models.Document
//	@Security		BearerAuth
//	@Router			/documents [get]
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.docs.List(r.Context(), currentUser(r).ID)
	if err != nil {
		h.writeError(w, "list documents", err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// UploadDocument handles POST /api/documents/upload (multipart, field "file").
// The response carries the row before enrichment has run; extracted text and
// summary arrive later via the event stream.
//
//	@Summary		Upload a document and queue its enrichment
//	@Tags			documents
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	true	"Document (.pdf, .docx, .txt)"
//	@Success		201		{object}	models.Document
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/upload [post]
func (h *Handler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	doc, err := h.docs.Upload(r.Context(), currentUser(r).ID, header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		h.writeError(w, "upload document", err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

// GetDocument handles GET /api/documents/{id}.
//
//	@Summary		Get a document including its extracted text
//	@Tags			documents
//	@Produce		json
//	@Param			id	path		int	true	"Document id"
//	@Success		200	{object}	DocumentDetail
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{id} [get]
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid document id"))
		return
	}

	doc, err := h.docs.Get(r.Context(), id, currentUser(r).ID)
	if err != nil {
		h.writeError(w, "get document", err)
		return
	}
	writeJSON(w, http.StatusOK, DocumentDetail{Document: *doc, ExtractedText: doc.ExtractedText})
}

// DownloadDocument handles GET /api/documents/{id}/download.
//
//	@Summary		Download the original file
//	@Tags			documents
//	@Produce		octet-stream
//	@Param			id	path	int	true	"Document id"
//	@Success		200	"File content"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{id}/download [get]
func (h *Handler) DownloadDocument(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid document id"))
		return
	}

	path, doc, err := h.docs.DownloadPath(r.Context(), id, currentUser(r).ID)
	if err != nil {
		h.writeError(w, "download document", err)
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="`+doc.OriginalName+`"`)
	w.Header().Set("Content-Type", "application/octet-stream")
	http.ServeFile(w, r, path)
}

// RescanDocument handles POST /api/documents/{id}/rescan.
//
//	@Summary		Queue a fresh enrichment run
//	@Tags			documents
//	@Produce		json
//	@Param			id	path		int	true	"Document id"
//	@Success		202	{object}	models.Document
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{id}/rescan [post]
func (h *Handler) RescanDocument(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid document id"))
		return
	}

	doc, err := h.docs.Rescan(r.Context(), id, currentUser(r).ID)
	if err != nil {
		h.writeError(w, "rescan document", err)
		return
	}
	writeJSON(w, http.StatusAccepted, doc)
}

// DeleteDocument handles DELETE /api/documents/{id}.
//
//	@Summary		Delete a document and its stored file
//	@Tags			documents
//	@Param			id	path	int	true	"Document id"
//	@Success		204	"Document deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{id} [delete]
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid document id"))
		return
	}

	if err := h.docs.Delete(r.Context(), id, currentUser(r).ID); err != nil {
		h.writeError(w, "delete document", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
