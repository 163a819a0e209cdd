package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vaultkeep/vaultkeep/internal/apperr"
	"github.com/vaultkeep/vaultkeep/internal/auth"
	"github.com/vaultkeep/vaultkeep/internal/crypto"
	"github.com/vaultkeep/vaultkeep/internal/docservice"
	"github.com/vaultkeep/vaultkeep/internal/noteservice"
	"github.com/vaultkeep/vaultkeep/internal/searchservice"
	"github.com/vaultkeep/vaultkeep/internal/store"
)

// Handler holds API route handlers.
type Handler struct {
	notes  *noteservice.Service
	docs   *docservice.Service
	search *searchservice.Service
	store  *store.Store
	tokens *auth.Tokens
	logger *slog.Logger
}

// NewHandler creates a new Handler.
func NewHandler(notes *noteservice.Service, docs *docservice.Service, search *searchservice.Service, st *store.Store, tokens *auth.Tokens, logger *slog.Logger) *Handler {
	return &Handler{notes: notes, docs: docs, search: search, store: st, tokens: tokens, logger: logger}
}

// idParam extracts the numeric {id} route parameter.
func idParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// decodeBody decodes and validates a JSON request body.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{ Validate() error }) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	if err := dst.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return false
	}
	return true
}

// writeError maps service errors onto HTTP statuses.
func (h *Handler) writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, errorBody("already exists"))
	case errors.Is(err, apperr.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
	default:
		h.logger.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// Register handles POST /api/auth/register.
//
//	@Summary		Create an account
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		RegisterRequest	true	"Account to create"
//	@Success		201		{object}	AuthResponse
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Router			/auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		h.writeError(w, "register", err)
		return
	}

	user, err := h.store.CreateUser(r.Context(), req.Name, req.Email, hash)
	if err != nil {
		if errors.Is(err, apperr.ErrAlreadyExists) {
			writeJSON(w, http.StatusConflict, errorBody("email already registered"))
			return
		}
		h.writeError(w, "register", err)
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.writeError(w, "register", err)
		return
	}
	writeJSON(w, http.StatusCreated, AuthResponse{AccessToken: token, TokenType: "bearer", User: user})
}

// Login handles POST /api/auth/login.
//
//	@Summary		Exchange credentials for a token
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		LoginRequest	true	"Credentials"
//	@Success		200		{object}	AuthResponse
//	@Failure		401		{object}	errResponse
//	@Router			/auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := h.store.UserByEmail(r.Context(), req.Email)
	if err != nil || !crypto.CheckPassword(req.Password, user.PasswordHash) {
		// Same answer whether the email or the password is wrong.
		writeJSON(w, http.StatusUnauthorized, errorBody("invalid credentials"))
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.writeError(w, "login", err)
		return
	}
	writeJSON(w, http.StatusOK, AuthResponse{AccessToken: token, TokenType: "bearer", User: user})
}

// Me handles GET /api/auth/me.
//
//	@Summary		Get the authenticated account
//	@Tags			auth
//	@Produce		json
//	@Success		200	{object}	models.User
//	@Security		BearerAuth
//	@Router			/auth/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentUser(r))
}
