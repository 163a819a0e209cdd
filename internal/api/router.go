package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vaultkeep/vaultkeep/internal/auth"
	"github.com/vaultkeep/vaultkeep/internal/sse"
	"github.com/vaultkeep/vaultkeep/internal/store"
)

// NewRouter creates a chi router with all API routes mounted. Everything
// except registration, login, and the health probe sits behind token auth.
// broker, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(h *Handler, tokens *auth.Tokens, st *store.Store, broker *sse.Broker) chi.Router {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/auth/register", h.Register)
	r.Post("/auth/login", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(tokens, st))

		r.Get("/auth/me", h.Me)

		// Notes CRUD plus relatedness and on-demand summaries.
		r.Get("/notes", h.ListNotes)
		r.Post("/notes", h.CreateNote)
		r.Get("/notes/{id}", h.GetNote)
		r.Put("/notes/{id}", h.UpdateNote)
		r.Delete("/notes/{id}", h.DeleteNote)
		r.Get("/notes/{id}/related", h.RelatedNotes)
		r.Post("/notes/{id}/summarize", h.SummarizeNote)

		// Documents and the enrichment lifecycle.
		r.Get("/documents", h.ListDocuments)
		r.Post("/documents/upload", h.UploadDocument)
		r.Get("/documents/{id}", h.GetDocument)
		r.Get("/documents/{id}/download", h.DownloadDocument)
		r.Post("/documents/{id}/rescan", h.RescanDocument)
		r.Delete("/documents/{id}", h.DeleteDocument)

		// Search and dashboard.
		r.Get("/search", h.Search)
		r.Get("/dashboard/stats", h.DashboardStats)

		// SSE endpoint (protected by same auth middleware).
		if broker != nil {
			r.Get("/events", func(w http.ResponseWriter, r *http.Request) {
				broker.Stream(w, r, currentUser(r).ID)
			})
		}
	})

	return r
}
