package api

import (
	"net/http"
	"strconv"

	"github.com/vaultkeep/vaultkeep/internal/searchservice"
)

// Search handles GET /api/search.
//
//	@Summary		Relevance search across notes and documents
//	@Tags			search
//	@Produce		json
//	@Param			q				query		string	true	"Search query"
//	@Param			ai_boost		query		bool	false	"Expand the query with related phrases"
//	@Param			include_notes	query		bool	false	"Include notes (default true)"
//	@Param			include_docs	query		bool	false	"Include documents (default true)"
//	@Success		200	{object}	searchservice.Results
//	@Failure		400	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	opts := searchservice.Options{
		ExcludeNotes: q.Get("include_notes") == "false",
		ExcludeDocs:  q.Get("include_docs") == "false",
	}
	opts.AIBoost, _ = strconv.ParseBool(q.Get("ai_boost"))

	results, err := h.search.Search(r.Context(), currentUser(r).ID, q.Get("q"), opts)
	if err != nil {
		h.writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// DashboardStats handles GET /api/dashboard/stats.
//
//	@Summary		Aggregate counts, top tags, recents, and weekly activity
//	@Tags			dashboard
//	@Produce		json
//	@Success		200	{object}	store.Stats
//	@Security		BearerAuth
//	@Router			/dashboard/stats [get]
func (h *Handler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.StatsFor(r.Context(), currentUser(r).ID)
	if err != nil {
		h.writeError(w, "dashboard stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
