// Package api implements the VaultKeep REST API using chi.
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/vaultkeep/vaultkeep/internal/auth"
	"github.com/vaultkeep/vaultkeep/internal/models"
	"github.com/vaultkeep/vaultkeep/internal/store"
)

type ctxKey int

const userKey ctxKey = iota

// AuthMiddleware validates the Bearer token and loads the account it names.
// Requests without a valid token never reach the protected handlers.
func AuthMiddleware(tokens *auth.Tokens, st *store.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}

			userID, err := tokens.UserID(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}

			user, err := st.UserByID(r.Context(), userID)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
		})
	}
}

// currentUser returns the authenticated account stored by AuthMiddleware.
func currentUser(r *http.Request) *models.User {
	user, _ := r.Context().Value(userKey).(*models.User)
	return user
}
