package api

import (
	"encoding/json"
	"net/http"

	"reelhouse/handlers"
	"reelhouse/services/sessions"
)

// corsMiddleware handles CORS for API routes
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type tokenResolver interface {
	Resolve(token string) (string, error)
}

var _ tokenResolver = (*sessions.Service)(nil)

// SessionAuthMiddleware resolves the bearer token into an account id and
// stores it on the request context. Requests without a valid token are
// rejected with the structured error body.
func SessionAuthMiddleware(resolver tokenResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := resolver.Resolve(handlers.BearerToken(r))
			if err != nil {
				writeUnauthorized(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(sessions.WithUser(r.Context(), userID)))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]any{
		"status":  http.StatusUnauthorized,
		"message": err.Error(),
	})
}
