package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"reelhouse/handlers"
	"reelhouse/services/sessions"
)

// Register mounts API endpoints onto the provided router.
func Register(
	r *mux.Router,
	authHandler *handlers.AuthHandler,
	catalogHandler *handlers.CatalogHandler,
	progressHandler *handlers.ProgressHandler,
	videoHandler *handlers.VideoHandler,
	sessionsSvc *sessions.Service,
) {
	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.Use(corsMiddleware)

	// Auth routes (no session required)
	apiRouter.HandleFunc("/auth/login", authHandler.Login).Methods(http.MethodPost)
	apiRouter.HandleFunc("/auth/login", handleOptions).Methods(http.MethodOptions)

	protected := apiRouter.PathPrefix("").Subrouter()
	protected.Use(SessionAuthMiddleware(sessionsSvc))

	protected.HandleFunc("/auth/me", authHandler.Me).Methods(http.MethodGet)
	protected.HandleFunc("/auth/logout", authHandler.Logout).Methods(http.MethodPost)

	// Catalogue (read-only)
	protected.HandleFunc("/movies", catalogHandler.Movies).Methods(http.MethodGet)
	protected.HandleFunc("/movies/{id}", catalogHandler.Movie).Methods(http.MethodGet)
	protected.HandleFunc("/series", catalogHandler.SeriesList).Methods(http.MethodGet)
	protected.HandleFunc("/series/{id}", catalogHandler.Series).Methods(http.MethodGet)
	protected.HandleFunc("/series/{id}/seasons", catalogHandler.Seasons).Methods(http.MethodGet)
	protected.HandleFunc("/seasons/{seasonID}/episodes", catalogHandler.Episodes).Methods(http.MethodGet)
	protected.HandleFunc("/episodes/{id}", catalogHandler.Episode).Methods(http.MethodGet)
	protected.HandleFunc("/genres", catalogHandler.Genres).Methods(http.MethodGet)
	protected.HandleFunc("/people", catalogHandler.People).Methods(http.MethodGet)

	// Watch progress, always scoped to the session account
	protected.HandleFunc("/watch-progresses", progressHandler.List).Methods(http.MethodGet)
	protected.HandleFunc("/watch-progresses", progressHandler.Create).Methods(http.MethodPost)
	protected.HandleFunc("/watch-progresses/{recordID}", progressHandler.Get).Methods(http.MethodGet)
	protected.HandleFunc("/watch-progresses/{recordID}", progressHandler.Update).Methods(http.MethodPut)
	protected.HandleFunc("/watch-progresses/{recordID}", progressHandler.Delete).Methods(http.MethodDelete)

	// Media streaming
	protected.HandleFunc("/video/stream", videoHandler.Stream).Methods(http.MethodGet, http.MethodHead)
}

// handleOptions answers CORS preflight requests.
func handleOptions(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
