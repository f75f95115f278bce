package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"reelhouse/models"
	"reelhouse/services/progress"
	"reelhouse/services/sessions"
	"reelhouse/utils/ident"
)

type progressService interface {
	List(owner string, filter progress.Filter) ([]models.WatchProgress, error)
	Get(owner, id string) (models.WatchProgress, error)
	Create(owner string, input models.WatchProgressInput) (models.WatchProgress, error)
	Update(owner, id string, input models.WatchProgressInput) (models.WatchProgress, error)
	Delete(owner, id string) error
}

var _ progressService = (*progress.Service)(nil)

type ProgressHandler struct {
	Service progressService
}

func NewProgressHandler(service progressService) *ProgressHandler {
	return &ProgressHandler{Service: service}
}

func (h *ProgressHandler) List(w http.ResponseWriter, r *http.Request) {
	owner, _ := sessions.UserFrom(r.Context())

	filter := progress.Filter{}
	q := r.URL.Query()
	if kind := firstQuery(q.Get("kind"), q.Get("filters[kind]")); kind != "" {
		filter.Kind = models.MediaKind(kind)
	}
	if mediaID := firstQuery(q.Get("mediaId"), q.Get("filters[movie]"), q.Get("filters[episode]")); mediaID != "" {
		filter.MediaID = ident.ID(mediaID)
	}

	records, err := h.Service.List(owner, filter)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if records == nil {
		records = []models.WatchProgress{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *ProgressHandler) Get(w http.ResponseWriter, r *http.Request) {
	owner, _ := sessions.UserFrom(r.Context())
	id := strings.TrimSpace(mux.Vars(r)["recordID"])

	rec, err := h.Service.Get(owner, id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *ProgressHandler) Create(w http.ResponseWriter, r *http.Request) {
	owner, _ := sessions.UserFrom(r.Context())

	var input models.WatchProgressInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid progress payload")
		return
	}

	rec, err := h.Service.Create(owner, input)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *ProgressHandler) Update(w http.ResponseWriter, r *http.Request) {
	owner, _ := sessions.UserFrom(r.Context())
	id := strings.TrimSpace(mux.Vars(r)["recordID"])

	var input models.WatchProgressInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid progress payload")
		return
	}

	rec, err := h.Service.Update(owner, id, input)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *ProgressHandler) Delete(w http.ResponseWriter, r *http.Request) {
	owner, _ := sessions.UserFrom(r.Context())
	id := strings.TrimSpace(mux.Vars(r)["recordID"])

	if err := h.Service.Delete(owner, id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProgressHandler) writeServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, progress.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, progress.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, progress.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, progress.ErrValidation):
		status = http.StatusBadRequest
	}
	writeError(w, status, err.Error())
}

func firstQuery(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
