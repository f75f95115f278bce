package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"reelhouse/models"
	"reelhouse/services/catalog"
	"reelhouse/utils/ident"
)

type catalogService interface {
	Movies(page, pageSize int) ([]models.Movie, models.Pagination)
	MovieBy(id ident.ID) (models.Movie, bool)
	Series(page, pageSize int) ([]models.Series, models.Pagination)
	SeriesBy(id ident.ID) (models.Series, bool)
	SeasonsOf(seriesID int64) []models.Season
	EpisodesOf(seasonID int64) []models.Episode
	EpisodeBy(id ident.ID) (models.Episode, bool)
	Genres(page, pageSize int) ([]models.Genre, models.Pagination)
	GenresByIDs(ids []int64) []models.Genre
	People(page, pageSize int) ([]models.Person, models.Pagination)
	PeopleByIDs(ids []int64) []models.Person
}

var _ catalogService = (*catalog.Service)(nil)

// CatalogHandler serves the read-only catalogue collections in the upstream
// envelope shape: lists are {"data":[...], "meta":{"pagination":...}},
// single entities {"data":{...}}, relations wrapped in nested "data"
// objects. Entities carry both a numeric id and a string documentId.
type CatalogHandler struct {
	Service catalogService
}

func NewCatalogHandler(service catalogService) *CatalogHandler {
	return &CatalogHandler{Service: service}
}

type listEnvelope struct {
	Data []map[string]any `json:"data"`
	Meta envelopeMeta     `json:"meta"`
}

type envelopeMeta struct {
	Pagination models.Pagination `json:"pagination"`
}

type singleEnvelope struct {
	Data map[string]any `json:"data"`
}

func (h *CatalogHandler) Movies(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)
	populate := populateParams(r)

	movies, pagination := h.Service.Movies(page, pageSize)
	data := make([]map[string]any, 0, len(movies))
	for _, m := range movies {
		data = append(data, h.movieEntity(m, populate))
	}
	writeJSON(w, http.StatusOK, listEnvelope{Data: data, Meta: envelopeMeta{Pagination: pagination}})
}

func (h *CatalogHandler) Movie(w http.ResponseWriter, r *http.Request) {
	movie, ok := h.Service.MovieBy(ident.ID(mux.Vars(r)["id"]))
	if !ok {
		writeError(w, http.StatusNotFound, "movie not found")
		return
	}
	writeJSON(w, http.StatusOK, singleEnvelope{Data: h.movieEntity(movie, populateParams(r))})
}

func (h *CatalogHandler) SeriesList(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)
	populate := populateParams(r)

	series, pagination := h.Service.Series(page, pageSize)
	data := make([]map[string]any, 0, len(series))
	for _, s := range series {
		data = append(data, h.seriesEntity(s, populate))
	}
	writeJSON(w, http.StatusOK, listEnvelope{Data: data, Meta: envelopeMeta{Pagination: pagination}})
}

func (h *CatalogHandler) Series(w http.ResponseWriter, r *http.Request) {
	series, ok := h.Service.SeriesBy(ident.ID(mux.Vars(r)["id"]))
	if !ok {
		writeError(w, http.StatusNotFound, "series not found")
		return
	}
	writeJSON(w, http.StatusOK, singleEnvelope{Data: h.seriesEntity(series, populateParams(r))})
}

func (h *CatalogHandler) Seasons(w http.ResponseWriter, r *http.Request) {
	series, ok := h.Service.SeriesBy(ident.ID(mux.Vars(r)["id"]))
	if !ok {
		writeError(w, http.StatusNotFound, "series not found")
		return
	}

	seasons := h.Service.SeasonsOf(series.ID)
	data := make([]map[string]any, 0, len(seasons))
	for _, season := range seasons {
		data = append(data, seasonEntity(season))
	}
	writeJSON(w, http.StatusOK, listEnvelope{
		Data: data,
		Meta: envelopeMeta{Pagination: models.Pagination{Page: 1, PageSize: len(data), PageCount: 1, Total: len(data)}},
	})
}

func (h *CatalogHandler) Episodes(w http.ResponseWriter, r *http.Request) {
	seasonID, err := strconv.ParseInt(mux.Vars(r)["seasonID"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "season id must be numeric")
		return
	}

	episodes := h.Service.EpisodesOf(seasonID)
	data := make([]map[string]any, 0, len(episodes))
	for _, ep := range episodes {
		data = append(data, episodeEntity(ep))
	}
	writeJSON(w, http.StatusOK, listEnvelope{
		Data: data,
		Meta: envelopeMeta{Pagination: models.Pagination{Page: 1, PageSize: len(data), PageCount: 1, Total: len(data)}},
	})
}

func (h *CatalogHandler) Episode(w http.ResponseWriter, r *http.Request) {
	episode, ok := h.Service.EpisodeBy(ident.ID(mux.Vars(r)["id"]))
	if !ok {
		writeError(w, http.StatusNotFound, "episode not found")
		return
	}
	writeJSON(w, http.StatusOK, singleEnvelope{Data: episodeEntity(episode)})
}

func (h *CatalogHandler) Genres(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)
	genres, pagination := h.Service.Genres(page, pageSize)
	data := make([]map[string]any, 0, len(genres))
	for _, g := range genres {
		data = append(data, genreEntity(g))
	}
	writeJSON(w, http.StatusOK, listEnvelope{Data: data, Meta: envelopeMeta{Pagination: pagination}})
}

func (h *CatalogHandler) People(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)
	people, pagination := h.Service.People(page, pageSize)
	data := make([]map[string]any, 0, len(people))
	for _, p := range people {
		data = append(data, personEntity(p))
	}
	writeJSON(w, http.StatusOK, listEnvelope{Data: data, Meta: envelopeMeta{Pagination: pagination}})
}

func (h *CatalogHandler) movieEntity(m models.Movie, populate map[string]bool) map[string]any {
	entity := map[string]any{
		"id":         m.ID,
		"documentId": m.DocumentID,
		"title":      m.Title,
		"createdAt":  m.CreatedAt,
		"updatedAt":  m.UpdatedAt,
	}
	setOptional(entity, "overview", m.Overview)
	setOptional(entity, "posterUrl", m.PosterURL)
	setOptional(entity, "backdropUrl", m.BackdropURL)
	setOptional(entity, "videoPath", m.VideoPath)
	if m.Year > 0 {
		entity["year"] = m.Year
	}
	if m.RuntimeMinutes > 0 {
		entity["runtimeMinutes"] = m.RuntimeMinutes
	}

	if populate["genres"] {
		entity["genres"] = relationList(genresData(h.Service.GenresByIDs(m.GenreIDs)))
	}
	if populate["cast"] {
		entity["cast"] = relationList(peopleData(h.Service.PeopleByIDs(m.CastIDs)))
	}
	return entity
}

func (h *CatalogHandler) seriesEntity(s models.Series, populate map[string]bool) map[string]any {
	entity := map[string]any{
		"id":         s.ID,
		"documentId": s.DocumentID,
		"title":      s.Title,
		"createdAt":  s.CreatedAt,
		"updatedAt":  s.UpdatedAt,
	}
	setOptional(entity, "overview", s.Overview)
	setOptional(entity, "posterUrl", s.PosterURL)
	setOptional(entity, "backdropUrl", s.BackdropURL)
	if s.Year > 0 {
		entity["year"] = s.Year
	}

	if populate["genres"] {
		entity["genres"] = relationList(genresData(h.Service.GenresByIDs(s.GenreIDs)))
	}
	if populate["seasons"] {
		seasons := h.Service.SeasonsOf(s.ID)
		data := make([]map[string]any, 0, len(seasons))
		for _, season := range seasons {
			data = append(data, seasonEntity(season))
		}
		entity["seasons"] = relationList(data)
	}
	return entity
}

func seasonEntity(s models.Season) map[string]any {
	entity := map[string]any{
		"id":         s.ID,
		"documentId": s.DocumentID,
		"number":     s.Number,
		"series":     relationRef(s.SeriesID),
	}
	setOptional(entity, "title", s.Title)
	return entity
}

func episodeEntity(e models.Episode) map[string]any {
	entity := map[string]any{
		"id":         e.ID,
		"documentId": e.DocumentID,
		"number":     e.Number,
		"series":     relationRef(e.SeriesID),
		"season":     relationRef(e.SeasonID),
		"createdAt":  e.CreatedAt,
		"updatedAt":  e.UpdatedAt,
	}
	setOptional(entity, "title", e.Title)
	setOptional(entity, "overview", e.Overview)
	setOptional(entity, "videoPath", e.VideoPath)
	if e.RuntimeMinutes > 0 {
		entity["runtimeMinutes"] = e.RuntimeMinutes
	}
	return entity
}

func genreEntity(g models.Genre) map[string]any {
	return map[string]any{"id": g.ID, "documentId": g.DocumentID, "name": g.Name}
}

func personEntity(p models.Person) map[string]any {
	entity := map[string]any{"id": p.ID, "documentId": p.DocumentID, "name": p.Name}
	setOptional(entity, "photoUrl", p.PhotoURL)
	return entity
}

func genresData(genres []models.Genre) []map[string]any {
	out := make([]map[string]any, 0, len(genres))
	for _, g := range genres {
		out = append(out, genreEntity(g))
	}
	return out
}

func peopleData(people []models.Person) []map[string]any {
	out := make([]map[string]any, 0, len(people))
	for _, p := range people {
		out = append(out, personEntity(p))
	}
	return out
}

// relationList wraps populated related entities the way the upstream API
// does: an object with the payload under "data".
func relationList(data []map[string]any) map[string]any {
	return map[string]any{"data": data}
}

// relationRef is the unpopulated form: only the related id.
func relationRef(id int64) map[string]any {
	return map[string]any{"data": map[string]any{"id": id}}
}

func setOptional(entity map[string]any, key, value string) {
	if value != "" {
		entity[key] = value
	}
}

func pageParams(r *http.Request) (page, pageSize int) {
	q := r.URL.Query()
	page = atoiDefault(firstQuery(q.Get("pagination[page]"), q.Get("page")), 0)
	pageSize = atoiDefault(firstQuery(q.Get("pagination[pageSize]"), q.Get("pageSize")), 0)
	return page, pageSize
}

// populateParams parses the populate query parameter: "*" selects every
// relation, otherwise a comma-separated list of relation names.
func populateParams(r *http.Request) map[string]bool {
	raw := strings.TrimSpace(r.URL.Query().Get("populate"))
	if raw == "" {
		return nil
	}
	populate := map[string]bool{}
	if raw == "*" {
		for _, name := range []string{"genres", "cast", "seasons"} {
			populate[name] = true
		}
		return populate
	}
	for _, name := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			populate[trimmed] = true
		}
	}
	return populate
}

func atoiDefault(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
