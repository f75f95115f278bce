package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"reelhouse/handlers"
	"reelhouse/models"
	"reelhouse/utils/entities"
	"reelhouse/utils/ident"
)

type fakeCatalogService struct {
	movies   []models.Movie
	series   []models.Series
	seasons  []models.Season
	episodes []models.Episode
	genres   []models.Genre
	people   []models.Person
}

func (f *fakeCatalogService) pagination(total int) models.Pagination {
	return models.Pagination{Page: 1, PageSize: 25, PageCount: 1, Total: total}
}

func (f *fakeCatalogService) Movies(page, pageSize int) ([]models.Movie, models.Pagination) {
	return f.movies, f.pagination(len(f.movies))
}

func (f *fakeCatalogService) MovieBy(id ident.ID) (models.Movie, bool) {
	for _, m := range f.movies {
		if ident.MatchesAny(id, ident.ID(m.DocumentID)) || id.String() == "42" {
			return m, true
		}
	}
	return models.Movie{}, false
}

func (f *fakeCatalogService) Series(page, pageSize int) ([]models.Series, models.Pagination) {
	return f.series, f.pagination(len(f.series))
}

func (f *fakeCatalogService) SeriesBy(id ident.ID) (models.Series, bool) {
	if len(f.series) == 0 {
		return models.Series{}, false
	}
	return f.series[0], true
}

func (f *fakeCatalogService) SeasonsOf(seriesID int64) []models.Season { return f.seasons }

func (f *fakeCatalogService) EpisodesOf(seasonID int64) []models.Episode { return f.episodes }

func (f *fakeCatalogService) EpisodeBy(id ident.ID) (models.Episode, bool) {
	if len(f.episodes) == 0 {
		return models.Episode{}, false
	}
	return f.episodes[0], true
}

func (f *fakeCatalogService) Genres(page, pageSize int) ([]models.Genre, models.Pagination) {
	return f.genres, f.pagination(len(f.genres))
}

func (f *fakeCatalogService) GenresByIDs(ids []int64) []models.Genre { return f.genres }

func (f *fakeCatalogService) People(page, pageSize int) ([]models.Person, models.Pagination) {
	return f.people, f.pagination(len(f.people))
}

func (f *fakeCatalogService) PeopleByIDs(ids []int64) []models.Person { return f.people }

func catalogFixture() *fakeCatalogService {
	now := time.Now()
	return &fakeCatalogService{
		movies: []models.Movie{{
			ID: 42, DocumentID: "night-train-42", Title: "Night Train",
			Year: 2019, VideoPath: "movies/night-train.mp4",
			GenreIDs: []int64{7}, CastIDs: []int64{3},
			CreatedAt: now, UpdatedAt: now,
		}},
		genres: []models.Genre{{ID: 7, DocumentID: "thriller-7", Name: "Thriller"}},
		people: []models.Person{{ID: 3, DocumentID: "ana-reyes-3", Name: "Ana Reyes"}},
	}
}

func catalogRouter(svc *fakeCatalogService) *mux.Router {
	h := handlers.NewCatalogHandler(svc)
	r := mux.NewRouter()
	r.HandleFunc("/movies", h.Movies).Methods(http.MethodGet)
	r.HandleFunc("/movies/{id}", h.Movie).Methods(http.MethodGet)
	return r
}

// The list envelope must decode cleanly through the same normalizer the
// sync client uses.
func TestMovieListEnvelopeRoundTripsThroughNormalizer(t *testing.T) {
	router := catalogRouter(catalogFixture())

	req := httptest.NewRequest(http.MethodGet, "/movies?populate=*", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	decoded := entities.Decode(rr.Body.Bytes())
	if len(decoded) != 1 {
		t.Fatalf("normalizer found %d entities, want 1", len(decoded))
	}
	movie := decoded[0]
	if !ident.Same(movie.ID(), "42") {
		t.Fatalf("unexpected entity id %q", movie.ID())
	}
	if movie.DocumentID() != "night-train-42" {
		t.Fatalf("unexpected documentId %q", movie.DocumentID())
	}
	if movie.String("title") != "Night Train" {
		t.Fatalf("unexpected title %q", movie.String("title"))
	}

	genre, ok := movie.FirstRelation("genres")
	if !ok {
		t.Fatal("populated genres relation should unwrap")
	}
	if genre.String("name") != "Thriller" {
		t.Fatalf("unexpected genre %q", genre.String("name"))
	}
	cast, ok := movie.FirstRelation("cast")
	if !ok || cast.String("name") != "Ana Reyes" {
		t.Fatalf("populated cast relation malformed: %v", cast)
	}
}

func TestMovieSingleEnvelope(t *testing.T) {
	router := catalogRouter(catalogFixture())

	req := httptest.NewRequest(http.MethodGet, "/movies/night-train-42", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	movie, ok := entities.One(mustDecodeAny(t, rr.Body.Bytes()))
	if !ok {
		t.Fatal("single envelope should yield one entity")
	}
	if movie.String("videoPath") != "movies/night-train.mp4" {
		t.Fatalf("unexpected videoPath %q", movie.String("videoPath"))
	}

	// Relations are only id references when not populated.
	if _, ok := movie.Attr("genres"); ok {
		t.Fatal("relations must be absent without populate")
	}
}

func mustDecodeAny(t *testing.T, raw []byte) any {
	t.Helper()
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	return v
}

func TestMovieNotFound(t *testing.T) {
	router := catalogRouter(&fakeCatalogService{})

	req := httptest.NewRequest(http.MethodGet, "/movies/ghost", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	status, message := decodeErrorBody(t, rr)
	if status != http.StatusNotFound || message == "" {
		t.Fatalf("expected structured 404 body, got status=%d message=%q", status, message)
	}
}
