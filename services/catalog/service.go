// Package catalog serves the read-only content collections: movies, series,
// seasons, episodes, genres, and people. Data is loaded from a JSON document
// at startup; the catalogue is maintained by an external admin tool, so this
// service never writes.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/mozillazg/go-unidecode"

	"reelhouse/models"
	"reelhouse/utils/ident"
)

var ErrStorageDirRequired = errors.New("storage directory not provided")

const (
	defaultPageSize = 25
	maxPageSize     = 100
)

// Service holds the loaded catalogue.
type Service struct {
	mu       sync.RWMutex
	path     string
	movies   []models.Movie
	series   []models.Series
	seasons  []models.Season
	episodes []models.Episode
	genres   []models.Genre
	people   []models.Person
}

type catalogFile struct {
	Movies   []models.Movie   `json:"movies"`
	Series   []models.Series  `json:"series"`
	Seasons  []models.Season  `json:"seasons"`
	Episodes []models.Episode `json:"episodes"`
	Genres   []models.Genre   `json:"genres"`
	People   []models.Person  `json:"people"`
}

// NewService loads the catalogue from catalog.json inside the provided
// directory. A missing file yields an empty catalogue, not an error.
func NewService(storageDir string) (*Service, error) {
	if strings.TrimSpace(storageDir) == "" {
		return nil, ErrStorageDirRequired
	}

	svc := &Service{path: filepath.Join(storageDir, "catalog.json")}
	if err := svc.load(); err != nil {
		return nil, err
	}
	return svc, nil
}

// Reload re-reads the catalogue file, picking up admin-tool edits.
func (s *Service) Reload() error {
	return s.load()
}

func (s *Service) load() error {
	file, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open catalog file: %w", err)
	}
	defer file.Close()

	var data catalogFile
	if err := json.NewDecoder(file).Decode(&data); err != nil {
		return fmt.Errorf("decode catalog: %w", err)
	}

	for i := range data.Movies {
		if data.Movies[i].DocumentID == "" {
			data.Movies[i].DocumentID = Slug(data.Movies[i].Title, data.Movies[i].ID)
		}
	}
	for i := range data.Series {
		if data.Series[i].DocumentID == "" {
			data.Series[i].DocumentID = Slug(data.Series[i].Title, data.Series[i].ID)
		}
	}
	for i := range data.Seasons {
		if data.Seasons[i].DocumentID == "" {
			data.Seasons[i].DocumentID = Slug(data.Seasons[i].Title, data.Seasons[i].ID)
		}
	}
	for i := range data.Episodes {
		if data.Episodes[i].DocumentID == "" {
			data.Episodes[i].DocumentID = Slug(data.Episodes[i].Title, data.Episodes[i].ID)
		}
	}
	for i := range data.Genres {
		if data.Genres[i].DocumentID == "" {
			data.Genres[i].DocumentID = Slug(data.Genres[i].Name, data.Genres[i].ID)
		}
	}
	for i := range data.People {
		if data.People[i].DocumentID == "" {
			data.People[i].DocumentID = Slug(data.People[i].Name, data.People[i].ID)
		}
	}

	s.mu.Lock()
	s.movies = data.Movies
	s.series = data.Series
	s.seasons = data.Seasons
	s.episodes = data.Episodes
	s.genres = data.Genres
	s.people = data.People
	s.mu.Unlock()

	return nil
}

// Slug derives a stable document identifier from a display name. Non-ASCII
// characters are transliterated so the identifier stays URL-safe; the
// numeric id suffix keeps slugs unique across titles that share a name.
func Slug(name string, id int64) string {
	ascii := unidecode.Unidecode(name)
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(ascii) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return strconv.FormatInt(id, 10)
	}
	return slug + "-" + strconv.FormatInt(id, 10)
}

// Counts reports collection sizes for startup logging.
func (s *Service) Counts() (movies, series, episodes int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.movies), len(s.series), len(s.episodes)
}

func paginate[T any](items []T, page, pageSize int) ([]T, models.Pagination) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	total := len(items)
	pageCount := (total + pageSize - 1) / pageSize
	if pageCount == 0 {
		pageCount = 1
	}

	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	out := make([]T, end-start)
	copy(out, items[start:end])

	return out, models.Pagination{Page: page, PageSize: pageSize, PageCount: pageCount, Total: total}
}

// Movies returns one page of movies sorted by title.
func (s *Service) Movies(page, pageSize int) ([]models.Movie, models.Pagination) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sorted := make([]models.Movie, len(s.movies))
	copy(sorted, s.movies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Title < sorted[j].Title })

	return paginate(sorted, page, pageSize)
}

// MovieBy resolves a movie by either identifier scheme: the numeric id or
// the document id, with numeric-string tolerance.
func (s *Service) MovieBy(id ident.ID) (models.Movie, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.movies {
		if matchesEntity(id, m.ID, m.DocumentID) {
			return m, true
		}
	}
	return models.Movie{}, false
}

// Series returns one page of series sorted by title.
func (s *Service) Series(page, pageSize int) ([]models.Series, models.Pagination) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sorted := make([]models.Series, len(s.series))
	copy(sorted, s.series)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Title < sorted[j].Title })

	return paginate(sorted, page, pageSize)
}

// SeriesBy resolves a series by either identifier scheme.
func (s *Service) SeriesBy(id ident.ID) (models.Series, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sr := range s.series {
		if matchesEntity(id, sr.ID, sr.DocumentID) {
			return sr, true
		}
	}
	return models.Series{}, false
}

// SeasonsOf returns the seasons of a series in season-number order.
func (s *Service) SeasonsOf(seriesID int64) []models.Season {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Season
	for _, season := range s.seasons {
		if season.SeriesID == seriesID {
			out = append(out, season)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// EpisodesOf returns the episodes of a season in episode-number order.
func (s *Service) EpisodesOf(seasonID int64) []models.Episode {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Episode
	for _, ep := range s.episodes {
		if ep.SeasonID == seasonID {
			out = append(out, ep)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// EpisodeBy resolves an episode by either identifier scheme.
func (s *Service) EpisodeBy(id ident.ID) (models.Episode, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, ep := range s.episodes {
		if matchesEntity(id, ep.ID, ep.DocumentID) {
			return ep, true
		}
	}
	return models.Episode{}, false
}

// Genres returns one page of genres sorted by name.
func (s *Service) Genres(page, pageSize int) ([]models.Genre, models.Pagination) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sorted := make([]models.Genre, len(s.genres))
	copy(sorted, s.genres)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	return paginate(sorted, page, pageSize)
}

// GenresByIDs resolves a relation id list, skipping unknown ids.
func (s *Service) GenresByIDs(ids []int64) []models.Genre {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Genre
	for _, id := range ids {
		for _, g := range s.genres {
			if g.ID == id {
				out = append(out, g)
				break
			}
		}
	}
	return out
}

// People returns one page of people sorted by name.
func (s *Service) People(page, pageSize int) ([]models.Person, models.Pagination) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sorted := make([]models.Person, len(s.people))
	copy(sorted, s.people)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	return paginate(sorted, page, pageSize)
}

// PeopleByIDs resolves a relation id list, skipping unknown ids.
func (s *Service) PeopleByIDs(ids []int64) []models.Person {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Person
	for _, id := range ids {
		for _, p := range s.people {
			if p.ID == id {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

func matchesEntity(candidate ident.ID, numericID int64, documentID string) bool {
	return ident.MatchesAny(candidate, ident.ID(strconv.FormatInt(numericID, 10)), ident.ID(documentID))
}
