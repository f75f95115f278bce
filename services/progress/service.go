// Package progress is the server-side store of watch-progress records. One
// record exists per (user, media); every operation is scoped to the
// authenticated caller, and writes enforce the movie/episode
// mutual-exclusivity invariant.
package progress

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"reelhouse/models"
	"reelhouse/utils/ident"
)

var (
	ErrStorageDirRequired = errors.New("storage directory not provided")
	// ErrUnauthenticated marks operations attempted without a resolved
	// caller identity. Distinct from validation: absence of a session is an
	// authentication failure.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden marks access to a record owned by a different account.
	ErrForbidden = errors.New("record belongs to another account")
	// ErrNotFound marks access to a record that does not exist.
	ErrNotFound = errors.New("watch progress record not found")
	// ErrValidation marks writes that violate the record invariants.
	ErrValidation = errors.New("validation failed")
)

// Filter narrows List results. The ownership scope is applied
// unconditionally on top of it.
type Filter struct {
	Kind    models.MediaKind
	MediaID ident.ID
}

// Service persists watch-progress records in a JSON file on disk.
type Service struct {
	mu      sync.RWMutex
	path    string
	now     func() time.Time
	records map[string]models.WatchProgress
}

// NewService constructs a progress store backed by a JSON file inside the
// provided directory.
func NewService(storageDir string) (*Service, error) {
	if strings.TrimSpace(storageDir) == "" {
		return nil, ErrStorageDirRequired
	}

	if err := os.MkdirAll(storageDir, 0o755); err != nil {
		return nil, fmt.Errorf("create progress dir: %w", err)
	}

	svc := &Service{
		path:    filepath.Join(storageDir, "watch_progress.json"),
		now:     time.Now,
		records: make(map[string]models.WatchProgress),
	}

	if err := svc.load(); err != nil {
		return nil, err
	}

	return svc, nil
}

// List returns the caller's records, newest first. Any caller-supplied
// filter is intersected with the ownership scope, never widened by it.
func (s *Service) List(owner string, filter Filter) ([]models.WatchProgress, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return nil, ErrUnauthenticated
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.WatchProgress, 0)
	for _, rec := range s.records {
		if rec.Owner != owner {
			continue
		}
		if filter.Kind != "" && rec.Kind != filter.Kind {
			continue
		}
		if !filter.MediaID.IsZero() && !ident.Same(rec.MediaID(), filter.MediaID) {
			continue
		}
		out = append(out, rec)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})

	return out, nil
}

// Get returns one record by id. A missing record is NotFound; a record owned
// by someone else is Forbidden. The distinction is deliberate: absence and
// lack of permission are different answers.
func (s *Service) Get(owner, id string) (models.WatchProgress, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return models.WatchProgress{}, ErrUnauthenticated
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[strings.TrimSpace(id)]
	if !ok {
		return models.WatchProgress{}, ErrNotFound
	}
	if rec.Owner != owner {
		return models.WatchProgress{}, ErrForbidden
	}

	return rec, nil
}

// Create validates the payload and stores a new record owned by the caller.
// Any client-supplied owner value is ignored.
func (s *Service) Create(owner string, input models.WatchProgressInput) (models.WatchProgress, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return models.WatchProgress{}, ErrUnauthenticated
	}

	kind, movie, episode, err := validateWrite(input.Kind, input.Movie, input.Episode)
	if err != nil {
		return models.WatchProgress{}, err
	}

	now := s.now().UTC()
	rec := models.WatchProgress{
		ID:        uuid.NewString(),
		Owner:     owner,
		Kind:      kind,
		Movie:     movie,
		Episode:   episode,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyFields(&rec, input)
	if rec.PositionSeconds < 0 {
		return models.WatchProgress{}, fmt.Errorf("%w: positionSeconds must not be negative", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[rec.ID] = rec
	if err := s.saveLocked(); err != nil {
		delete(s.records, rec.ID)
		return models.WatchProgress{}, err
	}

	return rec, nil
}

// Update validates the payload and mutates an existing record after the
// same ownership resolution as Get.
func (s *Service) Update(owner, id string, input models.WatchProgressInput) (models.WatchProgress, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return models.WatchProgress{}, ErrUnauthenticated
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[strings.TrimSpace(id)]
	if !ok {
		return models.WatchProgress{}, ErrNotFound
	}
	if rec.Owner != owner {
		return models.WatchProgress{}, ErrForbidden
	}

	kindIn := input.Kind
	if kindIn == "" {
		kindIn = string(rec.Kind)
	}

	prev := rec
	if len(input.Movie) == 0 && len(input.Episode) == 0 {
		// Relations omitted: keep the stored ones, but they must still
		// satisfy the invariant against the (possibly changed) kind.
		kind := models.MediaKind(strings.TrimSpace(kindIn))
		if !kind.Valid() {
			return models.WatchProgress{}, fmt.Errorf("%w: kind must be %q or %q", ErrValidation, models.KindMovie, models.KindEpisode)
		}
		if kind == models.KindMovie && (rec.Movie.IsZero() || !rec.Episode.IsZero()) {
			return models.WatchProgress{}, fmt.Errorf("%w: kind movie requires the movie relation and no episode relation", ErrValidation)
		}
		if kind == models.KindEpisode && (rec.Episode.IsZero() || !rec.Movie.IsZero()) {
			return models.WatchProgress{}, fmt.Errorf("%w: kind episode requires the episode relation and no movie relation", ErrValidation)
		}
		rec.Kind = kind
	} else {
		kind, movie, episode, err := validateWrite(kindIn, input.Movie, input.Episode)
		if err != nil {
			return models.WatchProgress{}, err
		}
		rec.Kind = kind
		rec.Movie = movie
		rec.Episode = episode
	}

	applyFields(&rec, input)
	if rec.PositionSeconds < 0 {
		return models.WatchProgress{}, fmt.Errorf("%w: positionSeconds must not be negative", ErrValidation)
	}

	// Owner is authoritative from the session; the record keeps its owner
	// regardless of any client-supplied owner value.
	rec.Owner = prev.Owner
	rec.UpdatedAt = s.now().UTC()

	s.records[rec.ID] = rec
	if err := s.saveLocked(); err != nil {
		s.records[rec.ID] = prev
		return models.WatchProgress{}, err
	}

	return rec, nil
}

// Delete removes a record after ownership resolution.
func (s *Service) Delete(owner, id string) error {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return ErrUnauthenticated
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[strings.TrimSpace(id)]
	if !ok {
		return ErrNotFound
	}
	if rec.Owner != owner {
		return ErrForbidden
	}

	delete(s.records, rec.ID)
	if err := s.saveLocked(); err != nil {
		s.records[rec.ID] = rec
		return err
	}

	return nil
}

// validateWrite enforces the kind enum and the relation invariant: for
// "movie" the movie relation must resolve to a scalar and the episode
// relation to empty, and conversely for "episode".
func validateWrite(kindRaw string, movieRaw, episodeRaw json.RawMessage) (models.MediaKind, ident.ID, ident.ID, error) {
	kind := models.MediaKind(strings.TrimSpace(kindRaw))
	if !kind.Valid() {
		return "", "", "", fmt.Errorf("%w: kind must be %q or %q", ErrValidation, models.KindMovie, models.KindEpisode)
	}

	movie := normalizeRelation(movieRaw)
	episode := normalizeRelation(episodeRaw)
	if movie.shape == relationAmbiguous {
		return "", "", "", fmt.Errorf("%w: movie relation has an unrecognized shape", ErrValidation)
	}
	if episode.shape == relationAmbiguous {
		return "", "", "", fmt.Errorf("%w: episode relation has an unrecognized shape", ErrValidation)
	}

	switch kind {
	case models.KindMovie:
		if movie.shape != relationScalar {
			return "", "", "", fmt.Errorf("%w: kind movie requires the movie relation", ErrValidation)
		}
		if episode.shape != relationEmpty {
			return "", "", "", fmt.Errorf("%w: kind movie forbids the episode relation", ErrValidation)
		}
		return kind, movie.id, "", nil
	default: // KindEpisode, enum already checked
		if episode.shape != relationScalar {
			return "", "", "", fmt.Errorf("%w: kind episode requires the episode relation", ErrValidation)
		}
		if movie.shape != relationEmpty {
			return "", "", "", fmt.Errorf("%w: kind episode forbids the movie relation", ErrValidation)
		}
		return kind, "", episode.id, nil
	}
}

func applyFields(rec *models.WatchProgress, input models.WatchProgressInput) {
	if input.PositionSeconds != nil {
		rec.PositionSeconds = *input.PositionSeconds
	}
	if input.DurationSeconds != nil {
		rec.DurationSeconds = *input.DurationSeconds
	}
	if input.Completed != nil {
		rec.Completed = *input.Completed
	}
}

type storedRecord struct {
	models.WatchProgress
	Owner string `json:"owner"`
}

func (s *Service) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open progress file: %w", err)
	}
	defer file.Close()

	var stored []storedRecord
	if err := json.NewDecoder(file).Decode(&stored); err != nil {
		return fmt.Errorf("decode progress records: %w", err)
	}

	s.records = make(map[string]models.WatchProgress, len(stored))
	for _, sr := range stored {
		rec := sr.WatchProgress
		rec.Owner = sr.Owner
		if strings.TrimSpace(rec.ID) == "" || strings.TrimSpace(rec.Owner) == "" {
			continue
		}
		s.records[rec.ID] = rec
	}

	return nil
}

func (s *Service) saveLocked() error {
	records := make([]storedRecord, 0, len(s.records))
	for _, rec := range s.records {
		records = append(records, storedRecord{WatchProgress: rec, Owner: rec.Owner})
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].ID < records[j].ID
	})

	tmp := s.path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create progress temp file: %w", err)
	}

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("encode progress records: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("sync progress records: %w", err)
	}

	if err := file.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close progress temp file: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace progress file: %w", err)
	}

	return nil
}
