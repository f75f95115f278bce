package catalog_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"reelhouse/services/catalog"
)

func writeCatalog(t *testing.T, dir string, doc map[string]any) {
	t.Helper()
	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "catalog.json"), raw, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestMissingCatalogFileYieldsEmptyCatalog(t *testing.T) {
	svc, err := catalog.NewService(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	movies, _, episodes := svc.Counts()
	if movies != 0 || episodes != 0 {
		t.Fatalf("expected empty catalogue, got %d movies / %d episodes", movies, episodes)
	}
}

func TestLookupByEitherIdentifier(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, map[string]any{
		"movies": []map[string]any{
			{"id": 42, "title": "Night Train"},
			{"id": 43, "documentId": "custom-doc", "title": "Day Boat"},
		},
	})

	svc, err := catalog.NewService(dir)
	if err != nil {
		t.Fatal(err)
	}

	// Numeric id, including the string form as it arrives in route params.
	if _, ok := svc.MovieBy("42"); !ok {
		t.Fatal("lookup by numeric id string failed")
	}
	if _, ok := svc.MovieBy("042"); !ok {
		t.Fatal("lookup must tolerate numeric-string variants")
	}

	// Generated slug document id.
	m, ok := svc.MovieBy("night-train-42")
	if !ok || m.ID != 42 {
		t.Fatalf("lookup by generated slug failed: %+v ok=%v", m, ok)
	}

	// Pre-set document id survives loading.
	if _, ok := svc.MovieBy("custom-doc"); !ok {
		t.Fatal("lookup by explicit document id failed")
	}

	if _, ok := svc.MovieBy("no-such"); ok {
		t.Fatal("unexpected match")
	}
}

func TestSlugTransliterates(t *testing.T) {
	if got := catalog.Slug("Amélie à Paris", 7); got != "amelie-a-paris-7" {
		t.Fatalf("unexpected slug %q", got)
	}
	if got := catalog.Slug("何者", 9); got == "" {
		t.Fatalf("expected non-empty slug for non-latin title, got %q", got)
	}
	if got := catalog.Slug("", 3); got != "3" {
		t.Fatalf("empty titles fall back to the id, got %q", got)
	}
}

func TestPagination(t *testing.T) {
	dir := t.TempDir()
	movies := make([]map[string]any, 0, 7)
	titles := []string{"A", "B", "C", "D", "E", "F", "G"}
	for i, title := range titles {
		movies = append(movies, map[string]any{"id": i + 1, "title": title})
	}
	writeCatalog(t, dir, map[string]any{"movies": movies})

	svc, err := catalog.NewService(dir)
	if err != nil {
		t.Fatal(err)
	}

	page, meta := svc.Movies(2, 3)
	if len(page) != 3 || page[0].Title != "D" {
		t.Fatalf("unexpected second page: %+v", page)
	}
	if meta.PageCount != 3 || meta.Total != 7 {
		t.Fatalf("unexpected pagination meta: %+v", meta)
	}

	// Out-of-range pages are empty but not an error.
	page, _ = svc.Movies(9, 3)
	if len(page) != 0 {
		t.Fatalf("expected empty page, got %+v", page)
	}
}

func TestSeriesSeasonEpisodeRelations(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, map[string]any{
		"series":   []map[string]any{{"id": 1, "title": "Deep Sky"}},
		"seasons":  []map[string]any{{"id": 10, "seriesId": 1, "number": 1}, {"id": 11, "seriesId": 1, "number": 2}},
		"episodes": []map[string]any{{"id": 100, "seriesId": 1, "seasonId": 10, "number": 2}, {"id": 101, "seriesId": 1, "seasonId": 10, "number": 1}},
	})

	svc, err := catalog.NewService(dir)
	if err != nil {
		t.Fatal(err)
	}

	seasons := svc.SeasonsOf(1)
	if len(seasons) != 2 || seasons[0].Number != 1 {
		t.Fatalf("unexpected seasons: %+v", seasons)
	}

	eps := svc.EpisodesOf(10)
	if len(eps) != 2 || eps[0].ID != 101 {
		t.Fatalf("episodes must sort by number: %+v", eps)
	}

	if _, ok := svc.EpisodeBy("100"); !ok {
		t.Fatal("episode lookup failed")
	}
}
