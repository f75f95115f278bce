package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"reelhouse/handlers"
	"reelhouse/models"
	"reelhouse/services/progress"
	"reelhouse/services/sessions"
)

type fakeProgressService struct {
	records   []models.WatchProgress
	rec       models.WatchProgress
	err       error
	lastOwner string
	lastInput models.WatchProgressInput
	lastID    string
	filter    progress.Filter
}

func (f *fakeProgressService) List(owner string, filter progress.Filter) ([]models.WatchProgress, error) {
	f.lastOwner = owner
	f.filter = filter
	return f.records, f.err
}

func (f *fakeProgressService) Get(owner, id string) (models.WatchProgress, error) {
	f.lastOwner = owner
	f.lastID = id
	return f.rec, f.err
}

func (f *fakeProgressService) Create(owner string, input models.WatchProgressInput) (models.WatchProgress, error) {
	f.lastOwner = owner
	f.lastInput = input
	return f.rec, f.err
}

func (f *fakeProgressService) Update(owner, id string, input models.WatchProgressInput) (models.WatchProgress, error) {
	f.lastOwner = owner
	f.lastID = id
	f.lastInput = input
	return f.rec, f.err
}

func (f *fakeProgressService) Delete(owner, id string) error {
	f.lastOwner = owner
	f.lastID = id
	return f.err
}

func progressRouter(svc *fakeProgressService, userID string) *mux.Router {
	h := handlers.NewProgressHandler(svc)
	r := mux.NewRouter()
	wrap := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, req *http.Request) {
			if userID != "" {
				req = req.WithContext(sessions.WithUser(req.Context(), userID))
			}
			next(w, req)
		}
	}
	r.HandleFunc("/watch-progresses", wrap(h.List)).Methods(http.MethodGet)
	r.HandleFunc("/watch-progresses", wrap(h.Create)).Methods(http.MethodPost)
	r.HandleFunc("/watch-progresses/{recordID}", wrap(h.Get)).Methods(http.MethodGet)
	r.HandleFunc("/watch-progresses/{recordID}", wrap(h.Update)).Methods(http.MethodPut)
	r.HandleFunc("/watch-progresses/{recordID}", wrap(h.Delete)).Methods(http.MethodDelete)
	return r
}

func decodeErrorBody(t *testing.T, rr *httptest.ResponseRecorder) (int, string) {
	t.Helper()
	var body struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body is not structured JSON: %v (%s)", err, rr.Body.String())
	}
	return body.Status, body.Message
}

func TestProgressErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"unauthenticated", progress.ErrUnauthenticated, http.StatusUnauthorized},
		{"forbidden", progress.ErrForbidden, http.StatusForbidden},
		{"not found", progress.ErrNotFound, http.StatusNotFound},
		{"validation", progress.ErrValidation, http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeProgressService{err: tc.err}
			router := progressRouter(svc, "u1")

			req := httptest.NewRequest(http.MethodGet, "/watch-progresses/abc", nil)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rr.Code)
			}
			status, message := decodeErrorBody(t, rr)
			if status != tc.want || message == "" {
				t.Fatalf("structured body mismatch: status=%d message=%q", status, message)
			}
		})
	}
}

func TestProgressListPassesOwnerAndFilter(t *testing.T) {
	svc := &fakeProgressService{}
	router := progressRouter(svc, "u1")

	req := httptest.NewRequest(http.MethodGet, "/watch-progresses?kind=movie&mediaId=42", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if svc.lastOwner != "u1" {
		t.Fatalf("owner not taken from session context: %q", svc.lastOwner)
	}
	if svc.filter.Kind != models.KindMovie || svc.filter.MediaID != "42" {
		t.Fatalf("unexpected filter %+v", svc.filter)
	}

	// Empty collection serializes as [], not null.
	if got := bytes.TrimSpace(rr.Body.Bytes()); string(got) != "[]" {
		t.Fatalf("expected empty JSON array, got %s", got)
	}
}

func TestProgressCreatePassesPayloadThrough(t *testing.T) {
	svc := &fakeProgressService{rec: models.WatchProgress{ID: "r1"}}
	router := progressRouter(svc, "u1")

	payload := []byte(`{"kind":"movie","movie":{"connect":[42]},"positionSeconds":40,"completed":false}`)
	req := httptest.NewRequest(http.MethodPost, "/watch-progresses", bytes.NewReader(payload))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rr.Code, rr.Body.String())
	}
	if svc.lastInput.Kind != "movie" {
		t.Fatalf("kind not passed through: %q", svc.lastInput.Kind)
	}
	if svc.lastInput.PositionSeconds == nil || *svc.lastInput.PositionSeconds != 40 {
		t.Fatalf("position not passed through: %v", svc.lastInput.PositionSeconds)
	}
	if len(svc.lastInput.Movie) == 0 {
		t.Fatal("relation payload not passed through verbatim")
	}
}

func TestProgressRequestsWithoutSession(t *testing.T) {
	// No middleware set a user: the service decides, and its sentinel maps
	// to 401.
	svc := &fakeProgressService{err: progress.ErrUnauthenticated}
	router := progressRouter(svc, "")

	req := httptest.NewRequest(http.MethodGet, "/watch-progresses", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	if svc.lastOwner != "" {
		t.Fatalf("expected empty owner, got %q", svc.lastOwner)
	}
}

func TestProgressDelete(t *testing.T) {
	svc := &fakeProgressService{}
	router := progressRouter(svc, "u1")

	req := httptest.NewRequest(http.MethodDelete, "/watch-progresses/r9", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if svc.lastID != "r9" {
		t.Fatalf("record id not passed through: %q", svc.lastID)
	}
}
