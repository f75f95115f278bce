package models

import (
	"encoding/json"
	"time"

	"reelhouse/utils/ident"
)

// MediaKind distinguishes the two media a progress record can point at.
type MediaKind string

const (
	KindMovie   MediaKind = "movie"
	KindEpisode MediaKind = "episode"
)

// Valid reports whether the kind is one of the two known values.
func (k MediaKind) Valid() bool {
	return k == KindMovie || k == KindEpisode
}

// MediaRef identifies the media a player session is bound to. Relation is
// the identifier written into progress records; Display is the identifier
// used for routing and matching. Either identifier scheme (numeric id or
// document id) may appear in either position depending on the API version.
type MediaRef struct {
	Kind     MediaKind `json:"kind"`
	Relation ident.ID  `json:"relation"`
	Display  ident.ID  `json:"display"`
}

// WatchProgress records how far one user has watched one media item.
// Exactly one of Movie/Episode is populated, matching Kind; the server
// rejects writes that violate this. Owner is always set from the
// authenticated session, never from client input.
type WatchProgress struct {
	ID              string    `json:"id"`
	Owner           string    `json:"-"`
	Kind            MediaKind `json:"kind"`
	Movie           ident.ID  `json:"movie,omitempty"`
	Episode         ident.ID  `json:"episode,omitempty"`
	PositionSeconds int       `json:"positionSeconds"`
	DurationSeconds int       `json:"durationSeconds,omitempty"`
	Completed       bool      `json:"completed"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// MediaID returns the populated relation identifier.
func (p WatchProgress) MediaID() ident.ID {
	if p.Kind == KindEpisode {
		return p.Episode
	}
	return p.Movie
}

// Matches reports whether this record refers to the given media: kinds must
// agree and the record's relation identifier must match any one of the
// candidate target identifiers.
func (p WatchProgress) Matches(kind MediaKind, targets ...ident.ID) bool {
	if p.Kind != kind {
		return false
	}
	return ident.MatchesAny(p.MediaID(), targets...)
}

// WatchProgressInput is the write payload for create and update. The
// relation fields are kept raw because callers send them in several shapes
// (bare id, document id, single-element array, connect/set/disconnect
// mutation wrapper); the store normalizes them before validation. Pointer
// fields distinguish "omitted" from zero on update. Owner is carried only to
// be ignored: the server overwrites it from the session.
type WatchProgressInput struct {
	Kind            string          `json:"kind"`
	Movie           json.RawMessage `json:"movie,omitempty"`
	Episode         json.RawMessage `json:"episode,omitempty"`
	PositionSeconds *int            `json:"positionSeconds,omitempty"`
	DurationSeconds *int            `json:"durationSeconds,omitempty"`
	Completed       *bool           `json:"completed,omitempty"`
	Owner           json.RawMessage `json:"owner,omitempty"`
}
