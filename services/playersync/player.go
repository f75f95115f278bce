package playersync

import (
	"context"
	"errors"
)

// ErrAutoplayBlocked is returned by Player.Play when the environment's
// autoplay policy rejects unattended playback. It is advisory, never fatal:
// playback stays available through manual control.
var ErrAutoplayBlocked = errors.New("autoplay blocked by policy")

// Player is the live playback surface the controller reads positions from
// and drives seeks on. Position and Duration report ok=false while the
// underlying clock is not yet available (before metadata loads).
type Player interface {
	// Position returns the current playback offset in seconds.
	Position() (float64, bool)
	// Duration returns the total media duration in seconds. Implementations
	// must report ok=false for unknown, zero, or non-finite durations.
	Duration() (float64, bool)
	// Paused reports whether playback is currently paused.
	Paused() bool
	// Seek moves the playback position.
	Seek(seconds float64)
	// Play starts or resumes playback. May fail with ErrAutoplayBlocked.
	Play(ctx context.Context) error
}
