package playersync

import (
	"context"
	"errors"
	"log"
)

// resumeSeekTarget clamps a stored position to a seekable offset, staying
// one second short of the end so the seek never lands on the final frame.
func resumeSeekTarget(position, duration float64) float64 {
	if duration > 0 && position > duration-1 {
		return duration - 1
	}
	return position
}

// OnLoadedMetadata runs once the player knows the media duration. It
// captures the duration, and if a resume point is eligible (not completed,
// stored position past the resume floor, not already applied this load)
// seeks to it and attempts to start playback. Blocked autoplay is an
// advisory condition, not an error: the position is already applied and
// the user just has to press play.
func (c *Controller) OnLoadedMetadata(ctx context.Context) {
	c.mu.Lock()
	player := c.player
	if player == nil {
		c.mu.Unlock()
		return
	}
	if d, ok := player.Duration(); ok && d > 0 {
		c.duration = d
	}

	if c.resumeApplied || c.completed || c.position <= resumeFloorSeconds {
		c.mu.Unlock()
		return
	}
	c.resumeApplied = true
	target := resumeSeekTarget(c.position, c.duration)
	c.mu.Unlock()

	player.Seek(target)
	if err := player.Play(ctx); err != nil {
		if errors.Is(err, ErrAutoplayBlocked) {
			c.mu.Lock()
			c.status = "Autoplay was blocked by the browser; press play to resume."
			c.mu.Unlock()
			return
		}
		log.Printf("playersync: resume playback failed: %v", err)
	}
}
