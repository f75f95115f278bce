// Package playersync owns the client side of watch-progress
// synchronization: the per-session playback state, the save policy that
// decides when a position is worth persisting, the write-through against
// the remote record store, and the resume/autoplay sequencing.
package playersync

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/sourcegraph/conc"

	"reelhouse/models"
	"reelhouse/utils/entities"
	"reelhouse/utils/ident"
)

const (
	// autosaveInterval is the ceiling for periodic saves while playing; the
	// finer thresholds below throttle actual writes under it.
	autosaveInterval = 8 * time.Second
	// positionDeltaSeconds and elapsedThreshold form a dual gate: a
	// non-forced save is skipped only when BOTH the position moved less
	// than the delta AND less time than the threshold has passed.
	positionDeltaSeconds = 5.0
	elapsedThreshold     = 7500 * time.Millisecond
	// minFirstSavePosition avoids creating noise records for near-zero
	// progress when no record exists yet.
	minFirstSavePosition = 5.0
	// completionRatio marks playback as finished.
	completionRatio = 0.95
	// resumeFloorSeconds is the minimum stored position worth resuming.
	resumeFloorSeconds = 30.0
)

// Controller tracks playback progress for the currently loaded media and
// persists it against the remote store. All state is owned by the
// controller and reset on every media change. Concurrent save attempts
// collapse through a single in-flight flag plus one queued-force slot;
// there is never more than one pending forced save remembered.
type Controller struct {
	api     ProgressAPI
	content ContentAPI
	now     func() time.Time

	mu            sync.Mutex
	player        Player
	media         models.MediaRef
	loaded        bool
	loadGen       int
	position      float64
	duration      float64
	completed     bool
	recordID      string
	lastSavedPos  float64
	lastSavedAt   time.Time
	saveInFlight  bool
	queuedForce   bool
	resumeApplied bool
	status        string
	saveFailure   bool

	timerStop chan struct{}
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// NewController creates a progress controller writing through the given
// API. The content client is used on load to learn the media entity's
// identifiers for record matching.
func NewController(api ProgressAPI, content ContentAPI, opts ...Option) *Controller {
	c := &Controller{
		api:     api,
		content: content,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AttachPlayer binds the live playback surface. May be called before or
// after Load.
func (c *Controller) AttachPlayer(p Player) {
	c.mu.Lock()
	c.player = p
	c.mu.Unlock()
}

// Load switches the controller to new media. Any pending progress for the
// previous media is force-saved first, so quick navigation never loses
// position; then all local state is reset and the media entity plus the
// user's progress collection are fetched concurrently. A record matching
// the media (by kind and any of the candidate identifiers) seeds the local
// state. A failed progress fetch degrades to "no resume", not to a load
// failure.
func (c *Controller) Load(ctx context.Context, ref models.MediaRef) error {
	c.mu.Lock()
	hadMedia := c.loaded
	c.mu.Unlock()

	if hadMedia {
		if err := c.SaveProgress(ctx, true, nil); err != nil {
			log.Printf("playersync: flush before media switch failed: %v", err)
		}
	}
	c.stopAutosave()

	c.mu.Lock()
	c.loadGen++
	gen := c.loadGen
	c.media = ref
	c.loaded = true
	c.position = 0
	c.duration = 0
	c.completed = false
	c.recordID = ""
	c.lastSavedPos = 0
	c.lastSavedAt = time.Time{}
	c.saveInFlight = false
	c.queuedForce = false
	c.resumeApplied = false
	c.status = ""
	c.saveFailure = false
	c.mu.Unlock()

	var (
		entity     entities.Entity
		entityErr  error
		records    []models.WatchProgress
		recordsErr error
	)
	var wg conc.WaitGroup
	wg.Go(func() { entity, entityErr = c.content.GetMedia(ctx, ref) })
	wg.Go(func() { records, recordsErr = c.api.ListProgress(ctx) })
	wg.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loadGen != gen {
		// A later load superseded this one; discard the result.
		return nil
	}

	if entityErr != nil {
		c.status = fmt.Sprintf("Could not load media details: %v", entityErr)
		return entityErr
	}
	if recordsErr != nil {
		// Playback works without resume data.
		c.status = "Could not load watch progress; starting from the beginning."
		return nil
	}

	targets := candidateTargets(ref, entity)
	var best *models.WatchProgress
	for i := range records {
		rec := records[i]
		if !rec.Matches(ref.Kind, targets...) {
			continue
		}
		if best == nil || rec.UpdatedAt.After(best.UpdatedAt) {
			best = &rec
		}
	}

	if best != nil {
		c.position = float64(best.PositionSeconds)
		c.duration = float64(best.DurationSeconds)
		c.completed = best.Completed
		c.recordID = best.ID
		c.lastSavedPos = c.position
		c.lastSavedAt = c.now()
	}

	return nil
}

// candidateTargets collects the identifiers the loaded media is known by:
// the route identifier, the relation identifier, and the loaded entity's
// two ids. A record matching any one of them refers to this media.
func candidateTargets(ref models.MediaRef, entity entities.Entity) []ident.ID {
	targets := make([]ident.ID, 0, 4)
	for _, id := range []ident.ID{ref.Display, ref.Relation, entity.ID(), entity.DocumentID()} {
		if !id.IsZero() {
			targets = append(targets, id)
		}
	}
	return targets
}

// SaveProgress runs the save decision policy and, when a write is due,
// persists through the remote store. Forced saves bypass the throttling
// gates but still respect the "nothing meaningful to persist" floor. While
// a save is in flight a forced request is queued (one slot) and re-invoked
// after the in-flight one settles; non-forced requests are dropped.
func (c *Controller) SaveProgress(ctx context.Context, force bool, completedOverride *bool) error {
	c.mu.Lock()

	if !c.loaded {
		c.mu.Unlock()
		return nil
	}

	pos := c.position
	dur := c.duration
	if c.player != nil {
		if p, ok := c.player.Position(); ok {
			pos = p
		}
		if d, ok := c.player.Duration(); ok && d > 0 && !math.IsInf(d, 0) {
			dur = d
		}
	}

	completed := dur > 0 && pos/dur >= completionRatio
	if completedOverride != nil {
		completed = *completedOverride
	}

	if !force {
		if c.player == nil || c.player.Paused() {
			c.mu.Unlock()
			return nil
		}
		if pos < minFirstSavePosition && c.recordID == "" {
			c.mu.Unlock()
			return nil
		}
		if !completed &&
			math.Abs(pos-c.lastSavedPos) < positionDeltaSeconds &&
			c.now().Sub(c.lastSavedAt) < elapsedThreshold {
			c.mu.Unlock()
			return nil
		}
	}

	// Nothing meaningful to persist.
	if !completed && pos <= 0 && c.recordID == "" {
		c.mu.Unlock()
		return nil
	}

	if c.saveInFlight {
		if force {
			c.queuedForce = true
		}
		c.mu.Unlock()
		return nil
	}
	c.saveInFlight = true
	media := c.media
	recordID := c.recordID
	gen := c.loadGen
	c.mu.Unlock()

	input := buildInput(media, pos, dur, completed)
	newID, clearedID, err := c.write(ctx, recordID, input)

	c.mu.Lock()
	c.saveInFlight = false
	rerun := c.queuedForce
	c.queuedForce = false

	if c.loadGen == gen {
		if clearedID {
			c.recordID = ""
		}
		if err == nil {
			c.position = pos
			c.duration = dur
			c.completed = completed
			if newID != "" {
				c.recordID = newID
			}
			c.lastSavedPos = pos
			c.lastSavedAt = c.now()
			if c.saveFailure {
				// A successful save clears a prior save-failure message,
				// but never an unrelated status.
				c.status = ""
				c.saveFailure = false
			}
		} else {
			c.status = saveFailureMessage(err)
			c.saveFailure = true
		}
	}
	c.mu.Unlock()

	if rerun {
		if rerr := c.SaveProgress(ctx, true, nil); err == nil {
			err = rerr
		}
	}
	return err
}

// write performs the write-through: update when a record id is cached,
// falling back to create when the remote record vanished (404). Returns
// the id the caller should cache and whether the stale cached id must be
// forgotten regardless of the outcome.
func (c *Controller) write(ctx context.Context, recordID string, input models.WatchProgressInput) (newID string, clearedID bool, err error) {
	if recordID != "" {
		rec, updateErr := c.api.UpdateProgress(ctx, recordID, input)
		if updateErr == nil {
			if rec.ID != "" {
				return rec.ID, false, nil
			}
			return recordID, false, nil
		}
		if !IsNotFound(updateErr) {
			return "", false, updateErr
		}
		// The remote record is gone; forget the cached id and create anew.
		clearedID = true
	}

	rec, createErr := c.api.CreateProgress(ctx, input)
	if createErr != nil {
		return "", clearedID, createErr
	}
	return rec.ID, clearedID, nil
}

func buildInput(media models.MediaRef, pos, dur float64, completed bool) models.WatchProgressInput {
	position := int(pos)
	if position < 0 {
		position = 0
	}

	input := models.WatchProgressInput{
		Kind:            string(media.Kind),
		PositionSeconds: &position,
		Completed:       &completed,
	}
	if dur > 0 {
		duration := int(dur)
		input.DurationSeconds = &duration
	}

	relID := media.Relation
	if relID.IsZero() {
		relID = media.Display
	}
	relation, _ := relID.MarshalJSON()
	if media.Kind == models.KindEpisode {
		input.Episode = relation
	} else {
		input.Movie = relation
	}
	return input
}

func saveFailureMessage(err error) string {
	if apiErr, ok := errAsAPIError(err); ok {
		return fmt.Sprintf("Saving watch progress failed (%d): %s", apiErr.Status, apiErr.Message)
	}
	return "Saving watch progress failed; it will be retried on the next trigger."
}

// Restart resets playback to the beginning: position zero, completion
// cleared, resume marked as already applied so the sequencer does not seek
// back, and an immediate forced save with completed=false.
func (c *Controller) Restart(ctx context.Context) error {
	c.mu.Lock()
	c.position = 0
	c.completed = false
	c.resumeApplied = true
	player := c.player
	c.mu.Unlock()

	if player != nil {
		player.Seek(0)
	}

	notCompleted := false
	return c.SaveProgress(ctx, true, &notCompleted)
}

// OnPlay arms the periodic autosave.
func (c *Controller) OnPlay(ctx context.Context) {
	c.startAutosave(ctx)
}

// OnPause disarms the autosave and forces a save.
func (c *Controller) OnPause(ctx context.Context) error {
	c.stopAutosave()
	return c.SaveProgress(ctx, true, nil)
}

// OnEnded disarms the autosave and forces a save with completion set
// explicitly.
func (c *Controller) OnEnded(ctx context.Context) error {
	c.stopAutosave()
	done := true
	return c.SaveProgress(ctx, true, &done)
}

// OnHidden handles page/tab hide: best effort, fire and forget. The
// environment may not let the write finish; that is an accepted limitation.
func (c *Controller) OnHidden(ctx context.Context) {
	c.stopAutosave()
	if err := c.SaveProgress(ctx, true, nil); err != nil {
		log.Printf("playersync: save on hide failed: %v", err)
	}
}

// Close tears the session down, flushing pending progress.
func (c *Controller) Close(ctx context.Context) {
	c.stopAutosave()
	if err := c.SaveProgress(ctx, true, nil); err != nil {
		log.Printf("playersync: save on close failed: %v", err)
	}
}

func (c *Controller) startAutosave(ctx context.Context) {
	c.mu.Lock()
	if c.timerStop != nil {
		c.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	c.timerStop = stop
	c.mu.Unlock()

	go func() {
		ticker := time.NewTicker(autosaveInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				_ = c.SaveProgress(ctx, false, nil)
			}
		}
	}()
}

func (c *Controller) stopAutosave() {
	c.mu.Lock()
	if c.timerStop != nil {
		close(c.timerStop)
		c.timerStop = nil
	}
	c.mu.Unlock()
}

// Position returns the last known playback position.
func (c *Controller) Position() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

// Duration returns the last known media duration.
func (c *Controller) Duration() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.duration
}

// Completed reports whether the loaded media is considered finished.
func (c *Controller) Completed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.completed
}

// RecordID returns the cached remote record id, empty when none exists.
func (c *Controller) RecordID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recordID
}

// Status returns the current user-visible advisory message, empty when
// everything is fine.
func (c *Controller) Status() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}
