// Package syncer coalesces bursts of itinerary mutations into a bounded rate
// of persistence calls. Every save transmits the full current snapshot, so
// saves are idempotent by replacement and the latest snapshot always wins.
package syncer

import (
	"context"
	"errors"
	"sync"
	"time"

	"tripflow/pkg/logger"
	"tripflow/pkg/model"
)

var ErrClosed = errors.New("sync controller is closed")

// Persister writes a full schedule snapshot and returns the new version.
type Persister interface {
	Persist(ctx context.Context, tripID string, data *model.ScheduleData) (int64, error)
}

// Controller debounces snapshot saves for a single trip's schedule.
//
// Notify stores the latest snapshot and (re)arms the debounce timer. While a
// save is in flight the timer is not restarted; instead a pending flag is
// set, and the timer is re-armed as soon as the save completes. This is the
// property that keeps edits made during a save from being dropped: a plain
// debounce would swallow them. Saves for one schedule are never concurrent.
type Controller struct {
	tripID    string
	interval  time.Duration
	persister Persister
	log       *logger.Logger
	onError   func(error)

	mu          sync.Mutex
	cond        *sync.Cond
	timer       *time.Timer
	latest      *model.ScheduleData
	saving      bool
	pending     bool
	closed      bool
	lastVersion int64
}

type Option func(*Controller)

// WithErrorHandler installs a callback invoked when an automatic save fails.
// Failures are never retried automatically; the next mutation or manual save
// re-attempts with the latest state.
func WithErrorHandler(fn func(error)) Option {
	return func(c *Controller) { c.onError = fn }
}

func NewController(tripID string, interval time.Duration, persister Persister, log *logger.Logger, opts ...Option) *Controller {
	c := &Controller{
		tripID:    tripID,
		interval:  interval,
		persister: persister,
		log:       log,
	}
	c.cond = sync.NewCond(&c.mu)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Notify records the latest snapshot after a local mutation. The snapshot is
// cloned, so the caller may keep mutating its own copy.
func (c *Controller) Notify(snapshot *model.ScheduleData) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.latest = snapshot.Clone()
	if c.saving {
		c.pending = true
		return
	}
	c.armTimerLocked()
}

func (c *Controller) armTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.interval, c.flush)
}

// flush runs when the debounce timer fires.
func (c *Controller) flush() {
	c.mu.Lock()
	if c.closed || c.latest == nil {
		c.mu.Unlock()
		return
	}
	if c.saving {
		c.pending = true
		c.mu.Unlock()
		return
	}
	c.saving = true
	data := c.latest
	c.mu.Unlock()

	version, err := c.persister.Persist(context.Background(), c.tripID, data)

	c.mu.Lock()
	c.saving = false
	if err == nil {
		c.lastVersion = version
	}
	rearm := c.pending && !c.closed
	c.pending = false
	if rearm {
		c.armTimerLocked()
	}
	c.cond.Broadcast()
	c.mu.Unlock()

	if err != nil {
		c.log.Error("Automatic schedule save failed",
			"trip_id", c.tripID,
			"error", err,
		)
		if c.onError != nil {
			c.onError(err)
		}
		return
	}
	c.log.Debug("Schedule saved",
		"trip_id", c.tripID,
		"version", version,
	)
}

// SaveNow bypasses the debounce timer: it waits out any in-flight save,
// persists the latest snapshot, and returns the resulting version directly
// to the caller.
func (c *Controller) SaveNow(ctx context.Context) (int64, error) {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	for c.saving && !c.closed {
		c.cond.Wait()
	}
	if c.closed {
		c.mu.Unlock()
		return 0, ErrClosed
	}
	data := c.latest
	if data == nil {
		version := c.lastVersion
		c.mu.Unlock()
		return version, nil
	}
	c.saving = true
	c.pending = false
	c.mu.Unlock()

	version, err := c.persister.Persist(ctx, c.tripID, data)

	c.mu.Lock()
	c.saving = false
	if err == nil {
		c.lastVersion = version
	}
	// A Notify or timer fire that arrived while this save was in flight set
	// pending; re-arm so that snapshot is not stranded until the next edit.
	rearm := c.pending && !c.closed
	c.pending = false
	if rearm {
		c.armTimerLocked()
	}
	c.cond.Broadcast()
	c.mu.Unlock()

	return version, err
}

// Version returns the version reported by the most recent successful save.
func (c *Controller) Version() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastVersion
}

// Close stops the debounce timer. An in-flight save is left to finish; its
// result is still recorded.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.cond.Broadcast()
}
