package sound

import (
	"context"
	"sync"

	"github.com/snackway/partner/internal/adapter/logger"
)

// Controller owns the single alert playback resource. Start is a no-op while
// a handle is held or an acquisition is in flight, so two alerts can never
// loop at once. Stop is idempotent and also cancels an in-flight acquisition.
type Controller struct {
	player Player
	logger logger.Logger

	mu          sync.Mutex
	loading     bool
	stopPending bool
	handle      Handle
}

func NewController(player Player, lgr logger.Logger) *Controller {
	return &Controller{
		player: player,
		logger: lgr,
	}
}

// Start acquires and begins looping playback. Acquisition failure is
// non-fatal: the visual alert still shows, so it is logged and swallowed.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	if c.loading || c.handle != nil {
		c.mu.Unlock()
		return
	}
	c.loading = true
	c.stopPending = false
	c.mu.Unlock()

	handle, err := c.player.Play(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false

	if err != nil {
		c.logger.Error("alert_sound_failed", "Failed to start alert sound", "", nil, err)
		return
	}

	// Stop raced the acquisition: honour it, release immediately.
	if c.stopPending {
		c.stopPending = false
		handle.Stop()
		return
	}
	c.handle = handle
}

// Stop halts playback and releases the resource if one is held.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loading {
		c.stopPending = true
	}
	if c.handle != nil {
		c.handle.Stop()
		c.handle = nil
	}
}

// Playing reports whether a playback handle is currently held.
func (c *Controller) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handle != nil
}
