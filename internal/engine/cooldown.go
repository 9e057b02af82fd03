package engine

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultCooldown is the per-actor window between transaction attempts.
// It blunts rapid-repeat-click exploitation only; correctness is carried
// by the per-shop lock.
const DefaultCooldown = 500 * time.Millisecond

// Clock supplies current time. Satisfied by testutil.Clock in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// cooldowns tracks the last attempt time per actor.
type cooldowns struct {
	mu     sync.Mutex
	last   map[uuid.UUID]time.Time
	window time.Duration
	clock  Clock
}

func newCooldowns(window time.Duration, clock Clock) *cooldowns {
	if window <= 0 {
		window = DefaultCooldown
	}
	if clock == nil {
		clock = systemClock{}
	}
	return &cooldowns{
		last:   make(map[uuid.UUID]time.Time),
		window: window,
		clock:  clock,
	}
}

// hit reports whether the actor is inside the window. An attempt outside
// the window records the new timestamp, so checks themselves arm the
// cooldown regardless of how the transaction later resolves.
func (c *cooldowns) hit(actor uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.clock.Now()
	if last, ok := c.last[actor]; ok && now.Sub(last) < c.window {
		return true
	}
	c.last[actor] = now
	return false
}

// forget drops the actor's entry, e.g. when they leave the world.
func (c *cooldowns) forget(actor uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.last, actor)
}
