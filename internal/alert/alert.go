// Package alert implements threshold-triggered owner notifications with
// per-shop deduplication and a durable pending queue for offline owners.
package alert

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/tradepost/internal/econ"
	"github.com/roach88/tradepost/internal/sign"
	"github.com/roach88/tradepost/internal/world"
)

// Kind identifies one alert category. Each kind deduplicates
// independently per shop position.
type Kind string

const (
	KindLowStock      Kind = "stock"
	KindOutOfStock    Kind = "outofstock"
	KindLowFunds      Kind = "money"
	KindContainerFull Kind = "full"
)

// DefaultWindow is the suppression window for repeated alerts of the same
// kind on the same shop.
const DefaultWindow = 5 * time.Minute

// cooldownPruneLimit bounds the dedup map before expired entries are
// swept out.
const cooldownPruneLimit = 100

// Context carries the rendered details for one alert.
type Context struct {
	Item      world.ItemType
	ShopPos   world.Position
	Remaining int     // KindLowStock
	Balance   float64 // KindLowFunds
}

// Clock supplies current time. Satisfied by testutil.Clock in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Notifier delivers alerts immediately to reachable owners and queues
// them durably otherwise. Safe for concurrent use.
type Notifier struct {
	presence econ.Presence
	store    *PendingStore
	clock    Clock
	window   time.Duration
	log      *slog.Logger

	mu        sync.Mutex
	lastFired map[string]time.Time
}

// NewNotifier creates a notifier. A nil clock uses wall time; a
// non-positive window uses DefaultWindow.
func NewNotifier(presence econ.Presence, store *PendingStore, clock Clock, window time.Duration, log *slog.Logger) *Notifier {
	if clock == nil {
		clock = systemClock{}
	}
	if window <= 0 {
		window = DefaultWindow
	}
	if log == nil {
		log = slog.Default()
	}
	return &Notifier{
		presence:  presence,
		store:     store,
		clock:     clock,
		window:    window,
		log:       log,
		lastFired: make(map[string]time.Time),
	}
}

// Notify renders and dispatches one alert. A second trigger of the same
// kind for the same shop inside the suppression window is silently
// dropped. Queued alerts are persisted before Notify returns.
func (n *Notifier) Notify(owner uuid.UUID, kind Kind, ctx Context) {
	if !n.shouldFire(kind, ctx.ShopPos) {
		return
	}
	msg := render(kind, ctx)

	if n.presence.Online(owner) {
		if err := n.presence.Deliver(owner, []string{msg}); err != nil {
			n.log.Warn("alert delivery failed", "owner", owner, "kind", kind, "error", err)
		}
		return
	}
	// Durability over latency: an offline alert must survive a crash.
	if err := n.store.Append(owner, msg); err != nil {
		n.log.Error("failed to persist pending alert", "owner", owner, "error", err)
	}
}

// FlushPending delivers the owner's entire queued batch as one ordered
// group and clears the queue. Delivery is not acknowledgement-based; once
// handed to the presence service the batch is considered delivered.
func (n *Notifier) FlushPending(owner uuid.UUID) {
	if !n.presence.Online(owner) {
		return
	}
	batch, err := n.store.Take(owner)
	if err != nil {
		n.log.Error("failed to clear pending alerts", "owner", owner, "error", err)
		return
	}
	if len(batch) == 0 {
		return
	}
	lines := RenderBatch(batch)
	if err := n.presence.Deliver(owner, lines); err != nil {
		n.log.Warn("pending alert delivery failed", "owner", owner, "error", err)
	}
}

// PendingCount returns how many alerts are queued for the owner.
func (n *Notifier) PendingCount(owner uuid.UUID) int {
	return n.store.Count(owner)
}

// shouldFire checks and records the dedup window for (kind, shop).
func (n *Notifier) shouldFire(kind Kind, pos world.Position) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := n.clock.Now()
	if len(n.lastFired) > cooldownPruneLimit {
		for k, t := range n.lastFired {
			if now.Sub(t) >= n.window {
				delete(n.lastFired, k)
			}
		}
	}

	key := string(kind) + ":" + pos.Key()
	if last, ok := n.lastFired[key]; ok && now.Sub(last) < n.window {
		return false
	}
	n.lastFired[key] = now
	return true
}

// RenderBatch frames a queued alert batch with a header for delivery as
// one ordered group.
func RenderBatch(batch []string) []string {
	lines := make([]string, 0, len(batch)+1)
	lines = append(lines, fmt.Sprintf("Shop Alerts (%d)", len(batch)))
	lines = append(lines, batch...)
	return lines
}

func render(kind Kind, ctx Context) string {
	item := sign.FormatItemName(ctx.Item)
	loc := ctx.ShopPos.String()
	switch kind {
	case KindLowStock:
		return fmt.Sprintf("Low Stock Alert: Your %s shop only has %d items left! (%s)", item, ctx.Remaining, loc)
	case KindOutOfStock:
		return fmt.Sprintf("Out of Stock: Your %s shop is now OUT OF STOCK! (%s)", item, loc)
	case KindLowFunds:
		return fmt.Sprintf("Low Funds Alert: You only have $%.2f to buy items at your %s shop! (%s)", ctx.Balance, item, loc)
	case KindContainerFull:
		return fmt.Sprintf("Shop Full: Your %s shop chest is FULL and can't accept more items! (%s)", item, loc)
	default:
		return fmt.Sprintf("Shop Alert: %s (%s)", item, loc)
	}
}
