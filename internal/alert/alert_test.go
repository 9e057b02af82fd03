package alert

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tradepost/internal/econ"
	"github.com/roach88/tradepost/internal/testutil"
	"github.com/roach88/tradepost/internal/world"
)

var testPos = world.Position{World: "main", X: 10, Y: 64, Z: -3}

func newTestNotifier(t *testing.T, clock Clock) (*Notifier, *econ.MemoryPresence, *PendingStore) {
	t.Helper()
	store, err := OpenPendingStore(filepath.Join(t.TempDir(), "alerts.yml"), nil)
	require.NoError(t, err)
	presence := econ.NewMemoryPresence()
	return NewNotifier(presence, store, clock, DefaultWindow, nil), presence, store
}

func TestNotifier_DeliversToOnlineOwner(t *testing.T) {
	n, presence, store := newTestNotifier(t, nil)
	owner := uuid.Must(uuid.NewV7())
	presence.Join(owner, "Alice", true)

	n.Notify(owner, KindLowStock, Context{Item: "DIAMOND", ShopPos: testPos, Remaining: 3})

	got := presence.Delivered(owner)
	require.Len(t, got, 1)
	assert.Equal(t, "Low Stock Alert: Your Diamond shop only has 3 items left! (main 10, 64, -3)", got[0])
	assert.Zero(t, store.Count(owner))
}

func TestNotifier_QueuesForOfflineOwner(t *testing.T) {
	n, presence, store := newTestNotifier(t, nil)
	owner := uuid.Must(uuid.NewV7())
	presence.Join(owner, "Alice", false)

	n.Notify(owner, KindOutOfStock, Context{Item: "DIAMOND", ShopPos: testPos})

	assert.Empty(t, presence.Delivered(owner))
	assert.Equal(t, 1, store.Count(owner))
}

func TestNotifier_DeduplicatesWithinWindow(t *testing.T) {
	clock := testutil.NewFakeClock(time.Unix(1_700_000_000, 0))
	n, presence, _ := newTestNotifier(t, clock)
	owner := uuid.Must(uuid.NewV7())
	presence.Join(owner, "Alice", true)

	ctx := Context{Item: "DIAMOND", ShopPos: testPos, Remaining: 3}
	n.Notify(owner, KindLowStock, ctx)
	n.Notify(owner, KindLowStock, ctx)
	assert.Len(t, presence.Delivered(owner), 1, "second alert inside window must be dropped")

	clock.Advance(DefaultWindow)
	n.Notify(owner, KindLowStock, ctx)
	assert.Len(t, presence.Delivered(owner), 2, "alert after window must fire")
}

func TestNotifier_KindsDeduplicateIndependently(t *testing.T) {
	clock := testutil.NewFakeClock(time.Unix(1_700_000_000, 0))
	n, presence, _ := newTestNotifier(t, clock)
	owner := uuid.Must(uuid.NewV7())
	presence.Join(owner, "Alice", true)

	ctx := Context{Item: "DIAMOND", ShopPos: testPos}
	n.Notify(owner, KindLowStock, ctx)
	n.Notify(owner, KindOutOfStock, ctx)
	assert.Len(t, presence.Delivered(owner), 2)
}

func TestNotifier_ShopsDeduplicateIndependently(t *testing.T) {
	clock := testutil.NewFakeClock(time.Unix(1_700_000_000, 0))
	n, presence, _ := newTestNotifier(t, clock)
	owner := uuid.Must(uuid.NewV7())
	presence.Join(owner, "Alice", true)

	other := world.Position{World: "main", X: 99, Y: 64, Z: 0}
	n.Notify(owner, KindLowStock, Context{Item: "DIAMOND", ShopPos: testPos})
	n.Notify(owner, KindLowStock, Context{Item: "DIAMOND", ShopPos: other})
	assert.Len(t, presence.Delivered(owner), 2)
}

func TestNotifier_FlushPendingDeliversBatch(t *testing.T) {
	n, presence, store := newTestNotifier(t, nil)
	owner := uuid.Must(uuid.NewV7())
	presence.Join(owner, "Alice", false)

	n.Notify(owner, KindOutOfStock, Context{Item: "DIAMOND", ShopPos: testPos})
	n.Notify(owner, KindLowFunds, Context{Item: "DIAMOND", ShopPos: testPos, Balance: 12.5})
	require.Equal(t, 2, store.Count(owner))

	presence.SetOnline(owner, true)
	n.FlushPending(owner)

	got := presence.Delivered(owner)
	require.Len(t, got, 3)
	assert.Equal(t, "Shop Alerts (2)", got[0])
	assert.Zero(t, store.Count(owner), "flushed queue must be cleared")
}

func TestNotifier_FlushPendingSkipsOffline(t *testing.T) {
	n, presence, store := newTestNotifier(t, nil)
	owner := uuid.Must(uuid.NewV7())
	presence.Join(owner, "Alice", false)

	n.Notify(owner, KindOutOfStock, Context{Item: "DIAMOND", ShopPos: testPos})
	n.FlushPending(owner)
	assert.Equal(t, 1, store.Count(owner))
}

func TestRenderMessages_Golden(t *testing.T) {
	msgs := []string{
		render(KindLowStock, Context{Item: "IRON_INGOT", ShopPos: testPos, Remaining: 4}),
		render(KindOutOfStock, Context{Item: "IRON_INGOT", ShopPos: testPos}),
		render(KindLowFunds, Context{Item: "IRON_INGOT", ShopPos: testPos, Balance: 7.5}),
		render(KindContainerFull, Context{Item: "IRON_INGOT", ShopPos: testPos}),
	}
	batch := RenderBatch(msgs)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "alert_batch", []byte(strings.Join(batch, "\n")+"\n"))
}
