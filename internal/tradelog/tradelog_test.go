package tradelog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestLog(t *testing.T) *Log {
	t.Helper()
	log, err := Open(filepath.Join(t.TempDir(), "trades.db"))
	require.NoError(t, err)
	t.Cleanup(func() { log.Close() })
	return log
}

func sampleTrade(token string, at time.Time) Trade {
	return Trade{
		Token:       token,
		CommittedAt: at,
		ActorID:     uuid.MustParse("018f0000-0000-7000-8000-000000000001"),
		OwnerID:     uuid.MustParse("018f0000-0000-7000-8000-000000000002"),
		ShopKey:     "main:1:64:1",
		Item:        "DIAMOND",
		Bundle:      5,
		Direction:   "buy",
		Gross:       10,
		Tax:         1,
		Net:         9,
	}
}

func TestLog_RecordAndListByShop(t *testing.T) {
	log := openTestLog(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, log.Record(ctx, sampleTrade("t1", base)))
	require.NoError(t, log.Record(ctx, sampleTrade("t2", base.Add(time.Minute))))

	trades, err := log.ListByShop(ctx, "main:1:64:1", 10)
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, "t2", trades[0].Token, "newest first")
	assert.Equal(t, "t1", trades[1].Token)
	assert.Equal(t, 9.0, trades[0].Net)
	assert.Equal(t, base.Add(time.Minute), trades[0].CommittedAt)
}

func TestLog_RecordIsIdempotent(t *testing.T) {
	log := openTestLog(t)
	ctx := context.Background()
	at := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, log.Record(ctx, sampleTrade("dup", at)))
	require.NoError(t, log.Record(ctx, sampleTrade("dup", at)))

	trades, err := log.ListByShop(ctx, "main:1:64:1", 10)
	require.NoError(t, err)
	assert.Len(t, trades, 1)
}

func TestLog_ListByActor(t *testing.T) {
	log := openTestLog(t)
	ctx := context.Background()
	at := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	tr := sampleTrade("t1", at)
	require.NoError(t, log.Record(ctx, tr))

	trades, err := log.ListByActor(ctx, tr.ActorID, 10)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, tr.ShopKey, trades[0].ShopKey)

	trades, err = log.ListByActor(ctx, uuid.Must(uuid.NewV7()), 10)
	require.NoError(t, err)
	assert.Empty(t, trades)
}

func TestLog_ListRespectsLimit(t *testing.T) {
	log := openTestLog(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		tr := sampleTrade(uuid.Must(uuid.NewV7()).String(), base.Add(time.Duration(i)*time.Second))
		require.NoError(t, log.Record(ctx, tr))
	}

	trades, err := log.ListByShop(ctx, "main:1:64:1", 3)
	require.NoError(t, err)
	assert.Len(t, trades, 3)
}
