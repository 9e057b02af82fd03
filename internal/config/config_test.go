package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tradepost/internal/world"
)

func TestDefault(t *testing.T) {
	c := Default()
	assert.Equal(t, 50, c.Shops.MaxPerPlayer)
	assert.Equal(t, 1e9, c.Shops.MaxPrice)
	assert.True(t, c.Strict())
	assert.Equal(t, 0.0, c.Transactions.TaxPercent)
	assert.Equal(t, 500*time.Millisecond, c.Cooldown())
	assert.Equal(t, 5*time.Minute, c.AutosaveInterval())
	assert.Equal(t, 10, c.Alerts.LowStockThreshold)
	assert.Equal(t, 100.0, c.Alerts.LowMoneyThreshold)
	assert.Equal(t, 5*time.Minute, c.DedupWindow())
}

func TestParse_OverridesDefaults(t *testing.T) {
	c, err := Parse([]byte(`
shops:
  max-per-player: 5
  strict-sign-prices: false
transactions:
  tax-percent: 12.5
  cooldown-ms: 250
alerts:
  low-stock-threshold: 3
`))
	require.NoError(t, err)

	assert.Equal(t, 5, c.Shops.MaxPerPlayer)
	assert.False(t, c.Strict())
	assert.Equal(t, 12.5, c.Transactions.TaxPercent)
	assert.Equal(t, 250*time.Millisecond, c.Cooldown())
	assert.Equal(t, 3, c.Alerts.LowStockThreshold)

	// Untouched keys keep their defaults.
	assert.Equal(t, 1e9, c.Shops.MaxPrice)
	assert.Equal(t, 5*time.Minute, c.AutosaveInterval())
}

func TestParse_SchemaRejectsOutOfRange(t *testing.T) {
	cases := []string{
		"transactions:\n  tax-percent: 150\n",
		"transactions:\n  tax-percent: -5\n",
		"shops:\n  max-per-player: -1\n",
		"shops:\n  max-price: 0\n",
		"alerts:\n  dedup-window-min: 0\n",
	}
	for _, data := range cases {
		_, err := Parse([]byte(data))
		assert.Error(t, err, "config:\n%s", data)
	}
}

func TestParse_SchemaRejectsWrongType(t *testing.T) {
	_, err := Parse([]byte("shops:\n  max-per-player: many\n"))
	assert.Error(t, err)
}

func TestParse_EmptyFileUsesDefaults(t *testing.T) {
	c, err := Parse([]byte(""))
	require.NoError(t, err)
	assert.Equal(t, 50, c.Shops.MaxPerPlayer)
	assert.True(t, c.Strict())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)
	assert.Equal(t, 50, c.Shops.MaxPerPlayer)
}

func TestLoad_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("data-dir: /srv/tradepost\n"), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/tradepost", c.DataDir)
}

func TestBlockedItemSet(t *testing.T) {
	c, err := Parse([]byte("shops:\n  blocked-items: [\"bedrock\", \"command block\"]\n"))
	require.NoError(t, err)

	set := c.BlockedItemSet()
	assert.True(t, set[world.ItemType("BEDROCK")])
	assert.True(t, set[world.ItemType("COMMAND_BLOCK")])
	assert.False(t, set[world.ItemType("DIAMOND")])
}
