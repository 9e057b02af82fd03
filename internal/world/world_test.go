package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPosition_Key(t *testing.T) {
	pos := Position{World: "main", X: 10, Y: -64, Z: 3}
	assert.Equal(t, "main:10:-64:3", pos.Key())
}

func TestPosition_Key_EmptyWorld(t *testing.T) {
	pos := Position{X: 1, Y: 2, Z: 3}
	assert.Equal(t, "null:1:2:3", pos.Key())
}

func TestPosition_String(t *testing.T) {
	pos := Position{World: "main", X: 10, Y: 64, Z: -3}
	assert.Equal(t, "main 10, 64, -3", pos.String())
}

func TestParseKey_RoundTrip(t *testing.T) {
	orig := Position{World: "nether", X: -5, Y: 120, Z: 9000}
	parsed, err := ParseKey(orig.Key())
	require.NoError(t, err)
	assert.Equal(t, orig, parsed)
}

func TestParseKey_Invalid(t *testing.T) {
	for _, key := range []string{"", "main", "main:1:2", "main:a:2:3", "main:1:2:3:4"} {
		_, err := ParseKey(key)
		assert.Error(t, err, "key %q", key)
	}
}

func TestNormalizeItem(t *testing.T) {
	tests := []struct {
		in   string
		want ItemType
	}{
		{"diamond", "DIAMOND"},
		{"Iron Ingot", "IRON_INGOT"},
		{"  gold   block  ", "GOLD_BLOCK"},
		{"IRON_INGOT", "IRON_INGOT"},
	}
	for _, tt := range tests {
		got, err := NormalizeItem(tt.in)
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestNormalizeItem_Rejects(t *testing.T) {
	for _, in := range []string{"", "   ", "dia*mond", "item!"} {
		_, err := NormalizeItem(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestStaticProber(t *testing.T) {
	p := NewStaticProber()
	signPos := Position{World: "main", X: 1, Y: 64, Z: 1}
	chestPos := Position{World: "main", X: 1, Y: 63, Z: 1}
	p.AddSign(signPos)
	p.AddContainer(chestPos)

	assert.True(t, p.WorldExists("main"))
	assert.False(t, p.WorldExists("nether"))
	assert.True(t, p.IsSign(signPos))
	assert.False(t, p.IsSign(chestPos))
	assert.True(t, p.IsContainer(chestPos))
	assert.False(t, p.IsContainer(signPos))
}
