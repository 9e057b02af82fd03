package holo

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubShop struct{}

func (stubShop) SignKey() string   { return "main:1:64:1" }
func (stubShop) OwnerName() string { return "Alice" }

func TestDetect_DefaultIsNop(t *testing.T) {
	t.Setenv("TRADEPOST_HOLO", "")
	m := Detect(nil)
	assert.IsType(t, NopMarker{}, m)
}

func TestDetect_UnknownValueIsNop(t *testing.T) {
	t.Setenv("TRADEPOST_HOLO", "fancy")
	m := Detect(nil)
	assert.IsType(t, NopMarker{}, m)
}

func TestDetect_LogMarker(t *testing.T) {
	t.Setenv("TRADEPOST_HOLO", "log")

	buf := &bytes.Buffer{}
	m := Detect(slog.New(slog.NewTextHandler(buf, nil)))
	assert.IsType(t, LogMarker{}, m)

	m.Create(stubShop{})
	m.Remove("main:1:64:1")
	out := buf.String()
	assert.Contains(t, out, "hologram created")
	assert.Contains(t, out, "hologram removed")
	assert.Contains(t, out, "main:1:64:1")
}
