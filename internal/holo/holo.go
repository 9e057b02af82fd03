// Package holo is the optional visual-marker capability: floating
// markers rendered above shops by a third-party integration.
//
// The registry and engine never depend on this package; only the
// creation/removal flows invoke it, and the default implementation does
// nothing. The concrete implementation is chosen once at startup from
// the environment rather than probed reflectively at call sites.
package holo

import (
	"log/slog"
	"os"
)

// Shop is the subset of a shop record a marker needs.
type Shop interface {
	SignKey() string
	OwnerName() string
}

// Marker renders and removes visual markers for shops.
type Marker interface {
	Create(s Shop)
	Remove(signKey string)
}

// NopMarker does nothing. Selected when no integration is present.
type NopMarker struct{}

func (NopMarker) Create(Shop)   {}
func (NopMarker) Remove(string) {}

// LogMarker records marker operations to the log. Selected with
// TRADEPOST_HOLO=log; useful in the simulator.
type LogMarker struct {
	Log *slog.Logger
}

func (m LogMarker) Create(s Shop) {
	m.Log.Info("hologram created", "shop", s.SignKey(), "owner", s.OwnerName())
}

func (m LogMarker) Remove(signKey string) {
	m.Log.Info("hologram removed", "shop", signKey)
}

// Detect chooses a Marker from the environment. Unset or unknown values
// select the no-op implementation.
func Detect(log *slog.Logger) Marker {
	if log == nil {
		log = slog.Default()
	}
	switch os.Getenv("TRADEPOST_HOLO") {
	case "log":
		return LogMarker{Log: log}
	default:
		return NopMarker{}
	}
}
