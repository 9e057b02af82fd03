package engine

import (
	"github.com/google/uuid"

	"github.com/roach88/tradepost/internal/shop"
	"github.com/roach88/tradepost/internal/world"
)

// EventKind enumerates world events that can touch shop fixtures.
type EventKind int

const (
	// EventFixtureBroken is an actor breaking a block.
	EventFixtureBroken EventKind = iota + 1
	// EventFixtureDetached is a sign losing its supporting block.
	EventFixtureDetached
	// EventFixtureBurned is fire consuming a block.
	EventFixtureBurned
	// EventExplosion is a block caught in an explosion.
	EventExplosion
	// EventPistonMove is a piston pushing or pulling a block.
	EventPistonMove
	// EventFluidFlow is liquid flowing into a block.
	EventFluidFlow
	// EventHopperMove is an automated item transfer into or out of a
	// container.
	EventHopperMove
)

// Event is one world occurrence at a position. Actor is set only for
// actor-initiated events.
type Event struct {
	Kind    EventKind
	Pos     world.Position
	Actor   uuid.UUID
	IsActor bool // Actor field is meaningful
	IsAdmin bool
}

// DecisionKind says what the world layer should do with an event.
type DecisionKind int

const (
	// Allow lets the event proceed; the position is not shop-protected.
	Allow DecisionKind = iota
	// Deny cancels the event to protect a shop fixture.
	Deny
	// RemoveShop lets the event proceed and removes the shop whose sign
	// is at Decision.Sign.
	RemoveShop
)

// Decision is a handler's verdict on one event.
type Decision struct {
	Kind   DecisionKind
	Sign   world.Position // set when Kind == RemoveShop
	Reason string         // set when Kind == Deny
}

// Handler decides what to do with an event given the current registry.
// Handlers must be pure: they read the registry but never mutate it; the
// engine applies any RemoveShop decision afterwards.
type Handler func(ev Event, reg *shop.Registry) Decision

// RegisterHandler overrides the handler for one event kind. Defaults
// protecting shop fixtures are installed by New.
func (e *Engine) RegisterHandler(kind EventKind, h Handler) {
	if e.handlers == nil {
		e.handlers = make(map[EventKind]Handler)
	}
	e.handlers[kind] = h
}

// HandleEvent runs the registered handler for the event and applies its
// decision: a RemoveShop verdict deletes the shop from the registry.
// Events with no registered handler are allowed.
func (e *Engine) HandleEvent(ev Event) Decision {
	h, ok := e.handlers[ev.Kind]
	if !ok {
		return Decision{Kind: Allow}
	}
	d := h(ev, e.registry)
	if d.Kind == RemoveShop {
		e.registry.Remove(d.Sign)
		e.log.Info("shop removed by world event", "kind", ev.Kind, "sign", d.Sign.Key())
	}
	return d
}

// defaultHandlers returns the standard protection policy: destructive
// environmental events are denied on shop fixtures; an owner or admin
// breaking a fixture removes the shop; anyone else is denied.
func defaultHandlers() map[EventKind]Handler {
	deny := func(reason string) Handler {
		return func(ev Event, reg *shop.Registry) Decision {
			if s, ok := shopAt(reg, ev.Pos); ok {
				return Decision{Kind: Deny, Reason: reason + " (" + s.SignKey() + ")"}
			}
			return Decision{Kind: Allow}
		}
	}

	return map[EventKind]Handler{
		EventFixtureBroken: func(ev Event, reg *shop.Registry) Decision {
			s, ok := shopAt(reg, ev.Pos)
			if !ok {
				return Decision{Kind: Allow}
			}
			if ev.IsActor && (ev.Actor == s.OwnerID() || ev.IsAdmin) {
				return Decision{Kind: RemoveShop, Sign: s.SignPos()}
			}
			return Decision{Kind: Deny, Reason: "you cannot break someone else's shop"}
		},
		EventFixtureDetached: func(ev Event, reg *shop.Registry) Decision {
			// A detached sign cannot be saved; drop the shop record.
			if s, ok := reg.LookupBySign(ev.Pos); ok {
				return Decision{Kind: RemoveShop, Sign: s.SignPos()}
			}
			return Decision{Kind: Allow}
		},
		EventFixtureBurned: deny("shop fixtures do not burn"),
		EventExplosion:     deny("shop fixtures are blast-proof"),
		EventPistonMove:    deny("shop fixtures cannot be moved"),
		EventFluidFlow:     deny("shop fixtures cannot be washed away"),
		EventHopperMove:    deny("shop containers are sealed to automation"),
	}
}

// shopAt resolves a position against both position indices.
func shopAt(reg *shop.Registry, pos world.Position) (*shop.Shop, bool) {
	if s, ok := reg.LookupBySign(pos); ok {
		return s, true
	}
	return reg.LookupByContainer(pos)
}
