// Package creation implements the shop-creation flow: validate a
// placement request, construct the immutable record, and insert it into
// the registry. All conflict checks happen here, before the registry's
// own add guard.
package creation

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/roach88/tradepost/internal/econ"
	"github.com/roach88/tradepost/internal/holo"
	"github.com/roach88/tradepost/internal/shop"
	"github.com/roach88/tradepost/internal/sign"
	"github.com/roach88/tradepost/internal/world"
)

// Capability answers creation-time permission questions.
type Capability interface {
	CanCreate(actor uuid.UUID) bool
	BypassLimit(actor uuid.UUID) bool
	BypassBlockedItems(actor uuid.UUID) bool
	BypassCreationCost(actor uuid.UUID) bool
}

// OpenCapability lets anyone create, with no bypasses.
type OpenCapability struct{}

func (OpenCapability) CanCreate(uuid.UUID) bool          { return true }
func (OpenCapability) BypassLimit(uuid.UUID) bool        { return false }
func (OpenCapability) BypassBlockedItems(uuid.UUID) bool { return false }
func (OpenCapability) BypassCreationCost(uuid.UUID) bool { return false }

// Policy carries the configured creation limits.
type Policy struct {
	MaxShopsPerOwner int // 0 = unlimited
	MaxPrice         float64
	CreationCost     float64
	BlockedItems     map[world.ItemType]bool
	StrictPrices     bool
}

// Request is one placement attempt: an actor placed a shop sign attached
// to a container and wrote the price and item lines.
type Request struct {
	ActorID   uuid.UUID
	ActorName string
	SignPos   world.Position
	ChestPos  world.Position
	PriceLine string
	ItemLine  string
}

// Flow validates requests and registers new shops.
type Flow struct {
	registry *shop.Registry
	ledger   econ.Ledger
	prober   world.Prober
	caps     Capability
	marker   holo.Marker
	policy   Policy
	log      *slog.Logger
}

// NewFlow wires a creation flow. A nil marker disables visual markers.
func NewFlow(reg *shop.Registry, ledger econ.Ledger, prober world.Prober,
	caps Capability, marker holo.Marker, policy Policy, log *slog.Logger) *Flow {
	if marker == nil {
		marker = holo.NopMarker{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Flow{
		registry: reg,
		ledger:   ledger,
		prober:   prober,
		caps:     caps,
		marker:   marker,
		policy:   policy,
		log:      log,
	}
}

// Create validates the request, charges any creation cost, constructs
// the record and inserts it. Checks run in order; the first failure
// rejects with a specific reason and no state change (the creation cost
// is withdrawn only after every other check has passed).
func (f *Flow) Create(req Request) (*shop.Shop, error) {
	if !f.caps.CanCreate(req.ActorID) {
		return nil, fmt.Errorf("you don't have permission to create shops")
	}
	if !f.prober.IsContainer(req.ChestPos) {
		return nil, fmt.Errorf("shop sign must be placed on a container")
	}
	if _, exists := f.registry.LookupBySign(req.SignPos); exists {
		return nil, fmt.Errorf("a shop already exists here")
	}
	if _, exists := f.registry.LookupByContainer(req.ChestPos); exists {
		return nil, fmt.Errorf("a shop already exists on this container")
	}
	if f.policy.MaxShopsPerOwner > 0 && !f.caps.BypassLimit(req.ActorID) {
		if f.registry.CountByOwner(req.ActorID) >= f.policy.MaxShopsPerOwner {
			return nil, fmt.Errorf("you have reached the maximum of %d shops", f.policy.MaxShopsPerOwner)
		}
	}

	buy, sell, err := sign.ParsePriceLine(req.PriceLine, f.policy.StrictPrices)
	if err != nil {
		return nil, err
	}
	item, bundle, err := sign.ParseItemLine(req.ItemLine)
	if err != nil {
		return nil, err
	}
	if f.policy.BlockedItems[item] && !f.caps.BypassBlockedItems(req.ActorID) {
		return nil, fmt.Errorf("%s cannot be traded in shops", sign.FormatItemName(item))
	}

	s, err := shop.New(req.ActorID, req.ActorName, req.SignPos, req.ChestPos,
		item, bundle, buy, sell, f.policy.MaxPrice)
	if err != nil {
		return nil, err
	}

	if f.policy.CreationCost > 0 && !f.caps.BypassCreationCost(req.ActorID) {
		if !f.ledger.Has(req.ActorID, f.policy.CreationCost) {
			return nil, fmt.Errorf("you need $%s to create a shop", sign.FormatPrice(f.policy.CreationCost))
		}
		if resp := f.ledger.Withdraw(req.ActorID, f.policy.CreationCost); !resp.OK {
			return nil, fmt.Errorf("could not charge creation cost: %s", resp.Reason)
		}
	}

	if err := f.registry.Add(s); err != nil {
		// Refund: the conflict checks above make this effectively
		// unreachable, but a charged actor must never lose the fee.
		if f.policy.CreationCost > 0 && !f.caps.BypassCreationCost(req.ActorID) {
			f.ledger.Deposit(req.ActorID, f.policy.CreationCost)
		}
		return nil, err
	}

	f.marker.Create(s)
	f.log.Info("shop created",
		"owner", req.ActorName,
		"sign", s.SignKey(),
		"item", s.Item(),
		"bundle", s.Bundle(),
	)
	return s, nil
}

// Remove deletes a shop by sign position on behalf of its owner or an
// admin. Reports whether a shop was removed.
func (f *Flow) Remove(signPos world.Position, actor uuid.UUID, isAdmin bool) (bool, error) {
	s, ok := f.registry.LookupBySign(signPos)
	if !ok {
		return false, nil
	}
	if s.OwnerID() != actor && !isAdmin {
		return false, fmt.Errorf("you cannot remove someone else's shop")
	}
	f.marker.Remove(s.SignKey())
	f.registry.Remove(signPos)
	f.log.Info("shop removed", "sign", s.SignKey(), "by", actor)
	return true, nil
}
