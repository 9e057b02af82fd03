package shop

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/roach88/tradepost/internal/world"
)

// Bundle size bounds, matching a single inventory stack.
const (
	MinBundle = 1
	MaxBundle = 64
)

// Shop is an immutable record describing one trading post.
//
// A Shop is never mutated in place: any change is modeled as remove plus
// re-add through the Registry. Accessors return copies of value types, so a
// Shop may be shared freely across goroutines.
type Shop struct {
	ownerID   uuid.UUID
	ownerName string
	signPos   world.Position
	chestPos  world.Position
	item      world.ItemType
	bundle    int
	buyPrice  float64
	sellPrice float64
}

// New validates the shop fields and constructs a record.
//
// Invariants enforced here:
//   - bundle in [MinBundle, MaxBundle]
//   - prices non-negative, finite, and at most maxPrice (<=0 means no cap)
//   - at least one of buyPrice/sellPrice is positive
func New(ownerID uuid.UUID, ownerName string, signPos, chestPos world.Position,
	item world.ItemType, bundle int, buyPrice, sellPrice, maxPrice float64) (*Shop, error) {

	if item == "" {
		return nil, fmt.Errorf("shop item is required")
	}
	if bundle < MinBundle || bundle > MaxBundle {
		return nil, fmt.Errorf("bundle size %d out of range [%d,%d]", bundle, MinBundle, MaxBundle)
	}
	if math.IsNaN(buyPrice) || math.IsNaN(sellPrice) ||
		math.IsInf(buyPrice, 0) || math.IsInf(sellPrice, 0) {
		return nil, fmt.Errorf("prices must be finite")
	}
	if buyPrice < 0 || sellPrice < 0 {
		return nil, fmt.Errorf("prices cannot be negative")
	}
	if maxPrice > 0 && (buyPrice > maxPrice || sellPrice > maxPrice) {
		return nil, fmt.Errorf("price exceeds maximum %v", maxPrice)
	}
	if buyPrice <= 0 && sellPrice <= 0 {
		return nil, fmt.Errorf("shop must have a buy or sell price")
	}
	return &Shop{
		ownerID:   ownerID,
		ownerName: ownerName,
		signPos:   signPos,
		chestPos:  chestPos,
		item:      item,
		bundle:    bundle,
		buyPrice:  buyPrice,
		sellPrice: sellPrice,
	}, nil
}

// OwnerID returns the stable unique id of the shop owner.
func (s *Shop) OwnerID() uuid.UUID { return s.ownerID }

// OwnerName returns the cached display name. It is non-authoritative and
// used only in messages; the presence service resolves the current name.
func (s *Shop) OwnerName() string { return s.ownerName }

// SignPos returns the sign position, the record's primary key.
func (s *Shop) SignPos() world.Position { return s.signPos }

// ChestPos returns the backing container position.
func (s *Shop) ChestPos() world.Position { return s.chestPos }

// Item returns the traded item type.
func (s *Shop) Item() world.ItemType { return s.item }

// Bundle returns the fixed quantity transferred per transaction.
func (s *Shop) Bundle() int { return s.bundle }

// BuyPrice returns the price actors pay to buy from this shop.
// Zero means the shop does not sell to actors.
func (s *Shop) BuyPrice() float64 { return s.buyPrice }

// SellPrice returns the price actors receive selling to this shop.
// Zero means the shop does not buy from actors.
func (s *Shop) SellPrice() float64 { return s.sellPrice }

// CanBuy reports whether actors may buy from this shop.
func (s *Shop) CanBuy() bool { return s.buyPrice > 0 }

// CanSell reports whether actors may sell to this shop.
func (s *Shop) CanSell() bool { return s.sellPrice > 0 }

// SignKey returns the stable registry/lock key for this shop.
func (s *Shop) SignKey() string { return s.signPos.Key() }
