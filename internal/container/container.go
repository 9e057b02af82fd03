// Package container models the physical item pools backing shops and
// actors: slot-based inventories of item stacks with per-unit metadata.
//
// The transaction engine only depends on the Service interface; Inventory
// is the in-memory implementation used by the simulator and tests.
package container

import (
	"fmt"
	"maps"
	"sync"

	"github.com/roach88/tradepost/internal/world"
)

// MaxStack is the largest count a single slot can hold.
const MaxStack = 64

// Stack is a quantity of one item type in a single slot. Meta carries
// opaque per-unit attributes that must survive transfers unchanged.
type Stack struct {
	Item  world.ItemType
	Count int
	Meta  map[string]string
}

// Clone returns a deep copy of the stack.
func (s Stack) Clone() Stack {
	c := s
	if s.Meta != nil {
		c.Meta = maps.Clone(s.Meta)
	}
	return c
}

// sameKind reports whether two stacks can merge into one slot.
func sameKind(a, b Stack) bool {
	return a.Item == b.Item && maps.Equal(a.Meta, b.Meta)
}

// Service is the container collaborator consumed by the transaction
// engine. Withdraw is all-or-nothing; Deposit returns whatever portion
// could not fit; Remove takes back exact stacks during rollback.
type Service interface {
	Count(item world.ItemType) int
	Withdraw(item world.ItemType, n int) ([]Stack, error)
	Deposit(stacks []Stack) []Stack
	Remove(stacks []Stack)
	CanAccept(item world.ItemType, n int) bool
}

// Inventory is a fixed-size slot inventory.
type Inventory struct {
	mu    sync.Mutex
	slots []*Stack
}

// NewInventory creates an inventory with the given number of slots.
func NewInventory(slots int) *Inventory {
	return &Inventory{slots: make([]*Stack, slots)}
}

// Count returns the total number of units of item across all slots.
func (inv *Inventory) Count(item world.ItemType) int {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	total := 0
	for _, s := range inv.slots {
		if s != nil && s.Item == item {
			total += s.Count
		}
	}
	return total
}

// Withdraw removes exactly n units of item, preserving per-unit metadata,
// and returns the removed stacks. If fewer than n units are present the
// inventory is left untouched and an error is returned.
func (inv *Inventory) Withdraw(item world.ItemType, n int) ([]Stack, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	total := 0
	for _, s := range inv.slots {
		if s != nil && s.Item == item {
			total += s.Count
		}
	}
	if total < n {
		return nil, fmt.Errorf("have %d of %s, need %d", total, item, n)
	}

	var collected []Stack
	remaining := n
	for i, s := range inv.slots {
		if remaining == 0 {
			break
		}
		if s == nil || s.Item != item {
			continue
		}
		if s.Count <= remaining {
			collected = append(collected, s.Clone())
			remaining -= s.Count
			inv.slots[i] = nil
		} else {
			taken := s.Clone()
			taken.Count = remaining
			collected = append(collected, taken)
			s.Count -= remaining
			remaining = 0
		}
	}
	return collected, nil
}

// Deposit adds the given stacks, merging into compatible partial stacks
// first and then filling empty slots. Units that do not fit are returned
// as leftover stacks; an empty return means everything was accepted.
func (inv *Inventory) Deposit(stacks []Stack) []Stack {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	var leftover []Stack
	for _, in := range stacks {
		rest := inv.depositOne(in.Clone())
		if rest.Count > 0 {
			leftover = append(leftover, rest)
		}
	}
	return leftover
}

// depositOne places as much of st as possible. Caller holds the lock.
func (inv *Inventory) depositOne(st Stack) Stack {
	for _, s := range inv.slots {
		if st.Count == 0 {
			break
		}
		if s == nil || !sameKind(*s, st) || s.Count >= MaxStack {
			continue
		}
		room := MaxStack - s.Count
		if room > st.Count {
			room = st.Count
		}
		s.Count += room
		st.Count -= room
	}
	for i, s := range inv.slots {
		if st.Count == 0 {
			break
		}
		if s != nil {
			continue
		}
		place := st.Clone()
		if place.Count > MaxStack {
			place.Count = MaxStack
		}
		st.Count -= place.Count
		inv.slots[i] = &place
	}
	return st
}

// Remove takes back the exact stacks previously accepted by Deposit,
// matching item type and metadata. Used only for rollback, where the
// stacks are known to be present.
func (inv *Inventory) Remove(stacks []Stack) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	for _, target := range stacks {
		remaining := target.Count
		for i, s := range inv.slots {
			if remaining == 0 {
				break
			}
			if s == nil || !sameKind(*s, target) {
				continue
			}
			if s.Count <= remaining {
				remaining -= s.Count
				inv.slots[i] = nil
			} else {
				s.Count -= remaining
				remaining = 0
			}
		}
	}
}

// CanAccept reports whether n units of item (without metadata) would fit:
// an empty slot, or compatible partial stacks with enough headroom.
func (inv *Inventory) CanAccept(item world.ItemType, n int) bool {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	room := 0
	for _, s := range inv.slots {
		if s == nil {
			room += MaxStack
		} else if s.Item == item && len(s.Meta) == 0 {
			room += MaxStack - s.Count
		}
		if room >= n {
			return true
		}
	}
	return room >= n
}

// Stacks returns a deep copy of all occupied slots, for inspection in
// tests and the CLI simulator.
func (inv *Inventory) Stacks() []Stack {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	var out []Stack
	for _, s := range inv.slots {
		if s != nil {
			out = append(out, s.Clone())
		}
	}
	return out
}
