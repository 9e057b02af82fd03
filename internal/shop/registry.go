package shop

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/tradepost/internal/world"
)

// ErrPositionTaken is returned by Add when a record already exists at the
// sign position. The creation flow checks for conflicts before calling Add;
// this guard exists so a misbehaving caller cannot tear the indices.
var ErrPositionTaken = errors.New("a shop already exists at this sign position")

// Registry is the in-memory indexed store of shop records.
//
// Four maps are updated atomically under one mutex hold on insert/remove:
// every record reachable from a secondary index is reachable from the
// primary index and vice versa. Raw maps are never exposed; listing
// operations return copies safe to iterate while the registry mutates.
type Registry struct {
	mu          sync.RWMutex
	bySign      map[string]*Shop
	byContainer map[string]*Shop
	byItem      map[world.ItemType]map[string]*Shop
	byOwner     map[uuid.UUID]map[string]*Shop
	dirty       bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		bySign:      make(map[string]*Shop),
		byContainer: make(map[string]*Shop),
		byItem:      make(map[world.ItemType]map[string]*Shop),
		byOwner:     make(map[uuid.UUID]map[string]*Shop),
	}
}

// Add inserts a record into the primary index and all three secondary
// indices, and marks the registry dirty. Fails only if a record already
// exists at the sign position.
func (r *Registry) Add(s *Shop) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	signKey := s.SignKey()
	if _, exists := r.bySign[signKey]; exists {
		return ErrPositionTaken
	}
	r.bySign[signKey] = s
	r.byContainer[s.ChestPos().Key()] = s

	items := r.byItem[s.Item()]
	if items == nil {
		items = make(map[string]*Shop)
		r.byItem[s.Item()] = items
	}
	items[signKey] = s

	owned := r.byOwner[s.OwnerID()]
	if owned == nil {
		owned = make(map[string]*Shop)
		r.byOwner[s.OwnerID()] = owned
	}
	owned[signKey] = s

	r.dirty = true
	return nil
}

// Remove deletes the record at the given sign position from all four index
// structures and marks the registry dirty. No-op if absent.
func (r *Registry) Remove(signPos world.Position) {
	r.mu.Lock()
	defer r.mu.Unlock()

	signKey := signPos.Key()
	s, ok := r.bySign[signKey]
	if ok {
		delete(r.bySign, signKey)
		delete(r.byContainer, s.ChestPos().Key())

		if items := r.byItem[s.Item()]; items != nil {
			delete(items, signKey)
			if len(items) == 0 {
				delete(r.byItem, s.Item())
			}
		}
		if owned := r.byOwner[s.OwnerID()]; owned != nil {
			delete(owned, signKey)
			if len(owned) == 0 {
				delete(r.byOwner, s.OwnerID())
			}
		}
	}
	r.dirty = true
}

// LookupBySign returns the record whose sign is at pos, if any.
func (r *Registry) LookupBySign(pos world.Position) (*Shop, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.bySign[pos.Key()]
	return s, ok
}

// LookupByContainer returns the record whose container is at pos, if any.
func (r *Registry) LookupByContainer(pos world.Position) (*Shop, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byContainer[pos.Key()]
	return s, ok
}

// ListByItem returns all records trading the given item type.
func (r *Registry) ListByItem(item world.ItemType) []*Shop {
	r.mu.RLock()
	defer r.mu.RUnlock()
	items := r.byItem[item]
	out := make([]*Shop, 0, len(items))
	for _, s := range items {
		out = append(out, s)
	}
	return out
}

// CountByOwner returns the number of shops owned by the given owner.
func (r *Registry) CountByOwner(owner uuid.UUID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byOwner[owner])
}

// Snapshot returns a point-in-time copy of all records. Records are
// immutable, so sharing the pointers is safe; the slice is the caller's.
func (r *Registry) Snapshot() []*Shop {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Shop, 0, len(r.bySign))
	for _, s := range r.bySign {
		out = append(out, s)
	}
	return out
}

// Len returns the number of registered shops.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bySign)
}

// Dirty reports whether in-memory state has diverged from durable storage.
func (r *Registry) Dirty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dirty
}

// ClearDirty resets the dirty flag. Called by the saver after it has taken
// the snapshot it is about to write; a failed write sets the flag again.
func (r *Registry) ClearDirty() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dirty = false
}

// MarkDirty forces the dirty flag, used when a save attempt fails so the
// next autosave cycle retries.
func (r *Registry) MarkDirty() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dirty = true
}
