// Package econ defines the currency ledger and presence/identity
// collaborator boundaries, plus in-memory implementations used by the
// simulator and tests. The ledger's internal accounting is opaque to the
// rest of the system; only the interface below is relied upon.
package econ

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Response reports the outcome of a ledger mutation.
type Response struct {
	OK     bool
	Reason string
}

// Ledger is the external currency service.
//
// Has is advisory only: a Withdraw may still fail after Has returned true,
// and callers must treat the check-then-act window as racy.
type Ledger interface {
	Has(actor uuid.UUID, amount float64) bool
	Withdraw(actor uuid.UUID, amount float64) Response
	Deposit(actor uuid.UUID, amount float64) Response
	Balance(actor uuid.UUID) float64
}

// Presence resolves stable owner ids to display names and reachability,
// and delivers message batches to reachable actors.
type Presence interface {
	Name(id uuid.UUID) string
	Online(id uuid.UUID) bool
	Deliver(id uuid.UUID, lines []string) error
}

// MemoryLedger is a mutexed in-memory Ledger.
type MemoryLedger struct {
	mu       sync.Mutex
	balances map[uuid.UUID]float64
}

// NewMemoryLedger creates an empty ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{balances: make(map[uuid.UUID]float64)}
}

// SetBalance sets an account balance directly, for setup.
func (l *MemoryLedger) SetBalance(actor uuid.UUID, amount float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[actor] = amount
}

func (l *MemoryLedger) Has(actor uuid.UUID, amount float64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[actor] >= amount
}

func (l *MemoryLedger) Withdraw(actor uuid.UUID, amount float64) Response {
	l.mu.Lock()
	defer l.mu.Unlock()
	if amount < 0 {
		return Response{Reason: "negative amount"}
	}
	if l.balances[actor] < amount {
		return Response{Reason: fmt.Sprintf("insufficient funds: have %.2f, need %.2f", l.balances[actor], amount)}
	}
	l.balances[actor] -= amount
	return Response{OK: true}
}

func (l *MemoryLedger) Deposit(actor uuid.UUID, amount float64) Response {
	l.mu.Lock()
	defer l.mu.Unlock()
	if amount < 0 {
		return Response{Reason: "negative amount"}
	}
	l.balances[actor] += amount
	return Response{OK: true}
}

func (l *MemoryLedger) Balance(actor uuid.UUID) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[actor]
}

// MemoryPresence is a mutexed in-memory Presence. Delivered batches are
// retained per actor so tests can assert on them.
type MemoryPresence struct {
	mu        sync.Mutex
	names     map[uuid.UUID]string
	online    map[uuid.UUID]bool
	delivered map[uuid.UUID][]string
}

// NewMemoryPresence creates an empty presence service.
func NewMemoryPresence() *MemoryPresence {
	return &MemoryPresence{
		names:     make(map[uuid.UUID]string),
		online:    make(map[uuid.UUID]bool),
		delivered: make(map[uuid.UUID][]string),
	}
}

// Join registers an actor as known and sets its online state.
func (p *MemoryPresence) Join(id uuid.UUID, name string, online bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.names[id] = name
	p.online[id] = online
}

// SetOnline flips an actor's reachability.
func (p *MemoryPresence) SetOnline(id uuid.UUID, online bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.online[id] = online
}

func (p *MemoryPresence) Name(id uuid.UUID) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n, ok := p.names[id]; ok {
		return n
	}
	return "Unknown"
}

func (p *MemoryPresence) Online(id uuid.UUID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.online[id]
}

func (p *MemoryPresence) Deliver(id uuid.UUID, lines []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.online[id] {
		return fmt.Errorf("actor %s is not reachable", id)
	}
	p.delivered[id] = append(p.delivered[id], lines...)
	return nil
}

// Delivered returns a copy of everything delivered to the actor.
func (p *MemoryPresence) Delivered(id uuid.UUID) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.delivered[id]))
	copy(out, p.delivered[id])
	return out
}
