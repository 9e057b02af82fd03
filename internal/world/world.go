// Package world defines addressable positions in the shared world,
// canonical item type tokens, and the fixture probing boundary used to
// verify that a shop's physical markers (sign, container) still exist.
package world

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Position identifies one addressable block in a named world.
// The zero value keys as "null:0:0:0".
type Position struct {
	World string
	X     int
	Y     int
	Z     int
}

// Key returns the stable string form "world:x:y:z".
//
// Keys derived from a Position survive a registry reload, so they are safe
// to use as lock keys and index keys where in-memory record identity is not.
func (p Position) Key() string {
	w := p.World
	if w == "" {
		w = "null"
	}
	return w + ":" +
		strconv.Itoa(p.X) + ":" +
		strconv.Itoa(p.Y) + ":" +
		strconv.Itoa(p.Z)
}

// String implements fmt.Stringer using the display form "world x, y, z".
func (p Position) String() string {
	w := p.World
	if w == "" {
		w = "unknown"
	}
	return fmt.Sprintf("%s %d, %d, %d", w, p.X, p.Y, p.Z)
}

// ParseKey parses a "world:x:y:z" key back into a Position.
func ParseKey(key string) (Position, error) {
	parts := strings.Split(key, ":")
	if len(parts) != 4 {
		return Position{}, fmt.Errorf("invalid position key %q: want world:x:y:z", key)
	}
	x, err := strconv.Atoi(parts[1])
	if err != nil {
		return Position{}, fmt.Errorf("invalid position key %q: x: %w", key, err)
	}
	y, err := strconv.Atoi(parts[2])
	if err != nil {
		return Position{}, fmt.Errorf("invalid position key %q: y: %w", key, err)
	}
	z, err := strconv.Atoi(parts[3])
	if err != nil {
		return Position{}, fmt.Errorf("invalid position key %q: z: %w", key, err)
	}
	return Position{World: parts[0], X: x, Y: y, Z: z}, nil
}

// ItemType is a canonical tradable item token, e.g. "DIAMOND" or
// "IRON_INGOT". Produced only by NormalizeItem.
type ItemType string

// NormalizeItem canonicalizes a user-supplied item name into an ItemType.
//
// Canonical form is NFC-normalized, upper-cased, with runs of spaces
// replaced by single underscores. Tokens must contain only letters, digits
// and underscores after normalization.
func NormalizeItem(name string) (ItemType, error) {
	s := norm.NFC.String(strings.TrimSpace(name))
	if s == "" {
		return "", fmt.Errorf("empty item name")
	}
	s = strings.ToUpper(strings.Join(strings.Fields(s), "_"))
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return "", fmt.Errorf("invalid item name %q: bad rune %q", name, r)
		}
	}
	return ItemType(s), nil
}

// Prober reports whether the physical fixtures backing a shop still exist.
// The registry consults it on load to drop records whose sign or container
// was removed while the process was down.
type Prober interface {
	WorldExists(name string) bool
	IsSign(pos Position) bool
	IsContainer(pos Position) bool
}

// StaticProber is a map-backed Prober for tests and the simulator.
type StaticProber struct {
	Worlds     map[string]bool
	Signs      map[string]bool
	Containers map[string]bool
}

// NewStaticProber creates an empty StaticProber.
func NewStaticProber() *StaticProber {
	return &StaticProber{
		Worlds:     make(map[string]bool),
		Signs:      make(map[string]bool),
		Containers: make(map[string]bool),
	}
}

// AddSign registers a sign fixture (and its world) as present.
func (p *StaticProber) AddSign(pos Position) {
	p.Worlds[pos.World] = true
	p.Signs[pos.Key()] = true
}

// AddContainer registers a container fixture (and its world) as present.
func (p *StaticProber) AddContainer(pos Position) {
	p.Worlds[pos.World] = true
	p.Containers[pos.Key()] = true
}

func (p *StaticProber) WorldExists(name string) bool { return p.Worlds[name] }
func (p *StaticProber) IsSign(pos Position) bool     { return p.Signs[pos.Key()] }
func (p *StaticProber) IsContainer(pos Position) bool {
	return p.Containers[pos.Key()]
}

// AcceptAllProber trusts every record. Used when no world access is wired.
type AcceptAllProber struct{}

func (AcceptAllProber) WorldExists(string) bool   { return true }
func (AcceptAllProber) IsSign(Position) bool      { return true }
func (AcceptAllProber) IsContainer(Position) bool { return true }
