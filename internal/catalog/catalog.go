package catalog

import (
	"errors"
	"fmt"
	"sync"

	"github.com/zyedidia/generic/mapset"
)

// VoidIndex is the catalog position of the empty piece used for forced cells.
const VoidIndex = 0

// ErrEmpty is returned when a catalog document declares no pieces.
var ErrEmpty = errors.New("catalog has no pieces")

// Catalog is an ordered list of pieces with resolved exclusion sets. Index 0 is
// the void piece by convention.
type Catalog struct {
	mu         sync.RWMutex
	pieces     []Piece
	byName     map[string]int
	byBase     map[string][]int
	exclusions []mapset.Set[int]
	revision   uint64
}

// New expands rotation variants, validates every entry and resolves exclusion
// names to indices. An empty list yields an empty catalog.
func New(pieces []Piece) (*Catalog, error) {
	expanded := expandVariants(pieces)
	c := &Catalog{}
	if err := c.reset(expanded); err != nil {
		return nil, err
	}
	return c, nil
}

func expandVariants(pieces []Piece) []Piece {
	out := make([]Piece, 0, len(pieces))
	for _, p := range pieces {
		if len(p.Variants) == 0 {
			out = append(out, p.clone())
			continue
		}
		for _, r := range p.Variants {
			variant := p.clone()
			variant.Variants = nil
			variant.Base = p.Name
			variant.Name = fmt.Sprintf("%s_r%d", p.Name, r)
			variant.Rotation = r
			out = append(out, variant)
		}
	}
	return out
}

func (c *Catalog) reset(pieces []Piece) error {
	if err := validatePieces(pieces); err != nil {
		return err
	}
	byName := make(map[string]int, len(pieces))
	byBase := make(map[string][]int)
	for i, p := range pieces {
		byName[p.Name] = i
		if p.Base != "" && p.Base != p.Name {
			byBase[p.Base] = append(byBase[p.Base], i)
		}
	}
	exclusions := make([]mapset.Set[int], len(pieces))
	for i, p := range pieces {
		set := mapset.New[int]()
		for _, name := range p.Exclusions {
			targets := resolveName(name, byName, byBase)
			if len(targets) == 0 {
				return fmt.Errorf("pieces[%d].exclusions references unknown piece %q", i, name)
			}
			for _, t := range targets {
				set.Put(t)
			}
		}
		exclusions[i] = set
	}

	c.mu.Lock()
	c.pieces = pieces
	c.byName = byName
	c.byBase = byBase
	c.exclusions = exclusions
	c.revision++
	c.mu.Unlock()
	return nil
}

func resolveName(name string, byName map[string]int, byBase map[string][]int) []int {
	if idx, ok := byName[name]; ok {
		return []int{idx}
	}
	return byBase[name]
}

func validatePieces(pieces []Piece) error {
	seen := mapset.New[string]()
	for i, p := range pieces {
		if p.Name == "" {
			return fmt.Errorf("pieces[%d].name must be set", i)
		}
		if seen.Has(p.Name) {
			return fmt.Errorf("pieces[%d].name %q is duplicated", i, p.Name)
		}
		seen.Put(p.Name)
		if !(p.Weight > 0) {
			return fmt.Errorf("pieces[%d].weight must be positive", i)
		}
		if p.Rotation < 0 || p.Rotation > 3 {
			return fmt.Errorf("pieces[%d].rotation must be within 0..3", i)
		}
		if p.Color != "" && !isValidHexColor(p.Color) {
			return fmt.Errorf("pieces[%d].color must be a hex RGB value", i)
		}
	}
	return nil
}

// Add appends a piece (expanding its variants) and bumps the revision so that
// cached compatibility indices are rebuilt.
func (c *Catalog) Add(p Piece) error {
	c.mu.RLock()
	next := make([]Piece, 0, len(c.pieces)+1)
	next = append(next, c.pieces...)
	c.mu.RUnlock()
	next = append(next, expandVariants([]Piece{p})...)
	return c.reset(next)
}

// Revision changes every time the piece list is mutated.
func (c *Catalog) Revision() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.revision
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.pieces)
}

// Piece returns a copy of the entry at index i.
func (c *Catalog) Piece(i int) Piece {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pieces[i].clone()
}

// Pieces returns a copy of the full ordered piece list.
func (c *Catalog) Pieces() []Piece {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Piece, len(c.pieces))
	for i := range c.pieces {
		out[i] = c.pieces[i].clone()
	}
	return out
}

// Index looks up a piece by name.
func (c *Catalog) Index(name string) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	idx, ok := c.byName[name]
	return idx, ok
}

// Excludes reports whether piece p lists q as a forbidden neighbour. The
// relation is not symmetric.
func (c *Catalog) Excludes(p, q int) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.exclusions[p].Has(q)
}

// Weights returns the selection weight of every piece, indexed by position.
func (c *Catalog) Weights() []float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]float64, len(c.pieces))
	for i, p := range c.pieces {
		out[i] = p.Weight
	}
	return out
}

func isValidHexColor(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	for _, ch := range s[1:] {
		switch {
		case ch >= '0' && ch <= '9':
		case ch >= 'a' && ch <= 'f':
		case ch >= 'A' && ch <= 'F':
		default:
			return false
		}
	}
	return true
}
