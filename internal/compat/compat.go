// Package compat precomputes which pieces may sit next to each other.
//
// For every piece and each of the six axis directions the index holds the set
// of pieces allowed in the neighbouring cell. The sets depend only on sockets,
// rotation and exclusions, never on a position in the lattice.
package compat

import (
	"sync"

	"github.com/Xeraclom14/NeonHorizon-PCG/internal/catalog"
	"github.com/Xeraclom14/NeonHorizon-PCG/internal/grid"
	"github.com/Xeraclom14/NeonHorizon-PCG/internal/pieceset"
)

// Index holds the allowed-neighbour sets of one catalog revision.
type Index struct {
	cat      *catalog.Catalog
	revision uint64
	n        int
	words    int
	arena    []uint64
}

// Build derives the allowed-neighbour sets for every piece of cat.
func Build(cat *catalog.Catalog) *Index {
	revision := cat.Revision()
	pieces := cat.Pieces()
	n := len(pieces)
	words := pieceset.Words(n)
	idx := &Index{
		cat:      cat,
		revision: revision,
		n:        n,
		words:    words,
		arena:    make([]uint64, n*grid.DirectionCount*words),
	}

	for p := range pieces {
		for _, dir := range grid.Directions {
			set := idx.slot(p, dir)
			for q := range pieces {
				if cat.Excludes(p, q) {
					continue
				}
				if socketsMatch(&pieces[p], &pieces[q], dir) {
					set.Add(q)
				}
			}
		}
	}
	return idx
}

// Compatible reports whether q may occupy the cell along dir from p.
func Compatible(cat *catalog.Catalog, p, q int, dir grid.Direction) bool {
	if cat.Excludes(p, q) {
		return false
	}
	a, b := cat.Piece(p), cat.Piece(q)
	return socketsMatch(&a, &b, dir)
}

func socketsMatch(a, b *catalog.Piece, dir grid.Direction) bool {
	switch dir {
	case grid.PosY:
		return a.PosY.ID == b.NegY.ID && tagsMatch(a.VerticalTag(grid.PosY), b.VerticalTag(grid.NegY))
	case grid.NegY:
		return a.NegY.ID == b.PosY.ID && tagsMatch(a.VerticalTag(grid.NegY), b.VerticalTag(grid.PosY))
	default:
		return a.Outward(dir).Connects(b.Outward(dir.Opposite()))
	}
}

func tagsMatch(a, b int) bool {
	return a == catalog.AnyRotation || b == catalog.AnyRotation || a == b
}

func (x *Index) slot(p int, dir grid.Direction) pieceset.Set {
	start := (p*grid.DirectionCount + int(dir)) * x.words
	return pieceset.Set(x.arena[start : start+x.words : start+x.words])
}

// Allowed returns the pieces permitted along dir from p. The set aliases the
// index and must not be modified.
func (x *Index) Allowed(p int, dir grid.Direction) pieceset.Set {
	return x.slot(p, dir)
}

// Permits reports whether q is in the allowed set of p along dir.
func (x *Index) Permits(p, q int, dir grid.Direction) bool {
	return x.slot(p, dir).Has(q)
}

// Len is the number of pieces covered by the index.
func (x *Index) Len() int {
	return x.n
}

// Revision is the catalog revision the index was built from.
func (x *Index) Revision() uint64 {
	return x.revision
}

// Stale reports whether the index no longer describes its catalog: the catalog
// was mutated since Build, or the index was never populated (piece 0 has no
// +Z neighbours).
func (x *Index) Stale() bool {
	if x == nil || x.cat == nil || x.n == 0 {
		return true
	}
	if x.cat.Revision() != x.revision || x.cat.Len() != x.n {
		return true
	}
	return x.slot(0, grid.PosZ).Empty()
}

// Cache keeps one index per catalog instance and rebuilds it when stale.
type Cache struct {
	mu      sync.Mutex
	indices map[*catalog.Catalog]*Index
}

func NewCache() *Cache {
	return &Cache{indices: make(map[*catalog.Catalog]*Index)}
}

// For returns the cached index of cat, building it on first use or after the
// catalog changed.
func (c *Cache) For(cat *catalog.Catalog) *Index {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.indices == nil {
		c.indices = make(map[*catalog.Catalog]*Index)
	}
	if idx, ok := c.indices[cat]; ok && !idx.Stale() {
		return idx
	}
	idx := Build(cat)
	c.indices[cat] = idx
	return idx
}

// Invalidate drops the cached index of cat.
func (c *Cache) Invalidate(cat *catalog.Catalog) {
	c.mu.Lock()
	delete(c.indices, cat)
	c.mu.Unlock()
}
