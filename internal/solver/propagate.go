package solver

import (
	"math/rand"

	"github.com/Xeraclom14/NeonHorizon-PCG/internal/grid"
	"github.com/Xeraclom14/NeonHorizon-PCG/internal/pieceset"
)

// propagate restores arc consistency after the domain at start changed. It
// returns the coordinate of the first emptied domain and false on
// contradiction.
func (s *State) propagate(start int) (grid.Coord, bool) {
	s.worklist.Push(start)
	for s.worklist.Size() > 0 {
		idx := s.worklist.Pop()
		c := s.dims.Coord(idx)
		current := s.domain(idx)

		for _, dir := range grid.Directions {
			nc, ok := s.dims.Neighbor(c, dir)
			if !ok {
				continue
			}
			s.union.Clear()
			current.Each(func(p int) bool {
				s.union.Union(s.index.Allowed(p, dir))
				return true
			})

			nidx := s.dims.Index(nc)
			neighbor := s.domain(nidx)
			if !neighbor.Intersect(s.union) {
				continue
			}
			before := s.sizes[nidx]
			after := neighbor.Len()
			s.sizes[nidx] = after
			switch {
			case after == 0:
				for s.worklist.Size() > 0 {
					s.worklist.Pop()
				}
				return nc, false
			case after == 1 && before > 1:
				s.resolved++
				if s.opts.Observer != nil {
					s.opts.Observer.Resolved(nc, neighbor.First())
				}
			}
			s.worklist.Push(nidx)
		}
	}
	return grid.Coord{}, true
}

// pickCell returns the index of an unresolved cell with the smallest domain,
// chosen uniformly among all ties, or -1 when no cell is unresolved. ties is
// scratch space and is returned for reuse.
func pickCell(rng *rand.Rand, sizes []int, ties []int) (int, []int) {
	ties = ties[:0]
	best := 0
	for idx, size := range sizes {
		if size < 2 {
			continue
		}
		switch {
		case best == 0 || size < best:
			best = size
			ties = append(ties[:0], idx)
		case size == best:
			ties = append(ties, idx)
		}
	}
	if len(ties) == 0 {
		return -1, ties
	}
	return ties[rng.Intn(len(ties))], ties
}

// weightedPick samples a member of domain with probability proportional to
// its weight, walking members in ascending index order.
func weightedPick(rng *rand.Rand, domain pieceset.Set, weights []float64) int {
	total := 0.0
	domain.Each(func(p int) bool {
		total += weights[p]
		return true
	})

	r := rng.Float64() * total
	picked, last := -1, -1
	cumulative := 0.0
	domain.Each(func(p int) bool {
		cumulative += weights[p]
		last = p
		if r < cumulative {
			picked = p
			return false
		}
		return true
	})
	if picked < 0 {
		// Rounding left r at or above the final cumulative sum.
		picked = last
	}
	return picked
}
