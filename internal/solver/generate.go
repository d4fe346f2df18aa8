package solver

import (
	"context"
	"time"

	"github.com/Xeraclom14/NeonHorizon-PCG/internal/catalog"
	"github.com/Xeraclom14/NeonHorizon-PCG/internal/compat"
	"github.com/Xeraclom14/NeonHorizon-PCG/internal/grid"
)

// Unresolved marks a cell of a partial grid that never narrowed to one piece.
const Unresolved = -1

// generateBatch is the step budget Generate spends between context checks.
const generateBatch = 64

// Grid is the resolved lattice: one catalog index per cell, in linear index
// order.
type Grid struct {
	Dimensions grid.Dimensions `json:"dimensions"`
	Cells      []int           `json:"cells"`
}

// At returns the piece at c, or Unresolved.
func (g *Grid) At(c grid.Coord) int {
	return g.Cells[g.Dimensions.Index(c)]
}

// Each calls fn for every cell in linear index order until fn returns false.
func (g *Grid) Each(fn func(c grid.Coord, piece int) bool) {
	for idx, piece := range g.Cells {
		if !fn(g.Dimensions.Coord(idx), piece) {
			return
		}
	}
}

// Unresolved counts cells without a single piece.
func (g *Grid) Unresolved() int {
	count := 0
	for _, piece := range g.Cells {
		if piece == Unresolved {
			count++
		}
	}
	return count
}

// Result is the outcome of a finished generation.
type Result struct {
	Grid            Grid          `json:"grid"`
	Outcome         Outcome       `json:"outcome"`
	Seed            int64         `json:"seed"`
	InitialSeed     int64         `json:"initialSeed"`
	Iterations      int           `json:"iterations"`
	TotalIterations int           `json:"totalIterations"`
	Restarts        int           `json:"restarts"`
	Elapsed         time.Duration `json:"elapsed"`
}

// Warning reports a non-fatal problem with the result: ErrIterationCapExceeded
// when the lattice is only partially resolved.
func (r *Result) Warning() error {
	if r.Outcome == OutcomePartial {
		return ErrIterationCapExceeded
	}
	return nil
}

// Result snapshots the lattice. Cells that are not resolved read as
// Unresolved.
func (s *State) Result() *Result {
	cells := make([]int, len(s.sizes))
	for idx := range cells {
		if s.sizes[idx] == 1 {
			cells[idx] = s.domain(idx).First()
		} else {
			cells[idx] = Unresolved
		}
	}
	return &Result{
		Grid:            Grid{Dimensions: s.dims, Cells: cells},
		Outcome:         s.outcome,
		Seed:            s.seed,
		InitialSeed:     s.initialSeed,
		Iterations:      s.iterations,
		TotalIterations: s.totalIterations,
		Restarts:        s.restarts,
		Elapsed:         time.Since(s.started),
	}
}

// Generate runs a generation to completion. A partial grid is returned with a
// nil error; check Result.Warning. Contradictions restart the lattice until it
// collapses, the restart budget is spent (ErrUnsolvable) or ctx ends.
func Generate(ctx context.Context, cat *catalog.Catalog, index *compat.Index, opts Options) (*Result, error) {
	s, err := New(cat, index, opts)
	if err != nil {
		return nil, err
	}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		progress, err := s.Step(generateBatch)
		if err != nil {
			return nil, err
		}
		if progress.Done {
			return s.Result(), nil
		}
	}
}
