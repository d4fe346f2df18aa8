package solver

import (
	"fmt"
	"log"
	"math"
	"math/rand"
	"time"

	"github.com/zyedidia/generic/stack"

	"github.com/Xeraclom14/NeonHorizon-PCG/internal/catalog"
	"github.com/Xeraclom14/NeonHorizon-PCG/internal/compat"
	"github.com/Xeraclom14/NeonHorizon-PCG/internal/grid"
	"github.com/Xeraclom14/NeonHorizon-PCG/internal/pieceset"
	"github.com/Xeraclom14/NeonHorizon-PCG/internal/terrain"
)

type phase uint8

const (
	phaseInit phase = iota
	phaseRunning
	phaseDone
)

// Outcome describes how a generation ended.
type Outcome uint8

const (
	OutcomePending Outcome = iota
	OutcomeCollapsed
	OutcomePartial
	OutcomeUnsolvable
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCollapsed:
		return "collapsed"
	case OutcomePartial:
		return "partial"
	case OutcomeUnsolvable:
		return "unsolvable"
	default:
		return "pending"
	}
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *Outcome) UnmarshalText(text []byte) error {
	switch string(text) {
	case "collapsed":
		*o = OutcomeCollapsed
	case "partial":
		*o = OutcomePartial
	case "unsolvable":
		*o = OutcomeUnsolvable
	case "pending", "":
		*o = OutcomePending
	default:
		return fmt.Errorf("unknown outcome %q", text)
	}
	return nil
}

// Progress is a snapshot returned by Step.
type Progress struct {
	Cells           int
	Resolved        int
	Iterations      int // collapse steps in the current attempt
	TotalIterations int
	Restarts        int
	Seed            int64
	Done            bool
	Outcome         Outcome
}

// State is one in-progress generation: the lattice, its random stream and
// counters. It is not safe for concurrent use; independent States are.
type State struct {
	cat     *catalog.Catalog
	index   *compat.Index
	opts    Options
	dims    grid.Dimensions
	logger  *log.Logger
	n       int
	words   int
	weights []float64

	arena    []uint64
	sizes    []int
	resolved int
	airLevel []int

	rng         *rand.Rand
	seed        int64
	initialSeed int64

	iterations      int
	totalIterations int
	restarts        int

	phase   phase
	outcome Outcome
	err     error
	started time.Time

	worklist *stack.Stack[int]
	union    pieceset.Set
	ties     []int
}

// New validates the inputs and allocates a State. No cell is seeded until the
// first Step. A nil or stale index is rebuilt from cat.
func New(cat *catalog.Catalog, index *compat.Index, opts Options) (*State, error) {
	if !opts.Dimensions.Valid() {
		return nil, ErrInvalidDimensions
	}
	if cat == nil || cat.Len() == 0 {
		return nil, ErrEmptyCatalog
	}
	if err := opts.normalise(); err != nil {
		return nil, err
	}
	if index == nil || index.Stale() {
		index = compat.Build(cat)
	}

	seed := opts.Seed
	if opts.RandomSeed {
		seed = rand.New(rand.NewSource(time.Now().UnixNano())).Int63()
	}

	n := cat.Len()
	words := pieceset.Words(n)
	volume := opts.Dimensions.Volume()
	s := &State{
		cat:         cat,
		index:       index,
		opts:        opts,
		dims:        opts.Dimensions,
		logger:      opts.Logger,
		n:           n,
		words:       words,
		weights:     cat.Weights(),
		arena:       make([]uint64, volume*words),
		sizes:       make([]int, volume),
		airLevel:    make([]int, opts.Dimensions.X*opts.Dimensions.Z),
		rng:         rand.New(rand.NewSource(seed)),
		seed:        seed,
		initialSeed: seed,
		worklist:    stack.New[int](),
		union:       pieceset.New(n),
		started:     time.Now(),
	}
	return s, nil
}

// Step advances the generation by at most budget units and returns. Every
// collapse and every (re)initialization attempt costs one unit, so a Step
// always returns even when the catalog keeps contradicting itself.
func (s *State) Step(budget int) (Progress, error) {
	if budget <= 0 {
		budget = 1
	}
	for spent := 0; spent < budget && s.phase != phaseDone; spent++ {
		if s.phase == phaseInit {
			s.initialize()
			continue
		}
		s.iterate()
	}
	return s.Progress(), s.err
}

func (s *State) Progress() Progress {
	return Progress{
		Cells:           len(s.sizes),
		Resolved:        s.resolved,
		Iterations:      s.iterations,
		TotalIterations: s.totalIterations,
		Restarts:        s.restarts,
		Seed:            s.seed,
		Done:            s.phase == phaseDone,
		Outcome:         s.outcome,
	}
}

func (s *State) Dimensions() grid.Dimensions { return s.dims }

func (s *State) Seed() int64 { return s.seed }

// DomainSize is the number of pieces still possible at c.
func (s *State) DomainSize(c grid.Coord) int {
	return s.sizes[s.dims.Index(c)]
}

// Domain returns a copy of the pieces still possible at c.
func (s *State) Domain(c grid.Coord) pieceset.Set {
	return s.domain(s.dims.Index(c)).Clone()
}

// Piece returns the resolved piece at c.
func (s *State) Piece(c grid.Coord) (int, bool) {
	idx := s.dims.Index(c)
	if s.sizes[idx] != 1 {
		return -1, false
	}
	return s.domain(idx).First(), true
}

func (s *State) domain(idx int) pieceset.Set {
	start := idx * s.words
	return pieceset.Set(s.arena[start : start+s.words : start+s.words])
}

// initialize resets every domain to the full catalog and force-collapses the
// border walls and everything above the terrain to void.
func (s *State) initialize() {
	s.iterations = 0
	s.resolved = 0
	full := pieceset.Full(s.n)
	for idx := range s.sizes {
		s.domain(idx).CopyFrom(full)
		s.sizes[idx] = s.n
	}
	if s.n == 1 {
		s.resolved = len(s.sizes)
		if s.opts.Observer != nil {
			s.dims.Each(func(c grid.Coord) bool {
				s.opts.Observer.Resolved(c, 0)
				return true
			})
		}
	}

	for i := 0; i < s.dims.X; i++ {
		for k := 0; k < s.dims.Z; k++ {
			s.airLevel[i*s.dims.Z+k] = s.columnAirLevel(i, k)
		}
	}

	var failed *grid.Coord
	s.dims.Each(func(c grid.Coord) bool {
		if !s.forced(c) {
			return true
		}
		idx := s.dims.Index(c)
		d := s.domain(idx)
		if !d.Has(catalog.VoidIndex) {
			failed = &c
			return false
		}
		if s.sizes[idx] > 1 {
			d.Only(catalog.VoidIndex)
			s.markResolved(idx, c, catalog.VoidIndex)
		}
		if at, ok := s.propagate(idx); !ok {
			failed = &at
			return false
		}
		return true
	})
	if failed != nil {
		s.restart(*failed)
		return
	}

	s.phase = phaseRunning
	s.checkCollapsed()
}

func (s *State) columnAirLevel(i, k int) int {
	h := terrain.Clamp01(s.opts.HeightField.Height(s.seed, i, k))
	return s.dims.Y - 1 - int(math.Floor(h*float64(s.opts.AirHeightLimit)))
}

func (s *State) forced(c grid.Coord) bool {
	return s.dims.OnBorder(c) || c.J >= s.airLevel[c.I*s.dims.Z+c.K]
}

// iterate performs one collapse: pick the lowest-entropy cell, sample a piece
// by weight and propagate.
func (s *State) iterate() {
	if s.checkCollapsed() {
		return
	}
	if s.iterations >= s.opts.MaxIterations {
		s.phase = phaseDone
		s.outcome = OutcomePartial
		s.logger.Printf("iteration cap %d reached with %d/%d cells resolved (seed %d)", s.opts.MaxIterations, s.resolved, len(s.sizes), s.seed)
		return
	}

	var idx int
	idx, s.ties = pickCell(s.rng, s.sizes, s.ties)
	if idx < 0 {
		s.checkCollapsed()
		return
	}
	piece := weightedPick(s.rng, s.domain(idx), s.weights)
	c := s.dims.Coord(idx)
	s.domain(idx).Only(piece)
	s.markResolved(idx, c, piece)
	s.iterations++
	s.totalIterations++

	if at, ok := s.propagate(idx); !ok {
		s.restart(at)
		return
	}
	s.checkCollapsed()
}

func (s *State) markResolved(idx int, c grid.Coord, piece int) {
	s.sizes[idx] = 1
	s.resolved++
	if s.opts.Observer != nil {
		s.opts.Observer.Resolved(c, piece)
	}
}

func (s *State) checkCollapsed() bool {
	if s.resolved < len(s.sizes) {
		return false
	}
	s.phase = phaseDone
	s.outcome = OutcomeCollapsed
	s.logger.Printf("generation %dx%dx%d collapsed in %d iterations (%d restarts, seed %d, %s)",
		s.dims.X, s.dims.Y, s.dims.Z, s.totalIterations, s.restarts, s.seed, time.Since(s.started).Round(time.Millisecond))
	return true
}

// restart discards the lattice after a contradiction at c and reseeds.
func (s *State) restart(c grid.Coord) {
	for s.worklist.Size() > 0 {
		s.worklist.Pop()
	}
	if s.opts.MaxRestarts > 0 && s.restarts >= s.opts.MaxRestarts {
		s.phase = phaseDone
		s.outcome = OutcomeUnsolvable
		s.err = fmt.Errorf("%w: contradiction at %v after %d restarts", ErrUnsolvable, c, s.restarts)
		s.logger.Printf("giving up: contradiction at %v after %d restarts (initial seed %d)", c, s.restarts, s.initialSeed)
		return
	}
	s.restarts++
	s.seed = s.rng.Int63()
	s.rng = rand.New(rand.NewSource(s.seed))
	s.phase = phaseInit
	s.logger.Printf("restarting generation: contradiction at %v (attempt %d), new seed %d", c, s.restarts, s.seed)
	if s.opts.Observer != nil {
		s.opts.Observer.Restarted(s.restarts, s.seed)
	}
}
