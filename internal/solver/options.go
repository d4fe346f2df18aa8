package solver

import (
	"errors"
	"fmt"
	"log"

	"github.com/Xeraclom14/NeonHorizon-PCG/internal/config"
	"github.com/Xeraclom14/NeonHorizon-PCG/internal/grid"
	"github.com/Xeraclom14/NeonHorizon-PCG/internal/terrain"
)

// DefaultMaxIterations bounds collapse steps when Options leaves it unset.
const DefaultMaxIterations = 10000

var (
	ErrInvalidDimensions = errors.New("lattice dimensions must be at least 1 on every axis")
	ErrEmptyCatalog      = errors.New("catalog has no pieces")
	ErrInvalidOptions    = errors.New("invalid generation options")
	// ErrUnsolvable is returned once the restart budget is spent.
	ErrUnsolvable = errors.New("restart budget exhausted")
	// ErrIterationCapExceeded is reported by Result.Warning for partial grids.
	ErrIterationCapExceeded = errors.New("iteration cap exceeded before the lattice collapsed")
)

// Observer receives solver events as they happen. Calls are made from the
// goroutine driving the State.
type Observer interface {
	// Resolved is called once per cell when its domain narrows to one piece.
	Resolved(c grid.Coord, piece int)
	// Restarted is called after a contradiction discarded the lattice.
	Restarted(attempt int, seed int64)
}

// Options configures one generation.
type Options struct {
	Dimensions grid.Dimensions
	Seed       int64
	// RandomSeed ignores Seed and draws a fresh one.
	RandomSeed bool
	// AirHeightLimit is how many layers below the top the terrain may lower
	// the forced air line.
	AirHeightLimit int
	MaxIterations  int // collapse steps per attempt, 0 means DefaultMaxIterations
	MaxRestarts    int // 0 restarts until solved
	HeightField    terrain.HeightField
	Logger         *log.Logger
	Observer       Observer
}

// OptionsFromConfig maps the generation section of a config file onto
// Options.
func OptionsFromConfig(gen config.GenerationConfig, field terrain.HeightField) Options {
	return Options{
		Dimensions:     grid.Dimensions{X: gen.Width, Y: gen.Height, Z: gen.Depth},
		Seed:           gen.Seed,
		RandomSeed:     gen.RandomSeed,
		AirHeightLimit: gen.AirHeightLimit,
		MaxIterations:  gen.MaxIterations,
		MaxRestarts:    gen.MaxRestarts,
		HeightField:    field,
	}
}

func (o *Options) normalise() error {
	if !o.Dimensions.Valid() {
		return ErrInvalidDimensions
	}
	if o.AirHeightLimit < 0 {
		return fmt.Errorf("%w: air height limit cannot be negative", ErrInvalidOptions)
	}
	if o.MaxIterations < 0 {
		return fmt.Errorf("%w: max iterations must be positive", ErrInvalidOptions)
	}
	if o.MaxIterations == 0 {
		o.MaxIterations = DefaultMaxIterations
	}
	if o.MaxRestarts < 0 {
		return fmt.Errorf("%w: max restarts cannot be negative", ErrInvalidOptions)
	}
	if o.HeightField == nil {
		o.HeightField = terrain.Flat(0)
	}
	if o.Logger == nil {
		o.Logger = log.New(log.Writer(), "solver ", log.LstdFlags|log.Lmicroseconds)
	}
	return nil
}
