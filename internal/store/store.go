package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Xeraclom14/NeonHorizon-PCG/internal/catalog"
	"github.com/Xeraclom14/NeonHorizon-PCG/internal/config"
	"github.com/Xeraclom14/NeonHorizon-PCG/internal/grid"
	"github.com/Xeraclom14/NeonHorizon-PCG/internal/solver"
)

// ErrNotFound is returned by Load for unknown record IDs.
var ErrNotFound = errors.New("generation record not found")

// Store persists finished generations.
type Store interface {
	// Save stores rec, assigning an ID when it has none.
	Save(rec *Record) error
	Load(id string) (*Record, error)
	Delete(id string) error
	// ForEach visits records ordered by creation time until fn returns false.
	ForEach(fn func(rec *Record) bool) error
	Close() error
}

// PieceInfo is the part of a catalog entry needed to read a stored grid
// without the catalog itself.
type PieceInfo struct {
	Name     string `json:"name"`
	Rotation int    `json:"rotation"`
	Color    string `json:"color,omitempty"`
}

// Record is a finished generation together with the parameters that
// produced it.
type Record struct {
	ID              string          `json:"id"`
	CreatedAt       time.Time       `json:"createdAt"`
	CatalogSource   string          `json:"catalogSource,omitempty"`
	Dimensions      grid.Dimensions `json:"dimensions"`
	AirHeightLimit  int             `json:"airHeightLimit"`
	Seed            int64           `json:"seed"`
	InitialSeed     int64           `json:"initialSeed"`
	Outcome         solver.Outcome  `json:"outcome"`
	Iterations      int             `json:"iterations"`
	TotalIterations int             `json:"totalIterations"`
	Restarts        int             `json:"restarts"`
	Elapsed         time.Duration   `json:"elapsed"`
	Cells           []int           `json:"cells"`
	Pieces          []PieceInfo     `json:"pieces"`
}

// NewRecord captures result under a fresh random ID.
func NewRecord(cat *catalog.Catalog, source string, airHeightLimit int, result *solver.Result) *Record {
	pieces := cat.Pieces()
	info := make([]PieceInfo, len(pieces))
	for i, p := range pieces {
		info[i] = PieceInfo{Name: p.Name, Rotation: p.Rotation, Color: p.Color}
	}
	cells := make([]int, len(result.Grid.Cells))
	copy(cells, result.Grid.Cells)
	return &Record{
		ID:              uuid.NewString(),
		CreatedAt:       time.Now().UTC(),
		CatalogSource:   source,
		Dimensions:      result.Grid.Dimensions,
		AirHeightLimit:  airHeightLimit,
		Seed:            result.Seed,
		InitialSeed:     result.InitialSeed,
		Outcome:         result.Outcome,
		Iterations:      result.Iterations,
		TotalIterations: result.TotalIterations,
		Restarts:        result.Restarts,
		Elapsed:         result.Elapsed,
		Cells:           cells,
		Pieces:          info,
	}
}

// Grid returns the stored lattice.
func (r *Record) Grid() solver.Grid {
	return solver.Grid{Dimensions: r.Dimensions, Cells: r.Cells}
}

// Summary is a copy of r without the cell data, for listings.
func (r *Record) Summary() Record {
	out := *r
	out.Cells = nil
	out.Pieces = nil
	return out
}

func (r *Record) clone() *Record {
	out := *r
	out.Cells = append([]int(nil), r.Cells...)
	out.Pieces = append([]PieceInfo(nil), r.Pieces...)
	return &out
}

func assignID(rec *Record) error {
	if rec == nil {
		return fmt.Errorf("record is nil")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	} else if _, err := uuid.Parse(rec.ID); err != nil {
		return fmt.Errorf("record id %q: %w", rec.ID, err)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	return nil
}

// Open builds the store selected by cfg.
func Open(cfg config.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case "", config.StoreMemory:
		return NewMemory(), nil
	case config.StoreLevelDB:
		return OpenLevelDB(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
