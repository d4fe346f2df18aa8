// Package emit turns resolved cells into placements for downstream consumers,
// either collected after a run or streamed while the solver works.
package emit

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Xeraclom14/NeonHorizon-PCG/internal/catalog"
	"github.com/Xeraclom14/NeonHorizon-PCG/internal/grid"
	"github.com/Xeraclom14/NeonHorizon-PCG/internal/solver"
)

// Placement is one resolved cell: where it is, which piece and how it is
// turned.
type Placement struct {
	Coord    grid.Coord `json:"coord"`
	Piece    int        `json:"piece"`
	Name     string     `json:"name"`
	Rotation int        `json:"rotation"`
	MapTile  int        `json:"mapTile,omitempty"`
	// MapTileRotation is the minimap orientation including the piece rotation.
	MapTileRotation int        `json:"mapTileRotation,omitempty"`
	Position        [3]float64 `json:"position"`
	Yaw             float64    `json:"yaw"` // degrees about +Y
}

// Void reports whether the placement is the empty piece.
func (p Placement) Void() bool {
	return p.Piece == catalog.VoidIndex
}

// Layout converts lattice coordinates into world space. The lattice is
// centred on the origin with cubic cells of CellSize units.
type Layout struct {
	Dimensions grid.Dimensions
	CellSize   float64
}

// Position is the world-space centre of the cell at c.
func (l Layout) Position(c grid.Coord) mgl64.Vec3 {
	s := l.cellSize()
	cell := mgl64.Vec3{float64(c.I), float64(c.J), float64(c.K)}
	half := mgl64.Vec3{float64(l.Dimensions.X), float64(l.Dimensions.Y), float64(l.Dimensions.Z)}.Mul(s / 2)
	return cell.Mul(s).Sub(half).Add(mgl64.Vec3{s / 2, s / 2, s / 2})
}

// Transform is the model matrix of a placement: a quarter-turn yaw per
// rotation step followed by translation to the cell centre.
func (l Layout) Transform(p Placement) mgl64.Mat4 {
	pos := l.Position(p.Coord)
	return mgl64.Translate3D(pos.X(), pos.Y(), pos.Z()).Mul4(mgl64.HomogRotate3DY(yawRadians(p.Rotation)))
}

func (l Layout) cellSize() float64 {
	if l.CellSize <= 0 {
		return 4
	}
	return l.CellSize
}

func yawRadians(rotation int) float64 {
	return float64(rotation&3) * math.Pi / 2
}

// Place builds the placement of piece at c.
func (l Layout) Place(cat *catalog.Catalog, c grid.Coord, piece int) Placement {
	def := cat.Piece(piece)
	pos := l.Position(c)
	return Placement{
		Coord:           c,
		Piece:           piece,
		Name:            def.Name,
		Rotation:        def.Rotation,
		MapTile:         def.MapTile,
		MapTileRotation: def.EffectiveMapTileRotation(),
		Position:        [3]float64{pos.X(), pos.Y(), pos.Z()},
		Yaw:             float64(def.Rotation&3) * 90,
	}
}

// Collect lists every resolved cell of result in lattice order. Unresolved
// cells of a partial grid are skipped; void cells are kept unless skipVoid.
func Collect(cat *catalog.Catalog, result *solver.Result, cellSize float64, skipVoid bool) []Placement {
	layout := Layout{Dimensions: result.Grid.Dimensions, CellSize: cellSize}
	out := make([]Placement, 0, len(result.Grid.Cells))
	result.Grid.Each(func(c grid.Coord, piece int) bool {
		if piece == solver.Unresolved {
			return true
		}
		if skipVoid && piece == catalog.VoidIndex {
			return true
		}
		out = append(out, layout.Place(cat, c, piece))
		return true
	})
	return out
}
