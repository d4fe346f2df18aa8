package grid

import "fmt"

// Coord addresses a cell in the lattice. J is the vertical axis.
type Coord struct {
	I int `json:"i" yaml:"i"`
	J int `json:"j" yaml:"j"`
	K int `json:"k" yaml:"k"`
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d,%d)", c.I, c.J, c.K)
}

// Dimensions is the size of the lattice in cells along each axis.
type Dimensions struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
	Z int `json:"z" yaml:"z"`
}

// Valid reports whether every axis holds at least one cell.
func (d Dimensions) Valid() bool {
	return d.X >= 1 && d.Y >= 1 && d.Z >= 1
}

func (d Dimensions) Volume() int {
	if !d.Valid() {
		return 0
	}
	return d.X * d.Y * d.Z
}

func (d Dimensions) Contains(c Coord) bool {
	return c.I >= 0 && c.J >= 0 && c.K >= 0 &&
		c.I < d.X && c.J < d.Y && c.K < d.Z
}

// Index maps a coordinate to its position in a flat arena. Cells are laid out
// i-major, then j, then k, matching the order Each visits them.
func (d Dimensions) Index(c Coord) int {
	return (c.I*d.Y+c.J)*d.Z + c.K
}

func (d Dimensions) Coord(index int) Coord {
	k := index % d.Z
	rest := index / d.Z
	return Coord{I: rest / d.Y, J: rest % d.Y, K: k}
}

// Neighbor returns the adjacent coordinate along dir, or false when it would
// leave the lattice.
func (d Dimensions) Neighbor(c Coord, dir Direction) (Coord, bool) {
	off := dir.Offset()
	n := Coord{I: c.I + off.I, J: c.J + off.J, K: c.K + off.K}
	return n, d.Contains(n)
}

// OnBorder reports whether the column holding c touches one of the four
// vertical walls of the lattice.
func (d Dimensions) OnBorder(c Coord) bool {
	return c.I == 0 || c.K == 0 || c.I == d.X-1 || c.K == d.Z-1
}

// Each visits every coordinate in arena order until fn returns false.
func (d Dimensions) Each(fn func(c Coord) bool) {
	for i := 0; i < d.X; i++ {
		for j := 0; j < d.Y; j++ {
			for k := 0; k < d.Z; k++ {
				if !fn(Coord{I: i, J: j, K: k}) {
					return
				}
			}
		}
	}
}
