package grid

import (
	"fmt"
	"strings"
)

// Direction is one of the six axis directions between neighbouring cells.
type Direction uint8

const (
	PosX Direction = iota
	NegX
	PosY
	NegY
	PosZ
	NegZ
)

// DirectionCount is the number of axis directions.
const DirectionCount = 6

// Directions lists every direction in propagation order.
var Directions = [DirectionCount]Direction{PosX, NegX, PosY, NegY, PosZ, NegZ}

// Horizontal lists the four directions that lie in the XZ plane.
var Horizontal = [4]Direction{PosX, NegX, PosZ, NegZ}

var offsets = [DirectionCount]Coord{
	PosX: {I: 1},
	NegX: {I: -1},
	PosY: {J: 1},
	NegY: {J: -1},
	PosZ: {K: 1},
	NegZ: {K: -1},
}

var directionNames = [DirectionCount]string{"+x", "-x", "+y", "-y", "+z", "-z"}

func (d Direction) Offset() Coord {
	return offsets[d]
}

// Opposite returns the direction pointing back at the origin cell.
func (d Direction) Opposite() Direction {
	return d ^ 1
}

// Vertical reports whether d runs along the Y axis.
func (d Direction) Vertical() bool {
	return d == PosY || d == NegY
}

func (d Direction) String() string {
	if int(d) < DirectionCount {
		return directionNames[d]
	}
	return fmt.Sprintf("direction(%d)", d)
}

// ParseDirection accepts the labels produced by String.
func ParseDirection(value string) (Direction, error) {
	label := strings.ToLower(strings.TrimSpace(value))
	for i, name := range directionNames {
		if name == label {
			return Direction(i), nil
		}
	}
	return 0, fmt.Errorf("unknown direction %q", value)
}
