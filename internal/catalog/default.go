package catalog

// DefaultPieces returns the built-in terrain catalog: empty air, solid rock, a
// grass-topped ground tile, load-bearing pillars that never touch each other
// and four rotations of a stair tile.
func DefaultPieces() []Piece {
	open := HorizontalSocket{ID: "open", Symmetric: true}
	air := VerticalSocket{ID: "air", Rotation: AnyRotation}
	solid := VerticalSocket{ID: "solid", Rotation: AnyRotation}

	return []Piece{
		{
			Name:    "void",
			Weight:  2,
			PosX:    open,
			NegX:    open,
			PosZ:    open,
			NegZ:    open,
			PosY:    air,
			NegY:    air,
			MapTile: -1,
		},
		{
			Name:    "rock",
			Weight:  3,
			PosX:    open,
			NegX:    open,
			PosZ:    open,
			NegZ:    open,
			PosY:    solid,
			NegY:    solid,
			Color:   "#6b6b6b",
			MapTile: 0,
		},
		{
			Name:    "ground",
			Weight:  2,
			PosX:    open,
			NegX:    open,
			PosZ:    open,
			NegZ:    open,
			PosY:    air,
			NegY:    solid,
			Color:   "#3f8f3a",
			MapTile: 1,
		},
		{
			Name:       "pillar",
			Weight:     0.5,
			PosX:       open,
			NegX:       open,
			PosZ:       open,
			NegZ:       open,
			PosY:       solid,
			NegY:       solid,
			Exclusions: []string{"pillar"},
			Color:      "#b0a080",
			MapTile:    2,
		},
		{
			Name:            "stairs",
			Weight:          0.25,
			PosX:            open,
			NegX:            open,
			PosZ:            open,
			NegZ:            open,
			PosY:            air,
			NegY:            VerticalSocket{ID: "solid", Rotation: 0},
			Variants:        []int{0, 1, 2, 3},
			Color:           "#d08030",
			MapTile:         3,
			MapTileRotation: 0,
		},
	}
}

// Default builds the built-in catalog.
func Default() *Catalog {
	c, err := New(DefaultPieces())
	if err != nil {
		panic("catalog: invalid built-in pieces: " + err.Error())
	}
	return c
}
