package grid

import "testing"

func TestIndexRoundTripCoversArena(t *testing.T) {
	dim := Dimensions{X: 3, Y: 4, Z: 5}
	seen := make([]bool, dim.Volume())
	next := 0
	dim.Each(func(c Coord) bool {
		idx := dim.Index(c)
		if idx != next {
			t.Fatalf("coordinate %v: index %d, want arena order %d", c, idx, next)
		}
		if got := dim.Coord(idx); got != c {
			t.Fatalf("Coord(%d) = %v, want %v", idx, got, c)
		}
		seen[idx] = true
		next++
		return true
	})
	for idx, ok := range seen {
		if !ok {
			t.Fatalf("index %d never visited", idx)
		}
	}
}

func TestNeighborStaysInsideLattice(t *testing.T) {
	dim := Dimensions{X: 2, Y: 2, Z: 2}
	origin := Coord{}
	tests := []struct {
		dir  Direction
		want Coord
		ok   bool
	}{
		{PosX, Coord{I: 1}, true},
		{NegX, Coord{}, false},
		{PosY, Coord{J: 1}, true},
		{NegY, Coord{}, false},
		{PosZ, Coord{K: 1}, true},
		{NegZ, Coord{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.dir.String(), func(t *testing.T) {
			got, ok := dim.Neighbor(origin, tt.dir)
			if ok != tt.ok {
				t.Fatalf("Neighbor ok = %v, want %v", ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Fatalf("Neighbor = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOppositeDirections(t *testing.T) {
	pairs := map[Direction]Direction{
		PosX: NegX,
		NegX: PosX,
		PosY: NegY,
		NegY: PosY,
		PosZ: NegZ,
		NegZ: PosZ,
	}
	for dir, want := range pairs {
		if got := dir.Opposite(); got != want {
			t.Fatalf("%v.Opposite() = %v, want %v", dir, got, want)
		}
		parsed, err := ParseDirection(dir.String())
		if err != nil || parsed != dir {
			t.Fatalf("ParseDirection(%q) = %v, %v", dir.String(), parsed, err)
		}
	}
}

func TestValidRejectsEmptyAxes(t *testing.T) {
	for _, dim := range []Dimensions{{0, 1, 1}, {1, 0, 1}, {1, 1, -2}} {
		if dim.Valid() {
			t.Fatalf("%+v should be invalid", dim)
		}
		if dim.Volume() != 0 {
			t.Fatalf("%+v volume = %d, want 0", dim, dim.Volume())
		}
	}
}

func TestOnBorder(t *testing.T) {
	dim := Dimensions{X: 3, Y: 2, Z: 3}
	count := 0
	dim.Each(func(c Coord) bool {
		if dim.OnBorder(c) {
			count++
		}
		return true
	})
	if count != 16 {
		t.Fatalf("border cells = %d, want 16", count)
	}
	if dim.OnBorder(Coord{I: 1, J: 1, K: 1}) {
		t.Fatal("interior column reported as border")
	}
}
