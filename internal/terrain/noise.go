package terrain

import (
	"fmt"
	"math"

	"github.com/Xeraclom14/NeonHorizon-PCG/internal/config"
)

// HeightField maps a lattice column to a normalised terrain height in [0,1].
// Implementations must be deterministic for a given seed.
type HeightField interface {
	Height(seed int64, x, z int) float64
}

// HeightFunc adapts a plain function to HeightField.
type HeightFunc func(seed int64, x, z int) float64

func (f HeightFunc) Height(seed int64, x, z int) float64 {
	return f(seed, x, z)
}

// Flat returns the same height for every column.
type Flat float64

func (f Flat) Height(int64, int, int) float64 {
	return Clamp01(float64(f))
}

// ValueNoise is fractal hashed value noise. The seed picks both the hash
// lattice and a sample-space offset of seed mod 50 cells.
type ValueNoise struct {
	Frequency   float64
	Octaves     int
	Persistence float64
	Lacunarity  float64
}

// NewValueNoise builds a noise field from terrain settings.
func NewValueNoise(cfg config.TerrainConfig) ValueNoise {
	return ValueNoise{
		Frequency:   cfg.Frequency,
		Octaves:     cfg.Octaves,
		Persistence: cfg.Persistence,
		Lacunarity:  cfg.Lacunarity,
	}
}

// New selects the height field named by cfg.Kind.
func New(cfg config.TerrainConfig) (HeightField, error) {
	switch cfg.Kind {
	case "", config.TerrainValue:
		return NewValueNoise(cfg), nil
	case config.TerrainFlat:
		return Flat(cfg.Level), nil
	default:
		return nil, fmt.Errorf("unknown terrain kind %q", cfg.Kind)
	}
}

func (n ValueNoise) Height(seed int64, x, z int) float64 {
	offset := float64(seed % 50)
	v := n.fractalNoise(seed, offset+float64(x)*n.frequency(), offset+float64(z)*n.frequency())
	return Clamp01((v + 1) * 0.5)
}

func (n ValueNoise) frequency() float64 {
	if n.Frequency <= 0 {
		return 0.15
	}
	return n.Frequency
}

// fractalNoise sums octaves in sample space; the returned value is in [-1,1).
func (n ValueNoise) fractalNoise(seed int64, x, y float64) float64 {
	octaves := n.Octaves
	if octaves <= 0 {
		octaves = 1
	}
	persistence := n.Persistence
	if persistence <= 0 {
		persistence = 0.5
	}
	lacunarity := n.Lacunarity
	if lacunarity <= 0 {
		lacunarity = 2
	}

	scale := 1.0
	amplitude := 1.0
	noiseSum := 0.0
	maxAmplitude := 0.0

	for i := 0; i < octaves; i++ {
		noiseSum += valueNoise(seed, x*scale, y*scale) * amplitude
		maxAmplitude += amplitude
		amplitude *= persistence
		scale *= lacunarity
	}

	if maxAmplitude == 0 {
		return 0
	}
	return noiseSum / maxAmplitude
}

func valueNoise(seed int64, x, y float64) float64 {
	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	x1 := x0 + 1
	y1 := y0 + 1

	sx := smooth(x - float64(x0))
	sy := smooth(y - float64(y0))

	n0 := random2D(x0, y0, seed)
	n1 := random2D(x1, y0, seed)
	ix0 := lerp(n0, n1, sx)

	n2 := random2D(x0, y1, seed)
	n3 := random2D(x1, y1, seed)
	ix1 := lerp(n2, n3, sx)

	return lerp(ix0, ix1, sy)
}

func smooth(t float64) float64 {
	return t * t * (3 - 2*t)
}

func lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

func random2D(x, y int, seed int64) float64 {
	return float64(hash3(x, y, int(seed))&0xFFFF)/0x8000 - 1.0
}

func hash3(x, y, z int) uint32 {
	h := uint32(x*374761393 + y*668265263 + z*2147483647)
	h = (h ^ (h >> 13)) * 1274126177
	return h ^ (h >> 16)
}

// Clamp01 clamps v to [0,1]; NaN maps to 0.
func Clamp01(v float64) float64 {
	switch {
	case v < 0 || math.IsNaN(v):
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
