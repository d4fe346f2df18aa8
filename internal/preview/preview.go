package preview

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/Xeraclom14/NeonHorizon-PCG/internal/catalog"
	"github.com/Xeraclom14/NeonHorizon-PCG/internal/grid"
	"github.com/Xeraclom14/NeonHorizon-PCG/internal/solver"
)

const (
	tileWidth    = 32
	tileHeight   = 16
	blockHeight  = 16
	ambientLight = 0.2
)

var (
	background      = color.NRGBA{R: 10, G: 10, B: 18, A: 255}
	fallbackColor   = color.NRGBA{R: 128, G: 128, B: 128, A: 255}
	unresolvedColor = color.NRGBA{R: 150, G: 30, B: 60, A: 255}
)

type cellPreview struct {
	i, j, k int
	col     color.NRGBA
	screenX int
	screenY int
}

// Colors returns the preview colour of every catalog piece, by index.
func Colors(cat *catalog.Catalog) []string {
	pieces := cat.Pieces()
	out := make([]string, len(pieces))
	for i, p := range pieces {
		out[i] = p.Color
	}
	return out
}

// Render draws an isometric view of g. Void cells are left empty, unresolved
// cells of a partial grid are drawn in a warning colour and pieces without a
// parseable colour fall back to grey.
func Render(g solver.Grid, colors []string) (*image.NRGBA, error) {
	dim := g.Dimensions
	if !dim.Valid() {
		return nil, fmt.Errorf("invalid grid dimensions: %+v", dim)
	}
	if len(g.Cells) != dim.Volume() {
		return nil, fmt.Errorf("grid has %d cells, dimensions need %d", len(g.Cells), dim.Volume())
	}

	width := (dim.X+dim.Z)*tileWidth/2 + tileWidth
	height := (dim.X+dim.Z)*tileHeight/2 + dim.Y*blockHeight + tileHeight
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{background}, image.Point{}, draw.Src)

	cells := collectCells(g, colors)
	sort.Slice(cells, func(a, b int) bool {
		ca, cb := cells[a], cells[b]
		if ca.screenY != cb.screenY {
			return ca.screenY < cb.screenY
		}
		if ca.screenX != cb.screenX {
			return ca.screenX < cb.screenX
		}
		if ca.j != cb.j {
			return ca.j < cb.j
		}
		if ca.k != cb.k {
			return ca.k > cb.k
		}
		return ca.i < cb.i
	})

	offsetX := dim.Z*tileWidth/2 + tileWidth/2
	offsetY := dim.Y * blockHeight
	for _, c := range cells {
		renderBlock(img, offsetX+c.screenX, offsetY+c.screenY, c.col)
	}
	return img, nil
}

// Encode renders g as PNG into w.
func Encode(w io.Writer, g solver.Grid, colors []string) error {
	img, err := Render(g, colors)
	if err != nil {
		return err
	}
	return EncodeImage(w, img)
}

// EncodeImage writes an already rendered preview as PNG.
func EncodeImage(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode preview: %w", err)
	}
	return nil
}

// Save writes the PNG preview of g to path, creating parent directories.
func Save(path string, g solver.Grid, colors []string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create preview dir: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create preview: %w", err)
	}
	defer file.Close()
	return Encode(file, g, colors)
}

func collectCells(g solver.Grid, colors []string) []cellPreview {
	cells := make([]cellPreview, 0, len(g.Cells)/2+1)
	g.Each(func(c grid.Coord, piece int) bool {
		if piece == catalog.VoidIndex {
			return true
		}
		col := unresolvedColor
		if piece != solver.Unresolved {
			col = resolveColor(colors, piece)
		}
		cells = append(cells, cellPreview{
			i:       c.I,
			j:       c.J,
			k:       c.K,
			col:     col,
			screenX: (c.I - c.K) * tileWidth / 2,
			screenY: (c.I+c.K)*tileHeight/2 - c.J*blockHeight,
		})
		return true
	})
	return cells
}

func resolveColor(colors []string, piece int) color.NRGBA {
	if piece >= 0 && piece < len(colors) {
		if col, ok := parseHexColor(colors[piece]); ok {
			return col
		}
	}
	return fallbackColor
}

func renderBlock(img *image.NRGBA, baseX, baseY int, base color.NRGBA) {
	topColor := applyLighting(base, ambientLight+0.6)
	leftColor := applyLighting(base, ambientLight+0.35)
	rightColor := applyLighting(base, ambientLight+0.2)

	top := []image.Point{
		{X: baseX, Y: baseY - blockHeight},
		{X: baseX + tileWidth/2, Y: baseY - blockHeight + tileHeight/2},
		{X: baseX, Y: baseY - blockHeight + tileHeight},
		{X: baseX - tileWidth/2, Y: baseY - blockHeight + tileHeight/2},
	}
	left := []image.Point{
		{X: baseX - tileWidth/2, Y: baseY - blockHeight + tileHeight/2},
		{X: baseX, Y: baseY - blockHeight + tileHeight},
		{X: baseX, Y: baseY + tileHeight},
		{X: baseX - tileWidth/2, Y: baseY + tileHeight/2},
	}
	right := []image.Point{
		{X: baseX + tileWidth/2, Y: baseY - blockHeight + tileHeight/2},
		{X: baseX, Y: baseY - blockHeight + tileHeight},
		{X: baseX, Y: baseY + tileHeight},
		{X: baseX + tileWidth/2, Y: baseY + tileHeight/2},
	}

	fillPolygon(img, left, leftColor)
	fillPolygon(img, right, rightColor)
	fillPolygon(img, top, topColor)
}

func parseHexColor(value string) (color.NRGBA, bool) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(value), "#")
	if len(trimmed) != 6 {
		return color.NRGBA{}, false
	}
	v, err := strconv.ParseUint(trimmed, 16, 32)
	if err != nil {
		return color.NRGBA{}, false
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, true
}

func applyLighting(base color.NRGBA, factor float64) color.NRGBA {
	factor = math.Max(0, math.Min(1, factor))
	return color.NRGBA{
		R: uint8(math.Round(float64(base.R) * factor)),
		G: uint8(math.Round(float64(base.G) * factor)),
		B: uint8(math.Round(float64(base.B) * factor)),
		A: 255,
	}
}

// fillPolygon scanline-fills a convex or simple polygon.
func fillPolygon(img *image.NRGBA, pts []image.Point, col color.NRGBA) {
	if len(pts) < 3 {
		return
	}
	minY, maxY := pts[0].Y, pts[0].Y
	for _, p := range pts[1:] {
		minY = min(minY, p.Y)
		maxY = max(maxY, p.Y)
	}
	bounds := img.Bounds()
	minY = max(minY, bounds.Min.Y)
	maxY = min(maxY, bounds.Max.Y-1)

	xs := make([]int, 0, len(pts))
	for y := minY; y <= maxY; y++ {
		xs = xs[:0]
		for i := range pts {
			j := (i + 1) % len(pts)
			x1, y1 := pts[i].X, pts[i].Y
			x2, y2 := pts[j].X, pts[j].Y
			if y1 == y2 || y < min(y1, y2) || y >= max(y1, y2) {
				continue
			}
			xs = append(xs, x1+(y-y1)*(x2-x1)/(y2-y1))
		}
		sort.Ints(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			xStart := max(xs[i], bounds.Min.X)
			xEnd := min(xs[i+1], bounds.Max.X-1)
			for x := xStart; x <= xEnd; x++ {
				idx := (y-bounds.Min.Y)*img.Stride + (x-bounds.Min.X)*4
				img.Pix[idx] = col.R
				img.Pix[idx+1] = col.G
				img.Pix[idx+2] = col.B
				img.Pix[idx+3] = col.A
			}
		}
	}
}
