package main

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/gdamore/tcell/v2"

	"github.com/Xeraclom14/NeonHorizon-PCG/internal/catalog"
	"github.com/Xeraclom14/NeonHorizon-PCG/internal/compat"
	"github.com/Xeraclom14/NeonHorizon-PCG/internal/grid"
	"github.com/Xeraclom14/NeonHorizon-PCG/internal/solver"
)

const (
	minBudget = 1
	maxBudget = 1 << 12
)

// viewer draws one horizontal layer of a running generation and advances it
// by one budgeted step per frame.
type viewer struct {
	screen tcell.Screen
	cat    *catalog.Catalog
	index  *compat.Index
	opts   solver.Options

	state    *solver.State
	progress solver.Progress
	err      error

	layer  int
	budget int
	paused bool

	glyphs []rune
	styles []tcell.Style
}

func newViewer(screen tcell.Screen, cat *catalog.Catalog, opts solver.Options, budget int) (*viewer, error) {
	v := &viewer{
		screen: screen,
		cat:    cat,
		index:  compat.Build(cat),
		opts:   opts,
		budget: clampBudget(budget),
	}
	v.buildPalette()
	if err := v.reset(opts.Seed, opts.RandomSeed); err != nil {
		return nil, err
	}
	v.layer = opts.Dimensions.Y / 2
	return v, nil
}

func clampBudget(b int) int {
	if b < minBudget {
		return minBudget
	}
	if b > maxBudget {
		return maxBudget
	}
	return b
}

func (v *viewer) buildPalette() {
	pieces := v.cat.Pieces()
	v.glyphs = make([]rune, len(pieces))
	v.styles = make([]tcell.Style, len(pieces))
	for i, p := range pieces {
		name := p.Base
		if name == "" {
			name = p.Name
		}
		glyph := '#'
		for _, r := range name {
			glyph = unicode.ToUpper(r)
			break
		}
		style := tcell.StyleDefault
		if p.Color != "" {
			style = style.Foreground(tcell.GetColor(p.Color))
		}
		if i == catalog.VoidIndex {
			glyph = '.'
			style = tcell.StyleDefault.Foreground(tcell.ColorDimGray)
		}
		v.glyphs[i] = glyph
		v.styles[i] = style
	}
}

// reset starts a new generation on the same lattice.
func (v *viewer) reset(seed int64, random bool) error {
	opts := v.opts
	opts.Seed = seed
	opts.RandomSeed = random
	state, err := solver.New(v.cat, v.index, opts)
	if err != nil {
		return err
	}
	v.state = state
	v.progress = state.Progress()
	v.err = nil
	return nil
}

// tick advances the generation unless it is paused or finished.
func (v *viewer) tick() {
	if v.paused {
		return
	}
	v.step()
}

func (v *viewer) step() {
	if v.progress.Done {
		return
	}
	v.progress, v.err = v.state.Step(v.budget)
}

// handleInput returns false when the viewer should exit.
func (v *viewer) handleInput(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return v.handleKey(ev.Key(), ev.Rune())
	case *tcell.EventResize:
		v.screen.Sync()
	}
	return true
}

func (v *viewer) handleKey(key tcell.Key, r rune) bool {
	dims := v.state.Dimensions()
	switch key {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyUp:
		v.layer = min(v.layer+1, dims.Y-1)
	case tcell.KeyDown:
		v.layer = max(v.layer-1, 0)
	case tcell.KeyRune:
		switch r {
		case 'q':
			return false
		case 'k':
			v.layer = min(v.layer+1, dims.Y-1)
		case 'j':
			v.layer = max(v.layer-1, 0)
		case ' ':
			v.paused = !v.paused
		case 's':
			v.step()
		case 'r':
			if err := v.reset(0, true); err != nil {
				v.err = err
			}
		case '+':
			v.budget = clampBudget(v.budget * 2)
		case '-':
			v.budget = clampBudget(v.budget / 2)
		}
	}
	return true
}

// cell returns the glyph and style shown for c.
func (v *viewer) cell(c grid.Coord) (rune, tcell.Style) {
	if piece, ok := v.state.Piece(c); ok {
		return v.glyphs[piece], v.styles[piece]
	}
	size := v.state.DomainSize(c)
	style := tcell.StyleDefault.Foreground(tcell.ColorGray)
	switch {
	case size == 0:
		return 'x', tcell.StyleDefault.Foreground(tcell.ColorRed)
	case size < 10:
		return rune('0' + size), style
	default:
		return '+', style
	}
}

func (v *viewer) draw() {
	v.screen.Clear()
	dims := v.state.Dimensions()
	for k := 0; k < dims.Z; k++ {
		for i := 0; i < dims.X; i++ {
			glyph, style := v.cell(grid.Coord{I: i, J: v.layer, K: k})
			// cells are two columns wide
			v.screen.SetContent(i*2, k, glyph, nil, style)
		}
	}

	p := v.progress
	status := fmt.Sprintf("layer %d/%d  seed %d  resolved %d/%d  iter %d (total %d)  restarts %d  budget %d  %s",
		v.layer, dims.Y-1, p.Seed, p.Resolved, p.Cells, p.Iterations, p.TotalIterations, p.Restarts, v.budget, p.Outcome)
	if v.paused {
		status += "  [paused]"
	}
	v.drawText(0, dims.Z+1, status, tcell.StyleDefault.Foreground(tcell.ColorWhite))
	if v.err != nil {
		v.drawText(0, dims.Z+2, v.err.Error(), tcell.StyleDefault.Foreground(tcell.ColorRed))
	}
	v.drawText(0, dims.Z+3, "j/k or arrows: layer  space: pause  s: step  r: reseed  +/-: budget  q: quit",
		tcell.StyleDefault.Foreground(tcell.ColorDimGray))
	v.screen.Show()
}

func (v *viewer) drawText(x, y int, text string, style tcell.Style) {
	for i, r := range []rune(strings.TrimRight(text, " ")) {
		v.screen.SetContent(x+i, y, r, nil, style)
	}
}
