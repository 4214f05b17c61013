package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Ink classifies what a cell shows so a palette can colour it.
type Ink uint8

const (
	InkNone Ink = iota
	InkFar
	InkNear
	InkCore
	InkWire
	InkText
	InkAccent
	InkMuted
)

// Cell is one terminal character.
type Cell struct {
	R   rune
	Ink Ink
}

// continuation marks the right half of a double-width rune.
const continuation rune = -1

// Palette maps inks to styles. Missing inks render unstyled.
type Palette map[Ink]lipgloss.Style

// Canvas is a fixed-size grid of cells.
type Canvas struct {
	W, H  int
	cells []Cell
}

// NewCanvas returns a blank w×h canvas.
func NewCanvas(w, h int) *Canvas {
	w, h = max(w, 0), max(h, 0)
	c := &Canvas{W: w, H: h, cells: make([]Cell, w*h)}
	c.Clear()
	return c
}

// Clear blanks every cell.
func (c *Canvas) Clear() {
	for i := range c.cells {
		c.cells[i] = Cell{R: ' '}
	}
}

// In reports whether (x, y) lies on the canvas.
func (c *Canvas) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < c.W && y < c.H
}

// Set writes one rune. Off-canvas writes are dropped.
func (c *Canvas) Set(x, y int, r rune, ink Ink) {
	if c.In(x, y) {
		c.cells[y*c.W+x] = Cell{R: r, Ink: ink}
	}
}

// At returns the cell at (x, y).
func (c *Canvas) At(x, y int) Cell {
	if !c.In(x, y) {
		return Cell{}
	}
	return c.cells[y*c.W+x]
}

// Text writes s starting at (x, y), clipping at the right edge. It returns
// the number of columns used.
func (c *Canvas) Text(x, y int, s string, ink Ink) int {
	col := x
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		if col+w > c.W {
			break
		}
		c.Set(col, y, r, ink)
		if w == 2 {
			c.Set(col+1, y, continuation, ink)
		}
		col += w
	}
	return col - x
}

// CenterText writes s horizontally centred on row y.
func (c *Canvas) CenterText(y int, s string, ink Ink) {
	c.Text((c.W-runewidth.StringWidth(s))/2, y, s, ink)
}

// Plain renders the canvas without styling.
func (c *Canvas) Plain() string {
	return c.String(nil)
}

// String renders the canvas, styling runs of equal ink with p.
func (c *Canvas) String(p Palette) string {
	var b strings.Builder
	var run strings.Builder
	flush := func(ink Ink) {
		if run.Len() == 0 {
			return
		}
		if st, ok := p[ink]; ok {
			b.WriteString(st.Render(run.String()))
		} else {
			b.WriteString(run.String())
		}
		run.Reset()
	}
	for y := 0; y < c.H; y++ {
		cur := InkNone
		for x := 0; x < c.W; x++ {
			cell := c.cells[y*c.W+x]
			if cell.R == continuation {
				continue
			}
			if cell.Ink != cur {
				flush(cur)
				cur = cell.Ink
			}
			run.WriteRune(cell.R)
		}
		flush(cur)
		if y < c.H-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
