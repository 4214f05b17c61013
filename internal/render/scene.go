// Package render draws the ambient background: a slowly turning field of
// particles and, on the landing screen, a wireframe icosahedron around a
// solid core. It knows nothing about the chat; callers step it once per
// frame and draw it onto a Canvas.
package render

import (
	"math"
	"math/rand/v2"
	"time"
)

// Scene defaults.
const (
	DefaultParticles = 700
	DefaultSpread    = 15.0
	FieldOfView      = 75.0 // degrees, vertical
	CameraZ          = 3.0
	near, far        = 0.1, 1000.0
	cellAspect       = 2.0 // terminal cells are about twice as tall as wide

	fieldSpinY = 0.05 // rad/s
	fieldSpinX = 0.02
	objSpinY   = 0.005 // rad/frame
	objSpinX   = 0.002
	objOffsetX = 1.5
	objRadius  = 1.2
	coreRadius = 0.6
)

// Vec3 is a point in scene space.
type Vec3 struct{ X, Y, Z float64 }

func (v Vec3) rotate(rx, ry float64) Vec3 {
	// Euler XYZ: rotate about Y first, then X.
	sy, cy := math.Sincos(ry)
	v = Vec3{v.X*cy + v.Z*sy, v.Y, -v.X*sy + v.Z*cy}
	sx, cx := math.Sincos(rx)
	return Vec3{v.X, v.Y*cx - v.Z*sx, v.Y*sx + v.Z*cx}
}

// Options configures a Scene.
type Options struct {
	Particles int
	Spread    float64
	Seed      uint64
	Landing   bool // draw the icosahedron
}

// Scene is the animated background.
type Scene struct {
	particles []Vec3
	landing   bool
	ico       []Vec3
	edges     [][2]int

	w, h   int
	aspect float64

	fieldRX, fieldRY float64
	objRX, objRY     float64
	frames           uint64
}

// NewScene scatters particles uniformly in a cube of side Spread centred on
// the origin.
func NewScene(opts Options) *Scene {
	if opts.Particles <= 0 {
		opts.Particles = DefaultParticles
	}
	if opts.Spread <= 0 {
		opts.Spread = DefaultSpread
	}
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	s := &Scene{
		particles: make([]Vec3, opts.Particles),
		landing:   opts.Landing,
	}
	for i := range s.particles {
		s.particles[i] = Vec3{
			(rng.Float64() - 0.5) * opts.Spread,
			(rng.Float64() - 0.5) * opts.Spread,
			(rng.Float64() - 0.5) * opts.Spread,
		}
	}
	if opts.Landing {
		s.ico, s.edges = icosahedron(objRadius)
	}
	s.Resize(80, 24)
	return s
}

// SetLanding switches the icosahedron on or off.
func (s *Scene) SetLanding(on bool) {
	s.landing = on
	if on && s.ico == nil {
		s.ico, s.edges = icosahedron(objRadius)
	}
}

// Resize updates the viewport and projection.
func (s *Scene) Resize(w, h int) {
	s.w, s.h = max(w, 1), max(h, 1)
	s.aspect = float64(s.w) / (float64(s.h) * cellAspect)
}

// Size returns the viewport in cells.
func (s *Scene) Size() (int, int) { return s.w, s.h }

// Step advances the animation to elapsed time since start. The field turns
// with wall time; the landing object turns a fixed amount per frame.
func (s *Scene) Step(elapsed time.Duration) {
	t := elapsed.Seconds()
	s.fieldRY = t * fieldSpinY
	s.fieldRX = t * fieldSpinX
	if s.landing {
		s.objRY += objSpinY
		s.objRX += objSpinX
	}
	s.frames++
}

// Frames returns how many steps have been taken.
func (s *Scene) Frames() uint64 { return s.frames }

// Project maps a scene point to cell coordinates and camera distance.
func (s *Scene) Project(p Vec3) (x, y, dist float64, ok bool) {
	dist = CameraZ - p.Z
	if dist < near || dist > far {
		return 0, 0, dist, false
	}
	tanHalf := math.Tan(FieldOfView * math.Pi / 360)
	ndcX := p.X / (dist * tanHalf * s.aspect)
	ndcY := p.Y / (dist * tanHalf)
	x = (ndcX + 1) / 2 * float64(s.w)
	y = (1 - ndcY) / 2 * float64(s.h)
	return x, y, dist, true
}

// Draw paints the current frame onto c. The canvas is expected to match the
// scene size; anything outside it is clipped.
func (s *Scene) Draw(c *Canvas) {
	for _, p := range s.particles {
		x, y, d, ok := s.Project(p.rotate(s.fieldRX, s.fieldRY))
		if !ok {
			continue
		}
		col, row := int(math.Floor(x)), int(math.Floor(y))
		if d < CameraZ {
			c.Set(col, row, '•', InkNear)
		} else {
			c.Set(col, row, '·', InkFar)
		}
	}
	if s.landing {
		s.drawObject(c)
	}
}

func (s *Scene) drawObject(c *Canvas) {
	center := Vec3{X: objOffsetX}
	cx, cy, d, ok := s.Project(center)
	if !ok {
		return
	}
	rows := coreRadius / (d * math.Tan(FieldOfView*math.Pi/360)) * float64(s.h) / 2
	for y := int(cy - rows); y <= int(cy+rows); y++ {
		for x := int(cx - rows*cellAspect); x <= int(cx+rows*cellAspect); x++ {
			dx := (float64(x) - cx) / cellAspect
			dy := float64(y) - cy
			if dx*dx+dy*dy <= rows*rows {
				c.Set(x, y, '░', InkCore)
			}
		}
	}

	pts := make([][2]float64, len(s.ico))
	vis := make([]bool, len(s.ico))
	for i, v := range s.ico {
		r := v.rotate(s.objRX, s.objRY)
		r.X += objOffsetX
		x, y, _, ok := s.Project(r)
		pts[i], vis[i] = [2]float64{x, y}, ok
	}
	for _, e := range s.edges {
		if vis[e[0]] && vis[e[1]] {
			line(c, pts[e[0]], pts[e[1]], InkWire)
		}
	}
}

// line rasterises a segment with Bresenham, picking a glyph by its slope.
func line(c *Canvas, a, b [2]float64, ink Ink) {
	x0, y0 := int(math.Round(a[0])), int(math.Round(a[1]))
	x1, y1 := int(math.Round(b[0])), int(math.Round(b[1]))
	glyph := slopeGlyph(x1-x0, y1-y0)

	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := sign(x1-x0), sign(y1-y0)
	err := dx + dy
	for {
		c.Set(x0, y0, glyph, ink)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func slopeGlyph(dx, dy int) rune {
	vdy := float64(dy) * cellAspect
	adx, ady := math.Abs(float64(dx)), math.Abs(vdy)
	switch {
	case ady*2 < adx:
		return '-'
	case adx*2 < ady:
		return '|'
	case (dx > 0) == (dy > 0):
		return '\\'
	default:
		return '/'
	}
}

// icosahedron returns the 12 vertices at the given radius and its 30 edges.
func icosahedron(radius float64) ([]Vec3, [][2]int) {
	phi := (1 + math.Sqrt(5)) / 2
	raw := []Vec3{
		{-1, phi, 0}, {1, phi, 0}, {-1, -phi, 0}, {1, -phi, 0},
		{0, -1, phi}, {0, 1, phi}, {0, -1, -phi}, {0, 1, -phi},
		{phi, 0, -1}, {phi, 0, 1}, {-phi, 0, -1}, {-phi, 0, 1},
	}
	scale := radius / math.Sqrt(1+phi*phi)
	verts := make([]Vec3, len(raw))
	for i, v := range raw {
		verts[i] = Vec3{v.X * scale, v.Y * scale, v.Z * scale}
	}
	var edges [][2]int
	for i := range raw {
		for j := i + 1; j < len(raw); j++ {
			dx, dy, dz := raw[i].X-raw[j].X, raw[i].Y-raw[j].Y, raw[i].Z-raw[j].Z
			if math.Abs(dx*dx+dy*dy+dz*dz-4) < 1e-9 {
				edges = append(edges, [2]int{i, j})
			}
		}
	}
	return verts, edges
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
