package mapview

import (
	"math"
	"strings"

	"github.com/unklstewy/flightmap/pkg/dataset"
)

// Kind classifies a grid cell for coloring.
type Kind uint8

const (
	Empty Kind = iota
	Graticule
	Trail
	Aircraft
	Selected
	Label
)

// Cell is one character of the map.
type Cell struct {
	Rune rune
	Kind Kind
}

// Grid is a rendered map, indexed [row][column].
type Grid struct {
	Width  int
	Height int
	Cells  [][]Cell
}

// Glyphs used by Render.
const (
	GlyphAircraft = '✈'
	GlyphSelected = '◉'
	GlyphTrail    = '•'
	GlyphMeridian = '┊'
	GlyphParallel = '┈'
	GlyphCrossing = '┼'
)

// graticuleSteps are candidate spacings in degrees, finest first.
var graticuleSteps = []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 15, 30, 45, 90}

// Scene is what Render draws.
type Scene struct {
	Snapshots  []dataset.Snapshot
	Trajectory dataset.Trajectory
	Selected   string
}

// Render draws scene through p.
func Render(p Projection, scene Scene) Grid {
	g := newGrid(p.Width, p.Height)
	g.drawGraticule(p)

	var prevX, prevY int
	for i, pos := range scene.Trajectory {
		x, y, _ := p.ToScreen(pos.Latitude, pos.Longitude)
		if i > 0 {
			g.line(prevX, prevY, x, y, Cell{Rune: GlyphTrail, Kind: Trail})
		} else {
			g.set(x, y, Cell{Rune: GlyphTrail, Kind: Trail})
		}
		prevX, prevY = x, y
	}

	var selX, selY int
	var selCallsign string
	selVisible := false
	for _, s := range scene.Snapshots {
		x, y, ok := p.ToScreen(s.Latitude, s.Longitude)
		if !ok {
			continue
		}
		if s.EntityID == scene.Selected {
			selX, selY, selCallsign, selVisible = x, y, s.Callsign, true
			continue
		}
		g.set(x, y, Cell{Rune: GlyphAircraft, Kind: Aircraft})
	}

	// The selected aircraft is drawn last so it is never hidden.
	if selVisible {
		g.set(selX, selY, Cell{Rune: GlyphSelected, Kind: Selected})
		for i, r := range []rune(" " + selCallsign) {
			g.set(selX+1+i, selY, Cell{Rune: r, Kind: Label})
		}
	}
	return g
}

func newGrid(w, h int) Grid {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	cells := make([][]Cell, h)
	for y := range cells {
		cells[y] = make([]Cell, w)
		for x := range cells[y] {
			cells[y][x] = Cell{Rune: ' '}
		}
	}
	return Grid{Width: w, Height: h, Cells: cells}
}

func (g Grid) set(x, y int, c Cell) {
	if x < 0 || y < 0 || x >= g.Width || y >= g.Height {
		return
	}
	g.Cells[y][x] = c
}

// At returns the cell at x, y; off-grid cells are empty.
func (g Grid) At(x, y int) Cell {
	if x < 0 || y < 0 || x >= g.Width || y >= g.Height {
		return Cell{Rune: ' '}
	}
	return g.Cells[y][x]
}

// line draws a Bresenham line between two cells, clipped to the grid.
func (g Grid) line(x0, y0, x1, y1 int, c Cell) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	// Long segments (e.g. across the antimeridian) are not drawn.
	if dx > g.Width || -dy > g.Height {
		g.set(x1, y1, c)
		return
	}
	err := dx + dy
	for {
		g.set(x0, y0, c)
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

func (g Grid) drawGraticule(p Projection) {
	lonSpan, _ := p.Span()
	step := graticuleSteps[len(graticuleSteps)-1]
	for _, s := range graticuleSteps {
		if lonSpan/s <= 8 {
			step = s
			break
		}
	}

	cols := make([]bool, g.Width)
	for x := 0; x < g.Width; x++ {
		cols[x] = crosses(p.ToGeo(x, 0).Lon, p.ToGeo(x+1, 0).Lon, step)
	}
	for y := 0; y < g.Height; y++ {
		row := crosses(p.ToGeo(0, y).Lat, p.ToGeo(0, y+1).Lat, step)
		for x := 0; x < g.Width; x++ {
			switch {
			case row && cols[x]:
				g.Cells[y][x] = Cell{Rune: GlyphCrossing, Kind: Graticule}
			case row:
				g.Cells[y][x] = Cell{Rune: GlyphParallel, Kind: Graticule}
			case cols[x]:
				g.Cells[y][x] = Cell{Rune: GlyphMeridian, Kind: Graticule}
			}
		}
	}
}

// crosses reports whether a multiple of step lies in [a, b) or (b, a].
func crosses(a, b, step float64) bool {
	if math.Abs(b-a) > 180 {
		// Wrapped around the antimeridian.
		return true
	}
	lo, hi := math.Min(a, b), math.Max(a, b)
	return math.Floor(lo/step) != math.Floor(hi/step)
}

// String renders the grid without styling.
func (g Grid) String() string {
	var b strings.Builder
	for y, row := range g.Cells {
		if y > 0 {
			b.WriteByte('\n')
		}
		for _, c := range row {
			b.WriteRune(c.Rune)
		}
	}
	return b.String()
}

// Nearest returns the aircraft closest to cell (x, y) within maxDist cells.
// Distance is measured in screen space with rows counted double.
func Nearest(p Projection, snapshots []dataset.Snapshot, x, y, maxDist int) (string, bool) {
	best := ""
	bestDist := math.Inf(1)
	for _, s := range snapshots {
		sx, sy, ok := p.ToScreen(s.Latitude, s.Longitude)
		if !ok {
			continue
		}
		dx := float64(sx - x)
		dy := float64(sy-y) * cellAspect
		d := math.Hypot(dx, dy)
		if d < bestDist {
			best, bestDist = s.EntityID, d
		}
	}
	if best == "" || bestDist > float64(maxDist) {
		return "", false
	}
	return best, true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
