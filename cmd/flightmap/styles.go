package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/unklstewy/flightmap/internal/mapview"
	"github.com/unklstewy/flightmap/pkg/view"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)
	clockStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("226"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	panelStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

// palette colors map cells for one map style.
type palette map[mapview.Kind]lipgloss.Style

var palettes = map[string]palette{
	view.StyleOpenStreetMap: {
		mapview.Empty:     lipgloss.NewStyle(),
		mapview.Graticule: lipgloss.NewStyle().Foreground(lipgloss.Color("237")),
		mapview.Trail:     lipgloss.NewStyle().Foreground(lipgloss.Color("75")),
		mapview.Aircraft:  lipgloss.NewStyle().Foreground(lipgloss.Color("226")),
		mapview.Selected:  lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Bold(true),
		mapview.Label:     lipgloss.NewStyle().Foreground(lipgloss.Color("46")),
	},
	view.StyleCartoPositron: {
		mapview.Empty:     lipgloss.NewStyle().Background(lipgloss.Color("255")),
		mapview.Graticule: lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Background(lipgloss.Color("255")),
		mapview.Trail:     lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Background(lipgloss.Color("255")),
		mapview.Aircraft:  lipgloss.NewStyle().Foreground(lipgloss.Color("236")).Background(lipgloss.Color("255")),
		mapview.Selected:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Background(lipgloss.Color("255")).Bold(true),
		mapview.Label:     lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Background(lipgloss.Color("255")),
	},
	view.StyleCartoDarkMatter: {
		mapview.Empty:     lipgloss.NewStyle().Background(lipgloss.Color("233")),
		mapview.Graticule: lipgloss.NewStyle().Foreground(lipgloss.Color("236")).Background(lipgloss.Color("233")),
		mapview.Trail:     lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Background(lipgloss.Color("233")),
		mapview.Aircraft:  lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Background(lipgloss.Color("233")),
		mapview.Selected:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Background(lipgloss.Color("233")).Bold(true),
		mapview.Label:     lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Background(lipgloss.Color("233")),
	},
}

// paletteFor returns the palette of style; unknown styles use the default.
func paletteFor(style string) palette {
	if p, ok := palettes[style]; ok {
		return p
	}
	return palettes[view.StyleOpenStreetMap]
}

// render colors a grid, styling runs of equal kind together.
func (p palette) render(g mapview.Grid) string {
	var b strings.Builder
	var run strings.Builder
	for y, row := range g.Cells {
		if y > 0 {
			b.WriteByte('\n')
		}
		kind := mapview.Empty
		for x, c := range row {
			if x > 0 && c.Kind != kind {
				b.WriteString(p[kind].Render(run.String()))
				run.Reset()
			}
			kind = c.Kind
			run.WriteRune(c.Rune)
		}
		b.WriteString(p[kind].Render(run.String()))
		run.Reset()
	}
	return b.String()
}
