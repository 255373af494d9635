package main

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/unklstewy/flightmap/internal/engine"
	"github.com/unklstewy/flightmap/internal/mapview"
	"github.com/unklstewy/flightmap/pkg/view"
)

// MapPanel is a tview primitive that draws the playback map with tcell.
type MapPanel struct {
	*tview.Box
	app *App
}

// NewMapPanel creates the map panel for app.
func NewMapPanel(app *App) *MapPanel {
	mp := &MapPanel{
		Box: tview.NewBox(),
		app: app,
	}
	mp.SetBorder(true).SetTitle(" Map ")
	return mp
}

// cellStyles colors map cells for each map style.
var cellStyles = map[string]map[mapview.Kind]tcell.Style{
	view.StyleOpenStreetMap: {
		mapview.Empty:     tcell.StyleDefault,
		mapview.Graticule: tcell.StyleDefault.Foreground(tcell.ColorDarkGray),
		mapview.Trail:     tcell.StyleDefault.Foreground(tcell.ColorSkyblue),
		mapview.Aircraft:  tcell.StyleDefault.Foreground(tcell.ColorYellow),
		mapview.Selected:  tcell.StyleDefault.Foreground(tcell.ColorLime).Bold(true),
		mapview.Label:     tcell.StyleDefault.Foreground(tcell.ColorLime),
	},
	view.StyleCartoPositron: {
		mapview.Empty:     tcell.StyleDefault.Background(tcell.ColorWhiteSmoke),
		mapview.Graticule: tcell.StyleDefault.Foreground(tcell.ColorSilver).Background(tcell.ColorWhiteSmoke),
		mapview.Trail:     tcell.StyleDefault.Foreground(tcell.ColorDodgerBlue).Background(tcell.ColorWhiteSmoke),
		mapview.Aircraft:  tcell.StyleDefault.Foreground(tcell.ColorDarkSlateGray).Background(tcell.ColorWhiteSmoke),
		mapview.Selected:  tcell.StyleDefault.Foreground(tcell.ColorRed).Background(tcell.ColorWhiteSmoke).Bold(true),
		mapview.Label:     tcell.StyleDefault.Foreground(tcell.ColorRed).Background(tcell.ColorWhiteSmoke),
	},
	view.StyleCartoDarkMatter: {
		mapview.Empty:     tcell.StyleDefault.Background(tcell.ColorBlack),
		mapview.Graticule: tcell.StyleDefault.Foreground(tcell.ColorDimGray).Background(tcell.ColorBlack),
		mapview.Trail:     tcell.StyleDefault.Foreground(tcell.ColorOrange).Background(tcell.ColorBlack),
		mapview.Aircraft:  tcell.StyleDefault.Foreground(tcell.ColorLightGray).Background(tcell.ColorBlack),
		mapview.Selected:  tcell.StyleDefault.Foreground(tcell.ColorGold).Background(tcell.ColorBlack).Bold(true),
		mapview.Label:     tcell.StyleDefault.Foreground(tcell.ColorGold).Background(tcell.ColorBlack),
	},
}

func stylesFor(mapStyle string) map[mapview.Kind]tcell.Style {
	if s, ok := cellStyles[mapStyle]; ok {
		return s
	}
	return cellStyles[view.StyleOpenStreetMap]
}

// projection returns the projection of the current payload onto the inner
// rectangle.
func (mp *MapPanel) projection() mapview.Projection {
	_, _, width, height := mp.GetInnerRect()
	return mapview.NewProjection(mp.app.Payload().View, width, height)
}

// Draw renders the map using tcell
func (mp *MapPanel) Draw(screen tcell.Screen) {
	mp.Box.DrawForSubclass(screen, mp)

	x, y, _, _ := mp.GetInnerRect()
	p := mp.app.Payload()
	proj := mp.projection()
	grid := mapview.Render(proj, mapview.Scene{
		Snapshots:  p.Snapshots,
		Trajectory: p.Trajectory.Points,
		Selected:   p.Selected,
	})

	styles := stylesFor(p.View.MapStyle)
	for row, cells := range grid.Cells {
		for col, c := range cells {
			screen.SetContent(x+col, y+row, c.Rune, nil, styles[c.Kind])
		}
	}

	// Clock label, top-left
	tview.Print(screen, "[::b]"+p.CurrentTimeLabel, x+1, y, 19, tview.AlignLeft, tcell.ColorYellow)
}

// InputHandler handles camera and playback keys while the map has focus.
func (mp *MapPanel) InputHandler() func(event *tcell.EventKey, setFocus func(p tview.Primitive)) {
	return mp.WrapInputHandler(func(event *tcell.EventKey, setFocus func(p tview.Primitive)) {
		mp.app.handleMapKey(event)
	})
}

// MouseHandler selects the aircraft nearest to a left click.
func (mp *MapPanel) MouseHandler() func(action tview.MouseAction, event *tcell.EventMouse, setFocus func(p tview.Primitive)) (consumed bool, capture tview.Primitive) {
	return mp.WrapMouseHandler(func(action tview.MouseAction, event *tcell.EventMouse, setFocus func(p tview.Primitive)) (bool, tview.Primitive) {
		mx, my := event.Position()
		if !mp.InRect(mx, my) {
			return false, nil
		}
		if action != tview.MouseLeftClick {
			return false, nil
		}
		setFocus(mp)

		ix, iy, _, _ := mp.GetInnerRect()
		if id, ok := mapview.Nearest(mp.projection(), mp.app.Payload().Snapshots, mx-ix, my-iy, clickRadius); ok {
			mp.app.dispatch(engine.Select{EntityID: id})
		}
		return true, nil
	})
}
