// Package view carries the map camera across render cycles.
package view

// Map styles understood by the bundled front ends. Styles are opaque to the
// engine; unknown values are passed through.
const (
	StyleOpenStreetMap   = "open-street-map"
	StyleCartoPositron   = "carto-positron"
	StyleCartoDarkMatter = "carto-darkmatter"
)

// Styles lists the known styles in selector order.
var Styles = []string{StyleOpenStreetMap, StyleCartoPositron, StyleCartoDarkMatter}

// DefaultZoom is the zoom used on first render.
const DefaultZoom = 1.0

// LatLon is a map coordinate in decimal degrees.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// State is the camera and style of one rendered map.
type State struct {
	Zoom     float64 `json:"zoom"`
	Center   LatLon  `json:"center"`
	MapStyle string  `json:"mapStyle"`
}

// Default returns the first-render view for style.
func Default(style string) State {
	return State{Zoom: DefaultZoom, MapStyle: style}
}

// Preserve builds the next view: zoom and center come from prev when there
// is one, the style always comes from the latest request.
func Preserve(prev *State, style string) State {
	if prev == nil {
		return Default(style)
	}
	return State{
		Zoom:     prev.Zoom,
		Center:   prev.Center,
		MapStyle: style,
	}
}

// Known reports whether style is one of Styles.
func Known(style string) bool {
	for _, s := range Styles {
		if s == style {
			return true
		}
	}
	return false
}

// Next returns the style after current in Styles, wrapping around. Unknown
// styles advance to the first one.
func Next(current string) string {
	for i, s := range Styles {
		if s == current {
			return Styles[(i+1)%len(Styles)]
		}
	}
	return Styles[0]
}
