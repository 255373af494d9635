// Package mapview draws the playback map into a character grid: aircraft
// snapshots, the selected trajectory and a graticule, projected through the
// camera carried by view.State. Terminal front ends color the cells.
package mapview

import (
	"math"

	"github.com/unklstewy/flightmap/pkg/coordinates"
	"github.com/unklstewy/flightmap/pkg/view"
)

// Zoom limits.
const (
	MinZoom = 1.0
	MaxZoom = 4096.0
)

// cellAspect is the height:width ratio of a terminal cell.
const cellAspect = 2.0

// Projection maps geographic coordinates to grid cells with an
// equirectangular projection. At zoom 1 the full 360° of longitude spans the
// grid width.
type Projection struct {
	View   view.State
	Width  int
	Height int
}

// NewProjection creates a projection of v onto a width x height grid.
func NewProjection(v view.State, width, height int) Projection {
	if v.Zoom < MinZoom {
		v.Zoom = MinZoom
	}
	return Projection{View: v, Width: width, Height: height}
}

// degPerCol is the longitude covered by one column.
func (p Projection) degPerCol() float64 {
	if p.Width <= 0 {
		return 0
	}
	return 360.0 / p.View.Zoom / float64(p.Width)
}

func (p Projection) degPerRow() float64 {
	return p.degPerCol() * cellAspect
}

// Span returns the longitude and latitude extent of the grid in degrees.
func (p Projection) Span() (lonSpan, latSpan float64) {
	return p.degPerCol() * float64(p.Width), p.degPerRow() * float64(p.Height)
}

// ToScreen returns the cell of a coordinate and whether it is on the grid.
func (p Projection) ToScreen(lat, lon float64) (x, y int, ok bool) {
	dpc := p.degPerCol()
	if dpc == 0 || p.Height <= 0 {
		return 0, 0, false
	}
	dLon := coordinates.NormalizeLongitude(lon - p.View.Center.Lon)
	dLat := p.View.Center.Lat - lat

	x = int(math.Floor(dLon/dpc + float64(p.Width)/2))
	y = int(math.Floor(dLat/p.degPerRow() + float64(p.Height)/2))
	ok = x >= 0 && x < p.Width && y >= 0 && y < p.Height
	return x, y, ok
}

// ToGeo returns the coordinate at the center of a cell.
func (p Projection) ToGeo(x, y int) view.LatLon {
	dLon := (float64(x) + 0.5 - float64(p.Width)/2) * p.degPerCol()
	dLat := (float64(y) + 0.5 - float64(p.Height)/2) * p.degPerRow()
	return view.LatLon{
		Lat: coordinates.ClampLatitude(p.View.Center.Lat - dLat),
		Lon: coordinates.NormalizeLongitude(p.View.Center.Lon + dLon),
	}
}

// Pan moves the camera by a fraction of the visible span. Positive dx moves
// east, positive dy moves north.
func Pan(v view.State, dx, dy float64) view.State {
	zoom := math.Max(v.Zoom, MinZoom)
	lonSpan := 360.0 / zoom
	v.Center.Lon = coordinates.NormalizeLongitude(v.Center.Lon + dx*lonSpan)
	v.Center.Lat = coordinates.ClampLatitude(v.Center.Lat + dy*lonSpan/2)
	return v
}

// Zoom multiplies the zoom by factor within [MinZoom, MaxZoom].
func Zoom(v view.State, factor float64) view.State {
	v.Zoom = math.Max(MinZoom, math.Min(MaxZoom, math.Max(v.Zoom, MinZoom)*factor))
	return v
}

// CenterOn moves the camera center to a coordinate.
func CenterOn(v view.State, lat, lon float64) view.State {
	v.Center = view.LatLon{Lat: coordinates.ClampLatitude(lat), Lon: coordinates.NormalizeLongitude(lon)}
	return v
}
