package engine

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/unklstewy/flightmap/pkg/coordinates"
	"github.com/unklstewy/flightmap/pkg/dataset"
	"github.com/unklstewy/flightmap/pkg/view"
)

// Info panel messages.
const (
	MessageNoSelection = "No flight selected"
	MessageNoData      = "No data available for this flight."
)

// Payload is everything a front end needs to draw one cycle.
type Payload struct {
	Snapshots        []dataset.Snapshot `json:"entitySnapshots"`
	Trajectory       SelectedTrajectory `json:"selectedTrajectory"`
	CurrentTimeLabel string             `json:"currentTimeLabel"`
	Info             Info               `json:"infoPanelContent"`
	View             view.State         `json:"view"`

	Status   string  `json:"status"`
	Speed    float64 `json:"speed"`
	Selected string  `json:"selectedEntity,omitempty"`
}

// SelectedTrajectory is the trajectory of the selected aircraft. It encodes
// as a list of points, as "no-data" when the aircraft has no samples yet, or
// as null when nothing is selected.
type SelectedTrajectory struct {
	Points dataset.Trajectory
	NoData bool
}

// MarshalJSON implements json.Marshaler.
func (s SelectedTrajectory) MarshalJSON() ([]byte, error) {
	if s.NoData {
		return []byte(`"no-data"`), nil
	}
	if s.Points == nil {
		return []byte("null"), nil
	}
	return json.Marshal([]dataset.Position(s.Points))
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *SelectedTrajectory) UnmarshalJSON(data []byte) error {
	*s = SelectedTrajectory{}
	switch string(data) {
	case "null":
		return nil
	case `"no-data"`:
		s.NoData = true
		return nil
	}
	var points []dataset.Position
	if err := json.Unmarshal(data, &points); err != nil {
		return fmt.Errorf("failed to decode trajectory: %w", err)
	}
	s.Points = points
	return nil
}

// Info is the content of the info panel. Message is set when there is no
// flight to describe.
type Info struct {
	Message string      `json:"message,omitempty"`
	Flight  *FlightInfo `json:"flight,omitempty"`
}

// FlightInfo describes the selected aircraft at the current time.
type FlightInfo struct {
	EntityID   string  `json:"entity_id"`
	Callsign   string  `json:"callsign"`
	Latitude   float64 `json:"lat"`
	Longitude  float64 `json:"lon"`
	Altitude   float64 `json:"altitude"`
	Velocity   float64 `json:"velocity"`
	Heading    float64 `json:"heading"`
	Points     int     `json:"points"`
	DistanceNM float64 `json:"distance_nm"`
}

// Lines renders the panel as plain text lines.
func (i Info) Lines() []string {
	if i.Flight == nil {
		return []string{i.Message}
	}
	f := i.Flight
	return []string{
		fmt.Sprintf("Flight: %s", f.Callsign),
		fmt.Sprintf("ICAO: %s", f.EntityID),
		fmt.Sprintf("Position: %.3f, %.3f", f.Latitude, f.Longitude),
		fmt.Sprintf("Altitude: %.3f m", f.Altitude),
		fmt.Sprintf("Speed: %.1f m/s (%.0f kt)", f.Velocity, f.Velocity*coordinates.MetersPerSecondToKnots),
		fmt.Sprintf("Heading: %03.0f°", f.Heading),
		fmt.Sprintf("Track: %d points, %.1f NM", f.Points, f.DistanceNM),
	}
}

func flightInfo(rec dataset.FlightRecord, traj dataset.Trajectory) *FlightInfo {
	last := traj[len(traj)-1]
	info := &FlightInfo{
		EntityID:   rec.EntityID,
		Callsign:   rec.Callsign,
		Latitude:   round3(last.Latitude),
		Longitude:  round3(last.Longitude),
		Altitude:   round3(last.Altitude),
		Velocity:   rec.Velocity,
		Points:     len(traj),
		DistanceNM: traj.DistanceNM(),
	}
	if len(traj) > 1 {
		prev := traj[len(traj)-2]
		info.Heading = coordinates.Bearing(
			coordinates.Geographic{Latitude: prev.Latitude, Longitude: prev.Longitude},
			coordinates.Geographic{Latitude: last.Latitude, Longitude: last.Longitude},
		)
	}
	return info
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
