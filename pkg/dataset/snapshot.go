package dataset

import (
	"time"

	"github.com/unklstewy/flightmap/pkg/coordinates"
)

// Snapshot is the most recent known state of one aircraft as of a virtual time.
type Snapshot struct {
	EntityID  string    `json:"entity_id"`
	Callsign  string    `json:"callsign"`
	Latitude  float64   `json:"lat"`
	Longitude float64   `json:"lon"`
	Altitude  float64   `json:"altitude"`
	Velocity  float64   `json:"velocity"`
	Timestamp time.Time `json:"-"`
}

// Record converts the snapshot back into a single flight record.
func (s Snapshot) Record() FlightRecord {
	return FlightRecord{
		EntityID:  s.EntityID,
		Callsign:  s.Callsign,
		Latitude:  s.Latitude,
		Longitude: s.Longitude,
		Altitude:  s.Altitude,
		Velocity:  s.Velocity,
		Timestamp: s.Timestamp,
	}
}

// Snapshots reduces records to one snapshot per aircraft, keeping the record
// with the greatest timestamp. On equal timestamps the record appearing later
// in records wins. Output is in order of each aircraft's first appearance.
func Snapshots(records []FlightRecord) []Snapshot {
	if len(records) == 0 {
		return nil
	}

	slot := make(map[string]int)
	out := make([]Snapshot, 0)
	for _, r := range records {
		i, seen := slot[r.EntityID]
		if !seen {
			slot[r.EntityID] = len(out)
			out = append(out, snapshotOf(r))
			continue
		}
		if !r.Timestamp.Before(out[i].Timestamp) {
			out[i] = snapshotOf(r)
		}
	}
	return out
}

func snapshotOf(r FlightRecord) Snapshot {
	return Snapshot{
		EntityID:  r.EntityID,
		Callsign:  r.Callsign,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		Altitude:  r.Altitude,
		Velocity:  r.Velocity,
		Timestamp: r.Timestamp,
	}
}

// Position is one point of a trajectory.
type Position struct {
	Latitude  float64   `json:"lat"`
	Longitude float64   `json:"lon"`
	Altitude  float64   `json:"-"`
	Timestamp time.Time `json:"-"`
}

// Trajectory is the ascending position history of one aircraft.
type Trajectory []Position

// DistanceNM returns the great-circle length of the trajectory in nautical miles.
func (t Trajectory) DistanceNM() float64 {
	var total float64
	for i := 1; i < len(t); i++ {
		total += coordinates.DistanceNauticalMiles(
			coordinates.Geographic{Latitude: t[i-1].Latitude, Longitude: t[i-1].Longitude},
			coordinates.Geographic{Latitude: t[i].Latitude, Longitude: t[i].Longitude},
		)
	}
	return total
}
