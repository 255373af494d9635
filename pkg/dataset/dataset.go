// Package dataset holds the immutable, time-ordered flight telemetry that the
// playback engine replays, together with the pure queries run against it on
// every render cycle: the time window filter, the per-aircraft snapshot
// reducer and the single-aircraft trajectory reconstruction.
package dataset

import (
	"errors"
	"sort"
	"time"
)

// FlightRecord is one cleaned telemetry sample of one aircraft.
// All positions are WGS84 decimal degrees.
type FlightRecord struct {
	// EntityID is the ICAO 24-bit transponder address (e.g., "a12345")
	EntityID string

	// Callsign is the flight number or registration, trimmed
	Callsign string

	// Latitude in decimal degrees (-90 to +90)
	Latitude float64

	// Longitude in decimal degrees (-180 to +180)
	Longitude float64

	// Altitude is the barometric altitude in meters
	Altitude float64

	// Velocity is the ground speed in meters per second
	Velocity float64

	// Timestamp is the UTC time the sample was taken
	Timestamp time.Time
}

// ErrNoTrajectory is returned by Trajectory when the selected aircraft has no
// samples at or before the requested time.
var ErrNoTrajectory = errors.New("no data available for this flight")

// Dataset is an immutable collection of records sorted ascending by timestamp.
// It is safe for concurrent readers; nothing mutates it after NewDataset.
type Dataset struct {
	records []FlightRecord

	// byEntity maps an entity id to the indexes of its records, ascending.
	byEntity map[string][]int
}

// NewDataset copies and stably sorts records by timestamp and builds the
// per-entity index. The caller's slice is never modified.
func NewDataset(records []FlightRecord) *Dataset {
	sorted := make([]FlightRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	byEntity := make(map[string][]int)
	for i, r := range sorted {
		byEntity[r.EntityID] = append(byEntity[r.EntityID], i)
	}

	return &Dataset{
		records:  sorted,
		byEntity: byEntity,
	}
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	return len(d.records)
}

// Records returns the sorted records. The slice must be treated as read-only.
func (d *Dataset) Records() []FlightRecord {
	return d.records[:len(d.records):len(d.records)]
}

// EntityCount returns the number of distinct aircraft.
func (d *Dataset) EntityCount() int {
	return len(d.byEntity)
}

// Bounds returns the earliest and latest timestamps. An empty dataset reports
// the Unix epoch for both.
func (d *Dataset) Bounds() (time.Time, time.Time) {
	if len(d.records) == 0 {
		epoch := time.Unix(0, 0).UTC()
		return epoch, epoch
	}
	return d.records[0].Timestamp, d.records[len(d.records)-1].Timestamp
}

// Filter returns the records visible as of current within [start, end]:
// start <= timestamp <= min(current, end). The result aliases the dataset
// and must not be modified.
func (d *Dataset) Filter(current, start, end time.Time) []FlightRecord {
	upper := end
	if current.Before(upper) {
		upper = current
	}
	if upper.Before(start) {
		return nil
	}

	lo := sort.Search(len(d.records), func(i int) bool {
		return !d.records[i].Timestamp.Before(start)
	})
	hi := sort.Search(len(d.records), func(i int) bool {
		return d.records[i].Timestamp.After(upper)
	})
	if lo >= hi {
		return nil
	}
	return d.records[lo:hi:hi]
}

// Trajectory returns the ordered positions of one aircraft up to and
// including current. Samples sharing a timestamp collapse to the one that
// appears last in the dataset. ErrNoTrajectory is returned when nothing
// qualifies.
func (d *Dataset) Trajectory(entityID string, current time.Time) (Trajectory, error) {
	idx := d.byEntity[entityID]

	var points Trajectory
	for _, i := range idx {
		r := d.records[i]
		if r.Timestamp.After(current) {
			// Indexes follow dataset order, which is sorted by time.
			break
		}
		p := Position{
			Latitude:  r.Latitude,
			Longitude: r.Longitude,
			Altitude:  r.Altitude,
			Timestamp: r.Timestamp,
		}
		if n := len(points); n > 0 && points[n-1].Timestamp.Equal(r.Timestamp) {
			points[n-1] = p
			continue
		}
		points = append(points, p)
	}

	if len(points) == 0 {
		return nil, ErrNoTrajectory
	}
	return points, nil
}

// Latest returns the most recent record of an aircraft at or before current.
func (d *Dataset) Latest(entityID string, current time.Time) (FlightRecord, bool) {
	idx := d.byEntity[entityID]
	found := false
	var latest FlightRecord
	for _, i := range idx {
		r := d.records[i]
		if r.Timestamp.After(current) {
			break
		}
		latest = r
		found = true
	}
	return latest, found
}
