package opensky

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/unklstewy/flightmap/pkg/dataset"
)

// Indexes into a state vector array.
const (
	idxICAO24       = 0
	idxCallsign     = 1
	idxLongitude    = 5
	idxLatitude     = 6
	idxBaroAltitude = 7
	idxVelocity     = 9
)

// StatesResponse is the body of /states/all.
type StatesResponse struct {
	// Time is the Unix time the state vectors are associated with
	Time int64 `json:"time"`

	// States holds one raw state vector per aircraft; may be null
	States []StateVector `json:"states"`
}

// StateVector is one aircraft's state, an array of mixed types with nulls.
type StateVector []json.RawMessage

// Timestamp returns the response time in UTC.
func (r *StatesResponse) Timestamp() time.Time {
	return time.Unix(r.Time, 0).UTC()
}

// Samples converts the first limit state vectors into dataset samples, all
// stamped with the response time. limit <= 0 converts every vector. Null or
// malformed fields mark the sample as missing.
func (r *StatesResponse) Samples(limit int) []dataset.Sample {
	states := r.States
	if limit > 0 && len(states) > limit {
		states = states[:limit]
	}

	ts := r.Timestamp()
	samples := make([]dataset.Sample, 0, len(states))
	for _, sv := range states {
		samples = append(samples, sv.sample(ts))
	}
	return samples
}

func (sv StateVector) sample(ts time.Time) dataset.Sample {
	s := dataset.Sample{FlightRecord: dataset.FlightRecord{Timestamp: ts}}

	var ok bool
	var missing bool
	if s.EntityID, ok = sv.str(idxICAO24); !ok || s.EntityID == "" {
		missing = true
	}
	if s.Callsign, ok = sv.str(idxCallsign); !ok || s.Callsign == "" {
		missing = true
	}
	for idx, dst := range map[int]*float64{
		idxLatitude:     &s.Latitude,
		idxLongitude:    &s.Longitude,
		idxBaroAltitude: &s.Altitude,
		idxVelocity:     &s.Velocity,
	} {
		if *dst, ok = sv.num(idx); !ok {
			missing = true
		}
	}
	s.Missing = missing
	return s
}

func (sv StateVector) str(idx int) (string, bool) {
	if idx >= len(sv) {
		return "", false
	}
	var v *string
	if err := json.Unmarshal(sv[idx], &v); err != nil || v == nil {
		return "", false
	}
	return strings.TrimSpace(*v), true
}

func (sv StateVector) num(idx int) (float64, bool) {
	if idx >= len(sv) {
		return 0, false
	}
	var v *float64
	if err := json.Unmarshal(sv[idx], &v); err != nil || v == nil {
		return 0, false
	}
	return *v, true
}

// String summarizes the response for logs.
func (r *StatesResponse) String() string {
	return fmt.Sprintf("%d states at %s", len(r.States), r.Timestamp().Format(dataset.TimestampLayout))
}
