package dataset

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func at(minutes int) time.Time {
	return base.Add(time.Duration(minutes) * time.Minute)
}

func rec(id string, minutes int, lat float64) FlightRecord {
	return FlightRecord{
		EntityID:  id,
		Callsign:  "CS" + id,
		Latitude:  lat,
		Longitude: -lat,
		Altitude:  1000,
		Velocity:  200,
		Timestamp: at(minutes),
	}
}

func TestNewDatasetSortsWithoutMutatingInput(t *testing.T) {
	in := []FlightRecord{rec("b", 20, 2), rec("a", 0, 1), rec("c", 10, 3)}
	ds := NewDataset(in)

	require.Equal(t, 3, ds.Len())
	assert.Equal(t, "b", in[0].EntityID, "input slice must not be reordered")

	got := ds.Records()
	for i := 1; i < len(got); i++ {
		assert.False(t, got[i].Timestamp.Before(got[i-1].Timestamp))
	}
	assert.Equal(t, 3, ds.EntityCount())

	start, end := ds.Bounds()
	assert.Equal(t, at(0), start)
	assert.Equal(t, at(20), end)
}

func TestBoundsEmptyDataset(t *testing.T) {
	start, end := NewDataset(nil).Bounds()
	assert.Equal(t, int64(0), start.Unix())
	assert.Equal(t, int64(0), end.Unix())
}

func TestFilter(t *testing.T) {
	ds := NewDataset([]FlightRecord{
		rec("a", 0, 1), rec("b", 5, 1), rec("a", 10, 2), rec("b", 15, 2), rec("a", 20, 3),
	})

	tests := []struct {
		name    string
		current time.Time
		start   time.Time
		end     time.Time
		want    int
	}{
		{"Current before window", at(-1), at(0), at(60), 0},
		{"Inclusive lower bound", at(0), at(0), at(60), 1},
		{"Current limits", at(12), at(0), at(60), 3},
		{"End limits", at(60), at(0), at(10), 3},
		{"Start excludes early records", at(60), at(6), at(60), 3},
		{"Inverted window", at(30), at(30), at(10), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ds.Filter(tt.current, tt.start, tt.end)
			assert.Len(t, got, tt.want)
			for _, r := range got {
				assert.False(t, r.Timestamp.Before(tt.start))
				assert.False(t, r.Timestamp.After(tt.end))
				assert.False(t, r.Timestamp.After(tt.current))
			}
		})
	}
}

func TestFilterMonotonicInCurrentTime(t *testing.T) {
	var records []FlightRecord
	for i := 0; i < 60; i += 3 {
		records = append(records, rec("a", i, float64(i)), rec("b", i+1, float64(i)))
	}
	ds := NewDataset(records)

	prev := -1
	for m := -5; m <= 70; m++ {
		n := len(ds.Filter(at(m), at(0), at(60)))
		require.GreaterOrEqual(t, n, prev, "filter shrank at minute %d", m)
		prev = n
	}
}

func TestTrajectory(t *testing.T) {
	ds := NewDataset([]FlightRecord{
		rec("E1", 0, 10), rec("E2", 5, 50), rec("E1", 10, 11), rec("E1", 20, 12),
	})

	t.Run("Only points at or before current", func(t *testing.T) {
		traj, err := ds.Trajectory("E1", at(15))
		require.NoError(t, err)
		want := Trajectory{
			{Latitude: 10, Longitude: -10, Altitude: 1000, Timestamp: at(0)},
			{Latitude: 11, Longitude: -11, Altitude: 1000, Timestamp: at(10)},
		}
		if diff := cmp.Diff(want, traj); diff != "" {
			t.Errorf("trajectory mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Strictly ascending", func(t *testing.T) {
		traj, err := ds.Trajectory("E1", at(60))
		require.NoError(t, err)
		require.Len(t, traj, 3)
		for i := 1; i < len(traj); i++ {
			assert.True(t, traj[i].Timestamp.After(traj[i-1].Timestamp))
		}
	})

	t.Run("No data before first sample", func(t *testing.T) {
		_, err := ds.Trajectory("E1", at(-1))
		assert.ErrorIs(t, err, ErrNoTrajectory)
	})

	t.Run("Unknown entity", func(t *testing.T) {
		_, err := ds.Trajectory("nope", at(60))
		assert.ErrorIs(t, err, ErrNoTrajectory)
	})
}

func TestTrajectoryCollapsesDuplicateTimestamps(t *testing.T) {
	ds := NewDataset([]FlightRecord{rec("a", 0, 1), rec("a", 0, 2), rec("a", 5, 3)})

	traj, err := ds.Trajectory("a", at(5))
	require.NoError(t, err)
	require.Len(t, traj, 2)
	assert.Equal(t, 2.0, traj[0].Latitude)
}

func TestLatest(t *testing.T) {
	ds := NewDataset([]FlightRecord{rec("a", 0, 1), rec("a", 10, 2)})

	r, ok := ds.Latest("a", at(9))
	require.True(t, ok)
	assert.Equal(t, 1.0, r.Latitude)

	_, ok = ds.Latest("a", at(-1))
	assert.False(t, ok)
}

func TestDistanceNM(t *testing.T) {
	traj := Trajectory{{Latitude: 0}, {Latitude: 1}, {Latitude: 2}}
	assert.InDelta(t, 120.0, traj.DistanceNM(), 0.2)
	assert.Zero(t, Trajectory(nil).DistanceNM())
}
