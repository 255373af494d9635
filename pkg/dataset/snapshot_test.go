package dataset

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestSnapshotsKeepsLatestPerEntity(t *testing.T) {
	records := []FlightRecord{
		rec("b", 0, 1),
		rec("a", 5, 1),
		rec("b", 10, 2),
		rec("a", 3, 9),
	}

	got := Snapshots(records)
	want := []Snapshot{
		snapshotOf(rec("b", 10, 2)),
		snapshotOf(rec("a", 5, 1)),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("snapshots mismatch (-want +got):\n%s", diff)
	}
}

func TestSnapshotsTieBreakLaterRecordWins(t *testing.T) {
	first := rec("a", 5, 1)
	second := rec("a", 5, 2)

	got := Snapshots([]FlightRecord{first, second})
	assert.Len(t, got, 1)
	assert.Equal(t, 2.0, got[0].Latitude)
}

func TestSnapshotsIdempotent(t *testing.T) {
	records := []FlightRecord{
		rec("a", 0, 1), rec("b", 1, 1), rec("c", 2, 1),
		rec("a", 3, 2), rec("b", 3, 2), rec("a", 3, 3),
	}

	once := Snapshots(records)
	again := make([]FlightRecord, len(once))
	for i, s := range once {
		again[i] = s.Record()
	}
	if diff := cmp.Diff(once, Snapshots(again)); diff != "" {
		t.Errorf("reducer not idempotent (-first +second):\n%s", diff)
	}
}

func TestSnapshotsEmpty(t *testing.T) {
	assert.Empty(t, Snapshots(nil))
}
