package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unklstewy/flightmap/internal/engine"
	"github.com/unklstewy/flightmap/pkg/dataset"
	"github.com/unklstewy/flightmap/pkg/view"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func init() {
	engine.SetLogger(nil)
}

func testApp(t *testing.T) (*App, *engine.Loop) {
	t.Helper()
	ds := dataset.NewDataset([]dataset.FlightRecord{
		{EntityID: "E1", Callsign: "CSE1", Latitude: 35, Longitude: -80, Timestamp: t0},
		{EntityID: "E2", Callsign: "CSE2", Latitude: 40, Longitude: -75, Timestamp: t0.Add(10 * time.Minute)},
		{EntityID: "E1", Callsign: "CSE1", Latitude: 35.1, Longitude: -80.1, Timestamp: t0.Add(20 * time.Minute)},
	})
	orch := engine.New(ds, engine.Options{})
	loop := engine.NewLoop(orch, engine.LoopOptions{Interval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go loop.Run(ctx)

	app := NewApp(loop, orch.Inputs(), 1, orch.Style(), nil, NewLogManager(50))
	app.ctx = ctx
	return app, loop
}

func TestLogManagerWrite(t *testing.T) {
	lm := NewLogManager(2)

	n, err := lm.Write([]byte("first\n✗ failed [x]\nthird\n"))
	require.NoError(t, err)
	assert.Equal(t, 27, n)

	msgs := lm.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, LogLevelError, msgs[0].Level)
	assert.Equal(t, LogLevelInfo, msgs[1].Level)
	assert.Equal(t, "third", msgs[1].Message)
	assert.Contains(t, lm.textView.GetText(true), "third")
}

func TestLogManagerRedraw(t *testing.T) {
	lm := NewLogManager(10)
	calls := 0
	lm.SetRedraw(func() { calls++ })

	lm.Warn("speed %s rejected", "abc")
	assert.Equal(t, 1, calls)
	assert.Empty(t, lm.textView.GetText(true), "text is only rewritten by the redraw")
}

func TestAppSendAndShow(t *testing.T) {
	app, _ := testApp(t)

	p, err := app.send(engine.Play{})
	require.NoError(t, err)
	app.show(p)
	assert.Equal(t, "playing", app.Payload().Status)
	assert.Contains(t, app.info.GetText(true), "Status: playing")
	assert.Contains(t, app.info.GetText(true), engine.MessageNoSelection)

	app.inputField(labelStartTime).SetText("00:05:00")
	p, err = app.send(engine.WindowChange{Window: app.windowInput()})
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01 00:05:00", p.CurrentTimeLabel)
	assert.Empty(t, p.Snapshots)
}

func TestAppSelectShowsFlightInfo(t *testing.T) {
	app, _ := testApp(t)

	p, err := app.send(engine.Select{EntityID: "E1"})
	require.NoError(t, err)
	app.show(p)
	assert.Contains(t, app.info.GetText(true), "Flight: CSE1")
}

func TestStyleDropDownDispatches(t *testing.T) {
	app, loop := testApp(t)

	app.dropDown().SetCurrentOption(2)
	assert.Eventually(t, func() bool {
		p, ok := loop.Latest()
		return ok && p.View.MapStyle == view.StyleCartoDarkMatter
	}, time.Second, 10*time.Millisecond)
}

func TestNextAircraft(t *testing.T) {
	snaps := []dataset.Snapshot{{EntityID: "A"}, {EntityID: "B"}}
	tests := []struct {
		name     string
		payload  engine.Payload
		expected string
	}{
		{"empty", engine.Payload{}, ""},
		{"no selection", engine.Payload{Snapshots: snaps}, "A"},
		{"advance", engine.Payload{Snapshots: snaps, Selected: "A"}, "B"},
		{"wrap", engine.Payload{Snapshots: snaps, Selected: "B"}, "A"},
		{"selection not visible", engine.Payload{Snapshots: snaps, Selected: "Z"}, "A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, nextAircraft(tt.payload))
		})
	}
}

func TestStyleIndex(t *testing.T) {
	assert.Equal(t, 1, styleIndex(view.Styles, view.StyleCartoPositron))
	assert.Equal(t, 0, styleIndex(view.Styles, "satellite"))
}
