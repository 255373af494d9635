package main

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unklstewy/flightmap/internal/db"
	"github.com/unklstewy/flightmap/internal/engine"
	"github.com/unklstewy/flightmap/pkg/config"
	"github.com/unklstewy/flightmap/pkg/dataset"
	"github.com/unklstewy/flightmap/pkg/view"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func init() {
	engine.SetLogger(nil)
	log.SetOutput(io.Discard)
}

func rec(id string, minutes int, lat, lon float64) dataset.FlightRecord {
	return dataset.FlightRecord{
		EntityID:  id,
		Callsign:  "CS" + id,
		Latitude:  lat,
		Longitude: lon,
		Altitude:  1000,
		Velocity:  200,
		Timestamp: t0.Add(time.Duration(minutes) * time.Minute),
	}
}

// newTestServer starts a loop that ticks every interval over a dataset
// spanning 00:00 to 01:00.
func newTestServer(t *testing.T, interval time.Duration) *httptest.Server {
	t.Helper()
	ds := dataset.NewDataset([]dataset.FlightRecord{
		rec("E1", 0, 35.0, -80.0),
		rec("E2", 5, 40.0, -75.0),
		rec("E1", 10, 35.1, -80.1),
		rec("E1", 20, 35.2, -80.2),
		rec("E2", 60, 40.5, -75.5),
	})
	loop := engine.NewLoop(engine.New(ds, engine.Options{}), engine.LoopOptions{
		Interval: interval,
		Step:     time.Minute,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go loop.Run(ctx)

	ts := httptest.NewServer(NewServer(loop, config.DefaultConfig()))
	t.Cleanup(func() {
		ts.Close()
		cancel()
	})
	return ts
}

func post(t *testing.T, ts *httptest.Server, path, body string) (int, engine.Payload) {
	t.Helper()
	resp, err := http.Post(ts.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var p engine.Payload
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&p))
	}
	return resp.StatusCode, p
}

func TestRender(t *testing.T) {
	ts := newTestServer(t, time.Hour)

	resp, err := http.Get(ts.URL + "/api/render")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var raw map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	for _, key := range []string{"entitySnapshots", "selectedTrajectory", "currentTimeLabel", "infoPanelContent", "view"} {
		assert.Contains(t, raw, key)
	}
	assert.JSONEq(t, "null", string(raw["selectedTrajectory"]))
	assert.JSONEq(t, `"2024-01-01 00:00:00"`, string(raw["currentTimeLabel"]))
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, time.Hour)

	// Any round trip through the loop guarantees a published payload.
	code, _ := post(t, ts, "/api/pause", "")
	require.Equal(t, http.StatusOK, code)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHealthReportsDatabase(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ds := dataset.NewDataset([]dataset.FlightRecord{rec("E1", 0, 35.0, -80.0)})
	loop := engine.NewLoop(engine.New(ds, engine.Options{}), engine.LoopOptions{Interval: time.Hour})
	go loop.Run(ctx)
	_, err := loop.Send(ctx, nil)
	require.NoError(t, err)

	database, err := db.Connect(config.DatabaseConfig{Driver: db.DriverSQLite, Path: ":memory:"})
	require.NoError(t, err)

	srv := NewServer(loop, config.DefaultConfig())
	srv.SetDatabase(database)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	health := func() (int, map[string]string) {
		resp, err := http.Get(ts.URL + "/healthz")
		require.NoError(t, err)
		defer resp.Body.Close()
		var body map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		return resp.StatusCode, body
	}

	code, body := health()
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["database"])

	require.NoError(t, database.Close())
	code, body = health()
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unavailable", body["database"])
}

func TestControlEndpoints(t *testing.T) {
	ts := newTestServer(t, time.Hour)

	code, p := post(t, ts, "/api/play", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "playing", p.Status)

	code, p = post(t, ts, "/api/speed", `{"value": "4"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 4.0, p.Speed)

	code, p = post(t, ts, "/api/speed", `{"value": 2.5}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 2.5, p.Speed)

	code, p = post(t, ts, "/api/speed", `{"value": "-1"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 2.5, p.Speed, "invalid speed keeps the previous value")

	code, p = post(t, ts, "/api/style", `{"style": "carto-darkmatter"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, view.StyleCartoDarkMatter, p.View.MapStyle)

	code, p = post(t, ts, "/api/pause", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "stopped", p.Status)
}

func TestWindowAndRestart(t *testing.T) {
	ts := newTestServer(t, time.Hour)

	code, p := post(t, ts, "/api/window", `{"start_date":"2024-01-01","start_time":"00:05:00","end_date":"2024-01-01","end_time":"00:30:00"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "2024-01-01 00:05:00", p.CurrentTimeLabel)
	assert.Equal(t, "stopped", p.Status)
	require.Len(t, p.Snapshots, 1)
	assert.Equal(t, "E2", p.Snapshots[0].EntityID)

	code, p = post(t, ts, "/api/select", `{"entity_id":"E2"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "E2", p.Selected)

	code, p = post(t, ts, "/api/restart", `{"start_date":"2024-01-01","start_time":"00:10:00","end_date":"2024-01-01","end_time":"00:30:00"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "playing", p.Status)
	assert.Equal(t, "2024-01-01 00:10:00", p.CurrentTimeLabel)
	assert.Empty(t, p.Selected)
	assert.Equal(t, engine.MessageNoSelection, p.Info.Message)

	// An empty restart falls back to the dataset bounds.
	code, p = post(t, ts, "/api/restart", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "2024-01-01 00:00:00", p.CurrentTimeLabel)
}

func TestSelectWithoutData(t *testing.T) {
	ts := newTestServer(t, time.Hour)

	code, p := post(t, ts, "/api/select", `{"entity_id":"E2"}`)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, p.Trajectory.NoData)
	assert.Equal(t, engine.MessageNoData, p.Info.Message)
}

func TestCameraIsCarried(t *testing.T) {
	ts := newTestServer(t, time.Hour)

	code, p := post(t, ts, "/api/camera", `{"zoom": 8, "center": {"lat": 35, "lon": -80}, "mapStyle": "ignored"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 8.0, p.View.Zoom)
	assert.Equal(t, view.LatLon{Lat: 35, Lon: -80}, p.View.Center)
	assert.Equal(t, view.StyleOpenStreetMap, p.View.MapStyle, "style comes from the style control")

	code, p = post(t, ts, "/api/play", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 8.0, p.View.Zoom)
}

func TestBadRequests(t *testing.T) {
	ts := newTestServer(t, time.Hour)

	for _, path := range []string{"/api/speed", "/api/window", "/api/style", "/api/select", "/api/camera", "/api/restart"} {
		t.Run(path, func(t *testing.T) {
			code, _ := post(t, ts, path, `{not json`)
			assert.Equal(t, http.StatusBadRequest, code)
		})
	}
}

func TestWebSocketPushesTicks(t *testing.T) {
	ts := newTestServer(t, 20*time.Millisecond)

	code, _ := post(t, ts, "/api/play", "")
	require.Equal(t, http.StatusOK, code)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var first, second engine.Payload
	require.NoError(t, conn.ReadJSON(&first))
	require.NoError(t, conn.ReadJSON(&second))

	assert.Equal(t, "playing", second.Status)
	assert.NotEqual(t, first.CurrentTimeLabel, second.CurrentTimeLabel)
}
