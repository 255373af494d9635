// Package engine runs the render cycle: it applies one control event to the
// playback clock, queries the dataset as of the new virtual time and
// assembles the payload the front ends draw.
package engine

import (
	"errors"
	"time"

	"github.com/unklstewy/flightmap/pkg/dataset"
	"github.com/unklstewy/flightmap/pkg/playback"
	"github.com/unklstewy/flightmap/pkg/view"
)

// Options configures a new Orchestrator.
type Options struct {
	// Speed is the initial playback speed; values <= 0 keep the default.
	Speed float64

	// MapStyle is the initial map style.
	MapStyle string
}

// Orchestrator owns the playback clock for one dataset. Handle must not be
// called concurrently; hosts serialize events.
type Orchestrator struct {
	ds     *dataset.Dataset
	clock  *playback.Clock
	inputs playback.WindowInput
	style  string
}

// New creates an orchestrator with a stopped clock at the start of ds.
func New(ds *dataset.Dataset, opts Options) *Orchestrator {
	start, end := ds.Bounds()
	bounds := playback.Window{Start: start, End: end}

	clock := playback.NewClock(bounds)
	if opts.Speed > 0 {
		if err := clock.SetSpeed(opts.Speed); err != nil {
			Logf("engine: ignoring initial speed: %v", err)
		}
	}
	style := opts.MapStyle
	if style == "" {
		style = view.StyleOpenStreetMap
	}

	return &Orchestrator{
		ds:     ds,
		clock:  clock,
		inputs: playback.InputFor(bounds),
		style:  style,
	}
}

// State returns the current playback state.
func (o *Orchestrator) State() playback.State {
	return o.clock.State()
}

// Inputs returns the stored window control fields.
func (o *Orchestrator) Inputs() playback.WindowInput {
	return o.inputs
}

// Style returns the current map style.
func (o *Orchestrator) Style() string {
	return o.style
}

// Dataset returns the replayed dataset.
func (o *Orchestrator) Dataset() *dataset.Dataset {
	return o.ds
}

// Handle applies ev and renders the resulting cycle. A nil event re-renders
// without changing state. prev is the view of the previous cycle, nil on the
// first render.
func (o *Orchestrator) Handle(ev Event, prev *view.State) Payload {
	inputsChanged := o.apply(ev)

	w, err := o.clock.ResolveWindow(o.inputs)
	if err != nil && inputsChanged {
		Logf("engine: %v; using dataset bounds", err)
	}
	o.clock.SetWindow(w)

	return o.render(prev)
}

// apply dispatches one event to the clock. It reports whether the window
// control fields changed.
func (o *Orchestrator) apply(ev Event) bool {
	switch e := ev.(type) {
	case nil:
	case Tick:
		o.clock.Tick(e.Delta)
	case Play:
		o.clock.Play()
	case Pause:
		o.clock.Pause()
	case Restart:
		o.inputs = e.Window
		// The window error is logged by Handle.
		_ = o.clock.Restart(e.Window)
		return true
	case SpeedChange:
		if err := o.clock.SetSpeedText(e.Value); err != nil {
			Logf("engine: %v; keeping speed %g", err, o.clock.State().Speed)
		}
	case WindowChange:
		o.inputs = e.Window
		return true
	case StyleChange:
		o.style = e.Style
	case Select:
		o.clock.Select(e.EntityID)
	default:
		Logf("engine: ignoring unknown event %T", ev)
	}
	return false
}

func (o *Orchestrator) render(prev *view.State) Payload {
	st := o.clock.State()

	visible := o.ds.Filter(st.CurrentTime, st.Window.Start, st.Window.End)
	snapshots := dataset.Snapshots(visible)
	if snapshots == nil {
		snapshots = []dataset.Snapshot{}
	}

	p := Payload{
		Snapshots:        snapshots,
		CurrentTimeLabel: st.CurrentTime.UTC().Format(playback.LabelLayout),
		Info:             Info{Message: MessageNoSelection},
		View:             view.Preserve(prev, o.style),
		Status:           st.Status.String(),
		Speed:            st.Speed,
		Selected:         st.Selected,
	}

	if st.Selected != "" {
		o.renderSelection(&p, st.Selected, st.CurrentTime)
	}
	return p
}

func (o *Orchestrator) renderSelection(p *Payload, id string, current time.Time) {
	traj, err := o.ds.Trajectory(id, current)
	if errors.Is(err, dataset.ErrNoTrajectory) {
		p.Trajectory = SelectedTrajectory{NoData: true}
		p.Info = Info{Message: MessageNoData}
		return
	}

	rec, _ := o.ds.Latest(id, current)
	p.Trajectory = SelectedTrajectory{Points: traj}
	p.Info = Info{Flight: flightInfo(rec, traj)}
}
