// Package playback implements the virtual clock that drives historical
// replay: play/pause/restart control, a validated speed multiplier, the time
// window and the selected aircraft.
package playback

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DefaultSpeed is the multiplier used until a valid one is set.
const DefaultSpeed = 1.0

// ErrInvalidSpeed is returned when a speed is not a finite number above zero.
var ErrInvalidSpeed = errors.New("speed must be a number greater than zero")

// Status is the playback status.
type Status int

const (
	Stopped Status = iota
	Playing
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case Playing:
		return "playing"
	default:
		return "stopped"
	}
}

// State is a copy of the clock's playback state.
type State struct {
	Status      Status
	CurrentTime time.Time
	Speed       float64
	Window      Window

	// Selected is the selected aircraft id; empty when nothing is selected.
	Selected string
}

// Clock owns the playback state. It has a single writer and is not safe for
// concurrent use.
type Clock struct {
	state  State
	bounds Window
}

// NewClock creates a stopped clock at the start of the dataset bounds, with
// the window set to the full bounds.
func NewClock(bounds Window) *Clock {
	return &Clock{
		state: State{
			Status:      Stopped,
			CurrentTime: bounds.Start,
			Speed:       DefaultSpeed,
			Window:      bounds,
		},
		bounds: bounds,
	}
}

// State returns a copy of the current state.
func (c *Clock) State() State {
	return c.state
}

// Bounds returns the dataset bounds the clock falls back to.
func (c *Clock) Bounds() Window {
	return c.bounds
}

// Play starts advancing the clock.
func (c *Clock) Play() {
	c.state.Status = Playing
}

// Pause stops advancing the clock.
func (c *Clock) Pause() {
	c.state.Status = Stopped
}

// Restart parses in and rewinds to the start of the window, starts playing
// and clears the selection. When in cannot be parsed the dataset bounds are
// used instead and the parse error is returned; the restart still happens.
func (c *Clock) Restart(in WindowInput) error {
	w, err := ParseWindow(in)
	if err != nil {
		w = c.bounds
	}
	c.state.Window = w
	c.state.CurrentTime = w.Start
	c.state.Status = Playing
	c.state.Selected = ""
	return err
}

// ResolveWindow parses in, falling back to the dataset bounds.
func (c *Clock) ResolveWindow(in WindowInput) (Window, error) {
	w, err := ParseWindow(in)
	if err != nil {
		return c.bounds, err
	}
	return w, nil
}

// SetSpeed sets the speed multiplier. Invalid values leave the prior speed in
// place and return ErrInvalidSpeed.
func (c *Clock) SetSpeed(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidSpeed, v)
	}
	c.state.Speed = v
	return nil
}

// SetSpeedText parses s and delegates to SetSpeed.
func (c *Clock) SetSpeedText(s string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidSpeed, s)
	}
	return c.SetSpeed(v)
}

// SetWindow replaces the window. The current time is kept unless the new
// window excludes it, in which case it moves to the window start.
func (c *Clock) SetWindow(w Window) {
	c.state.Window = w
	if !w.Contains(c.state.CurrentTime) {
		c.state.CurrentTime = w.Start
	}
}

// Tick advances the current time by Speed*delta while playing. A time past
// the window end wraps to the window start. Ticks while stopped do nothing.
// A step shorter than one nanosecond advances by one nanosecond.
func (c *Clock) Tick(delta time.Duration) {
	if c.state.Status != Playing || delta <= 0 {
		return
	}
	w := c.state.Window
	step := float64(delta) * c.state.Speed
	// Compare in float64 first; the product may not fit in a Duration.
	if step > float64(w.End.Sub(c.state.CurrentTime)) {
		c.state.CurrentTime = w.Start
		return
	}
	d := time.Duration(step)
	if d < time.Nanosecond {
		d = time.Nanosecond
	}
	next := c.state.CurrentTime.Add(d)
	if next.After(w.End) {
		next = w.Start
	}
	c.state.CurrentTime = next
}

// Select marks an aircraft as selected. An empty id is ignored.
func (c *Clock) Select(id string) {
	if id == "" {
		return
	}
	c.state.Selected = id
}
