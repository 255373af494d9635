package engine

import (
	"time"

	"github.com/unklstewy/flightmap/pkg/playback"
)

// Event is one control input delivered to the orchestrator. The set of
// events is closed; see the types below.
type Event interface {
	event()
}

// Tick advances the virtual clock by Delta times the playback speed.
type Tick struct {
	Delta time.Duration
}

// Play resumes playback.
type Play struct{}

// Pause stops playback.
type Pause struct{}

// Restart applies Window, rewinds to its start, plays and clears the
// selection.
type Restart struct {
	Window playback.WindowInput
}

// SpeedChange carries the raw text of the speed field.
type SpeedChange struct {
	Value string
}

// WindowChange carries edited window fields without restarting.
type WindowChange struct {
	Window playback.WindowInput
}

// StyleChange selects a map style. The value is not validated.
type StyleChange struct {
	Style string
}

// Select selects an aircraft. An empty EntityID is ignored.
type Select struct {
	EntityID string
}

func (Tick) event()         {}
func (Play) event()         {}
func (Pause) event()        {}
func (Restart) event()      {}
func (SpeedChange) event()  {}
func (WindowChange) event() {}
func (StyleChange) event()  {}
func (Select) event()       {}
