package playback

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Layouts of the control fields.
const (
	DateLayout  = "2006-01-02"
	TimeLayout  = "15:04:05"
	LabelLayout = DateLayout + " " + TimeLayout
)

// ErrInvalidWindow is returned when window bounds cannot be parsed or end
// before they start.
var ErrInvalidWindow = errors.New("invalid time window")

// Window is the inclusive [Start, End] range of records ever considered.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t lies within the window, bounds included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Duration returns End - Start.
func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// WindowInput holds the raw text of the four date/time control fields.
type WindowInput struct {
	StartDate string
	StartTime string
	EndDate   string
	EndTime   string
}

// InputFor formats a window back into control field text.
func InputFor(w Window) WindowInput {
	return WindowInput{
		StartDate: w.Start.UTC().Format(DateLayout),
		StartTime: w.Start.UTC().Format(TimeLayout),
		EndDate:   w.End.UTC().Format(DateLayout),
		EndTime:   w.End.UTC().Format(TimeLayout),
	}
}

// ParseWindow parses the control fields as UTC. The returned error wraps
// ErrInvalidWindow.
func ParseWindow(in WindowInput) (Window, error) {
	start, err := parseBound(in.StartDate, in.StartTime)
	if err != nil {
		return Window{}, fmt.Errorf("%w: start: %v", ErrInvalidWindow, err)
	}
	end, err := parseBound(in.EndDate, in.EndTime)
	if err != nil {
		return Window{}, fmt.Errorf("%w: end: %v", ErrInvalidWindow, err)
	}
	if end.Before(start) {
		return Window{}, fmt.Errorf("%w: end %s is before start %s",
			ErrInvalidWindow, end.Format(LabelLayout), start.Format(LabelLayout))
	}
	return Window{Start: start, End: end}, nil
}

func parseBound(date, clock string) (time.Time, error) {
	text := strings.TrimSpace(date) + " " + strings.TrimSpace(clock)
	return time.ParseInLocation(LabelLayout, text, time.UTC)
}
