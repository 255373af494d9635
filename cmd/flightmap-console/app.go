package main

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/unklstewy/flightmap/internal/engine"
	"github.com/unklstewy/flightmap/internal/mapview"
	"github.com/unklstewy/flightmap/pkg/playback"
	"github.com/unklstewy/flightmap/pkg/view"
)

// Form field labels
const (
	labelStartDate = "Start date"
	labelStartTime = "Start time"
	labelEndDate   = "End date"
	labelEndTime   = "End time"
	labelSpeed     = "Speed"
	labelStyle     = "Map style"
)

const (
	clickRadius = 3
	panStep     = 0.1
	zoomStep    = 1.5
)

// App represents the main application
type App struct {
	loop   *engine.Loop
	styles []string

	// UI components
	tviewApp   *tview.Application
	mapPanel   *MapPanel
	info       *tview.TextView
	form       *tview.Form
	logs       *LogManager
	rootLayout *tview.Flex

	// State
	mu      sync.RWMutex
	payload engine.Payload
	ctx     context.Context
}

// NewApp creates a new application instance around a loop that is not yet
// running.
func NewApp(loop *engine.Loop, inputs playback.WindowInput, speed float64, style string, styles []string, logs *LogManager) *App {
	if len(styles) == 0 {
		styles = view.Styles
	}
	a := &App{
		loop:   loop,
		styles: styles,
		logs:   logs,
		ctx:    context.Background(),
		payload: engine.Payload{
			View: view.Default(style),
		},
	}
	a.setupUI(inputs, speed, style)
	return a
}

// setupUI initializes the user interface
func (a *App) setupUI(inputs playback.WindowInput, speed float64, style string) {
	a.tviewApp = tview.NewApplication()
	a.mapPanel = NewMapPanel(a)

	a.info = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false)
	a.info.SetBorder(true).SetTitle(" Flight Info ")

	a.createForm(inputs, speed, style)

	sidebar := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.form, 17, 0, false).
		AddItem(a.info, 0, 2, false).
		AddItem(a.logs.GetView(), 0, 2, false)

	// Main layout: map (70%) + sidebar (30%)
	a.rootLayout = tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(a.mapPanel, 0, 7, true).
		AddItem(sidebar, 0, 3, false)

	a.tviewApp.SetRoot(a.rootLayout, true).EnableMouse(true)
	a.tviewApp.SetInputCapture(a.handleKeyboard)
	a.show(a.payload)
}

// createForm builds the playback controls
func (a *App) createForm(inputs playback.WindowInput, speed float64, style string) {
	a.form = tview.NewForm().
		AddInputField(labelStartDate, inputs.StartDate, 10, nil, nil).
		AddInputField(labelStartTime, inputs.StartTime, 10, nil, nil).
		AddInputField(labelEndDate, inputs.EndDate, 10, nil, nil).
		AddInputField(labelEndTime, inputs.EndTime, 10, nil, nil).
		AddInputField(labelSpeed, fmt.Sprintf("%g", speed), 10, nil, nil).
		AddDropDown(labelStyle, a.styles, styleIndex(a.styles, style), nil).
		AddButton("Play", func() { a.dispatch(engine.Play{}) }).
		AddButton("Pause", func() { a.dispatch(engine.Pause{}) }).
		AddButton("Restart", func() { a.dispatch(engine.Restart{Window: a.windowInput()}) }).
		AddButton("Apply", a.applyForm)
	a.form.SetBorder(true).SetTitle(" Playback ")

	// Set after construction so building the form emits no event.
	a.dropDown().SetSelectedFunc(func(text string, _ int) {
		a.dispatch(engine.StyleChange{Style: text})
	})
}

func styleIndex(styles []string, style string) int {
	for i, s := range styles {
		if s == style {
			return i
		}
	}
	return 0
}

func (a *App) inputField(label string) *tview.InputField {
	return a.form.GetFormItemByLabel(label).(*tview.InputField)
}

func (a *App) dropDown() *tview.DropDown {
	return a.form.GetFormItemByLabel(labelStyle).(*tview.DropDown)
}

// windowInput reads the four window fields.
func (a *App) windowInput() playback.WindowInput {
	return playback.WindowInput{
		StartDate: a.inputField(labelStartDate).GetText(),
		StartTime: a.inputField(labelStartTime).GetText(),
		EndDate:   a.inputField(labelEndDate).GetText(),
		EndTime:   a.inputField(labelEndTime).GetText(),
	}
}

// applyForm sends the edited window and speed.
func (a *App) applyForm() {
	window := a.windowInput()
	speed := a.inputField(labelSpeed).GetText()
	go func() {
		a.send(engine.WindowChange{Window: window})
		a.send(engine.SpeedChange{Value: speed})
	}()
}

// dispatch sends ev without blocking the UI goroutine.
func (a *App) dispatch(ev engine.Event) {
	go a.send(ev)
}

// send delivers ev to the loop and waits for its payload. Subscribers see
// the same payload, so the result is only used by callers that need it.
func (a *App) send(ev engine.Event) (engine.Payload, error) {
	p, err := a.loop.Send(a.ctx, ev)
	if err != nil {
		a.logs.Error("Event %T failed: %v", ev, err)
	}
	return p, err
}

// setCamera sends a new camera without blocking the UI goroutine.
func (a *App) setCamera(v view.State) {
	go func() {
		if _, err := a.loop.SetCamera(a.ctx, v); err != nil {
			a.logs.Error("Camera update failed: %v", err)
		}
	}()
}

// Payload returns the last payload shown.
func (a *App) Payload() engine.Payload {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.payload
}

// show stores p and updates the text panels. It must run on the UI
// goroutine once the app is running.
func (a *App) show(p engine.Payload) {
	a.mu.Lock()
	a.payload = p
	a.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "[yellow]%s[-]\n", p.CurrentTimeLabel)
	fmt.Fprintf(&b, "[gray]Status:[-] [white]%s[-]  [gray]Speed:[-] [white]x%g[-]\n", p.Status, p.Speed)
	fmt.Fprintf(&b, "[gray]Aircraft:[-] [white]%d visible[-]  [gray]Zoom:[-] [white]%.1fx[-]\n\n", len(p.Snapshots), p.View.Zoom)
	for _, line := range p.Info.Lines() {
		b.WriteString(tview.Escape(line))
		b.WriteString("\n")
	}
	a.info.SetText(b.String())
}

// handleKeyboard handles global keys
func (a *App) handleKeyboard(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyCtrlC:
		a.Stop()
		return nil
	case tcell.KeyF2:
		// Toggle focus between map and controls
		if a.mapPanel.HasFocus() {
			a.tviewApp.SetFocus(a.form)
		} else {
			a.tviewApp.SetFocus(a.mapPanel)
		}
		return nil
	}
	return event
}

// handleMapKey handles keys while the map has focus.
func (a *App) handleMapKey(event *tcell.EventKey) {
	cam := a.Payload().View

	switch event.Key() {
	case tcell.KeyLeft:
		a.setCamera(mapview.Pan(cam, -panStep, 0))
		return
	case tcell.KeyRight:
		a.setCamera(mapview.Pan(cam, panStep, 0))
		return
	case tcell.KeyUp:
		a.setCamera(mapview.Pan(cam, 0, panStep))
		return
	case tcell.KeyDown:
		a.setCamera(mapview.Pan(cam, 0, -panStep))
		return
	case tcell.KeyTab:
		if id := nextAircraft(a.Payload()); id != "" {
			a.dispatch(engine.Select{EntityID: id})
		}
		return
	}

	switch event.Rune() {
	case 'q':
		a.Stop()
	case 'p':
		a.dispatch(engine.Play{})
	case ' ':
		a.dispatch(engine.Pause{})
	case 'r':
		a.dispatch(engine.Restart{Window: a.windowInput()})
	case 'm':
		next := view.Next(a.Payload().View.MapStyle)
		a.dropDown().SetCurrentOption(styleIndex(a.styles, next))
	case '+', '=':
		a.setCamera(mapview.Zoom(cam, zoomStep))
	case '-':
		a.setCamera(mapview.Zoom(cam, 1/zoomStep))
	case '0':
		a.setCamera(view.Default(cam.MapStyle))
	case 'c':
		for _, s := range a.Payload().Snapshots {
			if s.EntityID == a.Payload().Selected {
				a.setCamera(mapview.CenterOn(cam, s.Latitude, s.Longitude))
			}
		}
	}
}

// nextAircraft returns the aircraft after the selected one, wrapping around.
func nextAircraft(p engine.Payload) string {
	if len(p.Snapshots) == 0 {
		return ""
	}
	for i, s := range p.Snapshots {
		if s.EntityID == p.Selected {
			return p.Snapshots[(i+1)%len(p.Snapshots)].EntityID
		}
	}
	return p.Snapshots[0].EntityID
}

// Run starts the loop and the application. It returns when the UI stops.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	a.ctx = ctx

	a.logs.SetRedraw(func() {
		a.tviewApp.QueueUpdateDraw(a.logs.Refresh)
	})

	payloads, unsubscribe := a.loop.Subscribe()
	defer unsubscribe()
	go func() {
		for p := range payloads {
			p := p
			a.tviewApp.QueueUpdateDraw(func() { a.show(p) })
		}
	}()

	go func() {
		if err := a.loop.Run(ctx); err != nil && ctx.Err() == nil {
			a.logs.Error("Render loop stopped: %v", err)
		}
	}()

	a.logs.Info("Playback console started (F2: switch focus, q: quit)")
	return a.tviewApp.Run()
}

// Stop stops the application
func (a *App) Stop() {
	a.tviewApp.Stop()
}
