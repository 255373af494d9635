package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/unklstewy/flightmap/internal/engine"
	"github.com/unklstewy/flightmap/internal/mapview"
	"github.com/unklstewy/flightmap/pkg/playback"
	"github.com/unklstewy/flightmap/pkg/view"
)

// Layout
const (
	infoWidth    = 36
	headerHeight = 2
	footerHeight = 3
	clickRadius  = 3
	panStep      = 0.1
	zoomStep     = 1.5
)

// Edit field order
const (
	fieldStartDate = iota
	fieldStartTime
	fieldEndDate
	fieldEndTime
	fieldSpeed
	fieldCount
)

var fieldLabels = [fieldCount]string{"Start date", "Start time", "End date", "End time", "Speed"}

type tickMsg time.Time

type model struct {
	orch     *engine.Orchestrator
	interval time.Duration
	step     time.Duration

	payload engine.Payload
	camera  *view.State

	width  int
	height int

	editing bool
	focus   int
	fields  [fieldCount]textinput.Model
}

func newModel(orch *engine.Orchestrator, interval, step time.Duration) model {
	m := model{
		orch:     orch,
		interval: interval,
		step:     step,
		width:    100,
		height:   30,
	}
	for i := range m.fields {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 10
		ti.Width = 10
		m.fields[i] = ti
	}
	m.fields[fieldStartDate].Placeholder = playback.DateLayout
	m.fields[fieldEndDate].Placeholder = playback.DateLayout
	m.fields[fieldStartTime].Placeholder = playback.TimeLayout
	m.fields[fieldEndTime].Placeholder = playback.TimeLayout
	m.fields[fieldSpeed].Placeholder = "1"

	m.dispatch(nil)
	m.loadFields()
	return m
}

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Init() tea.Cmd {
	return tick(m.interval)
}

// dispatch runs one render cycle and carries the camera forward.
func (m *model) dispatch(ev engine.Event) {
	m.payload = m.orch.Handle(ev, m.camera)
	v := m.payload.View
	m.camera = &v
}

// setCamera replaces the camera and re-renders.
func (m *model) setCamera(v view.State) {
	m.camera = &v
	m.dispatch(nil)
}

// loadFields copies the stored window inputs and speed into the edit fields.
func (m *model) loadFields() {
	in := m.orch.Inputs()
	m.fields[fieldStartDate].SetValue(in.StartDate)
	m.fields[fieldStartTime].SetValue(in.StartTime)
	m.fields[fieldEndDate].SetValue(in.EndDate)
	m.fields[fieldEndTime].SetValue(in.EndTime)
	m.fields[fieldSpeed].SetValue(fmt.Sprintf("%g", m.payload.Speed))
}

func (m model) windowInput() playback.WindowInput {
	return playback.WindowInput{
		StartDate: m.fields[fieldStartDate].Value(),
		StartTime: m.fields[fieldStartTime].Value(),
		EndDate:   m.fields[fieldEndDate].Value(),
		EndTime:   m.fields[fieldEndTime].Value(),
	}
}

func (m model) mapSize() (int, int) {
	w := m.width - infoWidth - 1
	h := m.height - headerHeight - footerHeight
	if w < 10 {
		w = 10
	}
	if h < 5 {
		h = 5
	}
	return w, h
}

func (m model) projection() mapview.Projection {
	w, h := m.mapSize()
	return mapview.NewProjection(m.payload.View, w, h)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tickMsg:
		m.dispatch(engine.Tick{Delta: m.step})
		return m, tick(m.interval)

	case tea.MouseMsg:
		if m.editing || msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		if id, ok := mapview.Nearest(m.projection(), m.payload.Snapshots, msg.X, msg.Y-headerHeight, clickRadius); ok {
			m.dispatch(engine.Select{EntityID: id})
		}
		return m, nil

	case tea.KeyMsg:
		if m.editing {
			return m.updateEditing(msg)
		}
		return m.updateNormal(msg)
	}
	return m, nil
}

func (m model) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "p":
		m.dispatch(engine.Play{})
	case " ":
		m.dispatch(engine.Pause{})
	case "r":
		m.dispatch(engine.Restart{Window: m.orch.Inputs()})
	case "tab":
		if id := m.nextAircraft(); id != "" {
			m.dispatch(engine.Select{EntityID: id})
		}
	case "c":
		m.centerOnSelection()
	case "m":
		m.dispatch(engine.StyleChange{Style: view.Next(m.orch.Style())})
	case "left", "h":
		m.setCamera(mapview.Pan(*m.camera, -panStep, 0))
	case "right", "l":
		m.setCamera(mapview.Pan(*m.camera, panStep, 0))
	case "up", "k":
		m.setCamera(mapview.Pan(*m.camera, 0, panStep))
	case "down", "j":
		m.setCamera(mapview.Pan(*m.camera, 0, -panStep))
	case "+", "=":
		m.setCamera(mapview.Zoom(*m.camera, zoomStep))
	case "-", "_":
		m.setCamera(mapview.Zoom(*m.camera, 1/zoomStep))
	case "0":
		m.setCamera(view.Default(m.orch.Style()))
	case "e":
		m.loadFields()
		m.editing = true
		m.focus = fieldStartDate
		return m, m.fields[m.focus].Focus()
	}
	return m, nil
}

func (m model) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.fields[m.focus].Blur()
		m.editing = false
		return m, nil
	case "enter":
		m.fields[m.focus].Blur()
		m.editing = false
		m.dispatch(engine.WindowChange{Window: m.windowInput()})
		m.dispatch(engine.SpeedChange{Value: m.fields[fieldSpeed].Value()})
		m.loadFields()
		return m, nil
	case "tab", "down":
		return m, m.moveFocus(1)
	case "shift+tab", "up":
		return m, m.moveFocus(-1)
	}

	var cmd tea.Cmd
	m.fields[m.focus], cmd = m.fields[m.focus].Update(msg)
	return m, cmd
}

func (m *model) moveFocus(delta int) tea.Cmd {
	m.fields[m.focus].Blur()
	m.focus = (m.focus + delta + fieldCount) % fieldCount
	return m.fields[m.focus].Focus()
}

// nextAircraft returns the aircraft after the selected one in snapshot
// order, wrapping around.
func (m model) nextAircraft() string {
	snaps := m.payload.Snapshots
	if len(snaps) == 0 {
		return ""
	}
	for i, s := range snaps {
		if s.EntityID == m.payload.Selected {
			return snaps[(i+1)%len(snaps)].EntityID
		}
	}
	return snaps[0].EntityID
}

func (m *model) centerOnSelection() {
	for _, s := range m.payload.Snapshots {
		if s.EntityID == m.payload.Selected {
			m.setCamera(mapview.CenterOn(*m.camera, s.Latitude, s.Longitude))
			return
		}
	}
}

func (m model) View() string {
	var s strings.Builder

	pal := paletteFor(m.payload.View.MapStyle)

	title := titleStyle.Render("FLIGHTMAP PLAYBACK")
	clock := clockStyle.Render(m.payload.CurrentTimeLabel)
	status := statusStyle.Render(fmt.Sprintf("%s  x%g  %s", strings.ToUpper(m.payload.Status), m.payload.Speed, m.payload.View.MapStyle))
	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, clock, "  ", title, "  ", status))
	s.WriteString("\n\n")

	scene := mapview.Scene{
		Snapshots:  m.payload.Snapshots,
		Trajectory: m.payload.Trajectory.Points,
		Selected:   m.payload.Selected,
	}
	grid := mapview.Render(m.projection(), scene)

	side := lipgloss.JoinVertical(lipgloss.Left, m.renderInfo(), "", m.renderFields())
	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, pal.render(grid), " ", side))
	s.WriteString("\n")

	s.WriteString(helpStyle.Render(m.help()))
	return s.String()
}

func (m model) renderInfo() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Flight Info"))
	b.WriteString("\n")
	for _, line := range m.payload.Info.Lines() {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString(fmt.Sprintf("\n%d aircraft visible", len(m.payload.Snapshots)))
	return panelStyle.Width(infoWidth - 2).Render(b.String())
}

func (m model) renderFields() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Playback Window"))
	for i := range m.fields {
		b.WriteString("\n")
		label := labelStyle.Render(fmt.Sprintf("%-11s", fieldLabels[i]))
		value := m.fields[i].View()
		if !m.editing {
			value = m.fields[i].Value()
		}
		b.WriteString(label + " " + value)
	}
	return panelStyle.Width(infoWidth - 2).Render(b.String())
}

func (m model) help() string {
	if m.editing {
		return "TAB/↑↓: Next field  ENTER: Apply  ESC: Cancel"
	}
	return "p: Play  SPACE: Pause  r: Restart  TAB/click: Select  c: Center  m: Style\n" +
		"←↑↓→: Pan  +/-: Zoom  0: Reset view  e: Edit window/speed  q: Quit"
}
