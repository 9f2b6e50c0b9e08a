package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"

	"github.com/gwillem/omnibot/pkg/robot"
	"github.com/gwillem/omnibot/pkg/teleop"
)

type RunCommand struct {
	simFlags
	Hold time.Duration `long:"hold" default:"150ms" description:"How long a key press is held on the virtual gamepad"`
}

const (
	headerHeight = 2 // title + blank line
	legendHeight = 2 // legend row + blank
	helpHeight   = 2 // key help + blank
	footerHeight = 7 // log box height
	maxLogs      = 5 // number of log messages to show
	borderSize   = 2 // chart border
	stickFull    = 127
)

type series struct {
	name  string
	color string
}

// Chart series, one per wheel plus the arm motor.
var chartSeries = []series{
	{"nw", "196"},  // red
	{"ne", "208"},  // orange
	{"se", "46"},   // green
	{"sw", "51"},   // cyan
	{"arm", "201"}, // magenta
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	chartStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type teleopModel struct {
	ctrl      *teleop.Controller
	drivePad  *robot.VirtualGamepad
	armPad    *robot.VirtualGamepad
	sim       *robot.Sim
	chart     *streamlinechart.Model
	width     int
	height    int
	logs      []string
	started   bool
	quitting  bool
	lastState *teleop.State
}

func (m *teleopModel) addLog(msg string) {
	m.logs = append(m.logs, msg)
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

// hasMovement reports whether any motor command changed since the last state.
func (m *teleopModel) hasMovement(s teleop.State) bool {
	if m.lastState == nil {
		return true
	}
	return s.Wheels != m.lastState.Wheels || s.ArmPower != m.lastState.ArmPower
}

type stateMsg teleop.State
type logMsg string

func waitForState(ctrl *teleop.Controller) tea.Cmd {
	return func() tea.Msg {
		return stateMsg(<-ctrl.States())
	}
}

func waitForLog(ctrl *teleop.Controller) tea.Cmd {
	return func() tea.Msg {
		return logMsg(<-ctrl.Logs())
	}
}

func (m *teleopModel) chartSize() (width, height int) {
	if m.width == 0 || m.height == 0 {
		return 80, 20
	}
	width = max(m.width-borderSize-2, 40)
	height = max(m.height-headerHeight-legendHeight-helpHeight-footerHeight-borderSize, 10)
	return width, height
}

func (m *teleopModel) resizeChart() {
	w, h := m.chartSize()
	m.chart.Resize(w, h)
}

func initialTeleopModel(ctrl *teleop.Controller, drivePad, armPad *robot.VirtualGamepad, sim *robot.Sim) teleopModel {
	chart := streamlinechart.New(80, 20,
		streamlinechart.WithYRange(-100, 100),
	)
	for _, s := range chartSeries {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(s.color))
		chart.SetDataSetStyles(s.name, runes.ThinLineStyle, style)
	}

	return teleopModel{
		ctrl:     ctrl,
		drivePad: drivePad,
		armPad:   armPad,
		sim:      sim,
		chart:    &chart,
	}
}

func (m teleopModel) Init() tea.Cmd {
	return tea.Batch(
		waitForState(m.ctrl),
		waitForLog(m.ctrl),
	)
}

// handleKey maps the keyboard onto the two virtual gamepads. Terminals do not
// report key release, so each press holds its input for the pad's Hold.
func (m *teleopModel) handleKey(key string) bool {
	switch key {
	case "w":
		m.drivePad.SetAxis(robot.AxisY1, stickFull)
	case "s":
		m.drivePad.SetAxis(robot.AxisY1, -stickFull)
	case "a":
		m.drivePad.SetAxis(robot.AxisX1, -stickFull)
	case "d":
		m.drivePad.SetAxis(robot.AxisX1, stickFull)
	case "q":
		m.drivePad.SetAxis(robot.AxisX2, stickFull)
	case "e":
		m.drivePad.SetAxis(robot.AxisX2, -stickFull)
	case "up":
		m.armPad.SetHat(robot.HatUp)
	case "down":
		m.armPad.SetHat(robot.HatDown)
	case "1", "2", "3", "4", "5", "6", "7", "8":
		m.armPad.Press(int(key[0] - '0'))
	case " ", "x":
		m.drivePad.Release()
		m.armPad.Release()
	case "enter":
		if m.sim != nil && !m.started {
			m.sim.Trigger()
			m.started = true
		}
	default:
		return false
	}
	return true
}

func (m teleopModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeChart()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}
		m.handleKey(msg.String())

	case stateMsg:
		state := teleop.State(msg)
		if m.hasMovement(state) {
			w := state.Wheels
			m.chart.PushDataSet("nw", float64(w.NW))
			m.chart.PushDataSet("ne", float64(w.NE))
			m.chart.PushDataSet("se", float64(w.SE))
			m.chart.PushDataSet("sw", float64(w.SW))
			m.chart.PushDataSet("arm", float64(state.ArmPower))
			m.chart.DrawAll()
			m.lastState = &state
		}
		return m, waitForState(m.ctrl)

	case logMsg:
		m.addLog(string(msg))
		return m, waitForLog(m.ctrl)
	}

	return m, nil
}

func (m teleopModel) View() string {
	if m.quitting {
		return "Teleoperation stopped.\n"
	}

	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Omnibot Teleoperate"))
	sb.WriteString(fmt.Sprintf(" - %d Hz, %s shaping", m.ctrl.Hz(), m.ctrl.Shaper().Mode))
	if m.sim != nil {
		sb.WriteString(statusStyle.Render("  [simulator]"))
	}
	if m.width > 0 {
		sb.WriteString(statusStyle.Render(fmt.Sprintf("  [%dx%d]", m.width, m.height)))
	}
	sb.WriteString("\n\n")

	sb.WriteString(chartStyle.Render(m.chart.View()))
	sb.WriteString("\n")

	sb.WriteString(renderLegend())
	sb.WriteString("\n")
	sb.WriteString(statusStyle.Render(m.help()))
	sb.WriteString("\n")

	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(m.width - 4).
		Foreground(lipgloss.Color("9"))

	var logLines string
	if len(m.logs) == 0 {
		logLines = statusStyle.Render("Press 'esc' to quit")
	} else {
		logLines = strings.Join(m.logs, "\n")
	}
	sb.WriteString(logStyle.Render(logLines))
	sb.WriteString("\n")

	return sb.String()
}

func (m teleopModel) help() string {
	h := "wasd move  q/e spin  ↑/↓ arm  1 scoop down  2/3/4 sweeper on/off/rev  5 scoop up  6/8 step  7 mount  x stop"
	if m.sim != nil && !m.started {
		h = "enter start  " + h
	}
	return h
}

func renderLegend() string {
	var items []string
	for _, s := range chartSeries {
		colorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(s.color)).Bold(true)
		items = append(items, colorStyle.Render("━━")+" "+s.name)
	}
	return strings.Join(items, "  ")
}

func (c *RunCommand) Execute(args []string) error {
	cfg, err := loadSettings(c.Sim)
	if err != nil {
		return fmt.Errorf("%w (run 'omnibot setup' first)", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p, sim, closePlant, err := openPlant(ctx, cfg, c.simFlags)
	if err != nil {
		return err
	}
	defer closePlant()

	drivePad := robot.NewVirtualGamepad(c.Hold)
	armPad := robot.NewVirtualGamepad(c.Hold)

	ctrl, err := teleop.NewController(teleop.Config{
		Bus:      p,
		Compass:  p,
		Start:    p,
		DrivePad: drivePad,
		ArmPad:   armPad,
		Settings: cfg,
	})
	if err != nil {
		log.Fatalf("Failed to create controller: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := ctrl.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Controller error: %v", err)
		}
	}()

	prog := tea.NewProgram(initialTeleopModel(ctrl, drivePad, armPad, sim), tea.WithAltScreen())
	if _, err := prog.Run(); err != nil {
		log.Fatalf("Error running program: %v", err)
	}

	cancel()
	<-done
	return nil
}
