package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/hipsterbrown/feetech-servo/feetech"
	"go.bug.st/serial"

	"github.com/gwillem/omnibot/pkg/robot"
	"github.com/gwillem/omnibot/pkg/shaping"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	subHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

const (
	noPort      = "none"
	scanFirstID = 1
	scanLastID  = 10
)

type SetupCommand struct {
	Calibration string `long:"calibration" description:"Import servo calibration from a JSON file instead of recording it"`
}

func (c *SetupCommand) Execute(args []string) error {
	fmt.Println(headerStyle.Render("Omnibot Setup"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━"))
	fmt.Println()

	cfg, err := robot.LoadConfigFrom(configPath())
	if errors.Is(err, fs.ErrNotExist) {
		cfg = robot.DefaultConfig()
	} else if err != nil {
		return err
	}

	// Step 1: Find ports
	ports := scanPorts(cfg.Servos.BaudRate)
	if err := choosePorts(cfg, ports); err != nil {
		return err
	}

	// Step 2: Servo calibration
	if cfg.HasServos() {
		fmt.Println()
		fmt.Println(subHeaderStyle.Render("━━━ Calibrating Servos ━━━"))
		fmt.Println()
		if c.Calibration != "" {
			cal, err := robot.LoadCalibration(c.Calibration)
			if err != nil {
				return err
			}
			cfg.Servos.Calibration = cal
			fmt.Printf("Imported calibration from %s\n", c.Calibration)
		} else if err := calibrateServos(cfg, servosOn(ports, cfg.Servos.Port)); err != nil {
			return err
		}
	}

	// Save after port selection and calibration
	if err := cfg.SaveTo(configPath()); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	// Step 3: Driving and positions
	fmt.Println()
	fmt.Println(subHeaderStyle.Render("━━━ Driving and Positions ━━━"))
	fmt.Println()
	if err := askSettings(cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.SaveTo(configPath()); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Println()
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"))
	fmt.Println(successStyle.Render("Setup complete!"))
	fmt.Printf("Configuration saved to %s\n", configPath())
	fmt.Println()
	fmt.Println("Start teleoperation with: " + headerStyle.Render("omnibot run"))

	return nil
}

type portInfo struct {
	port   string
	servos []feetech.FoundServo
}

// scanPorts lists serial ports and the Feetech servos answering on each.
func scanPorts(baud int) []portInfo {
	fmt.Println("Scanning serial ports...")
	fmt.Println()

	ports, err := serial.GetPortsList()
	if err != nil {
		fmt.Printf("Error listing ports: %v\n", err)
		return nil
	}

	var found []portInfo
	for _, port := range ports {
		// Skip Bluetooth ports on macOS
		if strings.Contains(port, "Bluetooth") {
			continue
		}
		info := portInfo{port: port, servos: scanServos(port, baud)}
		if len(info.servos) > 0 {
			fmt.Printf("  %s: %d servo(s)\n", port, len(info.servos))
		} else {
			fmt.Printf("  %s\n", port)
		}
		found = append(found, info)
	}
	return found
}

func scanServos(port string, baud int) []feetech.FoundServo {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     port,
		BaudRate: baud,
		Protocol: feetech.ProtocolSTS,
		Timeout:  100 * time.Millisecond,
	})
	if err != nil {
		return nil
	}
	defer bus.Close()

	servos, err := bus.Scan(ctx, scanFirstID, scanLastID)
	if err != nil {
		return nil
	}
	return servos
}

func servosOn(ports []portInfo, port string) []feetech.FoundServo {
	for _, p := range ports {
		if p.port == port {
			return p.servos
		}
	}
	return nil
}

func choosePorts(cfg *robot.Config, ports []portInfo) error {
	bridgeOpts := []huh.Option[string]{huh.NewOption("None (simulator only)", noPort)}
	servoOpts := []huh.Option[string]{huh.NewOption("None", noPort)}
	for _, p := range ports {
		if len(p.servos) > 0 {
			servoOpts = append(servoOpts, huh.NewOption(fmt.Sprintf("%s (%d servos)", p.port, len(p.servos)), p.port))
		} else {
			bridgeOpts = append(bridgeOpts, huh.NewOption(p.port, p.port))
		}
	}

	bridge := orNone(cfg.Bridge.Port)
	servo := orNone(cfg.Servos.Port)
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Motor bridge port").
				Description("Wheels, arm motor, sweeper and compass").
				Options(bridgeOpts...).
				Value(&bridge),
			huh.NewSelect[string]().
				Title("Servo bus port").
				Description("Sensor mount and scoop servos").
				Options(servoOpts...).
				Value(&servo),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	cfg.Bridge.Port = fromNone(bridge)
	cfg.Servos.Port = fromNone(servo)
	return nil
}

func orNone(port string) string {
	if port == "" {
		return noPort
	}
	return port
}

func fromNone(port string) string {
	if port == noPort {
		return ""
	}
	return port
}

// calibrateServos identifies the mount and scoop servos by wiggling each one,
// then records their range while the user moves them by hand.
func calibrateServos(cfg *robot.Config, found []feetech.FoundServo) error {
	if len(found) == 0 {
		fmt.Println(warnStyle.Render("No servos found on " + cfg.Servos.Port))
		return nil
	}

	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     cfg.Servos.Port,
		BaudRate: cfg.Servos.BaudRate,
		Protocol: feetech.ProtocolSTS,
		Timeout:  100 * time.Millisecond,
	})
	if err != nil {
		return fmt.Errorf("open servo bus: %w", err)
	}
	defer bus.Close()

	ctx := context.Background()
	roles := make(map[robot.ServoChannel]*feetech.Servo)
	ids := make(map[robot.ServoChannel]int)
	for _, f := range found {
		servo := feetech.NewServo(bus, f.ID, f.Model)
		role, err := identifyServo(ctx, servo, f.ID, roles)
		if err != nil {
			return err
		}
		if role != "" {
			roles[role] = servo
			ids[role] = f.ID
		}
		if len(roles) == 2 {
			break
		}
	}
	if len(roles) == 0 {
		fmt.Println(warnStyle.Render("No servos assigned, skipping calibration"))
		return nil
	}

	// Disable torque so the user can move the servos freely
	for _, servo := range roles {
		servo.Disable(ctx)
	}

	fmt.Println(subHeaderStyle.Render("Record range of motion"))
	fmt.Println("Move each servo to its lowest AND highest position.")
	fmt.Println()

	model := newCalibrationModel(roles, ids)
	p := tea.NewProgram(model)
	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("run calibration: %w", err)
	}
	cm := finalModel.(calibrationModel)

	cal := make(robot.Calibration)
	for _, ch := range cm.channels {
		cal[ch] = robot.ServoCalibration{
			ID:       cm.ids[ch],
			RangeMin: cm.minPositions[ch],
			RangeMax: cm.maxPositions[ch],
		}
	}
	cfg.Servos.Calibration = cal

	fmt.Println()
	fmt.Println("Servos calibrated.")
	return nil
}

func identifyServo(ctx context.Context, servo *feetech.Servo, id int, taken map[robot.ServoChannel]*feetech.Servo) (robot.ServoChannel, error) {
	originalPos, err := servo.Position(ctx)
	if err != nil {
		fmt.Printf("  Error reading servo %d: %v\n", id, err)
		return "", nil
	}
	if err := servo.Enable(ctx); err != nil {
		fmt.Printf("  Error enabling servo %d: %v\n", id, err)
		return "", nil
	}

	fmt.Printf("\n  Wiggling servo %d...\n", id)

	// Wiggle: single gentle, slow movement
	wiggleAmount := 30
	moveTimeMs := 500
	servo.SetPositionWithTime(ctx, originalPos+wiggleAmount, moveTimeMs)
	time.Sleep(time.Duration(moveTimeMs+100) * time.Millisecond)
	servo.SetPositionWithTime(ctx, originalPos-wiggleAmount, moveTimeMs)
	time.Sleep(time.Duration(moveTimeMs+100) * time.Millisecond)
	servo.SetPositionWithTime(ctx, originalPos, moveTimeMs)
	time.Sleep(time.Duration(moveTimeMs+100) * time.Millisecond)
	servo.Disable(ctx)

	var options []huh.Option[string]
	if _, ok := taken[robot.Mount]; !ok {
		options = append(options, huh.NewOption("Sensor mount", string(robot.Mount)))
	}
	if _, ok := taken[robot.Scoop]; !ok {
		options = append(options, huh.NewOption("Scoop", string(robot.Scoop)))
	}
	options = append(options, huh.NewOption("Skip this servo", "skip"))

	var role string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(fmt.Sprintf("Which servo is ID %d?", id)).
				Description("The servo that just wiggled").
				Options(options...).
				Value(&role),
		),
	)
	if err := form.Run(); err != nil {
		return "", err
	}
	if role == "skip" {
		return "", nil
	}
	return robot.ServoChannel(role), nil
}

// askSettings prompts for the joystick shaping and servo positions.
func askSettings(cfg *robot.Config) error {
	mode := cfg.Shaping.Mode
	maxPower := strconv.Itoa(cfg.Shaping.MaxPower)
	mountUp := strconv.Itoa(cfg.Positions.MountUp)
	mountDown := strconv.Itoa(cfg.Positions.MountDown)
	scoopUp := strconv.Itoa(cfg.Positions.ScoopUp)
	scoopDown := strconv.Itoa(cfg.Positions.ScoopDown)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Joystick shaping").
				Options(
					huh.NewOption("Logarithmic (fine control near center)", shaping.Logarithmic.String()),
					huh.NewOption("Linear", shaping.Linear.String()),
				).
				Value(&mode),
			huh.NewInput().
				Title("Maximum wheel power").
				Description("1-100").
				Validate(intIn(1, shaping.MaxPower)).
				Value(&maxPower),
		),
		huh.NewGroup(
			huh.NewInput().Title("Sensor mount up code").Description("0-255, 0 = not set").
				Validate(intIn(robot.MinServoCode, robot.MaxServoCode)).Value(&mountUp),
			huh.NewInput().Title("Sensor mount down code").Description("0-255, 0 = not set").
				Validate(intIn(robot.MinServoCode, robot.MaxServoCode)).Value(&mountDown),
			huh.NewInput().Title("Scoop up code").
				Validate(intIn(robot.MinServoCode, robot.MaxServoCode)).Value(&scoopUp),
			huh.NewInput().Title("Scoop down code").
				Validate(intIn(robot.MinServoCode, robot.MaxServoCode)).Value(&scoopDown),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	cfg.Shaping.Mode = mode
	// Validated by the form.
	cfg.Shaping.MaxPower, _ = strconv.Atoi(maxPower)
	cfg.Positions.MountUp, _ = strconv.Atoi(mountUp)
	cfg.Positions.MountDown, _ = strconv.Atoi(mountDown)
	cfg.Positions.ScoopUp, _ = strconv.Atoi(scoopUp)
	cfg.Positions.ScoopDown, _ = strconv.Atoi(scoopDown)
	return nil
}

func intIn(lo, hi int) func(string) error {
	return func(s string) error {
		v, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return errors.New("enter a whole number")
		}
		if v < lo || v > hi {
			return fmt.Errorf("must be between %d and %d", lo, hi)
		}
		return nil
	}
}

// Calibration TUI model
type calibrationModel struct {
	channels     []robot.ServoChannel
	servos       map[robot.ServoChannel]*feetech.Servo
	ids          map[robot.ServoChannel]int
	curPositions map[robot.ServoChannel]int
	minPositions map[robot.ServoChannel]int
	maxPositions map[robot.ServoChannel]int
	quitting     bool
}

type tickMsg time.Time

func newCalibrationModel(servos map[robot.ServoChannel]*feetech.Servo, ids map[robot.ServoChannel]int) calibrationModel {
	m := calibrationModel{
		servos:       servos,
		ids:          ids,
		curPositions: make(map[robot.ServoChannel]int),
		minPositions: make(map[robot.ServoChannel]int),
		maxPositions: make(map[robot.ServoChannel]int),
	}
	ctx := context.Background()
	for _, ch := range []robot.ServoChannel{robot.Mount, robot.Scoop} {
		servo, ok := servos[ch]
		if !ok {
			continue
		}
		m.channels = append(m.channels, ch)
		pos, _ := servo.Position(ctx)
		m.curPositions[ch] = pos
		m.minPositions[ch] = pos
		m.maxPositions[ch] = pos
	}
	return m
}

func (m calibrationModel) Init() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m calibrationModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter", "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tickMsg:
		ctx := context.Background()
		for _, ch := range m.channels {
			pos, err := m.servos[ch].Position(ctx)
			if err != nil {
				continue
			}
			m.curPositions[ch] = pos
			m.minPositions[ch] = min(m.minPositions[ch], pos)
			m.maxPositions[ch] = max(m.maxPositions[ch], pos)
		}
		return m, tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
			return tickMsg(t)
		})
	}

	return m, nil
}

func (m calibrationModel) View() string {
	if m.quitting {
		return ""
	}

	tableHeaderStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	tableServoStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Padding(0, 1)
	tableCellStyle := lipgloss.NewStyle().Padding(0, 1)
	tableCurrentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Padding(0, 1)
	tableRangeGoodStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Padding(0, 1)
	tableRangeLowStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Padding(0, 1)

	rows := make([][]string, 0, len(m.channels))
	ranges := make([]int, 0, len(m.channels))
	for _, ch := range m.channels {
		rangeSize := m.maxPositions[ch] - m.minPositions[ch]
		ranges = append(ranges, rangeSize)
		rows = append(rows, []string{
			string(ch),
			strconv.Itoa(m.ids[ch]),
			strconv.Itoa(m.curPositions[ch]),
			strconv.Itoa(m.minPositions[ch]),
			strconv.Itoa(m.maxPositions[ch]),
			strconv.Itoa(rangeSize),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Servo", "ID", "Current", "Min", "Max", "Range").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			switch col {
			case 0:
				return tableServoStyle
			case 2:
				return tableCurrentStyle
			case 5:
				if row >= 0 && row < len(ranges) && ranges[row] > 200 {
					return tableRangeGoodStyle
				}
				return tableRangeLowStyle
			default:
				return tableCellStyle
			}
		})

	return t.Render() + "\n\n" + dimStyle.Render("Press Enter when done")
}
