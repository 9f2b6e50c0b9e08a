// Package teleop runs the drive and arm control loops.
package teleop

import (
	"fmt"
	"sync"
	"time"

	"github.com/gwillem/omnibot/pkg/arm"
	"github.com/gwillem/omnibot/pkg/drive"
	"github.com/gwillem/omnibot/pkg/heading"
	"github.com/gwillem/omnibot/pkg/robot"
	"github.com/gwillem/omnibot/pkg/shaping"
)

// Shaped stick values at or below this magnitude do not move the base.
const driveThreshold = 10

// Manual arm power from the directional pad.
const hatArmPower = 40

// Arm gamepad buttons.
const (
	btnScoopDown      = 1
	btnSweeperOn      = 2
	btnSweeperOff     = 3
	btnSweeperReverse = 4
	btnScoopUp        = 5
	btnStepUp         = 6
	btnMountToggle    = 7
	btnStepDown       = 8
)

// State represents the current state of teleoperation.
type State struct {
	Wheels    robot.WheelCommand
	ArmPower  int
	Stepping  bool
	Timestamp time.Time
	Error     error
}

// Controller manages the drive and arm control loops.
type Controller struct {
	bus      robot.ActuatorBus
	compass  robot.OrientationSensor
	start    robot.StartSignal
	drivePad robot.InputDevice
	armPad   robot.InputDevice
	claims   *robot.Claims
	settings *robot.Config

	shaper  shaping.Shaper
	base    *drive.Base
	stepper *arm.Stepper
	sweeper *arm.Sweeper
	mount   *arm.Positioner
	scoop   *arm.Positioner
	law     heading.Law

	prevArmPad robot.Gamepad

	mu      sync.RWMutex
	state   State
	running bool
	stateCh chan State
	logCh   chan string
}

// Config holds configuration for the controller.
type Config struct {
	Bus      robot.ActuatorBus
	Compass  robot.OrientationSensor // optional; needed for Turn
	Start    robot.StartSignal
	DrivePad robot.InputDevice
	ArmPad   robot.InputDevice
	Claims   *robot.Claims // optional; shared when several controllers use one bus
	Settings *robot.Config // nil uses robot.DefaultConfig()
}

// NewController creates a new teleoperation controller.
func NewController(cfg Config) (*Controller, error) {
	if cfg.Bus == nil || cfg.Start == nil || cfg.DrivePad == nil || cfg.ArmPad == nil {
		return nil, fmt.Errorf("controller needs a bus, a start signal and two gamepads")
	}
	settings := cfg.Settings
	if settings == nil {
		settings = robot.DefaultConfig()
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	mode, _ := settings.ShaperMode()
	law, _ := heading.ParseLaw(settings.Heading.Law)

	claims := cfg.Claims
	if claims == nil {
		claims = &robot.Claims{}
	}

	c := &Controller{
		bus:      cfg.Bus,
		compass:  cfg.Compass,
		start:    cfg.Start,
		drivePad: cfg.DrivePad,
		armPad:   cfg.ArmPad,
		claims:   claims,
		settings: settings,
		shaper:   shaping.Shaper{Mode: mode, MaxPower: settings.Shaping.MaxPower},
		base:     drive.NewBase(cfg.Bus),
		sweeper:  arm.NewSweeper(cfg.Bus),
		mount:    arm.NewMount(cfg.Bus, settings.Positions.MountUp, settings.Positions.MountDown),
		scoop:    arm.NewScoop(cfg.Bus, settings.Positions.ScoopUp, settings.Positions.ScoopDown),
		law:      law,
		stateCh:  make(chan State, 1),
		logCh:    make(chan string, 10),
	}

	c.stepper = arm.NewStepper(cfg.Bus)
	c.stepper.Settle = settings.Timing.EncoderSettle.D()
	c.stepper.Poll = settings.Timing.ArmPoll.D()
	c.stepper.StallWarn = settings.Timing.ArmStallWarn.D()
	c.stepper.Logf = c.log

	return c, nil
}

// States returns a channel that receives state updates.
func (c *Controller) States() <-chan State {
	return c.stateCh
}

// Logs returns a channel that receives log messages.
func (c *Controller) Logs() <-chan string {
	return c.logCh
}

// Hz returns the drive loop frequency.
func (c *Controller) Hz() int {
	return int(time.Second / c.settings.Timing.DriveTick.D())
}

// Shaper returns the configured joystick shaper.
func (c *Controller) Shaper() shaping.Shaper {
	return c.shaper
}

func (c *Controller) log(format string, args ...any) {
	msg := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))
	select {
	case c.logCh <- msg:
	default:
		// Drop if channel full
	}
}
