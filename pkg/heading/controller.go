// Package heading turns the robot on the spot until a compass heading is reached.
//
// The controller spins at a fixed speed and samples the compass. If the heading
// stops changing for more than StallLimit samples it stops, raises the speed by
// SpeedStep and tries again; past MaxSpeed it gives up.
package heading

import (
	"context"
	"fmt"
	"time"

	"github.com/gwillem/omnibot/pkg/robot"
)

const (
	DefaultSpeed   = 20
	SpeedStep      = 10
	MaxSpeed       = 100
	StallLimit     = 5
	DefaultSample  = 10 * time.Millisecond
	legacyLawScale = 20
)

// Law selects the spin command issued while seeking.
type Law int

const (
	// LawDirectional spins towards the target along the shorter arc at the
	// attempt speed.
	LawDirectional Law = iota
	// LawLegacy reproduces the old firmware, which commanded 20 × target
	// regardless of direction or speed (clamped to full power).
	LawLegacy
)

func (l Law) String() string {
	if l == LawLegacy {
		return "legacy"
	}
	return "directional"
}

// ParseLaw parses a configuration name. An empty name selects LawDirectional.
func ParseLaw(s string) (Law, error) {
	switch s {
	case "", "directional":
		return LawDirectional, nil
	case "legacy":
		return LawLegacy, nil
	}
	return LawDirectional, fmt.Errorf("unknown heading law %q", s)
}

// State is the outcome reported by a turn.
type State int

const (
	Seeking State = iota
	StallRetry
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Seeking:
		return "seeking"
	case StallRetry:
		return "stall-retry"
	case Succeeded:
		return "succeeded"
	default:
		return "failed"
	}
}

// TurnState tracks one TurnToHeading call.
type TurnState struct {
	Target    int
	Speed     int
	Unchanged int
	Retries   int
	State     State
}

// Spinner turns the base on the spot. Positive speed is counter-clockwise.
type Spinner interface {
	Spin(ctx context.Context, speed int) error
}

// Controller holds a heading by spinning the base.
type Controller struct {
	spinner Spinner
	compass robot.OrientationSensor

	// Law selects the spin command; see LawDirectional and LawLegacy.
	Law Law
	// Sample is the wait between compass readings.
	Sample time.Duration
	// Logf receives progress messages. Nil discards them.
	Logf func(format string, args ...any)

	last TurnState
}

// NewController creates a controller with the directional law and default sampling.
func NewController(spinner Spinner, compass robot.OrientationSensor) *Controller {
	return &Controller{
		spinner: spinner,
		compass: compass,
		Law:     LawDirectional,
		Sample:  DefaultSample,
	}
}

// Last returns the state of the most recent turn.
func (c *Controller) Last() TurnState {
	return c.last
}

func (c *Controller) logf(format string, args ...any) {
	if c.Logf != nil {
		c.Logf(format, args...)
	}
}

// TurnToHeading spins until the compass reads target (degrees) and reports
// whether it got there. A stall retries at a higher speed; it fails once the
// speed would exceed MaxSpeed. The error is only set for cancellation or a
// bus failure. Targets outside [0, 360) are wrapped.
func (c *Controller) TurnToHeading(ctx context.Context, target, speed int) (bool, error) {
	target = Mod360(target)
	ts := TurnState{Target: target, Speed: speed, State: Seeking}
	defer func() { c.last = ts }()

	for {
		if ts.Speed > MaxSpeed {
			ts.State = Failed
			c.logf("Turn to %d° failed after %d retries", target, ts.Retries)
			return false, nil
		}

		reached, err := c.seek(ctx, &ts)
		if err != nil {
			ts.State = Failed
			return false, err
		}
		if reached {
			ts.State = Succeeded
			return true, nil
		}

		ts.State = StallRetry
		ts.Speed += SpeedStep
		ts.Retries++
		c.logf("Turn to %d° stalled, retrying at speed %d", target, ts.Speed)
	}
}

// seek runs one attempt at ts.Speed. It returns true when the target is
// reached and false when the heading stalled.
func (c *Controller) seek(ctx context.Context, ts *TurnState) (bool, error) {
	ts.State = Seeking
	ts.Unchanged = 0

	start, err := c.compass.Heading(ctx)
	if err != nil {
		return false, fmt.Errorf("read heading: %w", err)
	}
	lastReading := start
	command := c.command(ts.Target, start, ts.Speed)

	for {
		current, err := c.compass.Heading(ctx)
		if err != nil {
			return false, fmt.Errorf("read heading: %w", err)
		}
		if current == ts.Target {
			if err := c.spinner.Spin(ctx, 0); err != nil {
				return false, fmt.Errorf("stop: %w", err)
			}
			return true, nil
		}

		if err := c.spinner.Spin(ctx, command); err != nil {
			return false, fmt.Errorf("spin: %w", err)
		}
		if err := robot.Wait(ctx, c.Sample); err != nil {
			return false, err
		}

		if current == lastReading {
			ts.Unchanged++
		} else {
			ts.Unchanged = 0
		}
		if ts.Unchanged > StallLimit {
			if err := c.spinner.Spin(ctx, 0); err != nil {
				return false, fmt.Errorf("stop: %w", err)
			}
			return false, nil
		}
		lastReading = current
	}
}

func (c *Controller) command(target, current, speed int) int {
	if c.Law == LawLegacy {
		return legacyLawScale * target
	}
	return Direction(target, current) * speed
}

// Direction returns +1 (counter-clockwise) or -1 (clockwise) for the shorter
// turn from current to target.
func Direction(target, current int) int {
	if Mod360(target-current) > 180 {
		return 1
	}
	return -1
}

// TurnDegrees turns by angle degrees relative to the current heading;
// positive angles turn counter-clockwise.
func (c *Controller) TurnDegrees(ctx context.Context, angle, speed int) (bool, error) {
	current, err := c.compass.Heading(ctx)
	if err != nil {
		return false, fmt.Errorf("read heading: %w", err)
	}
	return c.TurnToHeading(ctx, Mod360(current-angle), speed)
}

// Mod360 wraps degrees into [0, 360).
func Mod360(d int) int {
	return ((d % 360) + 360) % 360
}
