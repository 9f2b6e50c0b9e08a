// Package arm moves the arm in encoder-verified steps and drives the sweeper
// and the auxiliary servos.
package arm

import (
	"context"
	"fmt"
	"time"

	"github.com/gwillem/omnibot/pkg/robot"
)

// Step presets. One full rotation of the arm is around 3000 ticks.
const (
	StepSpeed = 50
	StepSize  = 100
)

// Default timing.
const (
	DefaultSettle    = 10 * time.Millisecond
	DefaultPoll      = 5 * time.Millisecond
	DefaultStallWarn = 2 * time.Second
)

// Stepper moves the arm motor until its encoder has travelled a given distance.
type Stepper struct {
	bus robot.ArmBus

	// Settle is the wait after an encoder reset before the motor starts.
	Settle time.Duration
	// Poll is the wait between encoder reads.
	Poll time.Duration
	// StallWarn is how long a step may run before a warning is logged. The
	// step keeps waiting: there is no timeout. Zero disables the warning.
	StallWarn time.Duration
	// Logf receives warnings. Nil discards them.
	Logf func(format string, args ...any)
}

// NewStepper creates a stepper with default timing.
func NewStepper(bus robot.ArmBus) *Stepper {
	return &Stepper{
		bus:       bus,
		Settle:    DefaultSettle,
		Poll:      DefaultPoll,
		StallWarn: DefaultStallWarn,
	}
}

// Step resets the encoder, drives the arm at speed (positive is up) and blocks
// until the encoder has moved |stepSize| ticks in that direction. The motor is
// left running; the caller decides the next command. A zero speed has no
// direction and returns at once.
func (s *Stepper) Step(ctx context.Context, speed, stepSize int) error {
	if speed == 0 {
		return nil
	}
	if stepSize < 0 {
		stepSize = -stepSize
	}

	if err := s.bus.ResetArmEncoder(ctx); err != nil {
		return fmt.Errorf("reset encoder: %w", err)
	}
	if err := robot.Wait(ctx, s.Settle); err != nil {
		return err
	}
	if err := s.bus.SetArmPower(ctx, speed); err != nil {
		return fmt.Errorf("set arm power: %w", err)
	}

	start := time.Now()
	warned := false
	for {
		pos, err := s.bus.ArmEncoder(ctx)
		if err != nil {
			return fmt.Errorf("read encoder: %w", err)
		}
		if speed > 0 && pos >= stepSize {
			return nil
		}
		if speed < 0 && pos <= -stepSize {
			return nil
		}

		if !warned && s.StallWarn > 0 && time.Since(start) > s.StallWarn {
			warned = true
			if s.Logf != nil {
				s.Logf("Warning: arm step stuck at %d of %d ticks after %s", pos, stepSize, s.StallWarn)
			}
		}

		if err := robot.Wait(ctx, s.Poll); err != nil {
			return err
		}
	}
}

// StepUp moves the arm up one step.
func (s *Stepper) StepUp(ctx context.Context) error {
	return s.Step(ctx, StepSpeed, StepSize)
}

// StepDown moves the arm down one step.
func (s *Stepper) StepDown(ctx context.Context) error {
	return s.Step(ctx, -StepSpeed, StepSize)
}

// Drive sets the arm motor power directly.
func (s *Stepper) Drive(ctx context.Context, power int) error {
	return s.bus.SetArmPower(ctx, power)
}
