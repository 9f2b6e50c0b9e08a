package arm

import (
	"context"
	"errors"

	"github.com/gwillem/omnibot/pkg/robot"
)

// Sweeper setpoint codes for the continuous rotation servo.
const (
	SweeperOn      = 255
	SweeperOff     = 128
	SweeperReverse = 0
)

// Sweeper drives the intake sweeper. Each call is a single write.
type Sweeper struct {
	bus robot.ServoBus
}

func NewSweeper(bus robot.ServoBus) *Sweeper {
	return &Sweeper{bus: bus}
}

func (s *Sweeper) On(ctx context.Context) error {
	return s.bus.SetServo(ctx, robot.Sweeper, SweeperOn)
}

func (s *Sweeper) Off(ctx context.Context) error {
	return s.bus.SetServo(ctx, robot.Sweeper, SweeperOff)
}

func (s *Sweeper) Reverse(ctx context.Context) error {
	return s.bus.SetServo(ctx, robot.Sweeper, SweeperReverse)
}

// ErrMountUnset is returned when a servo position has not been configured.
var ErrMountUnset = errors.New("servo position not configured")

// Positioner moves a two-position servo between its up and down codes.
type Positioner struct {
	bus  robot.ServoBus
	ch   robot.ServoChannel
	up   int
	down int
	low  bool
}

// NewMount creates the sensor mount positioner.
func NewMount(bus robot.ServoBus, up, down int) *Positioner {
	return &Positioner{bus: bus, ch: robot.Mount, up: up, down: down}
}

// NewScoop creates the scoop positioner.
func NewScoop(bus robot.ServoBus, up, down int) *Positioner {
	return &Positioner{bus: bus, ch: robot.Scoop, up: up, down: down}
}

// Raise moves to the up position.
func (p *Positioner) Raise(ctx context.Context) error {
	if p.up == 0 {
		return ErrMountUnset
	}
	if err := p.bus.SetServo(ctx, p.ch, p.up); err != nil {
		return err
	}
	p.low = false
	return nil
}

// Lower moves to the down position. A down position equal to the up position
// is treated as unset.
func (p *Positioner) Lower(ctx context.Context) error {
	if p.down == 0 || p.down == p.up {
		return ErrMountUnset
	}
	if err := p.bus.SetServo(ctx, p.ch, p.down); err != nil {
		return err
	}
	p.low = true
	return nil
}

// Toggle moves to whichever position it is not in.
func (p *Positioner) Toggle(ctx context.Context) error {
	if p.low {
		return p.Raise(ctx)
	}
	return p.Lower(ctx)
}

// Lowered reports whether the last successful move was Lower.
func (p *Positioner) Lowered() bool {
	return p.low
}
