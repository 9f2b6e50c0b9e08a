// Package drive maps speed and direction onto the four wheels of a holonomic
// (X-configuration) base.
package drive

import (
	"context"
	"math"

	"github.com/gwillem/omnibot/pkg/robot"
)

// Cap100 limits a value to [-100, 100].
func Cap100(v int) int {
	if v > 0 {
		return min(v, 100)
	}
	return max(v, -100)
}

// Vector is a polar drive request. Direction is in degrees, [0, 360), with
// 0° pointing east (right on the stick) and angles growing counter-clockwise.
type Vector struct {
	Magnitude int
	Direction int
}

// Polar converts shaped stick values to a drive vector.
func Polar(x, y int) Vector {
	fx, fy := float64(x), float64(y)
	mag := int(math.Sqrt(fx*fx + fy*fy))
	dir := 0
	if x != 0 || y != 0 {
		deg := math.Atan2(fy, fx) * 180 / math.Pi
		dir = int(math.Round(deg))
		dir = ((dir % 360) + 360) % 360
	}
	return Vector{Magnitude: mag, Direction: dir}
}

// Mix computes wheel powers that move the base at speed towards angle.
// Each wheel gets half the sum of two unit-circle components, so no wheel
// exceeds the capped speed.
func Mix(speed, angle int) robot.WheelCommand {
	capped := float64(Cap100(speed))
	rad := float64(angle) * math.Pi / 180
	x := math.Cos(rad) * capped
	y := math.Sin(rad) * capped

	return robot.WheelCommand{
		NW: int((-x - y) / 2),
		NE: int((-x + y) / 2),
		SE: int((x + y) / 2),
		SW: int((x - y) / 2),
	}
}

// Base drives the wheel channels. It must be the only writer of those channels.
type Base struct {
	wheels robot.WheelBus
	last   robot.WheelCommand
}

// NewBase creates a base over the wheel channels.
func NewBase(wheels robot.WheelBus) *Base {
	return &Base{wheels: wheels}
}

// Move drives the base at speed towards angle (degrees).
func (b *Base) Move(ctx context.Context, speed, angle int) error {
	return b.write(ctx, Mix(speed, angle))
}

// MoveVector drives the base along v.
func (b *Base) MoveVector(ctx context.Context, v Vector) error {
	return b.Move(ctx, v.Magnitude, v.Direction)
}

// Spin turns on the spot; positive speed is counter-clockwise. Spin(0) stops.
func (b *Base) Spin(ctx context.Context, speed int) error {
	return b.write(ctx, robot.Uniform(Cap100(speed)))
}

// Stop halts all wheels.
func (b *Base) Stop(ctx context.Context) error {
	return b.Spin(ctx, 0)
}

// Last returns the most recent command written to the wheels.
func (b *Base) Last() robot.WheelCommand {
	return b.last
}

func (b *Base) write(ctx context.Context, cmd robot.WheelCommand) error {
	if err := b.wheels.SetWheels(ctx, cmd); err != nil {
		return err
	}
	b.last = cmd
	return nil
}
