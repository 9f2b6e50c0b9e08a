package robot

import (
	"context"
	"time"
)

// WheelBus drives the four wheel channels.
type WheelBus interface {
	SetWheels(ctx context.Context, cmd WheelCommand) error
}

// ArmBus drives the arm motor and exposes its position encoder.
type ArmBus interface {
	SetArmPower(ctx context.Context, power int) error
	ArmEncoder(ctx context.Context) (int, error)
	ResetArmEncoder(ctx context.Context) error
}

// ServoBus writes servo setpoint codes.
type ServoBus interface {
	SetServo(ctx context.Context, ch ServoChannel, code int) error
}

// ActuatorBus is the full set of actuator channels.
type ActuatorBus interface {
	WheelBus
	ArmBus
	ServoBus
}

// OrientationSensor reports the robot heading in whole degrees, [0, 360).
type OrientationSensor interface {
	Heading(ctx context.Context) (int, error)
}

// StartSignal is the one-shot match start gate.
type StartSignal interface {
	WaitStart(ctx context.Context) error
}

// InputDevice yields a full gamepad snapshot.
type InputDevice interface {
	Snapshot() Gamepad
}

// Hat is the directional pad state.
type Hat int

const (
	HatReleased Hat = iota
	HatUp
	HatDown
)

func (h Hat) String() string {
	switch h {
	case HatUp:
		return "up"
	case HatDown:
		return "down"
	default:
		return "released"
	}
}

// Gamepad is one reading of a controller. Axes are in [-128, 127].
type Gamepad struct {
	X1, Y1  int // left stick
	X2, Y2  int // right stick
	Buttons uint16
	Hat     Hat
}

// Button reports whether button n (1-based) is pressed.
func (g Gamepad) Button(n int) bool {
	if n < 1 || n > 16 {
		return false
	}
	return g.Buttons&(1<<(n-1)) != 0
}

// WithButton returns a copy with button n (1-based) pressed.
func (g Gamepad) WithButton(n int) Gamepad {
	if n >= 1 && n <= 16 {
		g.Buttons |= 1 << (n - 1)
	}
	return g
}

// Wait blocks for d or until ctx is done. A non-positive d only checks ctx.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
