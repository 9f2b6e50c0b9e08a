// Package robot provides the hardware boundary of the holonomic robot: channel
// names, bus interfaces and their serial, servo and simulated implementations.
package robot

import "fmt"

// Wheel identifies a drive wheel by its corner.
type Wheel string

// Wheel names, clockwise from the front left corner.
const (
	NW Wheel = "nw"
	NE Wheel = "ne"
	SE Wheel = "se"
	SW Wheel = "sw"
)

// AllWheels returns all wheel names in write order.
func AllWheels() []Wheel {
	return []Wheel{NW, NE, SE, SW}
}

// Wheel power limits.
const (
	MinPower = -100
	MaxPower = 100
)

// WheelCommand holds one power value per wheel, each in [MinPower, MaxPower].
type WheelCommand struct {
	NW, NE, SE, SW int
}

// Uniform returns a command with every wheel at the same power.
func Uniform(power int) WheelCommand {
	return WheelCommand{NW: power, NE: power, SE: power, SW: power}
}

// Get returns the power for one wheel.
func (w WheelCommand) Get(wheel Wheel) int {
	switch wheel {
	case NW:
		return w.NW
	case NE:
		return w.NE
	case SE:
		return w.SE
	case SW:
		return w.SW
	}
	return 0
}

// Clamped returns the command with every wheel limited to [MinPower, MaxPower].
func (w WheelCommand) Clamped() WheelCommand {
	return WheelCommand{
		NW: ClampPower(w.NW),
		NE: ClampPower(w.NE),
		SE: ClampPower(w.SE),
		SW: ClampPower(w.SW),
	}
}

// Max returns the largest wheel magnitude.
func (w WheelCommand) Max() int {
	m := 0
	for _, wheel := range AllWheels() {
		v := w.Get(wheel)
		if v < 0 {
			v = -v
		}
		if v > m {
			m = v
		}
	}
	return m
}

func (w WheelCommand) String() string {
	return fmt.Sprintf("nw=%d ne=%d se=%d sw=%d", w.NW, w.NE, w.SE, w.SW)
}

// ClampPower limits a motor power to [MinPower, MaxPower].
func ClampPower(v int) int {
	if v > MaxPower {
		return MaxPower
	}
	if v < MinPower {
		return MinPower
	}
	return v
}

// ServoChannel identifies a servo output.
type ServoChannel string

// Servo channels.
const (
	Sweeper ServoChannel = "sweeper" // continuous rotation
	Mount   ServoChannel = "mount"   // sensor mount, positional
	Scoop   ServoChannel = "scoop"   // double servo on the scoop, positional
)

// Servo setpoint codes span [MinServoCode, MaxServoCode].
const (
	MinServoCode = 0
	MaxServoCode = 255
)

// ClampServoCode limits a setpoint to the servo code range.
func ClampServoCode(code int) int {
	if code > MaxServoCode {
		return MaxServoCode
	}
	if code < MinServoCode {
		return MinServoCode
	}
	return code
}
