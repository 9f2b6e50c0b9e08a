// Package shaping converts raw joystick axis readings into motor power.
package shaping

import "fmt"

// Mode selects the transfer function used by Shape.
type Mode int

const (
	// Logarithmic maps through a fixed lookup table; fine control near the centre.
	Logarithmic Mode = iota
	// Linear scales proportionally with a deadband around zero.
	Linear
)

// String returns the configuration name of the mode.
func (m Mode) String() string {
	switch m {
	case Logarithmic:
		return "logarithmic"
	case Linear:
		return "linear"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode parses a configuration name. An empty name selects Logarithmic.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "logarithmic", "log":
		return Logarithmic, nil
	case "linear":
		return Linear, nil
	}
	return Logarithmic, fmt.Errorf("unknown shaping mode %q", s)
}

// Device input range. Readings arrive in [MinRaw, MaxRaw]; the negative
// extreme is folded to -MaxRaw so both sides scale symmetrically.
const (
	MinRaw = -128
	MaxRaw = 127
)

// MaxPower is the absolute motor power ceiling.
const MaxPower = 100

// Deadband is the linear-mode dead zone: |raw| below it shapes to zero.
const Deadband = 10

// TableStep is the number of raw steps covered by each logScale entry.
const TableStep = 4

// logScale covers magnitudes 0..-MinRaw in TableStep increments (-MinRaw/TableStep+1
// entries), non-decreasing and ending at MaxPower.
var logScale = [-MinRaw/TableStep + 1]int{
	0, 0, 6, 7, 8, 9, 10, 11,
	12, 14, 15, 17, 18, 22, 22, 24,
	30, 33, 36, 40, 43, 47, 50, 55,
	60, 66, 72, 77, 81, 89, 95, 100,
	100,
}

// Shape scales a raw axis reading to motor power in [-maxPower, maxPower].
// A maxPower outside (0, MaxPower) is ignored and the full range is used.
func Shape(raw int, mode Mode, maxPower int) int {
	if raw < -MaxRaw {
		raw = -MaxRaw
	} else if raw > MaxRaw {
		raw = MaxRaw
	}

	var out int
	switch mode {
	case Linear:
		if abs(raw) < Deadband {
			out = 0
		} else {
			out = raw * MaxPower / MaxRaw
		}
	default:
		idx := abs(raw) / TableStep
		out = logScale[idx]
		if raw < 0 {
			out = -out
		}
	}

	if maxPower < MaxPower && maxPower > 0 {
		out = out * maxPower / MaxPower
	}
	return out
}

// Shaper carries a configured mode and power cap.
type Shaper struct {
	Mode     Mode
	MaxPower int
}

// Default returns the logarithmic shaper with no power cap.
func Default() Shaper {
	return Shaper{Mode: Logarithmic, MaxPower: MaxPower}
}

// Shape applies the configured mode and cap.
func (s Shaper) Shape(raw int) int {
	return Shape(raw, s.Mode, s.MaxPower)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
