package robot

import (
	"sync"
	"time"
)

// Axis identifies a stick axis on a Gamepad.
type Axis int

const (
	AxisX1 Axis = iota
	AxisY1
	AxisX2
	AxisY2
	numAxes
)

const numButtons = 16

// VirtualGamepad is an InputDevice fed by another goroutine, such as a
// keyboard handler. Every input is held for Hold after it was last set and
// then reads as neutral; a zero Hold latches inputs until Release.
type VirtualGamepad struct {
	Hold time.Duration

	mu      sync.Mutex
	now     func() time.Time
	axes    [numAxes]int
	axisAt  [numAxes]time.Time
	pressAt [numButtons]time.Time
	hat     Hat
	hatAt   time.Time
}

// NewVirtualGamepad creates a gamepad whose inputs decay after hold.
func NewVirtualGamepad(hold time.Duration) *VirtualGamepad {
	return &VirtualGamepad{Hold: hold, now: time.Now}
}

func (v *VirtualGamepad) clock() time.Time {
	if v.now == nil {
		return time.Now()
	}
	return v.now()
}

// SetAxis sets a stick axis, clamped to the device range.
func (v *VirtualGamepad) SetAxis(a Axis, value int) {
	if a < 0 || a >= numAxes {
		return
	}
	if value > 127 {
		value = 127
	} else if value < -128 {
		value = -128
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.axes[a] = value
	v.axisAt[a] = v.clock()
}

// Press presses button n (1-based).
func (v *VirtualGamepad) Press(n int) {
	if n < 1 || n > numButtons {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pressAt[n-1] = v.clock()
}

// SetHat sets the directional pad.
func (v *VirtualGamepad) SetHat(h Hat) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.hat = h
	v.hatAt = v.clock()
}

// Release returns every input to neutral.
func (v *VirtualGamepad) Release() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.axes = [numAxes]int{}
	v.axisAt = [numAxes]time.Time{}
	v.pressAt = [numButtons]time.Time{}
	v.hat = HatReleased
	v.hatAt = time.Time{}
}

// Snapshot returns the current reading.
func (v *VirtualGamepad) Snapshot() Gamepad {
	v.mu.Lock()
	defer v.mu.Unlock()
	now := v.clock()
	live := func(at time.Time) bool {
		if at.IsZero() {
			return false
		}
		return v.Hold <= 0 || now.Sub(at) < v.Hold
	}

	var g Gamepad
	axes := [numAxes]*int{&g.X1, &g.Y1, &g.X2, &g.Y2}
	for i := range axes {
		if live(v.axisAt[i]) {
			*axes[i] = v.axes[i]
		}
	}
	for i, at := range v.pressAt {
		if live(at) {
			g.Buttons |= 1 << i
		}
	}
	if live(v.hatAt) {
		g.Hat = v.hat
	}
	return g
}
