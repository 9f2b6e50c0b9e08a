package robot

import (
	"context"
	"math"
	"sync"
	"time"
)

// SimConfig describes the simulated plant.
type SimConfig struct {
	YawRate      float64       // degrees per second per unit of mean wheel power
	TickRate     float64       // encoder ticks per second per unit of arm power
	StartHeading float64       // initial compass heading in degrees
	Lockstep     time.Duration // if set, each sensor read advances the plant by this step
}

// DefaultSimConfig returns a plant that turns 40°/s at power 20 and moves the
// arm 100 ticks in half a second at power 50.
func DefaultSimConfig() SimConfig {
	return SimConfig{
		YawRate:  2,
		TickRate: 4,
	}
}

// SimState is a copy of the simulated plant state.
type SimState struct {
	Wheels   WheelCommand
	ArmPower int
	Encoder  int
	Heading  int
	Servos   map[ServoChannel]int
}

// Sim is an in-process robot. Spinning changes the heading (positive power
// turns counter-clockwise, lowering the compass heading) and arm power moves
// the encoder. It implements ActuatorBus, OrientationSensor and StartSignal.
type Sim struct {
	cfg SimConfig

	mu       sync.Mutex
	wheels   WheelCommand
	armPower int
	encoder  float64
	heading  float64
	servos   map[ServoChannel]int
	writes   int

	startOnce sync.Once
	start     chan struct{}
}

// NewSim creates a simulated plant.
func NewSim(cfg SimConfig) *Sim {
	return &Sim{
		cfg:     cfg,
		heading: normalizeDegrees(cfg.StartHeading),
		servos:  make(map[ServoChannel]int),
		start:   make(chan struct{}),
	}
}

// Run advances the plant in real time until ctx is done.
func (s *Sim) Run(ctx context.Context, tick time.Duration) error {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			s.Advance(now.Sub(last))
			last = now
		}
	}
}

// Advance integrates the plant over dt.
func (s *Sim) Advance(dt time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advance(dt)
}

func (s *Sim) advance(dt time.Duration) {
	sec := dt.Seconds()
	w := s.wheels
	// Translation terms cancel in the sum, leaving rotation.
	spin := float64(w.NW+w.NE+w.SE+w.SW) / 4
	s.heading = normalizeDegrees(s.heading - spin*s.cfg.YawRate*sec)
	s.encoder += float64(s.armPower) * s.cfg.TickRate * sec
}

// Trigger opens the start gate.
func (s *Sim) Trigger() {
	s.startOnce.Do(func() { close(s.start) })
}

// WaitStart blocks until Trigger is called.
func (s *Sim) WaitStart(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.start:
		return nil
	}
}

func (s *Sim) SetWheels(ctx context.Context, cmd WheelCommand) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wheels = cmd.Clamped()
	s.writes++
	return nil
}

func (s *Sim) SetArmPower(ctx context.Context, power int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.armPower = ClampPower(power)
	return nil
}

func (s *Sim) ArmEncoder(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg.Lockstep > 0 {
		s.advance(s.cfg.Lockstep)
	}
	return int(s.encoder), nil
}

func (s *Sim) ResetArmEncoder(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.encoder = 0
	return nil
}

func (s *Sim) SetServo(ctx context.Context, ch ServoChannel, code int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.servos[ch] = ClampServoCode(code)
	return nil
}

func (s *Sim) Heading(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg.Lockstep > 0 {
		s.advance(s.cfg.Lockstep)
	}
	return int(math.Floor(s.heading)) % 360, nil
}

// State returns a copy of the plant state.
func (s *Sim) State() SimState {
	s.mu.Lock()
	defer s.mu.Unlock()
	servos := make(map[ServoChannel]int, len(s.servos))
	for ch, code := range s.servos {
		servos[ch] = code
	}
	return SimState{
		Wheels:   s.wheels,
		ArmPower: s.armPower,
		Encoder:  int(s.encoder),
		Heading:  int(math.Floor(s.heading)) % 360,
		Servos:   servos,
	}
}

// WheelWrites returns the number of wheel commands received.
func (s *Sim) WheelWrites() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func normalizeDegrees(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	return d
}
