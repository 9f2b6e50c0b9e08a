package teleop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gwillem/omnibot/pkg/arm"
	"github.com/gwillem/omnibot/pkg/drive"
	"github.com/gwillem/omnibot/pkg/heading"
	"github.com/gwillem/omnibot/pkg/robot"
)

const (
	driveOwner   = "drive loop"
	armOwner     = "arm loop"
	headingOwner = "heading"
)

// enabler is implemented by buses whose actuators need torque enabled.
type enabler interface {
	Enable(ctx context.Context) error
	Disable(ctx context.Context) error
}

// Run claims the channel groups, waits for the start signal, then runs the
// drive and arm loops until ctx is done. Motors are stopped on return.
func (c *Controller) Run(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("already running")
	}
	c.running = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	if err := c.claims.Claim(robot.GroupWheels, driveOwner); err != nil {
		return err
	}
	defer c.claims.Release(robot.GroupWheels, driveOwner)
	for _, g := range []robot.Group{robot.GroupArm, robot.GroupServos} {
		if err := c.claims.Claim(g, armOwner); err != nil {
			return err
		}
		defer c.claims.Release(g, armOwner)
	}

	c.log("Waiting for start signal")
	if err := c.start.WaitStart(ctx); err != nil {
		return fmt.Errorf("wait for start: %w", err)
	}
	c.aboutToStart(ctx)

	c.log("Teleoperation started at %d Hz", c.Hz())

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		c.driveLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		c.armLoop(ctx)
	}()

	<-ctx.Done()
	wg.Wait()
	c.shutdown()
	return ctx.Err()
}

func (c *Controller) aboutToStart(ctx context.Context) {
	if e, ok := c.bus.(enabler); ok {
		if err := e.Enable(ctx); err != nil {
			c.log("Warning: failed to enable servos: %v", err)
		}
	}
	if err := c.mount.Raise(ctx); err != nil {
		c.log("Warning: sensor mount not raised: %v", err)
	}
}

func (c *Controller) driveLoop(ctx context.Context) {
	ticker := time.NewTicker(c.settings.Timing.DriveTick.D())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.driveStep(ctx)
		}
	}
}

// driveStep reads the drive gamepad once and commands the wheels: the left
// stick translates, the right stick spins, neither stops.
func (c *Controller) driveStep(ctx context.Context) {
	pad := c.drivePad.Snapshot()
	x := c.shaper.Shape(pad.X1)
	y := c.shaper.Shape(pad.Y1)

	var err error
	switch {
	case outside(x, driveThreshold) || outside(y, driveThreshold):
		err = c.base.MoveVector(ctx, drive.Polar(x, y))
	case outside(pad.X2, driveThreshold):
		err = c.base.Spin(ctx, c.shaper.Shape(pad.X2))
	default:
		err = c.base.Spin(ctx, 0)
	}
	if err != nil {
		if ctx.Err() == nil {
			c.log("Drive write error: %v", err)
		}
		c.updateState(func(s *State) { s.Error = err })
		return
	}

	wheels := c.base.Last()
	c.updateState(func(s *State) {
		s.Wheels = wheels
		s.Error = nil
	})
}

func (c *Controller) armLoop(ctx context.Context) {
	ticker := time.NewTicker(c.settings.Timing.ArmTick.D())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.armStep(ctx)
		}
	}
}

// armStep reads the arm gamepad once. Sweeper and scoop buttons are level
// triggered, the mount toggles on press, step buttons block until the step
// is done, and the directional pad drives the arm directly.
func (c *Controller) armStep(ctx context.Context) {
	pad := c.armPad.Snapshot()
	prev := c.prevArmPad
	c.prevArmPad = pad

	c.check(ctx, "sweeper on", pad.Button(btnSweeperOn), c.sweeper.On)
	c.check(ctx, "sweeper reverse", pad.Button(btnSweeperReverse), c.sweeper.Reverse)
	c.check(ctx, "sweeper off", pad.Button(btnSweeperOff), c.sweeper.Off)
	c.check(ctx, "scoop down", pad.Button(btnScoopDown), c.scoop.Lower)
	c.check(ctx, "scoop up", pad.Button(btnScoopUp), c.scoop.Raise)
	c.check(ctx, "mount", pad.Button(btnMountToggle) && !prev.Button(btnMountToggle), c.mount.Toggle)

	if pad.Button(btnStepUp) {
		c.step(ctx, "up", c.stepper.StepUp)
	}
	if pad.Button(btnStepDown) {
		c.step(ctx, "down", c.stepper.StepDown)
	}

	power := 0
	switch pad.Hat {
	case robot.HatUp:
		power = hatArmPower
	case robot.HatDown:
		power = -hatArmPower
	}
	if err := c.stepper.Drive(ctx, power); err != nil {
		if ctx.Err() == nil {
			c.log("Arm write error: %v", err)
		}
		return
	}
	c.updateState(func(s *State) { s.ArmPower = power })
}

func (c *Controller) check(ctx context.Context, what string, pressed bool, action func(context.Context) error) {
	if !pressed {
		return
	}
	if err := action(ctx); err != nil && ctx.Err() == nil {
		c.log("%s: %v", what, err)
	}
}

func (c *Controller) step(ctx context.Context, dir string, action func(context.Context) error) {
	speed := arm.StepSpeed
	if dir == "down" {
		speed = -speed
	}
	c.updateState(func(s *State) {
		s.Stepping = true
		s.ArmPower = speed
	})
	err := action(ctx)
	c.updateState(func(s *State) { s.Stepping = false })
	if err != nil && !errors.Is(err, context.Canceled) {
		c.log("Arm step %s: %v", dir, err)
	}
}

// Turn spins to a compass heading. It needs the wheels, so it fails while
// the drive loop is running.
func (c *Controller) Turn(ctx context.Context, target int) (bool, error) {
	if c.compass == nil {
		return false, fmt.Errorf("no orientation sensor configured")
	}
	if err := c.claims.Claim(robot.GroupWheels, headingOwner); err != nil {
		return false, err
	}
	defer c.claims.Release(robot.GroupWheels, headingOwner)

	hc := c.headingController()
	c.log("Turning to %d°", target)
	ok, err := hc.TurnToHeading(ctx, heading.Mod360(target), c.settings.Heading.Speed)
	if err != nil {
		return false, err
	}
	c.log("Turn to %d° %s", target, hc.Last().State)
	return ok, nil
}

// TurnBy turns relative to the current heading; positive is counter-clockwise.
func (c *Controller) TurnBy(ctx context.Context, angle int) (bool, error) {
	if c.compass == nil {
		return false, fmt.Errorf("no orientation sensor configured")
	}
	if err := c.claims.Claim(robot.GroupWheels, headingOwner); err != nil {
		return false, err
	}
	defer c.claims.Release(robot.GroupWheels, headingOwner)

	return c.headingController().TurnDegrees(ctx, angle, c.settings.Heading.Speed)
}

func (c *Controller) headingController() *heading.Controller {
	hc := heading.NewController(c.base, c.compass)
	hc.Law = c.law
	hc.Sample = c.settings.Timing.HeadingSample.D()
	hc.Logf = c.log
	return hc
}

func (c *Controller) updateState(fn func(*State)) {
	c.mu.Lock()
	fn(&c.state)
	c.state.Timestamp = time.Now()
	s := c.state
	c.mu.Unlock()
	c.sendState(s)
}

// Snapshot returns the latest state.
func (c *Controller) Snapshot() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Controller) sendState(s State) {
	select {
	case c.stateCh <- s:
	default:
		// Drop old state if channel full, replace with new
		select {
		case <-c.stateCh:
		default:
		}
		select {
		case c.stateCh <- s:
		default:
		}
	}
}

func (c *Controller) shutdown() {
	ctx := context.Background()
	if err := c.base.Stop(ctx); err != nil {
		c.log("Warning: failed to stop wheels: %v", err)
	}
	if err := c.stepper.Drive(ctx, 0); err != nil {
		c.log("Warning: failed to stop arm: %v", err)
	}
	if err := c.sweeper.Off(ctx); err != nil {
		c.log("Warning: failed to stop sweeper: %v", err)
	}
	if e, ok := c.bus.(enabler); ok {
		if err := e.Disable(ctx); err != nil {
			c.log("Warning: failed to disable servos: %v", err)
		}
	}
	c.log("Teleoperation stopped")
}

func outside(v, limit int) bool {
	return v > limit || v < -limit
}
