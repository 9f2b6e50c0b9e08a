package robot

import (
	"context"
	"errors"
	"fmt"
)

// Hardware is the real robot: the motor bridge plus the optional servo chain.
type Hardware struct {
	Bridge *Bridge
	Servos *ServoChain // nil when no servo bus is configured
}

// OpenHardware connects every configured bus.
func OpenHardware(cfg *Config) (*Hardware, error) {
	if !cfg.HasBridge() {
		return nil, errors.New("no motor bridge port configured")
	}
	bridge, err := OpenBridge(cfg.Bridge)
	if err != nil {
		return nil, err
	}
	hw := &Hardware{Bridge: bridge}

	if cfg.HasServos() {
		servos, err := OpenServoChain(cfg.Servos)
		if err != nil {
			bridge.Close()
			return nil, err
		}
		hw.Servos = servos
	}
	return hw, nil
}

// Close closes every bus.
func (h *Hardware) Close() error {
	var errs []error
	if err := h.Bridge.Close(); err != nil {
		errs = append(errs, err)
	}
	if h.Servos != nil {
		if err := h.Servos.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

func (h *Hardware) SetWheels(ctx context.Context, cmd WheelCommand) error {
	return h.Bridge.SetWheels(ctx, cmd)
}

func (h *Hardware) SetArmPower(ctx context.Context, power int) error {
	return h.Bridge.SetArmPower(ctx, power)
}

func (h *Hardware) ArmEncoder(ctx context.Context) (int, error) {
	return h.Bridge.ArmEncoder(ctx)
}

func (h *Hardware) ResetArmEncoder(ctx context.Context) error {
	return h.Bridge.ResetArmEncoder(ctx)
}

func (h *Hardware) Heading(ctx context.Context) (int, error) {
	return h.Bridge.Heading(ctx)
}

func (h *Hardware) WaitStart(ctx context.Context) error {
	return h.Bridge.WaitStart(ctx)
}

// SetServo routes the sweeper to the bridge and positional servos to the chain.
func (h *Hardware) SetServo(ctx context.Context, ch ServoChannel, code int) error {
	if ch == Sweeper {
		return h.Bridge.SetServo(ctx, ch, code)
	}
	if h.Servos == nil {
		return fmt.Errorf("servo %s: no servo bus configured", ch)
	}
	return h.Servos.SetServo(ctx, ch, code)
}

// Enable enables torque on the servo chain, if any.
func (h *Hardware) Enable(ctx context.Context) error {
	if h.Servos == nil {
		return nil
	}
	return h.Servos.Enable(ctx)
}

// Disable disables torque on the servo chain, if any.
func (h *Hardware) Disable(ctx context.Context) error {
	if h.Servos == nil {
		return nil
	}
	return h.Servos.Disable(ctx)
}
