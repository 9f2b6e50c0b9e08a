package robot

import (
	"context"
	"fmt"
	"time"

	"github.com/hipsterbrown/feetech-servo/feetech"
)

// ServoChain drives the positional servos (sensor mount, scoop) on a Feetech bus.
type ServoChain struct {
	bus         *feetech.Bus
	group       *feetech.ServoGroup
	calibration Calibration
}

// OpenServoChain opens the Feetech bus and groups the calibrated servos.
func OpenServoChain(cfg ServoConfig) (*ServoChain, error) {
	baud := cfg.BaudRate
	if baud <= 0 {
		baud = 1_000_000
	}
	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     cfg.Port,
		BaudRate: baud,
		Protocol: feetech.ProtocolSTS,
		Timeout:  100 * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("open servo bus: %w", err)
	}

	group := feetech.NewServoGroupByIDs(bus, cfg.Calibration.ServoIDs()...)

	return &ServoChain{
		bus:         bus,
		group:       group,
		calibration: cfg.Calibration,
	}, nil
}

// Close closes the servo bus connection.
func (s *ServoChain) Close() error {
	return s.bus.Close()
}

// Enable enables torque on all servos.
func (s *ServoChain) Enable(ctx context.Context) error {
	return s.group.EnableAll(ctx)
}

// Disable disables torque on all servos.
func (s *ServoChain) Disable(ctx context.Context) error {
	return s.group.DisableAll(ctx)
}

// SetServo moves a calibrated servo to the position for code.
func (s *ServoChain) SetServo(ctx context.Context, ch ServoChannel, code int) error {
	cal, ok := s.calibration[ch]
	if !ok {
		return fmt.Errorf("servo %s is not calibrated", ch)
	}
	positions := feetech.PositionMap{cal.ID: cal.Denormalize(code)}
	if err := s.group.SetPositions(ctx, positions); err != nil {
		return fmt.Errorf("write servo %s: %w", ch, err)
	}
	return nil
}

// Codes reads the current setpoint code of every calibrated servo.
func (s *ServoChain) Codes(ctx context.Context) (map[ServoChannel]int, error) {
	raw, err := s.group.Positions(ctx)
	if err != nil {
		return nil, fmt.Errorf("read positions: %w", err)
	}

	codes := make(map[ServoChannel]int, len(raw))
	for id, pos := range raw {
		ch, cal, ok := s.calibration.ByID(id)
		if !ok {
			continue
		}
		codes[ch] = cal.Normalize(pos)
	}
	return codes, nil
}
