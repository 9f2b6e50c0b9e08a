package arm

import (
	"context"
	"errors"
	"testing"

	"github.com/gwillem/omnibot/pkg/robot"
)

type servoWrite struct {
	ch   robot.ServoChannel
	code int
}

type recordingServos struct {
	writes []servoWrite
}

func (r *recordingServos) SetServo(_ context.Context, ch robot.ServoChannel, code int) error {
	r.writes = append(r.writes, servoWrite{ch, code})
	return nil
}

func TestSweeper(t *testing.T) {
	bus := &recordingServos{}
	s := NewSweeper(bus)
	ctx := context.Background()

	s.On(ctx)
	s.Reverse(ctx)
	s.Off(ctx)

	want := []servoWrite{
		{robot.Sweeper, 255},
		{robot.Sweeper, 0},
		{robot.Sweeper, 128},
	}
	if len(bus.writes) != len(want) {
		t.Fatalf("writes = %v, want %v", bus.writes, want)
	}
	for i := range want {
		if bus.writes[i] != want[i] {
			t.Errorf("write %d = %v, want %v", i, bus.writes[i], want[i])
		}
	}
}

func TestMount_DistinctPositions(t *testing.T) {
	bus := &recordingServos{}
	m := NewMount(bus, 200, 40)
	ctx := context.Background()

	if err := m.Raise(ctx); err != nil {
		t.Fatal(err)
	}
	if err := m.Lower(ctx); err != nil {
		t.Fatal(err)
	}
	if !m.Lowered() {
		t.Error("Lowered() = false after Lower")
	}
	if err := m.Toggle(ctx); err != nil {
		t.Fatal(err)
	}

	want := []servoWrite{{robot.Mount, 200}, {robot.Mount, 40}, {robot.Mount, 200}}
	for i := range want {
		if bus.writes[i] != want[i] {
			t.Errorf("write %d = %v, want %v", i, bus.writes[i], want[i])
		}
	}
}

func TestMount_UnsetDown(t *testing.T) {
	tests := []struct {
		name     string
		up, down int
	}{
		{"unset", 200, 0},
		{"same as up", 200, 200},
	}

	for _, tt := range tests {
		bus := &recordingServos{}
		m := NewMount(bus, tt.up, tt.down)
		if err := m.Lower(context.Background()); !errors.Is(err, ErrMountUnset) {
			t.Errorf("%s: Lower() = %v, want ErrMountUnset", tt.name, err)
		}
		if len(bus.writes) != 0 {
			t.Errorf("%s: Lower wrote %v", tt.name, bus.writes)
		}
	}

	if err := NewMount(&recordingServos{}, 0, 40).Raise(context.Background()); !errors.Is(err, ErrMountUnset) {
		t.Errorf("Raise with unset up = %v, want ErrMountUnset", err)
	}
}

func TestScoop(t *testing.T) {
	bus := &recordingServos{}
	s := NewScoop(bus, 156, 31)
	ctx := context.Background()

	s.Lower(ctx)
	s.Raise(ctx)
	want := []servoWrite{{robot.Scoop, 31}, {robot.Scoop, 156}}
	for i := range want {
		if bus.writes[i] != want[i] {
			t.Errorf("write %d = %v, want %v", i, bus.writes[i], want[i])
		}
	}
}
