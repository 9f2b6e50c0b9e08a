package drive

import (
	"context"
	"testing"

	"github.com/gwillem/omnibot/pkg/robot"
)

// recordingWheels keeps every wheel command it receives.
type recordingWheels struct {
	cmds []robot.WheelCommand
}

func (r *recordingWheels) SetWheels(_ context.Context, cmd robot.WheelCommand) error {
	r.cmds = append(r.cmds, cmd)
	return nil
}

func (r *recordingWheels) last() robot.WheelCommand {
	return r.cmds[len(r.cmds)-1]
}

func TestCap100(t *testing.T) {
	tests := []struct{ in, expected int }{
		{0, 0},
		{50, 50},
		{100, 100},
		{250, 100},
		{-50, -50},
		{-100, -100},
		{-250, -100},
	}
	for _, tt := range tests {
		if got := Cap100(tt.in); got != tt.expected {
			t.Errorf("Cap100(%d) = %d, want %d", tt.in, got, tt.expected)
		}
	}
}

func TestMix(t *testing.T) {
	tests := []struct {
		speed, angle int
		expected     robot.WheelCommand
	}{
		{100, 0, robot.WheelCommand{NW: -50, NE: -50, SE: 50, SW: 50}},
		{100, 90, robot.WheelCommand{NW: -50, NE: 50, SE: 50, SW: -50}},
		{100, 180, robot.WheelCommand{NW: 50, NE: 50, SE: -50, SW: -50}},
		{100, 270, robot.WheelCommand{NW: 50, NE: -50, SE: -50, SW: 50}},
		{200, 0, robot.WheelCommand{NW: -50, NE: -50, SE: 50, SW: 50}}, // capped
		{100, 45, robot.WheelCommand{NW: -70, NE: 0, SE: 70, SW: 0}},
	}

	for _, tt := range tests {
		got := Mix(tt.speed, tt.angle)
		for _, w := range robot.AllWheels() {
			if d := got.Get(w) - tt.expected.Get(w); d > 1 || d < -1 {
				t.Errorf("Mix(%d, %d) = %v, want %v", tt.speed, tt.angle, got, tt.expected)
				break
			}
		}
	}
}

func TestMix_ZeroSpeed(t *testing.T) {
	for angle := 0; angle < 360; angle += 15 {
		if got := Mix(0, angle); got != (robot.WheelCommand{}) {
			t.Errorf("Mix(0, %d) = %v, want all zero", angle, got)
		}
	}
}

func TestMix_Bounded(t *testing.T) {
	for speed := -100; speed <= 100; speed += 5 {
		for angle := 0; angle < 360; angle++ {
			got := Mix(speed, angle)
			if got.Max() > 100 {
				t.Fatalf("Mix(%d, %d) = %v exceeds 100", speed, angle, got)
			}
			limit := speed
			if limit < 0 {
				limit = -limit
			}
			if got.Max() > limit {
				t.Fatalf("Mix(%d, %d) = %v exceeds speed", speed, angle, got)
			}
		}
	}
}

func TestPolar(t *testing.T) {
	tests := []struct {
		x, y     int
		expected Vector
	}{
		{0, 0, Vector{0, 0}},
		{50, 0, Vector{50, 0}},
		{0, 50, Vector{50, 90}},
		{-50, 0, Vector{50, 180}},
		{0, -50, Vector{50, 270}},
		{30, 30, Vector{42, 45}},
		{-30, -30, Vector{42, 225}}, // third quadrant
		{30, -30, Vector{42, 315}},
		{100, 100, Vector{141, 45}},
		{10, 9, Vector{13, 42}}, // 41.99° rounds to nearest
	}

	for _, tt := range tests {
		if got := Polar(tt.x, tt.y); got != tt.expected {
			t.Errorf("Polar(%d, %d) = %+v, want %+v", tt.x, tt.y, got, tt.expected)
		}
	}
}

func TestBase_Move(t *testing.T) {
	rec := &recordingWheels{}
	base := NewBase(rec)
	ctx := context.Background()

	if err := base.MoveVector(ctx, Vector{Magnitude: 141, Direction: 0}); err != nil {
		t.Fatal(err)
	}
	if got := rec.last(); got != (robot.WheelCommand{NW: -50, NE: -50, SE: 50, SW: 50}) {
		t.Errorf("MoveVector wrote %v", got)
	}
}

func TestBase_Spin(t *testing.T) {
	rec := &recordingWheels{}
	base := NewBase(rec)
	ctx := context.Background()

	tests := []struct{ speed, expected int }{
		{30, 30},
		{-45, -45},
		{400, 100},
		{0, 0},
	}
	for _, tt := range tests {
		if err := base.Spin(ctx, tt.speed); err != nil {
			t.Fatal(err)
		}
		if got := rec.last(); got != robot.Uniform(tt.expected) {
			t.Errorf("Spin(%d) wrote %v, want all %d", tt.speed, got, tt.expected)
		}
	}

	base.Stop(ctx)
	if got := rec.last(); got != (robot.WheelCommand{}) {
		t.Errorf("Stop wrote %v", got)
	}
	if got := base.Last(); got != (robot.WheelCommand{}) {
		t.Errorf("Last() = %v after Stop", got)
	}
}
