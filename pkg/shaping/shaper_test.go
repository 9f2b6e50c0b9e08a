package shaping

import "testing"

func TestShape_Logarithmic(t *testing.T) {
	tests := []struct {
		raw      int
		expected int
	}{
		{0, 0},
		{3, 0},
		{4, 0},
		{8, 6},
		{-8, -6},
		{52, 22},
		{60, 24},
		{64, 30},
		{124, 100},
		{127, 100},
		{-127, -100},
		{-128, -100}, // folded to -127
		{500, 100},   // clamped
	}

	for _, tt := range tests {
		got := Shape(tt.raw, Logarithmic, MaxPower)
		if got != tt.expected {
			t.Errorf("Shape(%d, log) = %d, want %d", tt.raw, got, tt.expected)
		}
	}
}

func TestShape_Linear(t *testing.T) {
	tests := []struct {
		raw      int
		expected int
	}{
		{0, 0},
		{9, 0},   // deadband
		{-9, 0},  // deadband
		{10, 7},  // 1000/127
		{-10, -7},
		{64, 50},
		{127, 100},
		{-128, -100},
	}

	for _, tt := range tests {
		got := Shape(tt.raw, Linear, MaxPower)
		if got != tt.expected {
			t.Errorf("Shape(%d, linear) = %d, want %d", tt.raw, got, tt.expected)
		}
	}
}

func TestShape_MaxPower(t *testing.T) {
	tests := []struct {
		raw      int
		mode     Mode
		maxPower int
		expected int
	}{
		{127, Logarithmic, 50, 50},
		{-127, Logarithmic, 50, -50},
		{127, Linear, 30, 30},
		{64, Linear, 50, 25},
		{127, Logarithmic, 0, 100},   // ignored
		{127, Logarithmic, -20, 100}, // ignored
		{127, Logarithmic, 150, 100}, // ignored
		{127, Logarithmic, 100, 100},
	}

	for _, tt := range tests {
		got := Shape(tt.raw, tt.mode, tt.maxPower)
		if got != tt.expected {
			t.Errorf("Shape(%d, %s, %d) = %d, want %d", tt.raw, tt.mode, tt.maxPower, got, tt.expected)
		}
	}
}

func TestShape_Bounded(t *testing.T) {
	for _, mode := range []Mode{Logarithmic, Linear} {
		for _, maxPower := range []int{1, 25, 50, 99, 100} {
			for raw := MinRaw; raw <= MaxRaw; raw++ {
				got := Shape(raw, mode, maxPower)
				if abs(got) > maxPower {
					t.Fatalf("Shape(%d, %s, %d) = %d exceeds cap", raw, mode, maxPower, got)
				}
			}
		}
	}
}

func TestShape_ZeroIsZero(t *testing.T) {
	for _, mode := range []Mode{Logarithmic, Linear} {
		for _, maxPower := range []int{0, 50, 100} {
			if got := Shape(0, mode, maxPower); got != 0 {
				t.Errorf("Shape(0, %s, %d) = %d, want 0", mode, maxPower, got)
			}
		}
	}
}

func TestShape_LogarithmicMonotonic(t *testing.T) {
	prev := 0
	for raw := 0; raw <= MaxRaw; raw++ {
		got := Shape(raw, Logarithmic, MaxPower)
		if got < prev {
			t.Fatalf("Shape(%d) = %d, decreased from %d", raw, got, prev)
		}
		if neg := Shape(-raw, Logarithmic, MaxPower); neg != -got {
			t.Fatalf("Shape(%d) = %d, not symmetric with %d", -raw, neg, got)
		}
		prev = got
	}
}

func TestShaper(t *testing.T) {
	s := Shaper{Mode: Linear, MaxPower: 50}
	if got := s.Shape(127); got != 50 {
		t.Errorf("Shaper.Shape(127) = %d, want 50", got)
	}
	if got := Default().Shape(127); got != 100 {
		t.Errorf("Default().Shape(127) = %d, want 100", got)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in       string
		expected Mode
		wantErr  bool
	}{
		{"", Logarithmic, false},
		{"logarithmic", Logarithmic, false},
		{"linear", Linear, false},
		{"cubic", Logarithmic, true},
	}

	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.expected {
			t.Errorf("ParseMode(%q) = %s, want %s", tt.in, got, tt.expected)
		}
	}
}

func TestLogScale_SizedForDeviceRange(t *testing.T) {
	if got, want := len(logScale), -MinRaw/TableStep+1; got != want {
		t.Fatalf("len(logScale) = %d, want %d", got, want)
	}
	if last := logScale[len(logScale)-1]; last != MaxPower {
		t.Errorf("last entry = %d, want %d", last, MaxPower)
	}
	for i := 1; i < len(logScale); i++ {
		if logScale[i] < logScale[i-1] {
			t.Errorf("logScale[%d] = %d < logScale[%d] = %d", i, logScale[i], i-1, logScale[i-1])
		}
	}
}
