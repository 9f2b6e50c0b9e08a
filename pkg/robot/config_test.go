package robot

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.HasBridge() || cfg.HasServos() {
		t.Error("default config should not have hardware configured")
	}
	if cfg.Positions.ScoopUp != 156 || cfg.Positions.ScoopDown != 31 {
		t.Errorf("scoop positions = %+v", cfg.Positions)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad mode", func(c *Config) { c.Shaping.Mode = "cubic" }, "shaping mode"},
		{"bad law", func(c *Config) { c.Heading.Law = "pid" }, "heading law"},
		{"negative speed", func(c *Config) { c.Heading.Speed = -1 }, "heading speed"},
		{"position range", func(c *Config) { c.Positions.MountUp = 300 }, "mount_up"},
		{"zero tick", func(c *Config) { c.Timing.DriveTick = 0 }, "drive_tick"},
	}

	for _, tt := range tests {
		cfg := DefaultConfig()
		tt.mutate(cfg)
		err := cfg.Validate()
		if err == nil {
			t.Errorf("%s: Validate() succeeded, want error", tt.name)
			continue
		}
		if !strings.Contains(err.Error(), tt.wantErr) {
			t.Errorf("%s: error %q does not mention %q", tt.name, err, tt.wantErr)
		}
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "omnibot.json")

	cfg := DefaultConfig()
	cfg.Bridge.Port = "/dev/ttyACM0"
	cfg.Positions.MountUp = 200
	cfg.Positions.MountDown = 40
	cfg.Timing.ArmPoll = Duration(7 * time.Millisecond)
	cfg.Servos.Port = "/dev/ttyUSB0"
	cfg.Servos.Calibration = Calibration{Mount: {ID: 1, RangeMin: 1000, RangeMax: 3000}}

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded, err := LoadConfigFrom(path)
	if err != nil {
		t.Fatalf("LoadConfigFrom: %v", err)
	}
	if loaded.Bridge.Port != "/dev/ttyACM0" {
		t.Errorf("bridge port = %q", loaded.Bridge.Port)
	}
	if loaded.Timing.ArmPoll.D() != 7*time.Millisecond {
		t.Errorf("arm poll = %v", loaded.Timing.ArmPoll.D())
	}
	if loaded.Positions.MountDown != 40 {
		t.Errorf("mount down = %d", loaded.Positions.MountDown)
	}
	if !loaded.HasServos() {
		t.Error("HasServos() = false after load")
	}
}

func TestLoadConfigFrom_KeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "omnibot.json")
	if err := os.WriteFile(path, []byte(`{"bridge": {"port": "/dev/ttyACM1"}}`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfigFrom(path)
	if err != nil {
		t.Fatalf("LoadConfigFrom: %v", err)
	}
	if cfg.Bridge.BaudRate != 115200 {
		t.Errorf("baud rate = %d, want default", cfg.Bridge.BaudRate)
	}
	if cfg.Timing.DriveTick.D() != 10*time.Millisecond {
		t.Errorf("drive tick = %v, want default", cfg.Timing.DriveTick.D())
	}
}

func TestLoadConfigFrom_BadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "omnibot.json")
	if err := os.WriteFile(path, []byte(`{"timing": {"arm_poll": "soon"}}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfigFrom(path); err == nil {
		t.Error("LoadConfigFrom accepted an unparseable duration")
	}
}

func TestConfig_ApplyEnv(t *testing.T) {
	t.Setenv("OMNIBOT_MAX_POWER", "60")
	t.Setenv("OMNIBOT_SHAPING_MODE", "linear")
	t.Setenv("OMNIBOT_TIMING_DRIVE_TICK", "20ms")
	t.Setenv("OMNIBOT_BRIDGE_PORT", "/dev/ttyS3")

	cfg := DefaultConfig()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if cfg.Shaping.MaxPower != 60 || cfg.Shaping.Mode != "linear" {
		t.Errorf("shaping = %+v", cfg.Shaping)
	}
	if cfg.Timing.DriveTick.D() != 20*time.Millisecond {
		t.Errorf("drive tick = %v", cfg.Timing.DriveTick.D())
	}
	if cfg.Bridge.Port != "/dev/ttyS3" {
		t.Errorf("bridge port = %q", cfg.Bridge.Port)
	}

	t.Setenv("OMNIBOT_MAX_POWER", "lots")
	if err := DefaultConfig().ApplyEnv(); err == nil {
		t.Error("ApplyEnv accepted a non-numeric max power")
	}
}

func TestConfig_ApplyEnv_KeepsUnset(t *testing.T) {
	t.Setenv("OMNIBOT_TIMING_ARM_STALL_WARN", "5s")

	cfg := DefaultConfig()
	cfg.Servos.Port = "/dev/ttyUSB1"
	cfg.Heading.Speed = 30
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if cfg.Timing.ArmStallWarn.D() != 5*time.Second {
		t.Errorf("arm stall warn = %v, want 5s", cfg.Timing.ArmStallWarn.D())
	}
	if cfg.Servos.Port != "/dev/ttyUSB1" || cfg.Heading.Speed != 30 {
		t.Errorf("unset variables changed values: servos %+v, heading %+v", cfg.Servos, cfg.Heading)
	}
	if cfg.Timing.DriveTick.D() != 10*time.Millisecond {
		t.Errorf("drive tick = %v, want default", cfg.Timing.DriveTick.D())
	}

	t.Setenv("OMNIBOT_TIMING_ARM_POLL", "soon")
	if err := DefaultConfig().ApplyEnv(); err == nil {
		t.Error("ApplyEnv accepted an unparseable duration")
	}
}
