package robot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/gwillem/omnibot/pkg/shaping"
)

const DefaultConfigFile = "omnibot.json"

// Config holds the robot configuration
type Config struct {
	Bridge    BridgeConfig  `json:"bridge"`
	Servos    ServoConfig   `json:"servos"`
	Shaping   ShapingConfig `json:"shaping"`
	Positions Positions     `json:"positions"`
	Heading   HeadingConfig `json:"heading"`
	Timing    Timing        `json:"timing"`
}

// BridgeConfig holds the serial motor bridge connection and channel numbers
type BridgeConfig struct {
	Port     string         `json:"port" env:"OMNIBOT_BRIDGE_PORT"`
	BaudRate int            `json:"baud_rate" env:"OMNIBOT_BRIDGE_BAUD"`
	Channels BridgeChannels `json:"channels"`
}

// BridgeChannels maps logical outputs to bridge channel numbers
type BridgeChannels struct {
	NW      int `json:"nw"`
	NE      int `json:"ne"`
	SE      int `json:"se"`
	SW      int `json:"sw"`
	Arm     int `json:"arm"`
	Sweeper int `json:"sweeper"`
}

// ServoConfig holds the Feetech servo bus connection
type ServoConfig struct {
	Port        string      `json:"port" env:"OMNIBOT_SERVO_PORT"`
	BaudRate    int         `json:"baud_rate" env:"OMNIBOT_SERVO_BAUD"`
	Calibration Calibration `json:"calibration,omitempty"`
}

// ShapingConfig selects the joystick transfer function
type ShapingConfig struct {
	Mode     string `json:"mode" env:"OMNIBOT_SHAPING_MODE"`
	MaxPower int    `json:"max_power" env:"OMNIBOT_MAX_POWER"`
}

// Positions holds servo setpoint codes. Zero means not configured.
type Positions struct {
	MountUp   int `json:"mount_up"`
	MountDown int `json:"mount_down"`
	ScoopUp   int `json:"scoop_up"`
	ScoopDown int `json:"scoop_down"`
}

// HeadingConfig holds heading-hold settings
type HeadingConfig struct {
	Law   string `json:"law" env:"OMNIBOT_HEADING_LAW"`
	Speed int    `json:"speed" env:"OMNIBOT_HEADING_SPEED"`
}

// Timing holds loop and polling intervals
type Timing struct {
	DriveTick     Duration `json:"drive_tick" env:"OMNIBOT_TIMING_DRIVE_TICK"`
	ArmTick       Duration `json:"arm_tick" env:"OMNIBOT_TIMING_ARM_TICK"`
	HeadingSample Duration `json:"heading_sample" env:"OMNIBOT_TIMING_HEADING_SAMPLE"`
	EncoderSettle Duration `json:"encoder_settle" env:"OMNIBOT_TIMING_ENCODER_SETTLE"`
	ArmPoll       Duration `json:"arm_poll" env:"OMNIBOT_TIMING_ARM_POLL"`
	ArmStallWarn  Duration `json:"arm_stall_warn" env:"OMNIBOT_TIMING_ARM_STALL_WARN"`
}

// Duration is a time.Duration encoded as a string such as "10ms".
type Duration time.Duration

// D returns the value as a time.Duration.
func (d Duration) D() time.Duration { return time.Duration(d) }

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalText parses a duration such as "10ms"; used for environment overrides.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// DefaultConfig returns the baseline configuration.
func DefaultConfig() *Config {
	return &Config{
		Bridge: BridgeConfig{
			BaudRate: 115200,
			Channels: BridgeChannels{NW: 1, NE: 2, SE: 3, SW: 4, Arm: 5, Sweeper: 1},
		},
		Servos: ServoConfig{
			BaudRate: 1_000_000,
		},
		Shaping: ShapingConfig{
			Mode:     shaping.Logarithmic.String(),
			MaxPower: shaping.MaxPower,
		},
		Positions: Positions{
			ScoopUp:   156,
			ScoopDown: 31,
		},
		Heading: HeadingConfig{
			Law:   "directional",
			Speed: 20,
		},
		Timing: Timing{
			DriveTick:     Duration(10 * time.Millisecond),
			ArmTick:       Duration(10 * time.Millisecond),
			HeadingSample: Duration(10 * time.Millisecond),
			EncoderSettle: Duration(10 * time.Millisecond),
			ArmPoll:       Duration(5 * time.Millisecond),
			ArmStallWarn:  Duration(2 * time.Second),
		},
	}
}

// HasBridge returns true if a motor bridge port is configured
func (c *Config) HasBridge() bool {
	return c.Bridge.Port != ""
}

// HasServos returns true if the servo bus is configured and calibrated
func (c *Config) HasServos() bool {
	return c.Servos.Port != "" && len(c.Servos.Calibration) > 0
}

// ShaperMode returns the parsed shaping mode.
func (c *Config) ShaperMode() (shaping.Mode, error) {
	return shaping.ParseMode(c.Shaping.Mode)
}

// Validate checks the configuration for values the controllers cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if _, err := c.ShaperMode(); err != nil {
		errs = append(errs, err)
	}
	switch c.Heading.Law {
	case "", "directional", "legacy":
	default:
		errs = append(errs, fmt.Errorf("unknown heading law %q", c.Heading.Law))
	}
	if c.Heading.Speed < 0 {
		errs = append(errs, fmt.Errorf("heading speed must not be negative, got %d", c.Heading.Speed))
	}
	for name, v := range map[string]int{
		"mount_up":   c.Positions.MountUp,
		"mount_down": c.Positions.MountDown,
		"scoop_up":   c.Positions.ScoopUp,
		"scoop_down": c.Positions.ScoopDown,
	} {
		if v < MinServoCode || v > MaxServoCode {
			errs = append(errs, fmt.Errorf("position %s out of range [%d, %d]: %d", name, MinServoCode, MaxServoCode, v))
		}
	}
	for name, d := range map[string]Duration{
		"drive_tick":     c.Timing.DriveTick,
		"arm_tick":       c.Timing.ArmTick,
		"heading_sample": c.Timing.HeadingSample,
		"arm_poll":       c.Timing.ArmPoll,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("timing %s must be positive", name))
		}
	}
	return errors.Join(errs...)
}

// LoadConfigFrom loads configuration from a specific file. Values missing from
// the file keep their defaults; OMNIBOT_* environment variables override both.
func LoadConfigFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, fmt.Errorf("apply environment overrides: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// ApplyEnv applies OMNIBOT_* environment variable overrides. Unset variables
// leave the current values in place.
func (c *Config) ApplyEnv() error {
	return env.Parse(c)
}

// SaveTo saves configuration to a specific file
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
