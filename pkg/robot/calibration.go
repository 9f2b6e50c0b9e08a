package robot

import (
	"encoding/json"
	"fmt"
	"os"
)

// ServoCalibration maps the servo code range onto a Feetech servo's raw positions.
type ServoCalibration struct {
	ID       int `json:"id"`
	RangeMin int `json:"range_min"`
	RangeMax int `json:"range_max"`
}

// Calibration holds calibration data for the positional servos, keyed by channel.
type Calibration map[ServoChannel]ServoCalibration

// LoadCalibration loads calibration data from a JSON file.
func LoadCalibration(path string) (Calibration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read calibration file: %w", err)
	}

	var raw map[string]ServoCalibration
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse calibration JSON: %w", err)
	}

	cal := make(Calibration, len(raw))
	for name, sc := range raw {
		cal[ServoChannel(name)] = sc
	}

	return cal, nil
}

// Normalize converts a raw servo position to a setpoint code in [0, 255].
func (c ServoCalibration) Normalize(raw int) int {
	rangeSize := c.RangeMax - c.RangeMin
	if rangeSize == 0 {
		return MinServoCode
	}
	code := (raw - c.RangeMin) * MaxServoCode / rangeSize
	return ClampServoCode(code)
}

// Denormalize converts a setpoint code to a raw servo position.
func (c ServoCalibration) Denormalize(code int) int {
	code = ClampServoCode(code)
	return c.RangeMin + code*(c.RangeMax-c.RangeMin)/MaxServoCode
}

// ServoIDs returns the servo IDs in channel order (mount, then scoop).
func (c Calibration) ServoIDs() []int {
	ids := make([]int, 0, len(c))
	for _, ch := range []ServoChannel{Mount, Scoop} {
		if sc, ok := c[ch]; ok {
			ids = append(ids, sc.ID)
		}
	}
	return ids
}

// ByID returns the channel and calibration for a given servo ID.
func (c Calibration) ByID(id int) (ServoChannel, ServoCalibration, bool) {
	for ch, sc := range c {
		if sc.ID == id {
			return ch, sc, true
		}
	}
	return "", ServoCalibration{}, false
}
