// Package omnibot provides teleoperation control for a four-wheel holonomic robot.
//
// Two gamepads drive the robot: the first steers the chassis (left stick translates
// in any direction, right stick spins on the spot), the second runs the arm, the
// sweeper and the auxiliary servos.
//
// # Installation
//
//	go install github.com/gwillem/omnibot/cmd/omnibot@latest
//
// # Usage
//
// First, run setup to pick the serial ports and servo positions:
//
//	omnibot setup
//
// Then start teleoperation (add --sim to drive the simulated plant):
//
//	omnibot run
//
// # Packages
//
// The module is organized into the following packages:
//
//   - cmd/omnibot: CLI with setup, info, run, turn and arm-step commands
//   - pkg/shaping: joystick shaping (logarithmic table, linear deadband, power cap)
//   - pkg/drive: holonomic wheel mixing and spin
//   - pkg/heading: compass heading hold with stall retry
//   - pkg/arm: encoder-verified arm stepping, sweeper and servo setpoints
//   - pkg/robot: hardware boundary, serial motor bridge, Feetech servos, simulator, configuration
//   - pkg/teleop: drive and arm control loops and the supervisor
package omnibot
