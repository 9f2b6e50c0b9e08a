package main

import (
	"os"

	"github.com/jessevdk/go-flags"
)

type Options struct {
	Config string `short:"c" long:"config" description:"Configuration file (default: omnibot.json)"`

	Setup   SetupCommand   `command:"setup" description:"Pick serial ports, calibrate servos and save the configuration"`
	Info    InfoCommand    `command:"info" description:"Show the configuration, serial ports and servos on the chain"`
	Run     RunCommand     `command:"run" alias:"teleop" description:"Start teleoperation (drive and arm loops)"`
	Turn    TurnCommand    `command:"turn" description:"Turn the base to a compass heading"`
	ArmStep ArmStepCommand `command:"arm-step" description:"Move the arm by encoder steps"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

func main() {
	parser.LongDescription = "Omnibot - teleoperation CLI for a four-wheel omni-drive robot"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}
}
