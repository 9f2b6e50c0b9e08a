package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/gwillem/omnibot/pkg/robot"
)

// plant is everything the controllers talk to: real hardware or the simulator.
type plant interface {
	robot.ActuatorBus
	robot.OrientationSensor
	robot.StartSignal
}

type simFlags struct {
	Sim     bool    `long:"sim" description:"Use the built-in simulator instead of hardware"`
	Heading float64 `long:"sim-heading" default:"0" description:"Simulator start heading in degrees"`
}

// openPlant returns the configured hardware, or a running simulator when
// requested. The returned close function stops whichever was opened.
func openPlant(ctx context.Context, cfg *robot.Config, sf simFlags) (plant, *robot.Sim, func() error, error) {
	if sf.Sim {
		simCfg := robot.DefaultSimConfig()
		simCfg.StartHeading = sf.Heading
		sim := robot.NewSim(simCfg)
		ctx, cancel := context.WithCancel(ctx)
		go sim.Run(ctx, 5*time.Millisecond)
		return sim, sim, func() error { cancel(); return nil }, nil
	}

	if !cfg.HasBridge() {
		return nil, nil, nil, fmt.Errorf("no motor bridge configured; run 'omnibot setup' or use --sim")
	}
	hw, err := robot.OpenHardware(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	return hw, nil, hw.Close, nil
}

// loadSettings reads the configuration file. With allowMissing a missing file
// falls back to the defaults, so the simulator runs without setup.
func loadSettings(allowMissing bool) (*robot.Config, error) {
	cfg, err := robot.LoadConfigFrom(configPath())
	if err == nil {
		return cfg, nil
	}
	if !allowMissing || !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", configPath(), err)
	}

	cfg = robot.DefaultConfig()
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func configPath() string {
	if opts.Config == "" {
		return robot.DefaultConfigFile
	}
	return opts.Config
}
