package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/gwillem/omnibot/pkg/robot"
	"github.com/gwillem/omnibot/pkg/teleop"
)

type TurnCommand struct {
	simFlags
	Relative bool   `short:"r" long:"relative" description:"Turn by the given angle instead of to a heading; positive is counter-clockwise"`
	Law      string `long:"law" choice:"directional" choice:"legacy" description:"Override the configured control law"`
	Speed    int    `long:"speed" description:"Override the configured starting spin speed"`

	Args struct {
		Degrees int `positional-arg-name:"degrees" required:"yes"`
	} `positional-args:"yes"`
}

func (c *TurnCommand) Execute(args []string) error {
	cfg, err := loadSettings(c.Sim)
	if err != nil {
		return err
	}
	if c.Law != "" {
		cfg.Heading.Law = c.Law
	}
	if c.Speed > 0 {
		cfg.Heading.Speed = c.Speed
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	p, _, closePlant, err := openPlant(ctx, cfg, c.simFlags)
	if err != nil {
		return err
	}
	defer closePlant()

	ctrl, err := newIdleController(p, cfg)
	if err != nil {
		return err
	}
	go printLogs(ctx, ctrl)

	start, err := p.Heading(ctx)
	if err != nil {
		return fmt.Errorf("read heading: %w", err)
	}
	fmt.Printf("Current heading: %d°\n", start)

	var ok bool
	if c.Relative {
		ok, err = ctrl.TurnBy(ctx, c.Args.Degrees)
	} else {
		ok, err = ctrl.Turn(ctx, c.Args.Degrees)
	}
	if err != nil {
		return err
	}

	end, err := p.Heading(ctx)
	if err != nil {
		return fmt.Errorf("read heading: %w", err)
	}
	if !ok {
		return fmt.Errorf("turn failed, stopped at %d°", end)
	}
	fmt.Println(successStyle.Render(fmt.Sprintf("Reached %d°", end)))
	return nil
}

// newIdleController builds a controller whose gamepads never move, for
// commands that use a single operation outside the teleoperation loops.
func newIdleController(p plant, cfg *robot.Config) (*teleop.Controller, error) {
	idle := robot.NewVirtualGamepad(0)
	return teleop.NewController(teleop.Config{
		Bus:      p,
		Compass:  p,
		Start:    p,
		DrivePad: idle,
		ArmPad:   idle,
		Settings: cfg,
	})
}

func printLogs(ctx context.Context, ctrl *teleop.Controller) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-ctrl.Logs():
			fmt.Println(dimStyle.Render(msg))
		}
	}
}
