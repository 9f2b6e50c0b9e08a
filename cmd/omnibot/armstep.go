package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/gwillem/omnibot/pkg/arm"
)

type ArmStepCommand struct {
	simFlags
	Down  bool `short:"d" long:"down" description:"Step down instead of up"`
	Count int  `short:"n" long:"count" default:"1" description:"Number of steps"`
	Size  int  `long:"size" default:"100" description:"Encoder ticks per step"`
	Speed int  `long:"speed" default:"50" description:"Arm motor power during a step"`
}

func (c *ArmStepCommand) Execute(args []string) error {
	cfg, err := loadSettings(c.Sim)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	p, _, closePlant, err := openPlant(ctx, cfg, c.simFlags)
	if err != nil {
		return err
	}
	defer closePlant()

	stepper := arm.NewStepper(p)
	stepper.Settle = cfg.Timing.EncoderSettle.D()
	stepper.Poll = cfg.Timing.ArmPoll.D()
	stepper.StallWarn = cfg.Timing.ArmStallWarn.D()
	stepper.Logf = func(format string, args ...any) {
		fmt.Println(warnStyle.Render(fmt.Sprintf(format, args...)))
	}

	speed := c.Speed
	if c.Down {
		speed = -speed
	}
	defer stepper.Drive(context.Background(), 0)

	for i := 1; i <= c.Count; i++ {
		if err := stepper.Step(ctx, speed, c.Size); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
		pos, err := p.ArmEncoder(ctx)
		if err != nil {
			return fmt.Errorf("read encoder: %w", err)
		}
		fmt.Printf("Step %d/%d done at %d ticks\n", i, c.Count, pos)
	}
	fmt.Println(successStyle.Render("Arm step complete"))
	return nil
}
