package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/gwillem/omnibot/pkg/robot"
)

type InfoCommand struct {
	Probe bool `long:"probe" description:"Open the configured hardware and read the compass, encoder and servos"`
}

func (c *InfoCommand) Execute(args []string) error {
	fmt.Println(headerStyle.Render("Omnibot Info"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━"))
	fmt.Println()

	cfg, err := robot.LoadConfigFrom(configPath())
	switch {
	case errors.Is(err, fs.ErrNotExist):
		fmt.Println(warnStyle.Render(fmt.Sprintf("No configuration at %s, showing defaults", configPath())))
		cfg = robot.DefaultConfig()
	case err != nil:
		return err
	}
	fmt.Println(renderConfig(cfg))
	fmt.Println()

	fmt.Println(subHeaderStyle.Render("Serial ports"))
	ports := scanPorts(cfg.Servos.BaudRate)
	if len(ports) == 0 {
		fmt.Println(dimStyle.Render("  none found"))
	}
	var servoRows [][]string
	for _, p := range ports {
		for _, s := range p.servos {
			servoRows = append(servoRows, []string{p.port, strconv.Itoa(s.ID), fmt.Sprintf("%v", s.Model)})
		}
	}
	if len(servoRows) > 0 {
		fmt.Println()
		fmt.Println(table.New().
			Border(lipgloss.RoundedBorder()).
			BorderStyle(dimStyle).
			Headers("Port", "Servo ID", "Model").
			Rows(servoRows...).
			Render())
	}

	if c.Probe {
		fmt.Println()
		return probe(cfg)
	}
	return nil
}

func renderConfig(cfg *robot.Config) string {
	port := func(p string) string {
		if p == "" {
			return "(not set)"
		}
		return p
	}
	code := func(v int) string {
		if v == 0 {
			return "(not set)"
		}
		return strconv.Itoa(v)
	}

	rows := [][]string{
		{"Bridge port", port(cfg.Bridge.Port)},
		{"Bridge baud", strconv.Itoa(cfg.Bridge.BaudRate)},
		{"Servo port", port(cfg.Servos.Port)},
		{"Calibrated servos", strconv.Itoa(len(cfg.Servos.Calibration))},
		{"Shaping", fmt.Sprintf("%s, max %d", cfg.Shaping.Mode, cfg.Shaping.MaxPower)},
		{"Heading law", fmt.Sprintf("%s, speed %d", cfg.Heading.Law, cfg.Heading.Speed)},
		{"Mount up/down", code(cfg.Positions.MountUp) + " / " + code(cfg.Positions.MountDown)},
		{"Scoop up/down", code(cfg.Positions.ScoopUp) + " / " + code(cfg.Positions.ScoopDown)},
		{"Drive tick", cfg.Timing.DriveTick.D().String()},
		{"Arm tick", cfg.Timing.ArmTick.D().String()},
	}

	keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == 0 {
				return keyStyle
			}
			return cellStyle
		}).
		Render()
}

func probe(cfg *robot.Config) error {
	fmt.Println(subHeaderStyle.Render("Hardware"))

	hw, err := robot.OpenHardware(cfg)
	if err != nil {
		return err
	}
	defer hw.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if h, err := hw.Heading(ctx); err != nil {
		fmt.Printf("  Heading: %v\n", err)
	} else {
		fmt.Printf("  Heading: %d°\n", h)
	}
	if pos, err := hw.ArmEncoder(ctx); err != nil {
		fmt.Printf("  Arm encoder: %v\n", err)
	} else {
		fmt.Printf("  Arm encoder: %d\n", pos)
	}
	if hw.Servos != nil {
		codes, err := hw.Servos.Codes(ctx)
		if err != nil {
			fmt.Printf("  Servos: %v\n", err)
		}
		for ch, code := range codes {
			fmt.Printf("  %s: code %d\n", ch, code)
		}
	}
	return nil
}
