package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/sensorlog/cmd/sensors/console"
	"github.com/mklimuk/sensorlog/device"
)

var detectCmd = cli.Command{
	Name:  "detect",
	Usage: "check the identity register of every board sensor",
	Action: func(c *cli.Context) error {
		b, err := openBoard(c)
		if err != nil {
			return console.Exit(1, "bus error: %s", console.Red(err))
		}
		defer b.Close()
		ctx := commandContext(c)

		w := tabwriter.NewWriter(os.Stdout, 16, 0, 1, ' ', 0)
		_, _ = fmt.Fprintf(w, "SENSOR\tADDRESS\tSTATUS\n")
		failed := 0
		for _, s := range b.sensors {
			status := console.Green("ok")
			if err := s.Detect(ctx); err != nil {
				status = console.Red(err)
				failed++
			}
			_, _ = fmt.Fprintf(w, "%s\t%#02x\t%s\n", s.Name(), address(s), status)
		}
		_ = w.Flush()
		if failed > 0 {
			return console.Exit(2, "%d sensor(s) not detected", failed)
		}
		return nil
	},
}

var initCmd = cli.Command{
	Name:  "init",
	Usage: "detect the board sensors and write their configuration registers",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    "yes",
			Aliases: []string{"y"},
			Usage:   "do not ask for confirmation",
		},
	},
	Action: func(c *cli.Context) error {
		b, err := openBoard(c)
		if err != nil {
			return console.Exit(1, "bus error: %s", console.Red(err))
		}
		defer b.Close()
		ctx := commandContext(c)

		if !c.Bool("yes") {
			ok, err := console.Confirm("write configuration registers of the IMU and the BMP280?")
			if err != nil {
				return console.Exit(1, "prompt error: %s", console.Red(err))
			}
			if !ok {
				console.Warn("aborted")
				return nil
			}
		}
		err = device.Bring(ctx, b.sensors...)
		if err != nil {
			return console.Exit(1, "initialization failed: %s", console.Red(err))
		}
		console.Infof("%s board initialized", console.Green("✓"))
		return nil
	},
}

type described interface {
	Descriptor() device.Descriptor
}

func address(s device.Sensor) byte {
	if d, ok := s.(described); ok {
		return d.Descriptor().Address
	}
	return 0
}

