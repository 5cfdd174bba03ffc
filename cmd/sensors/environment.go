package main

import (
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/sensorlog/cmd/sensors/console"
	"github.com/mklimuk/sensorlog/device"
	"github.com/mklimuk/sensorlog/environment"
)

var environmentCmd = cli.Command{
	Name:    "environment",
	Aliases: []string{"env"},
	Usage:   "BMP280 temperature, pressure and altitude",
	Subcommands: cli.Commands{
		&environmentReadCmd,
	},
}

var environmentReadCmd = cli.Command{
	Name: "read",
	Flags: []cli.Flag{
		&cli.Float64Flag{
			Name:  "sea-level",
			Usage: "reference sea level pressure in hPa",
		},
	},
	Action: func(c *cli.Context) error {
		b, err := openBoard(c)
		if err != nil {
			return console.Exit(1, "bus error: %s", console.Red(err))
		}
		defer b.Close()
		ctx := commandContext(c)
		if c.IsSet("sea-level") {
			b.alti = environment.NewAltimeter(b.chip, environment.WithSeaLevelPressure(c.Float64("sea-level")))
		}
		err = device.Bring(ctx, b.thermo, b.baro, b.alti)
		if err != nil {
			return console.Exit(1, "initialization failed: %s", console.Red(err))
		}

		temp, err := b.thermo.ReadTemperatureF(ctx)
		if err != nil {
			return console.Exit(1, "temperature read error: %s", console.Red(err))
		}
		pressure, err := b.baro.ReadPressureHpa(ctx)
		if err != nil {
			return console.Exit(1, "pressure read error: %s", console.Red(err))
		}
		altitude, err := b.alti.ReadAltitudeFt(ctx)
		if err != nil {
			return console.Exit(1, "altitude read error: %s", console.Red(err))
		}
		console.Printf("%s  %s°F\n", console.PictoThermometer, console.White(format(temp)))
		console.Printf("%s %s hPa\n", console.PictoBarometer, console.White(format(pressure)))
		console.Printf("%s %s ft\n", console.PictoMountain, console.White(format(altitude)))
		return nil
	},
}

func format(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
