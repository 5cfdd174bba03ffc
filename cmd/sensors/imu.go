package main

import (
	"os"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/sensorlog/cmd/sensors/console"
	"github.com/mklimuk/sensorlog/device"
	"github.com/mklimuk/sensorlog/imu"
	"github.com/mklimuk/sensorlog/orientation"
)

var imuCmd = cli.Command{
	Name:  "imu",
	Usage: "inertial measurement unit readings",
	Subcommands: cli.Commands{
		&imuReadCmd,
		&imuOrientationCmd,
	},
}

type imuReading struct {
	Raw struct {
		Acceleration imu.Vector `yaml:"acceleration"`
		Rotation     imu.Vector `yaml:"rotation"`
		Magnetic     imu.Vector `yaml:"magnetic"`
	} `yaml:"raw"`
	Acceleration imu.Scaled `yaml:"acceleration_g"`
	Rotation     imu.Scaled `yaml:"rotation_dps"`
	Magnetic     imu.Scaled `yaml:"magnetic_gauss"`
}

var imuReadCmd = cli.Command{
	Name:  "read",
	Usage: "read the three axes of every inertial sensor",
	Action: func(c *cli.Context) error {
		b, err := openBoard(c)
		if err != nil {
			return console.Exit(1, "bus error: %s", console.Red(err))
		}
		defer b.Close()
		ctx := commandContext(c)
		err = device.Bring(ctx, b.acc, b.gyro, b.mag)
		if err != nil {
			return console.Exit(1, "initialization failed: %s", console.Red(err))
		}

		var r imuReading
		r.Raw.Acceleration, err = b.acc.ReadAxes(ctx)
		if err != nil {
			return console.Exit(1, "accelerometer read error: %s", console.Red(err))
		}
		r.Raw.Rotation, err = b.gyro.ReadAxes(ctx)
		if err != nil {
			return console.Exit(1, "gyroscope read error: %s", console.Red(err))
		}
		r.Raw.Magnetic, err = b.mag.ReadAxes(ctx)
		if err != nil {
			return console.Exit(1, "magnetometer read error: %s", console.Red(err))
		}
		r.Acceleration = imu.AccelerationG(r.Raw.Acceleration)
		r.Rotation = imu.RatesDps(r.Raw.Rotation)
		r.Magnetic = imu.FieldGauss(r.Raw.Magnetic)
		return encode(r)
	},
}

var imuOrientationCmd = cli.Command{
	Name:  "orientation",
	Usage: "compute pitch, roll and compass heading",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "tilt",
			Usage: "tilt compensation order: in-place or raw",
		},
	},
	Action: func(c *cli.Context) error {
		b, err := openBoard(c)
		if err != nil {
			return console.Exit(1, "bus error: %s", console.Red(err))
		}
		defer b.Close()
		ctx := commandContext(c)

		order := b.cfg.Tilt()
		if c.IsSet("tilt") {
			order, err = orientation.ParseTiltOrder(c.String("tilt"))
			if err != nil {
				return console.Exit(1, "%s", console.Red(err))
			}
		}
		err = device.Bring(ctx, b.acc, b.mag)
		if err != nil {
			return console.Exit(1, "initialization failed: %s", console.Red(err))
		}
		est, err := orientation.NewEstimator(b.acc, b.mag, orientation.WithTiltOrder(order)).Estimate(ctx)
		if err != nil {
			return console.Exit(1, "orientation error: %s", console.Red(err))
		}
		console.Printf("%s\npitch    %s°\nroll     %s°\nheading  %s° (%s)\ncompass  %s\n", console.PictoCompass,
			console.White(format(est.Pitch)), console.White(format(est.Roll)),
			console.White(format(est.CompensatedHeading)), format(est.Heading), console.Bold(est.Compass))
		return nil
	},
}

func encode(v any) error {
	enc := yaml.NewEncoder(os.Stdout)
	defer enc.Close()
	err := enc.Encode(v)
	if err != nil {
		return console.Exit(1, "encoding error: %s", console.Red(err))
	}
	return nil
}
