package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/sensorlog/cmd/sensors/console"
	"github.com/mklimuk/sensorlog/device"
	"github.com/mklimuk/sensorlog/monitor"
	"github.com/mklimuk/sensorlog/server"
)

var monitorCmd = cli.Command{
	Name:  "monitor",
	Usage: "poll the board and publish every snapshot",
	Flags: []cli.Flag{
		&cli.DurationFlag{
			Name:  "interval",
			Usage: "polling interval",
		},
		&cli.BoolFlag{
			Name:  "mqtt",
			Usage: "publish snapshots to the configured MQTT broker",
		},
		&cli.StringFlag{
			Name:  "broker",
			Usage: "MQTT broker url, overrides the configuration",
		},
		&cli.BoolFlag{
			Name:  "http",
			Usage: "serve the HTTP API and the websocket stream",
		},
		&cli.StringFlag{
			Name:  "listen",
			Usage: "HTTP listen address, overrides the configuration",
		},
	},
	Action: func(c *cli.Context) error {
		b, err := openBoard(c)
		if err != nil {
			return console.Exit(1, "bus error: %s", console.Red(err))
		}
		defer b.Close()
		ctx, stop := signal.NotifyContext(commandContext(c), os.Interrupt, syscall.SIGTERM)
		defer stop()

		err = device.Bring(ctx, b.sensors...)
		if err != nil {
			return console.Exit(1, "initialization failed: %s", console.Red(err))
		}

		interval := b.cfg.Monitor.Interval
		if c.IsSet("interval") {
			interval = c.Duration("interval")
		}
		poller := monitor.NewPoller(monitor.Sources{
			Accelerometer: b.acc,
			Gyroscope:     b.gyro,
			Magnetometer:  b.mag,
			Thermometer:   b.thermo,
			Barometer:     b.baro,
			Altimeter:     b.alti,
		}, monitor.WithInterval(interval), monitor.WithTiltOrder(b.cfg.Tilt()))

		if c.Bool("mqtt") {
			broker := b.cfg.MQTT.Broker
			if c.IsSet("broker") {
				broker = c.String("broker")
			}
			if broker == "" {
				return console.Exit(1, "mqtt broker is not configured")
			}
			client, err := monitor.ConnectMQTT(ctx, broker, b.cfg.MQTT.ClientID)
			if err != nil {
				return console.Exit(1, "mqtt error: %s", console.Red(err))
			}
			defer client.Disconnect(250)
			poller.AddSink(monitor.NewMQTTSink(client, b.cfg.MQTT.Prefix, b.cfg.MQTT.QoS))
			console.PInfof(console.PictoSatellite, "publishing to %s under %s", console.White(broker), b.cfg.MQTT.Prefix)
		}

		errs := make(chan error, 1)
		if c.Bool("http") {
			listen := b.cfg.HTTP.Listen
			if c.IsSet("listen") {
				listen = c.String("listen")
			}
			go func() {
				err := server.ListenAndServe(ctx, listen, server.New(poller))
				if err != nil {
					stop()
				}
				errs <- err
			}()
		} else {
			close(errs)
		}

		console.Debugf("polling every %s", interval)
		err = poller.Run(ctx)
		stop()
		if srvErr := <-errs; srvErr != nil {
			err = errors.Join(err, srvErr)
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			return console.Exit(1, "monitor error: %s", console.Red(err))
		}
		return nil
	},
}
