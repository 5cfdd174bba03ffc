package main

import (
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/sensorlog/adapter"
	"github.com/mklimuk/sensorlog/cmd/sensors/console"
)

var mcp2221Cmd = cli.Command{
	Name:  "mcp2221",
	Usage: "MCP2221 USB to I2C bridge maintenance",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "index",
			Usage: "adapter index when more than one is connected",
			Value: -1,
		},
	},
	Subcommands: cli.Commands{
		&mcp2221StatusCmd,
		&mcp2221ReleaseCmd,
	},
}

func mcp2221(c *cli.Context) *adapter.MCP2221 {
	if c.IsSet("index") {
		return adapter.NewMCP2221(adapter.WithDeviceIndex(c.Int("index")))
	}
	return adapter.NewMCP2221()
}

var mcp2221StatusCmd = cli.Command{
	Name: "status",
	Action: func(c *cli.Context) error {
		status, err := mcp2221(c).Status(commandContext(c))
		if err != nil {
			return console.Exit(1, "adapter communication error: %s", console.Red(err))
		}
		return encode(status)
	},
}

var mcp2221ReleaseCmd = cli.Command{
	Name:  "release",
	Usage: "cancel the current transfer and free the bus",
	Action: func(c *cli.Context) error {
		status, err := mcp2221(c).ReleaseBus(commandContext(c))
		if err != nil {
			return console.Exit(1, "adapter communication error: %s", console.Red(err))
		}
		return encode(status)
	},
}
