package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/karalabe/hid"
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/sensorlog/adapter"
	"github.com/mklimuk/sensorlog/cmd/sensors/console"
)

// bridges known to carry the sensor bus
var bridges = map[[2]uint16]string{
	{adapter.VendorID, adapter.ProductID}: "MCP2221",
}

var usbCmd = cli.Command{
	Name:  "usb",
	Usage: "list USB HID devices",
	Subcommands: cli.Commands{
		&usbLsCmd,
		&usbDetectCmd,
	},
}

var usbLsCmd = cli.Command{
	Name: "ls",
	Action: func(c *cli.Context) error {
		w := tabwriter.NewWriter(os.Stdout, 24, 0, 1, ' ', 0)
		_, _ = fmt.Fprintf(w, "PATH\tSERIAL\tVENDOR\tPRODUCT ID\tMANUFACTURER\tPRODUCT\n")
		for _, dev := range hid.Enumerate(0, 0) {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%#x\t%#x\t%s\t%s\n",
				dev.Path, dev.Serial, dev.VendorID, dev.ProductID, dev.Manufacturer, dev.Product)
		}
		return w.Flush()
	},
}

var usbDetectCmd = cli.Command{
	Name:  "detect",
	Usage: "list connected I2C bridges with the index to pass to mcp2221 --index",
	Action: func(c *cli.Context) error {
		w := tabwriter.NewWriter(os.Stdout, 12, 0, 1, ' ', 0)
		_, _ = fmt.Fprintf(w, "INDEX\tVENDOR\tPRODUCT\tBRIDGE\tPATH\n")
		found := 0
		indexes := make(map[string]int)
		for _, dev := range hid.Enumerate(0, 0) {
			name, ok := bridges[[2]uint16{dev.VendorID, dev.ProductID}]
			if !ok {
				continue
			}
			_, _ = fmt.Fprintf(w, "%d\t%#x\t%#x\t%s\t%s\n", indexes[name], dev.VendorID, dev.ProductID, name, dev.Path)
			indexes[name]++
			found++
		}
		_ = w.Flush()
		if found == 0 {
			console.Warn("no I2C bridge connected")
		}
		return nil
	},
}
