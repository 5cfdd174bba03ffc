package cmd

import (
	"fmt"
	"runtime"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gophertribe/devtool/build"
)

type target struct {
	os   string
	arch string
}

// boards the sensors cli is deployed to
var boards = map[string]target{
	"rpi":    {os: "linux", arch: "arm64"},
	"nanopi": {os: "linux", arch: "arm"},
	"host":   {os: runtime.GOOS, arch: runtime.GOARCH},
}

func boardNames() string {
	names := make([]string, 0, len(boards))
	for name := range boards {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func BuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the sensors cli",
		RunE: func(cmd *cobra.Command, args []string) error {
			version := cmd.Flag("version").Value.String()
			board := cmd.Flag("board").Value.String()
			t, ok := boards[board]
			if !ok {
				return fmt.Errorf("unknown board %q, expected one of: %s", board, boardNames())
			}

			// native builds go straight to go build (cgo for the HID adapter),
			// other boards build inside their own container
			if t.os == runtime.GOOS && t.arch == runtime.GOARCH {
				return build.GoBuild(fmt.Sprintf("dist/sensors-%s", board), "./cmd/sensors", build.GoBuildOpts{
					Version:       version,
					InjectVersion: true,
					ConfigPackage: "github.com/mklimuk/sensorlog/pkg/config",
					EnableCgo:     true,
					Arch:          t.arch,
					OS:            t.os,
				})
			}

			noCache, err := cmd.Flags().GetBool("no-cache")
			if err != nil {
				return fmt.Errorf("could not get no-cache flag: %w", err)
			}
			return build.Docker(cmd.Context(), fmt.Sprintf("./dev-%s-%s", t.os, t.arch), []string{"build", "--version", version, "--board", board}, build.DockerBuildOpts{
				NoCache: noCache,
				Image:   "gophertribe/gobuild:1.25-bookworm",
			})
		},
	}
	cmd.Flags().Bool("no-cache", false, "do not use cache when building the app")
	cmd.Flags().String("version", "latest", "version of the cli")
	cmd.Flags().String("board", "host", "target board: "+boardNames())

	return cmd
}
