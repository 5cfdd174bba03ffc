package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gophertribe/devtool/test"
	"github.com/spf13/cobra"
)

type step struct {
	name string
	run  func() error
}

var (
	unitTests        = step{name: "tests", run: func() error { return test.Test() }}
	lint             = step{name: "linting", run: func() error { return test.Lint() }}
	integrationTests = step{name: "integration testing", run: func() error { return test.Integ() }}
)

func runSteps(steps ...step) error {
	for _, s := range steps {
		start := time.Now()
		slog.Info("running", "step", s.name)
		if err := s.run(); err != nil {
			return fmt.Errorf("failed to run %s: %w", s.name, err)
		}
		slog.Debug("done", "step", s.name, "took", time.Since(start))
	}
	return nil
}

func stepCmd(use, short string, steps ...step) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSteps(steps...)
		},
	}
}

func TestCmd() *cobra.Command {
	return stepCmd("test", "Run unit tests", unitTests)
}

func LintCmd() *cobra.Command {
	return stepCmd("lint", "Run linting", lint)
}

func IntegrationTestCmd() *cobra.Command {
	return stepCmd("integration-test", "Run integration testing (needs a board on the bus)", integrationTests)
}

// CheckCmd is what CI runs before a build.
func CheckCmd() *cobra.Command {
	return stepCmd("check", "Run linting and unit tests", lint, unitTests)
}
