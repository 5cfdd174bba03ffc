package device

import (
	"context"
	"fmt"
)

// DetectAll detects sensors in order and stops at the first one that fails.
// The returned error names the failing device.
func DetectAll(ctx context.Context, sensors ...Sensor) error {
	for _, s := range sensors {
		if err := s.Detect(ctx); err != nil {
			return fmt.Errorf("could not detect %s: %w", s.Name(), err)
		}
	}
	return nil
}

// InitializeAll initializes sensors in order and stops at the first failure.
func InitializeAll(ctx context.Context, sensors ...Sensor) error {
	for _, s := range sensors {
		if err := s.Initialize(ctx); err != nil {
			return fmt.Errorf("could not initialize %s: %w", s.Name(), err)
		}
	}
	return nil
}

// Bring detects every sensor first and initializes only when all of them
// answered with the expected identity.
func Bring(ctx context.Context, sensors ...Sensor) error {
	if err := DetectAll(ctx, sensors...); err != nil {
		return err
	}
	return InitializeAll(ctx, sensors...)
}
