package orientation

import (
	"context"
	"errors"
	"fmt"

	"github.com/mklimuk/sensorlog/device"
	"github.com/mklimuk/sensorlog/imu"
)

var ErrUndefinedOrientation = fmt.Errorf("%w: orientation is undefined", device.ErrComputation)

type AccelerationSource interface {
	ReadAxes(ctx context.Context) (imu.Vector, error)
}

type MagneticSource interface {
	ReadAxes(ctx context.Context) (imu.Vector, error)
}

// Estimate is one fused orientation reading. Angles are in degrees.
type Estimate struct {
	Pitch              float64 `json:"pitch" yaml:"pitch"`
	Roll               float64 `json:"roll" yaml:"roll"`
	Heading            float64 `json:"heading" yaml:"heading"`
	CompensatedHeading float64 `json:"compensatedHeading" yaml:"compensatedHeading"`
	Compass            string  `json:"compass" yaml:"compass"`
}

type Opts struct {
	Tilt TiltOrder
}

type Opt func(*Opts)

// WithTiltOrder selects the tilt compensation order.
func WithTiltOrder(order TiltOrder) Opt {
	return func(o *Opts) {
		o.Tilt = order
	}
}

// WithRawTiltTerm is a shorthand for WithTiltOrder(RawTilt).
func WithRawTiltTerm() Opt {
	return WithTiltOrder(RawTilt)
}

// Estimator reads both sources on every call; it keeps no state between
// estimates.
type Estimator struct {
	acc    AccelerationSource
	mag    MagneticSource
	config Opts
}

func NewEstimator(acc AccelerationSource, mag MagneticSource, opts ...Opt) *Estimator {
	config := Opts{Tilt: InPlaceTilt}
	for _, opt := range opts {
		opt(&config)
	}
	return &Estimator{acc: acc, mag: mag, config: config}
}

func (e *Estimator) Estimate(ctx context.Context) (Estimate, error) {
	acc, err := e.acc.ReadAxes(ctx)
	if err != nil {
		return Estimate{}, fmt.Errorf("could not read acceleration: %w", err)
	}
	mag, err := e.mag.ReadAxes(ctx)
	if err != nil {
		return Estimate{}, fmt.Errorf("could not read magnetic field: %w", err)
	}
	return Compute(acc, mag, e.config.Tilt)
}

// Compute fuses raw accelerometer and magnetometer vectors.
func Compute(acc, mag imu.Vector, order TiltOrder) (Estimate, error) {
	nx, ny, err := imu.NormalizeXY(acc)
	if err != nil {
		return Estimate{}, fmt.Errorf("%w: %w", ErrUndefinedOrientation, err)
	}
	pitch := Pitch(nx)
	roll, err := Roll(ny, pitch)
	if err != nil {
		if errors.Is(err, ErrGimbalLock) {
			return Estimate{}, fmt.Errorf("%w: %w", ErrUndefinedOrientation, err)
		}
		return Estimate{}, err
	}
	mx, my, mz := float64(mag.X), float64(mag.Y), float64(mag.Z)
	compensated := CompensatedHeading(mx, my, mz, pitch, roll, order)
	return Estimate{
		Pitch:              degrees(pitch),
		Roll:               degrees(roll),
		Heading:            Heading(mx, my),
		CompensatedHeading: compensated,
		Compass:            CompassLabel(compensated),
	}, nil
}
