// Package imu drives the three sensors of an ST LSM9DS1 inertial module.
//
// Typical usage:
//
//	port := device.NewPort(bus)
//	acc := imu.NewAccelerometer(port)
//	if err := device.Bring(ctx, acc); err != nil { ... }
//	v, err := acc.ReadAxes(ctx)
package imu

import (
	"context"
	"fmt"

	"github.com/mklimuk/sensorlog/device"
)

var ErrZeroNorm = fmt.Errorf("%w: zero-norm acceleration vector", device.ErrComputation)

// Vector holds one signed reading per axis.
type Vector struct {
	X int32 `json:"x" yaml:"x"`
	Y int32 `json:"y" yaml:"y"`
	Z int32 `json:"z" yaml:"z"`
}

// Scaled is a Vector converted to physical units.
type Scaled struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

func (v Vector) scale(gain float64) Scaled {
	return Scaled{X: float64(v.X) * gain, Y: float64(v.Y) * gain, Z: float64(v.Z) * gain}
}

type Opts struct {
	Address byte
}

type Opt func(*Opts)

// WithAddress overrides the default bus address of the sensor.
func WithAddress(address byte) Opt {
	return func(o *Opts) {
		o.Address = address
	}
}

type axisMap struct {
	x, y, z byte
}

// inertial is the part shared by the three LSM9DS1 sensors.
type inertial struct {
	*device.Device
	axes axisMap
	init []device.Register
}

func newInertial(port *device.Port, desc device.Descriptor, axes axisMap, init []device.Register, opts []Opt) inertial {
	config := Opts{Address: desc.Address}
	for _, opt := range opts {
		opt(&config)
	}
	desc.Address = config.Address
	return inertial{Device: device.New(port, desc), axes: axes, init: init}
}

// Initialize writes the sensor configuration registers.
func (s *inertial) Initialize(ctx context.Context) error {
	if err := s.WriteRegisters(ctx, s.init); err != nil {
		return fmt.Errorf("could not configure %s: %w", s.Name(), err)
	}
	return nil
}

func (s *inertial) ReadX(ctx context.Context) (int32, error) {
	return s.ReadAxis(ctx, s.axes.x)
}

func (s *inertial) ReadY(ctx context.Context) (int32, error) {
	return s.ReadAxis(ctx, s.axes.y)
}

func (s *inertial) ReadZ(ctx context.Context) (int32, error) {
	return s.ReadAxis(ctx, s.axes.z)
}

// ReadAxes reads X, Y and Z in that order.
func (s *inertial) ReadAxes(ctx context.Context) (Vector, error) {
	var v Vector
	var err error
	if v.X, err = s.ReadX(ctx); err != nil {
		return Vector{}, err
	}
	if v.Y, err = s.ReadY(ctx); err != nil {
		return Vector{}, err
	}
	if v.Z, err = s.ReadZ(ctx); err != nil {
		return Vector{}, err
	}
	return v, nil
}
