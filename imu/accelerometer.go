package imu

import (
	"context"
	"math"

	"github.com/mklimuk/sensorlog/device"
)

var _ device.Sensor = &Accelerometer{}

type Accelerometer struct {
	inertial
}

func NewAccelerometer(port *device.Port, opts ...Opt) *Accelerometer {
	desc := device.Descriptor{
		Address:          AccelGyroAddress,
		IdentityRegister: regWhoAmI,
		ExpectedIdentity: whoAmIAccelGyro,
		Name:             "Accelerometer",
	}
	init := []device.Register{
		{Addr: regCtrlReg5XL, Value: accelAxisEnable},
		{Addr: regCtrlReg6XL, Value: accelOutputConfig},
	}
	axes := axisMap{x: regOutXLXL, y: regOutYLXL, z: regOutZLXL}
	return &Accelerometer{inertial: newInertial(port, desc, axes, init, opts)}
}

// NormalizedXY returns the X and Y components of the unit acceleration
// vector, the tilt input of the orientation estimate.
func (a *Accelerometer) NormalizedXY(ctx context.Context) (float64, float64, error) {
	v, err := a.ReadAxes(ctx)
	if err != nil {
		return 0, 0, err
	}
	x, y, err := NormalizeXY(v)
	if err != nil {
		return 0, 0, device.NewComputationError(a.Name(), err)
	}
	return x, y, nil
}

// ReadG returns the acceleration in g.
func (a *Accelerometer) ReadG(ctx context.Context) (Scaled, error) {
	v, err := a.ReadAxes(ctx)
	if err != nil {
		return Scaled{}, err
	}
	return AccelerationG(v), nil
}

// NormalizeXY divides X and Y by the euclidean norm of v. A zero vector has
// no direction and yields ErrZeroNorm.
func NormalizeXY(v Vector) (float64, float64, error) {
	x, y, z := float64(v.X), float64(v.Y), float64(v.Z)
	norm := math.Sqrt(x*x + y*y + z*z)
	if norm == 0 {
		return 0, 0, ErrZeroNorm
	}
	return x / norm, y / norm, nil
}

// AccelerationG converts raw accelerometer counts to g.
func AccelerationG(v Vector) Scaled {
	return v.scale(accelGainMg / 1000)
}
