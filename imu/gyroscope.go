package imu

import (
	"context"

	"github.com/mklimuk/sensorlog/device"
)

var _ device.Sensor = &Gyroscope{}

// Gyroscope shares the accelerometer's bus address and identity register.
type Gyroscope struct {
	inertial
}

func NewGyroscope(port *device.Port, opts ...Opt) *Gyroscope {
	desc := device.Descriptor{
		Address:          AccelGyroAddress,
		IdentityRegister: regWhoAmI,
		ExpectedIdentity: whoAmIAccelGyro,
		Name:             "Gyroscope",
	}
	init := []device.Register{
		{Addr: regCtrlReg4, Value: gyroAxisEnable},
		{Addr: regCtrlReg1G, Value: gyroOutputConfig},
		{Addr: regOrientCfgG, Value: gyroOrientation},
	}
	axes := axisMap{x: regOutXLG, y: regOutYLG, z: regOutZLG}
	return &Gyroscope{inertial: newInertial(port, desc, axes, init, opts)}
}

// ReadRates returns the angular rates in degrees per second.
func (g *Gyroscope) ReadRates(ctx context.Context) (Scaled, error) {
	v, err := g.ReadAxes(ctx)
	if err != nil {
		return Scaled{}, err
	}
	return RatesDps(v), nil
}

// RatesDps converts raw gyroscope counts to degrees per second.
func RatesDps(v Vector) Scaled {
	return v.scale(gyroGainDps)
}
