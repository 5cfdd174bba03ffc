package imu

import (
	"context"

	"github.com/mklimuk/sensorlog/device"
)

var _ device.Sensor = &Magnetometer{}

type Magnetometer struct {
	inertial
}

func NewMagnetometer(port *device.Port, opts ...Opt) *Magnetometer {
	desc := device.Descriptor{
		Address:          MagAddress,
		IdentityRegister: regWhoAmI,
		ExpectedIdentity: whoAmIMag,
		Name:             "Magnetometer",
	}
	init := []device.Register{
		{Addr: regCtrlReg1M, Value: magCtrl1},
		{Addr: regCtrlReg2M, Value: magCtrl2},
		{Addr: regCtrlReg3M, Value: magCtrl3},
		{Addr: regCtrlReg4M, Value: magCtrl4},
	}
	axes := axisMap{x: regOutXLM, y: regOutYLM, z: regOutZLM}
	return &Magnetometer{inertial: newInertial(port, desc, axes, init, opts)}
}

// ReadGauss returns the magnetic field in gauss.
func (m *Magnetometer) ReadGauss(ctx context.Context) (Scaled, error) {
	v, err := m.ReadAxes(ctx)
	if err != nil {
		return Scaled{}, err
	}
	return FieldGauss(v), nil
}

// FieldGauss converts raw magnetometer counts to gauss.
func FieldGauss(v Vector) Scaled {
	return v.scale(magGainMgauss / 1000)
}
