package device

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mklimuk/sensorlog/snsctx"
)

// Descriptor identifies one physical sensor on the bus.
type Descriptor struct {
	Address          byte
	IdentityRegister byte
	ExpectedIdentity byte
	Name             string
}

// Register is a single configuration write.
type Register struct {
	Addr  byte
	Value byte
}

// Sensor is the lifecycle contract shared by every device in this module.
type Sensor interface {
	Name() string
	Detect(ctx context.Context) error
	Initialize(ctx context.Context) error
}

// Device is the register level base embedded by the concrete sensors.
type Device struct {
	desc Descriptor
	port *Port
}

func New(port *Port, desc Descriptor) *Device {
	return &Device{desc: desc, port: port}
}

func (d *Device) Descriptor() Descriptor {
	return d.desc
}

func (d *Device) Name() string {
	return d.desc.Name
}

// Detect reads the identity register and compares it against the expected
// identity byte.
func (d *Device) Detect(ctx context.Context) error {
	ctx = snsctx.WithOperation(ctx, "detect")
	slog.Info("detecting device", "name", d.desc.Name, "addr", fmt.Sprintf("%#02x", d.desc.Address))
	id, err := d.port.ReadByte(ctx, d.desc.Address, d.desc.IdentityRegister)
	if err != nil {
		slog.Warn("device not responding", "name", d.desc.Name, "error", err)
		return &SensorError{Name: d.desc.Name, Kind: KindBusIO, Err: err}
	}
	if id != d.desc.ExpectedIdentity {
		slog.Warn("unexpected device identity", "name", d.desc.Name, "got", fmt.Sprintf("%#02x", id), "expected", fmt.Sprintf("%#02x", d.desc.ExpectedIdentity))
		return &SensorError{
			Name: d.desc.Name,
			Kind: KindIdentityMismatch,
			Err:  fmt.Errorf("register %#02x: got %#02x, expected %#02x", d.desc.IdentityRegister, id, d.desc.ExpectedIdentity),
		}
	}
	slog.Info("device detected", "name", d.desc.Name)
	return nil
}

func (d *Device) ReadRegister(ctx context.Context, reg byte) (byte, error) {
	v, err := d.port.ReadByte(ctx, d.desc.Address, reg)
	if err != nil {
		return 0, d.busError(err)
	}
	return v, nil
}

func (d *Device) ReadBlock(ctx context.Context, reg byte, n int) ([]byte, error) {
	buf, err := d.port.ReadBlock(ctx, d.desc.Address, reg, n)
	if err != nil {
		return nil, d.busError(err)
	}
	return buf, nil
}

func (d *Device) WriteRegister(ctx context.Context, reg, value byte) error {
	err := d.port.WriteByte(ctx, d.desc.Address, reg, value)
	if err != nil {
		return d.busError(err)
	}
	return nil
}

// WriteRegisters applies the writes in order and stops at the first failure.
func (d *Device) WriteRegisters(ctx context.Context, regs []Register) error {
	for _, r := range regs {
		if err := d.WriteRegister(ctx, r.Addr, r.Value); err != nil {
			return err
		}
	}
	return nil
}

// ReadAxis reads a little-endian signed register pair.
func (d *Device) ReadAxis(ctx context.Context, reg byte) (int32, error) {
	buf, err := d.ReadBlock(ctx, reg, 2)
	if err != nil {
		return 0, err
	}
	return DecodeLE(buf, true), nil
}

func (d *Device) busError(err error) error {
	return &SensorError{Name: d.desc.Name, Kind: KindBusIO, Err: err}
}
