package environment

import (
	"context"

	"github.com/mklimuk/sensorlog/device"
)

type TemperatureSensor interface {
	ReadTemperatureF(ctx context.Context) (float64, error)
	ReadTemperatureC(ctx context.Context) (float64, error)
}

type PressureSensor interface {
	ReadPressureHpa(ctx context.Context) (float64, error)
}

type AltitudeSensor interface {
	ReadAltitudeFt(ctx context.Context) (float64, error)
	ReadAltitudeM(ctx context.Context) (float64, error)
}

var (
	_ device.Sensor     = &Thermometer{}
	_ device.Sensor     = &Barometer{}
	_ device.Sensor     = &Altimeter{}
	_ TemperatureSensor = &Thermometer{}
	_ PressureSensor    = &Barometer{}
	_ AltitudeSensor    = &Altimeter{}
)

// PressureCore is the part shared by the logical views of a BMP280.
type PressureCore struct {
	*device.Device
	chip *Chip
}

func newCore(chip *Chip, name string) PressureCore {
	desc := descriptor(chip.Descriptor().Address, name)
	return PressureCore{Device: device.New(chip.port, desc), chip: chip}
}

// Initialize loads the chip calibration unless another view already did.
func (p PressureCore) Initialize(ctx context.Context) error {
	return p.chip.initialize(ctx, p.Device)
}

func (p PressureCore) Chip() *Chip {
	return p.chip
}

func (p PressureCore) sample(ctx context.Context) (Sample, error) {
	return p.chip.readData(ctx, p.Device)
}

type Thermometer struct {
	PressureCore
}

func NewThermometer(chip *Chip) *Thermometer {
	return &Thermometer{PressureCore: newCore(chip, "Thermometer")}
}

func (t *Thermometer) ReadTemperatureF(ctx context.Context) (float64, error) {
	s, err := t.sample(ctx)
	if err != nil {
		return 0, err
	}
	return s.TemperatureF(), nil
}

func (t *Thermometer) ReadTemperatureC(ctx context.Context) (float64, error) {
	s, err := t.sample(ctx)
	if err != nil {
		return 0, err
	}
	return s.TemperatureC(), nil
}

type Barometer struct {
	PressureCore
}

func NewBarometer(chip *Chip) *Barometer {
	return &Barometer{PressureCore: newCore(chip, "Barometer")}
}

func (b *Barometer) ReadPressureHpa(ctx context.Context) (float64, error) {
	s, err := b.sample(ctx)
	if err != nil {
		return 0, err
	}
	return s.PressureHpa(), nil
}

type AltimeterOpts struct {
	SeaLevelPressure float64
}

type AltimeterOpt func(*AltimeterOpts)

// WithSeaLevelPressure sets the reference pressure in hPa.
func WithSeaLevelPressure(hPa float64) AltimeterOpt {
	return func(o *AltimeterOpts) {
		o.SeaLevelPressure = hPa
	}
}

type Altimeter struct {
	PressureCore
	seaLevel float64
}

func NewAltimeter(chip *Chip, opts ...AltimeterOpt) *Altimeter {
	config := AltimeterOpts{SeaLevelPressure: SeaLevelPressure}
	for _, opt := range opts {
		opt(&config)
	}
	return &Altimeter{PressureCore: newCore(chip, "Altimeter"), seaLevel: config.SeaLevelPressure}
}

func (a *Altimeter) ReadAltitudeM(ctx context.Context) (float64, error) {
	s, err := a.sample(ctx)
	if err != nil {
		return 0, err
	}
	m, err := Altitude(s.PressureHpa(), s.TemperatureC(), a.seaLevel)
	if err != nil {
		return 0, device.NewComputationError(a.Name(), err)
	}
	return m, nil
}

func (a *Altimeter) ReadAltitudeFt(ctx context.Context) (float64, error) {
	m, err := a.ReadAltitudeM(ctx)
	if err != nil {
		return 0, err
	}
	return metersToFeet(m), nil
}
