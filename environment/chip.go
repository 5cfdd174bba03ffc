package environment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/sensorlog/device"
	"github.com/mklimuk/sensorlog/snsctx"
)

// MinResampleInterval is the minimum age of the cached sample before the
// data block is read again.
const MinResampleInterval = 1000 * time.Millisecond

var ErrNotInitialized = errors.New("pressure sensor is not initialized")

type State int

const (
	StateUninitialized State = iota
	StateTrimLoaded
	StateReady
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateTrimLoaded:
		return "trim loaded"
	case StateReady:
		return "ready"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Sample is a consistent pair of compensated values computed from one raw
// data block.
type Sample struct {
	Raw             RawSample `json:"-" yaml:"-"`
	FineTemperature float64   `json:"fineTemperature" yaml:"fineTemperature"`
	FinePressure    float64   `json:"finePressure" yaml:"finePressure"`
	At              time.Time `json:"at" yaml:"at"`
}

func (s Sample) TemperatureC() float64 {
	return s.FineTemperature / 5120.0
}

func (s Sample) TemperatureF() float64 {
	return celsiusToFahrenheit(s.TemperatureC())
}

func (s Sample) PressureHpa() float64 {
	return s.FinePressure / 100
}

type ChipOpts struct {
	Address byte
	Clock   func() time.Time
}

type ChipOpt func(*ChipOpts)

// WithAddress overrides the default BMP280 address (0x77; 0x76 with SDO low).
func WithAddress(address byte) ChipOpt {
	return func(o *ChipOpts) {
		o.Address = address
	}
}

// WithClock replaces time.Now for the resample gate.
func WithClock(now func() time.Time) ChipOpt {
	return func(o *ChipOpts) {
		o.Clock = now
	}
}

// Chip is the state of one physical BMP280. Thermometer, Barometer and
// Altimeter views created from the same Chip share its calibration and its
// cached sample.
type Chip struct {
	*device.Device
	port *device.Port
	now  func() time.Time

	mx    sync.Mutex
	state State
	cal   Calibration
	last  Sample
}

func NewChip(port *device.Port, opts ...ChipOpt) *Chip {
	config := ChipOpts{
		Address: DefaultAddress,
		Clock:   time.Now,
	}
	for _, opt := range opts {
		opt(&config)
	}
	return &Chip{
		Device: device.New(port, descriptor(config.Address, "BMP280")),
		port:   port,
		now:    config.Clock,
	}
}

func descriptor(address byte, name string) device.Descriptor {
	return device.Descriptor{
		Address:          address,
		IdentityRegister: regID,
		ExpectedIdentity: chipID,
		Name:             name,
	}
}

func (c *Chip) State() State {
	c.mx.Lock()
	defer c.mx.Unlock()
	return c.state
}

// Calibration returns the loaded trim and false before it is loaded.
func (c *Chip) Calibration() (Calibration, bool) {
	c.mx.Lock()
	defer c.mx.Unlock()
	return c.cal, c.state >= StateTrimLoaded
}

func (c *Chip) Initialize(ctx context.Context) error {
	return c.initialize(ctx, c.Device)
}

// initialize loads the trim once and configures the chip. Failures are
// reported under the name of dev, the view that asked.
func (c *Chip) initialize(ctx context.Context, dev *device.Device) error {
	ctx = snsctx.WithOperation(ctx, "initialize")
	c.mx.Lock()
	defer c.mx.Unlock()
	if c.state == StateReady {
		return nil
	}
	if c.state == StateUninitialized {
		buf, err := dev.ReadBlock(ctx, regCalib, calibLen)
		if err != nil {
			return fmt.Errorf("could not read calibration: %w", err)
		}
		cal, err := ParseCalibration(buf)
		if err != nil {
			return device.NewComputationError(dev.Name(), err)
		}
		c.cal = cal
		c.state = StateTrimLoaded
		slog.Debug("pressure calibration loaded", "name", dev.Name(), "t1", cal.T1, "p1", cal.P1)
	}
	err := dev.WriteRegisters(ctx, []device.Register{
		// config writes may be ignored in normal mode, so config goes first
		{Addr: regConfig, Value: config1s},
		{Addr: regCtrl, Value: ctrlNormal},
	})
	if err != nil {
		return fmt.Errorf("could not configure %s: %w", dev.Name(), err)
	}
	c.state = StateReady
	slog.Info("pressure sensor ready", "name", dev.Name())
	return nil
}

// ReadData returns the cached sample while it is younger than
// MinResampleInterval and reads a fresh one otherwise.
func (c *Chip) ReadData(ctx context.Context) (Sample, error) {
	return c.readData(ctx, c.Device)
}

func (c *Chip) readData(ctx context.Context, dev *device.Device) (Sample, error) {
	c.mx.Lock()
	defer c.mx.Unlock()
	if c.state != StateReady {
		return Sample{}, device.NewNotReadyError(dev.Name(), ErrNotInitialized)
	}
	now := c.now()
	if !c.last.At.IsZero() && now.Sub(c.last.At) < MinResampleInterval {
		return c.last, nil
	}
	buf, err := dev.ReadBlock(snsctx.WithOperation(ctx, "sample"), regData, sampleLen)
	if err != nil {
		return Sample{}, err
	}
	var raw RawSample
	copy(raw[:], buf)
	fineT := c.cal.FineTemperature(raw.Temperature())
	fineP, err := c.cal.FinePressure(raw.Pressure(), fineT)
	if err != nil {
		return Sample{}, device.NewComputationError(dev.Name(), err)
	}
	c.last = Sample{Raw: raw, FineTemperature: fineT, FinePressure: fineP, At: now}
	return c.last, nil
}

// Sense fills the temperature and pressure of env.
func (c *Chip) Sense(ctx context.Context, env *physic.Env) error {
	s, err := c.ReadData(ctx)
	if err != nil {
		return err
	}
	env.Temperature = physic.ZeroCelsius + physic.Temperature(s.TemperatureC()*float64(physic.Celsius))
	env.Pressure = physic.Pressure(s.FinePressure * float64(physic.Pascal))
	return nil
}
