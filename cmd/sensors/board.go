package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"
	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/sensorlog"
	"github.com/mklimuk/sensorlog/adapter"
	"github.com/mklimuk/sensorlog/device"
	"github.com/mklimuk/sensorlog/environment"
	"github.com/mklimuk/sensorlog/i2c"
	"github.com/mklimuk/sensorlog/imu"
	"github.com/mklimuk/sensorlog/pkg/config"
	"github.com/mklimuk/sensorlog/snsctx"
)

// board is the BerryIMU sensor set wired to one bus.
type board struct {
	cfg     config.Config
	bus     sensorlog.BusCloser
	acc     *imu.Accelerometer
	gyro    *imu.Gyroscope
	mag     *imu.Magnetometer
	chip    *environment.Chip
	thermo  *environment.Thermometer
	baro    *environment.Barometer
	alti    *environment.Altimeter
	sensors []device.Sensor
}

// settings loads the config file and applies the global flag overrides.
func settings(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cfg, err
	}
	if c.IsSet("adapter") {
		cfg.Bus.Adapter = c.String("adapter")
	}
	if c.IsSet("device") {
		cfg.Bus.Device = c.String("device")
	}
	if c.IsSet("bus") {
		cfg.Bus.Number = c.Int("bus")
	}
	return cfg, cfg.Validate()
}

func commandContext(c *cli.Context) context.Context {
	return snsctx.SetVerbose(c.Context, c.Bool("verbose"))
}

// mcpBus opens the HID device on every transfer so there is nothing to close.
type mcpBus struct {
	*adapter.MCP2221
}

func (mcpBus) Close() error { return nil }

func openBus(ctx context.Context, cfg config.Config) (sensorlog.BusCloser, error) {
	switch cfg.Bus.Adapter {
	case config.AdapterPeriph:
		bus, err := i2c.NewGenericBus(cfg.Bus.Device)
		if err != nil {
			return nil, err
		}
		bus.ApplySpeed(physic.Frequency(cfg.Bus.Speed) * physic.Hertz)
		return bus, nil
	case config.AdapterGobot:
		bus, err := i2c.NewNanoPiBus(cfg.Bus.Number)
		if err != nil {
			return nil, err
		}
		return bus, nil
	case config.AdapterMCP2221:
		mcp := adapter.NewMCP2221()
		err := mcp.SetSpeed(ctx, cfg.Bus.Speed)
		if err != nil {
			return nil, fmt.Errorf("adapter initialization error: %w", err)
		}
		return mcpBus{mcp}, nil
	}
	return nil, fmt.Errorf("%w: unknown bus adapter %q", config.ErrInvalidConfig, cfg.Bus.Adapter)
}

func openBoard(c *cli.Context) (*board, error) {
	cfg, err := settings(c)
	if err != nil {
		return nil, err
	}
	bus, err := openBus(commandContext(c), cfg)
	if err != nil {
		return nil, err
	}
	return newBoard(cfg, bus), nil
}

func newBoard(cfg config.Config, bus sensorlog.BusCloser) *board {
	port := device.NewPort(bus, device.WithTimeout(transferTimeout(cfg.Bus)))
	b := &board{
		cfg:  cfg,
		bus:  bus,
		acc:  imu.NewAccelerometer(port, imu.WithAddress(cfg.IMU.AccelGyroAddress)),
		gyro: imu.NewGyroscope(port, imu.WithAddress(cfg.IMU.AccelGyroAddress)),
		mag:  imu.NewMagnetometer(port, imu.WithAddress(cfg.IMU.MagAddress)),
		chip: environment.NewChip(port, environment.WithAddress(cfg.Environment.Address)),
	}
	b.thermo = environment.NewThermometer(b.chip)
	b.baro = environment.NewBarometer(b.chip)
	b.alti = environment.NewAltimeter(b.chip, environment.WithSeaLevelPressure(cfg.Environment.SeaLevelPressure))
	b.sensors = []device.Sensor{b.acc, b.gyro, b.mag, b.thermo, b.baro, b.alti}
	return b
}

// transferTimeout raises the configured timeout to what the MCP2221 needs.
// Zero disables the timeout and is kept.
func transferTimeout(bus config.Bus) time.Duration {
	if bus.Adapter == config.AdapterMCP2221 && bus.Timeout > 0 && bus.Timeout < adapter.MinTransferTimeout {
		return adapter.MinTransferTimeout
	}
	return bus.Timeout
}

func (b *board) Close() error {
	return b.bus.Close()
}
