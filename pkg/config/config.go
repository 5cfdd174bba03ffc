// Package config holds the board configuration of the sensors CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mklimuk/sensorlog/environment"
	"github.com/mklimuk/sensorlog/imu"
	"github.com/mklimuk/sensorlog/monitor"
	"github.com/mklimuk/sensorlog/orientation"
)

// Set at build time.
var (
	Version = "latest"
	Commit  = ""
	Date    = ""
)

const (
	AdapterPeriph  = "periph"
	AdapterGobot   = "gobot"
	AdapterMCP2221 = "mcp2221"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Bus         Bus         `yaml:"bus"`
	IMU         IMU         `yaml:"imu"`
	Environment Environment `yaml:"environment"`
	Monitor     Monitor     `yaml:"monitor"`
	MQTT        MQTT        `yaml:"mqtt"`
	HTTP        HTTP        `yaml:"http"`
}

type Bus struct {
	Adapter string        `yaml:"adapter"`
	Device  string        `yaml:"device"`
	Number  int           `yaml:"number"`
	Speed   int           `yaml:"speed"`
	Timeout time.Duration `yaml:"timeout"`
}

type IMU struct {
	AccelGyroAddress uint8  `yaml:"accel_gyro_address"`
	MagAddress       uint8  `yaml:"mag_address"`
	TiltOrder        string `yaml:"tilt_order"`
}

type Environment struct {
	Address          uint8   `yaml:"address"`
	SeaLevelPressure float64 `yaml:"sea_level_pressure"`
}

type Monitor struct {
	Interval time.Duration `yaml:"interval"`
}

type MQTT struct {
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Prefix   string `yaml:"prefix"`
	QoS      byte   `yaml:"qos"`
}

type HTTP struct {
	Listen string `yaml:"listen"`
}

func Default() Config {
	return Config{
		Bus: Bus{
			Adapter: AdapterPeriph,
			Device:  "/dev/i2c-1",
			Number:  1,
			Speed:   100_000,
			Timeout: 250 * time.Millisecond,
		},
		IMU: IMU{
			AccelGyroAddress: imu.AccelGyroAddress,
			MagAddress:       imu.MagAddress,
			TiltOrder:        orientation.InPlaceTilt.String(),
		},
		Environment: Environment{
			Address:          environment.DefaultAddress,
			SeaLevelPressure: environment.SeaLevelPressure,
		},
		Monitor: Monitor{
			Interval: monitor.DefaultInterval,
		},
		MQTT: MQTT{
			ClientID: "sensorlog",
			Prefix:   "sensorlog",
		},
		HTTP: HTTP{
			Listen: ":8080",
		},
	}
}

// Load reads a YAML file over the defaults. An empty path returns the
// defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("could not read config file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (Config, error) {
	cfg := Default()
	err := yaml.Unmarshal(data, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("could not parse config: %w", err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Bus.Adapter {
	case AdapterPeriph, AdapterGobot, AdapterMCP2221:
	default:
		return fmt.Errorf("%w: unknown bus adapter %q", ErrInvalidConfig, c.Bus.Adapter)
	}
	if c.Bus.Speed <= 0 {
		return fmt.Errorf("%w: bus speed must be positive", ErrInvalidConfig)
	}
	if c.Bus.Timeout < 0 {
		return fmt.Errorf("%w: negative bus timeout", ErrInvalidConfig)
	}
	for name, addr := range map[string]uint8{
		"imu.accel_gyro_address": c.IMU.AccelGyroAddress,
		"imu.mag_address":        c.IMU.MagAddress,
		"environment.address":    c.Environment.Address,
	} {
		if addr > 0x7F {
			return fmt.Errorf("%w: %s %#02x is not a 7 bit address", ErrInvalidConfig, name, addr)
		}
	}
	if _, err := orientation.ParseTiltOrder(c.IMU.TiltOrder); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Environment.SeaLevelPressure <= 0 {
		return fmt.Errorf("%w: sea level pressure must be positive", ErrInvalidConfig)
	}
	if c.Monitor.Interval <= 0 {
		return fmt.Errorf("%w: monitor interval must be positive", ErrInvalidConfig)
	}
	if c.MQTT.QoS > 2 {
		return fmt.Errorf("%w: mqtt qos must be 0, 1 or 2", ErrInvalidConfig)
	}
	return nil
}

// Tilt returns the parsed tilt compensation order.
func (c Config) Tilt() orientation.TiltOrder {
	order, _ := orientation.ParseTiltOrder(c.IMU.TiltOrder)
	return order
}
