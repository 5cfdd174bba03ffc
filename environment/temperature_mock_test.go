package environment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockTemperatureSensor(t *testing.T) {
	current := 77.0
	var sensor TemperatureSensor = NewMockTemperatureSensor(func(ctx context.Context) (float64, error) { return current, nil })
	ctx := context.Background()

	f, err := sensor.ReadTemperatureF(ctx)
	require.NoError(t, err)
	assert.Equal(t, 77.0, f)
	c, err := sensor.ReadTemperatureC(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 25.0, c, 1e-9)

	current = 32
	c, err = sensor.ReadTemperatureC(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, c, 1e-9)
}

func TestMockPressureSensor(t *testing.T) {
	sensor := NewMockPressureSensor(
		func(ctx context.Context) (float64, error) { return SeaLevelPressure, nil },
		func(ctx context.Context) (float64, error) { return 59.0, nil },
	)
	var _ PressureSensor = sensor
	var _ AltitudeSensor = sensor
	ctx := context.Background()

	hPa, err := sensor.ReadPressureHpa(ctx)
	require.NoError(t, err)
	assert.Equal(t, SeaLevelPressure, hPa)
	ft, err := sensor.ReadAltitudeFt(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, ft, 1e-9)
}

func TestMockPressureSensor_Errors(t *testing.T) {
	failure := errors.New("sensor unplugged")
	sensor := NewMockPressureSensor(
		func(ctx context.Context) (float64, error) { return 0, failure },
		func(ctx context.Context) (float64, error) { return 70, nil },
	)
	_, err := sensor.ReadAltitudeM(context.Background())
	assert.ErrorIs(t, err, failure)

	sensor = NewMockPressureSensor(
		func(ctx context.Context) (float64, error) { return 0, nil },
		func(ctx context.Context) (float64, error) { return 70, nil },
	)
	_, err = sensor.ReadAltitudeFt(context.Background())
	assert.ErrorIs(t, err, ErrInvalidPressure)
}
