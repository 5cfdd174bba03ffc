package environment

import (
	"context"
)

// TemperatureBehaviorFunc returns a temperature in Fahrenheit or an error.
type TemperatureBehaviorFunc func(ctx context.Context) (float64, error)

// PressureBehaviorFunc returns a pressure in hPa or an error.
type PressureBehaviorFunc func(ctx context.Context) (float64, error)

// MockTemperatureSensor produces readings from a behavior function without
// requiring any hardware.
type MockTemperatureSensor struct {
	behavior TemperatureBehaviorFunc
}

// NewMockTemperatureSensor creates a mock thermometer.
//
// Example usage:
//
//	sensor := NewMockTemperatureSensor(func(ctx context.Context) (float64, error) { return 77.0, nil })
func NewMockTemperatureSensor(behavior TemperatureBehaviorFunc) *MockTemperatureSensor {
	return &MockTemperatureSensor{behavior: behavior}
}

func (m *MockTemperatureSensor) ReadTemperatureF(ctx context.Context) (float64, error) {
	return m.behavior(ctx)
}

func (m *MockTemperatureSensor) ReadTemperatureC(ctx context.Context) (float64, error) {
	f, err := m.behavior(ctx)
	if err != nil {
		return 0, err
	}
	return (f - 32) / 1.8, nil
}

// MockPressureSensor acts as both barometer and altimeter. Altitude is
// derived from the two behaviors with the same formula as Altimeter.
type MockPressureSensor struct {
	pressure    PressureBehaviorFunc
	temperature TemperatureBehaviorFunc
	seaLevel    float64
}

// NewMockPressureSensor creates a mock barometer and altimeter.
//
// Example usage:
//
//	sensor := NewMockPressureSensor(
//		func(ctx context.Context) (float64, error) { return 1006.5, nil },
//		func(ctx context.Context) (float64, error) { return 77.0, nil },
//	)
func NewMockPressureSensor(pressure PressureBehaviorFunc, temperature TemperatureBehaviorFunc) *MockPressureSensor {
	return &MockPressureSensor{pressure: pressure, temperature: temperature, seaLevel: SeaLevelPressure}
}

func (m *MockPressureSensor) ReadPressureHpa(ctx context.Context) (float64, error) {
	return m.pressure(ctx)
}

func (m *MockPressureSensor) ReadAltitudeM(ctx context.Context) (float64, error) {
	hPa, err := m.pressure(ctx)
	if err != nil {
		return 0, err
	}
	f, err := m.temperature(ctx)
	if err != nil {
		return 0, err
	}
	return Altitude(hPa, (f-32)/1.8, m.seaLevel)
}

func (m *MockPressureSensor) ReadAltitudeFt(ctx context.Context) (float64, error) {
	alt, err := m.ReadAltitudeM(ctx)
	if err != nil {
		return 0, err
	}
	return metersToFeet(alt), nil
}
