package imu

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/sensorlog/bustest"
	"github.com/mklimuk/sensorlog/device"
)

func le(v int16) []byte {
	buf := make([]byte, 2)
	binary.LittleEndian.PutUint16(buf, uint16(v))
	return buf
}

func setVector(bus *bustest.Bus, addr, regX byte, v [3]int16) {
	for i, a := range v {
		bus.Set(addr, regX+byte(2*i), le(a)...)
	}
}

func TestInitialize_BitExact(t *testing.T) {
	tests := []struct {
		name     string
		sensor   func(p *device.Port) device.Sensor
		expected []bustest.Write
	}{
		{
			name:   "accelerometer",
			sensor: func(p *device.Port) device.Sensor { return NewAccelerometer(p) },
			expected: []bustest.Write{
				{Addr: 0x6A, Reg: 0x1F, Value: 0b00111000},
				{Addr: 0x6A, Reg: 0x20, Value: 0b00101000},
			},
		},
		{
			name:   "gyroscope",
			sensor: func(p *device.Port) device.Sensor { return NewGyroscope(p) },
			expected: []bustest.Write{
				{Addr: 0x6A, Reg: 0x1E, Value: 0b00111000},
				{Addr: 0x6A, Reg: 0x10, Value: 0b10111000},
				{Addr: 0x6A, Reg: 0x13, Value: 0b00111000},
			},
		},
		{
			name:   "magnetometer",
			sensor: func(p *device.Port) device.Sensor { return NewMagnetometer(p) },
			expected: []bustest.Write{
				{Addr: 0x1C, Reg: 0x20, Value: 0b10011100},
				{Addr: 0x1C, Reg: 0x21, Value: 0b01000000},
				{Addr: 0x1C, Reg: 0x22, Value: 0b00000000},
				{Addr: 0x1C, Reg: 0x23, Value: 0b00000000},
			},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			bus := bustest.New().Attach(AccelGyroAddress).Attach(MagAddress)
			s := test.sensor(device.NewPort(bus))
			require.NoError(t, s.Initialize(context.Background()))
			assert.Equal(t, test.expected, bus.Writes())
		})
	}
}

func TestDetect(t *testing.T) {
	bus := bustest.New().
		Set(AccelGyroAddress, 0x0F, 0x68).
		Set(MagAddress, 0x0F, 0x3D)
	port := device.NewPort(bus)
	ctx := context.Background()
	assert.NoError(t, NewAccelerometer(port).Detect(ctx))
	assert.NoError(t, NewGyroscope(port).Detect(ctx))
	assert.NoError(t, NewMagnetometer(port).Detect(ctx))
}

func TestDetect_MagnetometerMissing(t *testing.T) {
	bus := bustest.New().Set(AccelGyroAddress, 0x0F, 0x68)
	err := device.Bring(context.Background(), NewAccelerometer(device.NewPort(bus)), NewMagnetometer(device.NewPort(bus)))
	require.Error(t, err)
	name, ok := device.NameOf(err)
	require.True(t, ok)
	assert.Equal(t, "Magnetometer", name)
	assert.Empty(t, bus.Writes(), "nothing is initialized when detection fails")
}

func TestWithAddress(t *testing.T) {
	bus := bustest.New().Set(0x6B, 0x0F, 0x68)
	acc := NewAccelerometer(device.NewPort(bus), WithAddress(0x6B))
	assert.Equal(t, byte(0x6B), acc.Descriptor().Address)
	assert.NoError(t, acc.Detect(context.Background()))
}

func TestReadAxes_RoundTrip(t *testing.T) {
	fixtures := [][3]int16{
		{1234, -1234, 16384},
		{-32768, 32767, -1},
		{0, -2048, 2048},
	}
	for _, f := range fixtures {
		t.Run(fmt.Sprint(f), func(t *testing.T) {
			bus := bustest.New()
			setVector(bus, AccelGyroAddress, 0x28, f)
			setVector(bus, AccelGyroAddress, 0x18, [3]int16{f[2], f[1], f[0]})
			setVector(bus, MagAddress, 0x28, [3]int16{f[1], f[0], f[2]})
			port := device.NewPort(bus)
			ctx := context.Background()

			acc, err := NewAccelerometer(port).ReadAxes(ctx)
			require.NoError(t, err)
			assert.Equal(t, Vector{X: int32(f[0]), Y: int32(f[1]), Z: int32(f[2])}, acc)

			gyr, err := NewGyroscope(port).ReadAxes(ctx)
			require.NoError(t, err)
			assert.Equal(t, Vector{X: int32(f[2]), Y: int32(f[1]), Z: int32(f[0])}, gyr)

			mag, err := NewMagnetometer(port).ReadAxes(ctx)
			require.NoError(t, err)
			assert.Equal(t, Vector{X: int32(f[1]), Y: int32(f[0]), Z: int32(f[2])}, mag)
		})
	}
}

func TestReadSingleAxis(t *testing.T) {
	bus := bustest.New()
	setVector(bus, MagAddress, 0x28, [3]int16{-300, 450, -12})
	mag := NewMagnetometer(device.NewPort(bus))
	ctx := context.Background()

	x, err := mag.ReadX(ctx)
	require.NoError(t, err)
	y, err := mag.ReadY(ctx)
	require.NoError(t, err)
	z, err := mag.ReadZ(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int32{-300, 450, -12}, []int32{x, y, z})
	assert.Equal(t, 1, bus.Reads(MagAddress, 0x28))
	assert.Equal(t, 1, bus.Reads(MagAddress, 0x2A))
	assert.Equal(t, 1, bus.Reads(MagAddress, 0x2C))
}

func TestNormalizedXY(t *testing.T) {
	bus := bustest.New()
	setVector(bus, AccelGyroAddress, 0x28, [3]int16{3000, 4000, 0})
	acc := NewAccelerometer(device.NewPort(bus))
	x, y, err := acc.NormalizedXY(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 0.6, x, 1e-12)
	assert.InDelta(t, 0.8, y, 1e-12)
}

func TestNormalizedXY_ZeroNorm(t *testing.T) {
	bus := bustest.New().Attach(AccelGyroAddress)
	acc := NewAccelerometer(device.NewPort(bus))
	_, _, err := acc.NormalizedXY(context.Background())
	assert.ErrorIs(t, err, ErrZeroNorm)
	assert.ErrorIs(t, err, device.ErrComputation)
}

func TestReadAxes_BusFailure(t *testing.T) {
	bus := bustest.New().Attach(AccelGyroAddress)
	bus.Fail(AccelGyroAddress, errors.New("arbitration lost"))
	_, err := NewGyroscope(device.NewPort(bus)).ReadAxes(context.Background())
	require.Error(t, err)
	name, _ := device.NameOf(err)
	assert.Equal(t, "Gyroscope", name)
	assert.ErrorIs(t, err, device.ErrBusIO)
}

func TestScaledReadings(t *testing.T) {
	bus := bustest.New()
	setVector(bus, AccelGyroAddress, 0x28, [3]int16{0, 0, 1366})
	setVector(bus, AccelGyroAddress, 0x18, [3]int16{100, -100, 0})
	setVector(bus, MagAddress, 0x28, [3]int16{1000, 0, -1000})
	port := device.NewPort(bus)
	ctx := context.Background()

	g, err := NewAccelerometer(port).ReadG(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, g.Z, 0.001)

	rates, err := NewGyroscope(port).ReadRates(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 7.0, rates.X, 1e-9)
	assert.InDelta(t, -7.0, rates.Y, 1e-9)

	gauss, err := NewMagnetometer(port).ReadGauss(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 0.43, gauss.X, 1e-9)
	assert.InDelta(t, -0.43, gauss.Z, 1e-9)
}
