package device

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/sensorlog/bustest"
)

// MockI2CBus is a testify mock of sensorlog.I2CBus
type MockI2CBus struct {
	mock.Mock
}

func (m *MockI2CBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, buffer)
	return args.Error(0)
}

func (m *MockI2CBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, buffer)
	if data, ok := args.Get(0).([]byte); ok && len(data) <= len(buffer) {
		copy(buffer, data)
	}
	return args.Error(1)
}

func (m *MockI2CBus) Release(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

var gyro = Descriptor{Address: 0x6A, IdentityRegister: 0x0F, ExpectedIdentity: 0x68, Name: "Gyroscope"}

func TestDevice_Detect(t *testing.T) {
	bus := bustest.New().Set(0x6A, 0x0F, 0x68)
	d := New(NewPort(bus), gyro)
	require.NoError(t, d.Detect(context.Background()))
	assert.Equal(t, 1, bus.Reads(0x6A, 0x0F))
}

func TestDevice_DetectIdentityMismatch(t *testing.T) {
	bus := bustest.New().Set(0x6A, 0x0F, 0x3D)
	d := New(NewPort(bus), gyro)

	err := d.Detect(context.Background())
	require.Error(t, err)
	var serr *SensorError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "Gyroscope", serr.Name)
	assert.Equal(t, KindIdentityMismatch, serr.Kind)
	assert.ErrorIs(t, err, ErrIdentityMismatch)
	assert.NotErrorIs(t, err, ErrBusIO)
	assert.Contains(t, err.Error(), "Gyroscope")
}

func TestDevice_DetectBusFailure(t *testing.T) {
	bus := new(MockI2CBus)
	nack := errors.New("no ack")
	bus.On("WriteToAddr", mock.Anything, byte(0x6A), []byte{0x0F}).Return(nack).Once()
	d := New(NewPort(bus), gyro)

	err := d.Detect(context.Background())
	require.Error(t, err)
	name, ok := NameOf(err)
	assert.True(t, ok)
	assert.Equal(t, "Gyroscope", name)
	assert.ErrorIs(t, err, ErrBusIO)
	assert.ErrorIs(t, err, nack)
	bus.AssertExpectations(t)
}

func TestDevice_DetectMissingDevice(t *testing.T) {
	d := New(NewPort(bustest.New()), gyro)
	err := d.Detect(context.Background())
	assert.ErrorIs(t, err, ErrBusIO)
	assert.ErrorIs(t, err, bustest.ErrNoDevice)
}

func TestDevice_ReadAxis(t *testing.T) {
	tests := []struct {
		low, high byte
		expected  int32
	}{
		{0x10, 0x27, 10000},
		{0xF0, 0xD8, -10000},
		{0x01, 0x80, -32767},
	}
	for _, test := range tests {
		t.Run(fmt.Sprint(test.expected), func(t *testing.T) {
			bus := bustest.New().Set(0x6A, 0x28, test.low, test.high)
			d := New(NewPort(bus), gyro)
			v, err := d.ReadAxis(context.Background(), 0x28)
			require.NoError(t, err)
			assert.Equal(t, test.expected, v)
		})
	}
}

func TestDevice_WriteRegisters(t *testing.T) {
	bus := bustest.New().Attach(0x6A)
	d := New(NewPort(bus), gyro)
	err := d.WriteRegisters(context.Background(), []Register{{0x1E, 0x38}, {0x10, 0xB8}})
	require.NoError(t, err)
	assert.Equal(t, []bustest.Write{{Addr: 0x6A, Reg: 0x1E, Value: 0x38}, {Addr: 0x6A, Reg: 0x10, Value: 0xB8}}, bus.Writes())
}

func TestDevice_WriteRegistersStopsAtFailure(t *testing.T) {
	bus := new(MockI2CBus)
	bus.On("WriteToAddr", mock.Anything, byte(0x6A), []byte{0x1E, 0x38}).Return(errors.New("nack")).Once()
	d := New(NewPort(bus), gyro)
	err := d.WriteRegisters(context.Background(), []Register{{0x1E, 0x38}, {0x10, 0xB8}})
	assert.ErrorIs(t, err, ErrBusIO)
	bus.AssertExpectations(t)
	bus.AssertNumberOfCalls(t, "WriteToAddr", 1)
}

func TestPort_Timeout(t *testing.T) {
	bus := bustest.New().Set(0x6A, 0x0F, 0x68)
	bus.SetDelay(100 * time.Millisecond)
	p := NewPort(bus, WithTimeout(10*time.Millisecond))

	start := time.Now()
	_, err := p.ReadByte(context.Background(), 0x6A, 0x0F)
	assert.ErrorIs(t, err, ErrBusTimeout)
	assert.ErrorIs(t, err, ErrBusIO)
	assert.Less(t, time.Since(start), 80*time.Millisecond)
}

func TestPort_CallerCancel(t *testing.T) {
	bus := bustest.New().Set(0x6A, 0x0F, 0x68)
	bus.SetDelay(100 * time.Millisecond)
	p := NewPort(bus)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)
	_, err := p.ReadByte(ctx, 0x6A, 0x0F)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, ErrBusIO)
	assert.NotErrorIs(t, err, ErrBusTimeout, "a cancelled caller is not a timeout")
}

func TestPort_SerializesTransfers(t *testing.T) {
	bus := bustest.New().Set(0x6A, 0x0F, 0x68)
	bus.SetDelay(2 * time.Millisecond)
	p := NewPort(bus, WithTimeout(0))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := p.ReadByte(context.Background(), 0x6A, 0x0F)
			assert.NoError(t, err)
			assert.Equal(t, byte(0x68), v)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, bus.MaxInFlight())
	assert.Equal(t, 8, bus.Reads(0x6A, 0x0F))
}

type stubSensor struct {
	name      string
	detectErr error
	detected  *[]string
	inited    *[]string
}

func (s stubSensor) Name() string { return s.name }

func (s stubSensor) Detect(ctx context.Context) error {
	*s.detected = append(*s.detected, s.name)
	return s.detectErr
}

func (s stubSensor) Initialize(ctx context.Context) error {
	*s.inited = append(*s.inited, s.name)
	return nil
}

func TestBring_StopsAtFirstUndetected(t *testing.T) {
	var detected, inited []string
	failure := &SensorError{Name: "Magnetometer", Kind: KindIdentityMismatch}
	sensors := []Sensor{
		stubSensor{name: "Accelerometer", detected: &detected, inited: &inited},
		stubSensor{name: "Magnetometer", detectErr: failure, detected: &detected, inited: &inited},
		stubSensor{name: "Barometer", detected: &detected, inited: &inited},
	}
	err := Bring(context.Background(), sensors...)
	require.Error(t, err)
	name, _ := NameOf(err)
	assert.Equal(t, "Magnetometer", name)
	assert.Equal(t, []string{"Accelerometer", "Magnetometer"}, detected)
	assert.Empty(t, inited)
}

func TestBring_InitializesAll(t *testing.T) {
	var detected, inited []string
	sensors := []Sensor{
		stubSensor{name: "Accelerometer", detected: &detected, inited: &inited},
		stubSensor{name: "Gyroscope", detected: &detected, inited: &inited},
	}
	require.NoError(t, Bring(context.Background(), sensors...))
	assert.Equal(t, []string{"Accelerometer", "Gyroscope"}, inited)
}
