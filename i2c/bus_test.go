package i2c

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c/i2ctest"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3/sysfs"

	"github.com/mklimuk/sensorlog/device"
)

func TestGenericBus_RegisterRead(t *testing.T) {
	playback := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x6A, W: []byte{0x0F}},
			{Addr: 0x6A, R: []byte{0x68}},
			{Addr: 0x6A, W: []byte{0x1F, 0x38}},
		},
		DontPanic: true,
	}
	bus := newGenericBus(playback)
	port := device.NewPort(bus)
	ctx := context.Background()

	id, err := port.ReadByte(ctx, 0x6A, 0x0F)
	require.NoError(t, err)
	assert.Equal(t, byte(0x68), id)
	require.NoError(t, port.WriteByte(ctx, 0x6A, 0x1F, 0x38))
	require.NoError(t, bus.SetSpeed(400*physic.KiloHertz))
	assert.NoError(t, bus.Close(), "every expected transfer happened")
}

func TestGenericBus_UnexpectedTransfer(t *testing.T) {
	playback := &i2ctest.Playback{
		Ops:       []i2ctest.IO{{Addr: 0x77, W: []byte{0xD0}}},
		DontPanic: true,
	}
	bus := newGenericBus(playback)
	err := bus.WriteToAddr(context.Background(), 0x1C, []byte{0x0F})
	assert.Error(t, err)
}

func TestGenericBus_CanceledContext(t *testing.T) {
	playback := &i2ctest.Playback{DontPanic: true}
	bus := newGenericBus(playback)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, bus.ReadFromAddr(ctx, 0x6A, make([]byte, 1)), context.Canceled)
	assert.ErrorIs(t, bus.WriteToAddr(ctx, 0x6A, []byte{0x0F}), context.Canceled)
	assert.Equal(t, 0, playback.Count)
}

func TestGenericBus_ApplySpeed(t *testing.T) {
	playback := &i2ctest.Playback{DontPanic: true}
	assert.True(t, newGenericBus(playback).ApplySpeed(100*physic.KiloHertz))

	// no platform speed hook is registered without host.Init on a bcm283x
	sysfsBus := newGenericBus(&sysfs.I2C{})
	assert.Error(t, sysfsBus.SetSpeed(100*physic.KiloHertz))
	assert.False(t, sysfsBus.ApplySpeed(100*physic.KiloHertz), "an unsupported speed keeps the bus usable")
}
