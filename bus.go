// Package sensorlog holds the transport contracts shared by the sensor
// packages. Concrete transports live in i2c and adapter; register level
// access is built on top of them in device.
package sensorlog

import (
	"context"
	"fmt"
)

var ErrBusBusy = fmt.Errorf("I2C engine is busy (command not completed)")

// AddressableReader reads len(buffer) bytes from the device at address.
type AddressableReader interface {
	ReadFromAddr(ctx context.Context, address byte, buffer []byte) error
}

// AddressableWriter writes buffer to the device at address. Release frees
// the bus after an aborted transfer where the transport supports it.
type AddressableWriter interface {
	WriteToAddr(ctx context.Context, address byte, buffer []byte) error
	Release(ctx context.Context) error
}

// I2CBus is the byte-oriented transport every sensor in this module talks to.
type I2CBus interface {
	AddressableReader
	AddressableWriter
}

// BusCloser is an I2CBus owning an OS handle.
type BusCloser interface {
	I2CBus
	Close() error
}
