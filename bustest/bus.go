// Package bustest provides an in-memory register map bus for tests.
//
// Writing a single byte to an address moves the register pointer; longer
// writes store the payload starting at the first byte's register. Reads
// return consecutive registers from the pointer, like devices with
// register auto-increment.
package bustest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mklimuk/sensorlog"
)

var _ sensorlog.I2CBus = &Bus{}

var ErrNoDevice = fmt.Errorf("no acknowledge from device")

// Write is a recorded register write.
type Write struct {
	Addr  byte
	Reg   byte
	Value byte
}

type Bus struct {
	mx       sync.Mutex
	regs     map[byte]*[256]byte
	pointer  map[byte]byte
	reads    map[[2]byte]int
	writes   []Write
	fail     map[byte]error
	delay    time.Duration
	inFlight int
	maxInFl  int
}

func New() *Bus {
	return &Bus{
		regs:    make(map[byte]*[256]byte),
		pointer: make(map[byte]byte),
		reads:   make(map[[2]byte]int),
		fail:    make(map[byte]error),
	}
}

// Attach registers a device at addr so that it acknowledges transfers.
func (b *Bus) Attach(addr byte) *Bus {
	b.mx.Lock()
	defer b.mx.Unlock()
	if _, ok := b.regs[addr]; !ok {
		b.regs[addr] = &[256]byte{}
	}
	return b
}

// Set stores data at consecutive registers of the device at addr.
func (b *Bus) Set(addr, reg byte, data ...byte) *Bus {
	b.Attach(addr)
	b.mx.Lock()
	defer b.mx.Unlock()
	for i, v := range data {
		b.regs[addr][int(reg)+i] = v
	}
	return b
}

// Get returns the current content of a register.
func (b *Bus) Get(addr, reg byte) byte {
	b.mx.Lock()
	defer b.mx.Unlock()
	r, ok := b.regs[addr]
	if !ok {
		return 0
	}
	return r[reg]
}

// Fail makes every transfer to addr return err; nil clears it.
func (b *Bus) Fail(addr byte, err error) {
	b.mx.Lock()
	defer b.mx.Unlock()
	if err == nil {
		delete(b.fail, addr)
		return
	}
	b.fail[addr] = err
}

// SetDelay makes every transfer block for d, ignoring the context like a
// stuck transport would.
func (b *Bus) SetDelay(d time.Duration) {
	b.mx.Lock()
	defer b.mx.Unlock()
	b.delay = d
}

// Reads reports how many read transfers started at reg on addr.
func (b *Bus) Reads(addr, reg byte) int {
	b.mx.Lock()
	defer b.mx.Unlock()
	return b.reads[[2]byte{addr, reg}]
}

// Writes returns the recorded register writes in order.
func (b *Bus) Writes() []Write {
	b.mx.Lock()
	defer b.mx.Unlock()
	out := make([]Write, len(b.writes))
	copy(out, b.writes)
	return out
}

// WritesTo filters Writes by device address.
func (b *Bus) WritesTo(addr byte) []Write {
	var out []Write
	for _, w := range b.Writes() {
		if w.Addr == addr {
			out = append(out, w)
		}
	}
	return out
}

// MaxInFlight is the highest number of transfers observed running at once.
func (b *Bus) MaxInFlight() int {
	b.mx.Lock()
	defer b.mx.Unlock()
	return b.maxInFl
}

func (b *Bus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	defer b.enter()()
	b.mx.Lock()
	defer b.mx.Unlock()
	regs, err := b.device(address)
	if err != nil {
		return err
	}
	if len(buffer) == 0 {
		return nil
	}
	reg := buffer[0]
	b.pointer[address] = reg
	for i, v := range buffer[1:] {
		r := reg + byte(i)
		regs[r] = v
		b.writes = append(b.writes, Write{Addr: address, Reg: r, Value: v})
	}
	return nil
}

func (b *Bus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	defer b.enter()()
	b.mx.Lock()
	defer b.mx.Unlock()
	regs, err := b.device(address)
	if err != nil {
		return err
	}
	reg := b.pointer[address]
	b.reads[[2]byte{address, reg}]++
	for i := range buffer {
		buffer[i] = regs[reg+byte(i)]
	}
	return nil
}

func (b *Bus) Release(ctx context.Context) error {
	return nil
}

func (b *Bus) device(address byte) (*[256]byte, error) {
	if err := b.fail[address]; err != nil {
		return nil, err
	}
	regs, ok := b.regs[address]
	if !ok {
		return nil, fmt.Errorf("address %#02x: %w", address, ErrNoDevice)
	}
	return regs, nil
}

func (b *Bus) enter() func() {
	b.mx.Lock()
	b.inFlight++
	if b.inFlight > b.maxInFl {
		b.maxInFl = b.inFlight
	}
	delay := b.delay
	b.mx.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
	return func() {
		b.mx.Lock()
		b.inFlight--
		b.mx.Unlock()
	}
}
