package device

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mklimuk/sensorlog"
	"github.com/mklimuk/sensorlog/snsctx"
)

const DefaultTimeout = 250 * time.Millisecond

type PortOpts struct {
	Timeout time.Duration
}

type PortOpt func(*PortOpts)

// WithTimeout bounds every single bus transfer. Zero disables the bound.
func WithTimeout(timeout time.Duration) PortOpt {
	return func(o *PortOpts) {
		o.Timeout = timeout
	}
}

// Port gives register level access to the devices on one bus. Transfers are
// serialized: only one is in flight at a time, and a transfer that hangs
// keeps the bus reserved until the transport returns.
type Port struct {
	// single slot semaphore; a channel so that waiting honors ctx
	slot      chan struct{}
	transport sensorlog.I2CBus
	config    PortOpts
}

func NewPort(transport sensorlog.I2CBus, opts ...PortOpt) *Port {
	config := PortOpts{
		Timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(&config)
	}
	return &Port{
		slot:      make(chan struct{}, 1),
		transport: transport,
		config:    config,
	}
}

// ReadByte reads a single register.
func (p *Port) ReadByte(ctx context.Context, addr, reg byte) (byte, error) {
	buf, err := p.ReadBlock(ctx, addr, reg, 1)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

// ReadBlock reads n consecutive registers starting at reg.
func (p *Port) ReadBlock(ctx context.Context, addr, reg byte, n int) ([]byte, error) {
	buf := make([]byte, n)
	err := p.do(ctx, func(ctx context.Context) error {
		err := p.transport.WriteToAddr(ctx, addr, []byte{reg})
		if err != nil {
			return fmt.Errorf("could not set register pointer %#02x: %w", reg, err)
		}
		err = p.transport.ReadFromAddr(ctx, addr, buf)
		if err != nil {
			return fmt.Errorf("could not read register %#02x: %w", reg, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if snsctx.IsVerbose(ctx) {
		slog.Debug("register read", "op", snsctx.Operation(ctx), "addr", fmt.Sprintf("%#02x", addr), "reg", fmt.Sprintf("%#02x", reg), "data", hex.Dump(buf))
	}
	return buf, nil
}

// WriteByte writes val into register reg.
func (p *Port) WriteByte(ctx context.Context, addr, reg, val byte) error {
	if snsctx.IsVerbose(ctx) {
		slog.Debug("register write", "op", snsctx.Operation(ctx), "addr", fmt.Sprintf("%#02x", addr), "reg", fmt.Sprintf("%#02x", reg), "value", fmt.Sprintf("%#08b", val))
	}
	return p.do(ctx, func(ctx context.Context) error {
		err := p.transport.WriteToAddr(ctx, addr, []byte{reg, val})
		if err != nil {
			return fmt.Errorf("could not write register %#02x: %w", reg, err)
		}
		return nil
	})
}

func (p *Port) do(ctx context.Context, op func(ctx context.Context) error) error {
	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}
	select {
	case p.slot <- struct{}{}:
	case <-ctx.Done():
		return contextError("waiting for bus", ctx.Err())
	}
	done := make(chan error, 1)
	go func() {
		err := op(ctx)
		<-p.slot
		done <- err
	}()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%w: %w", ErrBusIO, err)
		}
		return nil
	case <-ctx.Done():
		return contextError("transfer", ctx.Err())
	}
}

// contextError reports an expired deadline as ErrBusTimeout and a caller
// cancellation as a plain bus failure.
func contextError(stage string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %w", ErrBusTimeout, stage, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrBusIO, stage, err)
}
