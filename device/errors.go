package device

import (
	"errors"
	"fmt"
)

// Kind classifies a SensorError.
type Kind int

const (
	KindBusIO Kind = iota + 1
	KindIdentityMismatch
	KindComputation
	KindNotReady
)

func (k Kind) String() string {
	switch k {
	case KindBusIO:
		return "bus i/o"
	case KindIdentityMismatch:
		return "identity mismatch"
	case KindComputation:
		return "computation"
	case KindNotReady:
		return "not ready"
	default:
		return "unknown"
	}
}

var (
	ErrBusIO            = errors.New("bus i/o failure")
	ErrIdentityMismatch = errors.New("unexpected device identity")
	ErrComputation      = errors.New("undefined computation")

	ErrBusTimeout = fmt.Errorf("%w: transfer timed out", ErrBusIO)
)

func (k Kind) sentinel() error {
	switch k {
	case KindBusIO:
		return ErrBusIO
	case KindIdentityMismatch:
		return ErrIdentityMismatch
	case KindComputation:
		return ErrComputation
	}
	return nil
}

// SensorError carries the human name of the device that failed.
type SensorError struct {
	Name string
	Kind Kind
	Err  error
}

func (e *SensorError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Name, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Name, e.Kind, e.Err)
}

func (e *SensorError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error kind, so errors.Is(err, ErrBusIO)
// holds for every bus failure regardless of the wrapped transport error.
func (e *SensorError) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// NewComputationError labels a math failure with the device name.
func NewComputationError(name string, err error) *SensorError {
	return &SensorError{Name: name, Kind: KindComputation, Err: err}
}

// NewNotReadyError labels a read issued before the device was initialized.
func NewNotReadyError(name string, err error) *SensorError {
	return &SensorError{Name: name, Kind: KindNotReady, Err: err}
}

// NameOf returns the device name carried by err, if any.
func NameOf(err error) (string, bool) {
	var serr *SensorError
	if errors.As(err, &serr) {
		return serr.Name, true
	}
	return "", false
}
