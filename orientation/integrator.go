package orientation

import (
	"sync"
	"time"

	"github.com/mklimuk/sensorlog/imu"
)

// RateIntegrator accumulates gyroscope rates into angles. The time of the
// previous update is the only state it keeps; the first update only starts
// the clock.
type RateIntegrator struct {
	mx     sync.Mutex
	now    func() time.Time
	last   time.Time
	angles imu.Scaled
}

type IntegratorOpt func(*RateIntegrator)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) IntegratorOpt {
	return func(r *RateIntegrator) {
		r.now = now
	}
}

func NewRateIntegrator(opts ...IntegratorOpt) *RateIntegrator {
	r := &RateIntegrator{now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Update adds rates (degrees per second) times the elapsed time and returns
// the accumulated angles in degrees.
func (r *RateIntegrator) Update(rates imu.Scaled) imu.Scaled {
	r.mx.Lock()
	defer r.mx.Unlock()
	now := r.now()
	if !r.last.IsZero() {
		dt := now.Sub(r.last).Seconds()
		r.angles.X += rates.X * dt
		r.angles.Y += rates.Y * dt
		r.angles.Z += rates.Z * dt
	}
	r.last = now
	return r.angles
}

func (r *RateIntegrator) Angles() imu.Scaled {
	r.mx.Lock()
	defer r.mx.Unlock()
	return r.angles
}

func (r *RateIntegrator) Reset() {
	r.mx.Lock()
	defer r.mx.Unlock()
	r.last = time.Time{}
	r.angles = imu.Scaled{}
}
