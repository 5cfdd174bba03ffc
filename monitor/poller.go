// Package monitor polls the board sensors on a fixed cadence and keeps the
// latest readings available to concurrent consumers.
package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mklimuk/sensorlog/environment"
	"github.com/mklimuk/sensorlog/imu"
	"github.com/mklimuk/sensorlog/orientation"
)

// DefaultInterval stays above the BMP280 resample window so every cycle
// carries a fresh environment sample.
const DefaultInterval = environment.MinResampleInterval + 250*time.Millisecond

// VectorSource is satisfied by the imu sensors.
type VectorSource interface {
	ReadAxes(ctx context.Context) (imu.Vector, error)
}

// Sources lists the sensors to poll. Nil sources are skipped.
type Sources struct {
	Accelerometer VectorSource
	Gyroscope     VectorSource
	Magnetometer  VectorSource
	Thermometer   environment.TemperatureSensor
	Barometer     environment.PressureSensor
	Altimeter     environment.AltitudeSensor
}

// Snapshot is the result of one polling cycle. Readings that failed are
// absent and their error is listed under the source name.
type Snapshot struct {
	At           time.Time             `json:"at"`
	Acceleration *imu.Scaled           `json:"acceleration,omitempty"`
	Rotation     *imu.Scaled           `json:"rotation,omitempty"`
	Integrated   *imu.Scaled           `json:"integrated,omitempty"`
	Magnetic     *imu.Scaled           `json:"magnetic,omitempty"`
	Orientation  *orientation.Estimate `json:"orientation,omitempty"`
	TemperatureF *float64              `json:"temperatureF,omitempty"`
	PressureHpa  *float64              `json:"pressureHpa,omitempty"`
	AltitudeFt   *float64              `json:"altitudeFt,omitempty"`
	Errors       map[string]string     `json:"errors,omitempty"`
}

func (s *Snapshot) fail(source string, err error) {
	if s.Errors == nil {
		s.Errors = make(map[string]string)
	}
	s.Errors[source] = err.Error()
	slog.Warn("sensor read failed", "source", source, "error", err)
}

// Sink receives every snapshot after it is stored.
type Sink interface {
	Publish(ctx context.Context, s Snapshot) error
}

type Opts struct {
	Interval time.Duration
	Tilt     orientation.TiltOrder
	Clock    func() time.Time
}

type Opt func(*Opts)

func WithInterval(interval time.Duration) Opt {
	return func(o *Opts) {
		o.Interval = interval
	}
}

func WithTiltOrder(order orientation.TiltOrder) Opt {
	return func(o *Opts) {
		o.Tilt = order
	}
}

func WithClock(now func() time.Time) Opt {
	return func(o *Opts) {
		o.Clock = now
	}
}

type Poller struct {
	sources    Sources
	config     Opts
	sinks      []Sink
	integrator *orientation.RateIntegrator

	mx     sync.RWMutex
	latest Snapshot
	ready  bool

	subMx  sync.Mutex
	subs   map[int]chan Snapshot
	nextID int
}

func NewPoller(sources Sources, opts ...Opt) *Poller {
	config := Opts{
		Interval: DefaultInterval,
		Tilt:     orientation.InPlaceTilt,
		Clock:    time.Now,
	}
	for _, opt := range opts {
		opt(&config)
	}
	return &Poller{
		sources:    sources,
		config:     config,
		integrator: orientation.NewRateIntegrator(orientation.WithClock(config.Clock)),
		subs:       make(map[int]chan Snapshot),
	}
}

// AddSink registers a sink. It must be called before Run.
func (p *Poller) AddSink(s Sink) {
	p.sinks = append(p.sinks, s)
}

// Run polls immediately and then on every interval until ctx is done.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()
	slog.Info("monitor started", "interval", p.config.Interval)
	for {
		p.Poll(ctx)
		select {
		case <-ctx.Done():
			slog.Info("monitor stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// Poll runs a single cycle: read every source, store the snapshot, notify
// subscribers and sinks. Read errors never stop the cycle.
func (p *Poller) Poll(ctx context.Context) Snapshot {
	s := p.read(ctx)
	p.mx.Lock()
	p.latest = s
	p.ready = true
	p.mx.Unlock()
	p.notify(s)
	for _, sink := range p.sinks {
		if err := sink.Publish(ctx, s); err != nil {
			slog.Error("could not publish snapshot", "error", err)
		}
	}
	return s
}

func (p *Poller) read(ctx context.Context) Snapshot {
	s := Snapshot{At: p.config.Clock()}
	var acc, mag *imu.Vector
	if p.sources.Accelerometer != nil {
		v, err := p.sources.Accelerometer.ReadAxes(ctx)
		if err != nil {
			s.fail("accelerometer", err)
		} else {
			acc = &v
			g := imu.AccelerationG(v)
			s.Acceleration = &g
		}
	}
	if p.sources.Gyroscope != nil {
		v, err := p.sources.Gyroscope.ReadAxes(ctx)
		if err != nil {
			s.fail("gyroscope", err)
		} else {
			rates := imu.RatesDps(v)
			angles := p.integrator.Update(rates)
			s.Rotation = &rates
			s.Integrated = &angles
		}
	}
	if p.sources.Magnetometer != nil {
		v, err := p.sources.Magnetometer.ReadAxes(ctx)
		if err != nil {
			s.fail("magnetometer", err)
		} else {
			mag = &v
			gauss := imu.FieldGauss(v)
			s.Magnetic = &gauss
		}
	}
	if acc != nil && mag != nil {
		e, err := orientation.Compute(*acc, *mag, p.config.Tilt)
		if err != nil {
			s.fail("orientation", err)
		} else {
			s.Orientation = &e
		}
	}
	if p.sources.Thermometer != nil {
		f, err := p.sources.Thermometer.ReadTemperatureF(ctx)
		if err != nil {
			s.fail("thermometer", err)
		} else {
			s.TemperatureF = &f
		}
	}
	if p.sources.Barometer != nil {
		hPa, err := p.sources.Barometer.ReadPressureHpa(ctx)
		if err != nil {
			s.fail("barometer", err)
		} else {
			s.PressureHpa = &hPa
		}
	}
	if p.sources.Altimeter != nil {
		ft, err := p.sources.Altimeter.ReadAltitudeFt(ctx)
		if err != nil {
			s.fail("altimeter", err)
		} else {
			s.AltitudeFt = &ft
		}
	}
	return s
}

// Latest returns the most recent snapshot and false before the first poll.
func (p *Poller) Latest() (Snapshot, bool) {
	p.mx.RLock()
	defer p.mx.RUnlock()
	return p.latest, p.ready
}

// Subscribe returns a channel receiving every new snapshot. A subscriber
// that does not keep up misses snapshots. The returned function
// unsubscribes and closes the channel.
func (p *Poller) Subscribe(buffer int) (<-chan Snapshot, func()) {
	p.subMx.Lock()
	defer p.subMx.Unlock()
	id := p.nextID
	p.nextID++
	ch := make(chan Snapshot, buffer)
	p.subs[id] = ch
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.subMx.Lock()
			defer p.subMx.Unlock()
			delete(p.subs, id)
			close(ch)
		})
	}
}

func (p *Poller) notify(s Snapshot) {
	p.subMx.Lock()
	defer p.subMx.Unlock()
	for id, ch := range p.subs {
		select {
		case ch <- s:
		default:
			slog.Debug("subscriber lagging, snapshot dropped", "subscriber", id)
		}
	}
}
