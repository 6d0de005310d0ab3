package synthesis

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"golang.org/x/time/rate"

	"go.viam.com/haptics/components/actuator"
	"go.viam.com/haptics/logging"
	"go.viam.com/haptics/telemetry"
	"go.viam.com/haptics/utils"
)

// ErrAlreadyRunning is returned when starting an engine that is running.
var ErrAlreadyRunning = errors.New("synthesis engine is already running")

// writeFailureLogInterval bounds how often a failing actuator is logged.
const writeFailureLogInterval = 5 * time.Second

// State is the lifecycle state of an Engine.
type State int

const (
	// Idle engines have no worker and hold no actuator handle.
	Idle State = iota
	// Running engines own an actuator handle and tick on their worker.
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

var _ telemetry.Sink = &Engine{}

// An Engine runs the synthesis pipeline against an actuator. Samples may be sent at any time from
// any goroutine; they are buffered in a bounded channel that drops the oldest sample when full and
// are consumed once per tick while the engine is running.
type Engine struct {
	cfg     Config
	opener  actuator.Opener
	clock   clock.Clock
	logger  logging.Logger
	samples *telemetry.Channel

	mu      sync.Mutex
	workers *utils.StoppableWorkers
	current *run
}

// NewEngine returns an idle engine. cfg is copied and never re-read. A nil clk uses the wall clock.
func NewEngine(cfg Config, opener actuator.Opener, clk clock.Clock, logger logging.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid synthesis config")
	}
	if opener == nil {
		return nil, errors.New("synthesis engine needs an actuator opener")
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Engine{
		cfg:     cfg,
		opener:  opener,
		clock:   clk,
		logger:  logger,
		samples: telemetry.NewChannel(cfg.SampleBuffer),
	}, nil
}

// Config returns the configuration the engine was built with.
func (e *Engine) Config() Config {
	return e.cfg
}

// Send queues a sample. It never blocks.
func (e *Engine) Send(s telemetry.Sample) {
	e.samples.Send(s)
}

// Dropped returns how many samples were discarded because the engine fell behind.
func (e *Engine) Dropped() uint64 {
	return e.samples.Dropped()
}

// State returns whether the engine is running.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.workers == nil {
		return Idle
	}
	return Running
}

// Running is State() == Running.
func (e *Engine) Running() bool {
	return e.State() == Running
}

// Start opens the actuator and starts the worker. If the actuator cannot be opened the engine
// stays idle and the returned error wraps actuator.ErrDeviceUnavailable.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.workers != nil {
		return ErrAlreadyRunning
	}

	runID := uuid.NewString()
	logger := e.logger.Sublogger(runID[:8])
	act, err := e.opener(ctx, logger)
	if err != nil {
		if !errors.Is(err, actuator.ErrDeviceUnavailable) {
			err = actuator.NewDeviceUnavailableError(err)
		}
		return err
	}

	// samples sent while idle belong to no run
	e.samples.Drain(func(telemetry.Sample) {})

	r := newRun(e.cfg, act, e.samples, logger)
	ticker := e.clock.Ticker(e.cfg.TickInterval)
	e.current = r
	e.workers = utils.NewStoppableWorkers(func(ctx context.Context) {
		r.loop(ctx, ticker)
	})
	logger.Infow("synthesis engine started", "run", runID, "tick", e.cfg.TickInterval, "wave_duration", e.cfg.WaveDuration)
	return nil
}

// Stop signals the worker and waits for it to exit. The worker silences the actuator and closes
// it before exiting. Stopping an idle engine does nothing.
func (e *Engine) Stop(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.workers == nil {
		return nil
	}
	e.workers.Stop()
	r := e.current
	e.workers = nil
	e.current = nil
	r.logger.Infow("synthesis engine stopped",
		"writes", r.writes, "write_failures", r.failures, "last_intensity", r.mixer.LastWritten())
	return r.stopErr
}

// run is the state of one Start/Stop cycle. Everything in it is owned by the worker goroutine
// until the worker exits.
type run struct {
	act     actuator.Actuator
	samples *telemetry.Channel
	filter  *HighPassFilter3D
	spawner *Spawner
	mixer   *Mixer
	logger  logging.Logger

	failureLog rate.Sometimes
	writes     int
	failures   int
	stopErr    error
}

func newRun(cfg Config, act actuator.Actuator, samples *telemetry.Channel, logger logging.Logger) *run {
	return &run{
		act:        act,
		samples:    samples,
		filter:     NewHighPassFilter3D(cfg.HighPassAlpha),
		spawner:    NewSpawner(cfg),
		mixer:      NewMixer(cfg.MinMotorIntensity),
		logger:     logger,
		failureLog: rate.Sometimes{Interval: writeFailureLogInterval},
	}
}

func (r *run) loop(ctx context.Context, ticker *clock.Ticker) {
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.stopErr = r.shutdown(context.WithoutCancel(ctx))
			return
		case now := <-ticker.C:
			r.step(ctx, now)
		}
	}
}

// step runs one tick at now: every queued sample is filtered and may spawn a wave, then the mixer
// decides whether the actuator needs a write.
func (r *run) step(ctx context.Context, now time.Time) {
	r.samples.Drain(func(s telemetry.Sample) {
		if wave, ok := r.spawner.Spawn(r.filter.Filter(s), now); ok {
			r.logger.Debugw("wave spawned", "magnitude", r.spawner.Magnitude(), "target", wave.Target,
				"frequency", wave.Frequency, "sharpness", wave.Sharpness)
			r.mixer.Add(wave)
		}
	})
	value, ok := r.mixer.Tick(now)
	if !ok {
		return
	}
	if err := r.act.WriteIntensity(ctx, value); err != nil {
		r.failures++
		r.failureLog.Do(func() {
			r.logger.Warnw("failed to write haptic intensity", "intensity", value, "failures", r.failures, "error", err)
		})
		return
	}
	r.writes++
	r.mixer.Committed(value)
}

func (r *run) shutdown(ctx context.Context) error {
	err := r.act.WriteIntensity(ctx, 0)
	if err == nil {
		r.writes++
		r.mixer.Committed(0)
	}
	return multierr.Combine(
		errors.Wrap(err, "silencing actuator"),
		errors.Wrap(r.act.Close(ctx), "closing actuator"),
	)
}
