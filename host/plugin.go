// Package host wires a synthesis engine, a telemetry source and manual device commands together
// behind an enable/disable lifecycle.
package host

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/haptics/components/actuator"
	"go.viam.com/haptics/config"
	"go.viam.com/haptics/logging"
	"go.viam.com/haptics/synthesis"
	"go.viam.com/haptics/telemetry"
	"go.viam.com/haptics/utils"
)

var (
	// ErrEngineRunning is returned by manual commands while vibration is enabled, since the engine
	// owns the device.
	ErrEngineRunning = errors.New("vibration is enabled; disable it before sending manual commands")
	// ErrNoSerialNumber is returned when the device does not report a serial number.
	ErrNoSerialNumber = errors.New("device reports no serial number")
)

const (
	// DefaultFadeStep is the delay between backlight steps of a fade.
	DefaultFadeStep = 5 * time.Millisecond
	// DefaultSelfTestStep is the delay between intensity steps of the self-test.
	DefaultSelfTestStep = 20 * time.Millisecond
	selfTestIncrement   = 17
)

// Options tune a Plugin. The zero value is usable.
type Options struct {
	// Opener overrides the opener built from the device config.
	Opener actuator.Opener
	// Source overrides the source built from the telemetry config. Use NoSource to run without one.
	Source telemetry.Source
	NoSource bool
	// FadeLights fades the backlight in on Enable and out on Disable.
	FadeLights   bool
	FadeStep     time.Duration
	SelfTestStep time.Duration
	Clock        clock.Clock
}

// A Plugin is the host side of the haptics daemon.
type Plugin struct {
	mu      sync.Mutex
	cfg     *config.Config
	opts    Options
	opener  actuator.Opener
	source  telemetry.Source
	clock   clock.Clock
	logger  logging.Logger
	engine  *synthesis.Engine
	workers *utils.StoppableWorkers
}

// NewPlugin returns a disabled plugin for cfg.
func NewPlugin(cfg *config.Config, opts Options, logger logging.Logger) (*Plugin, error) {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.FadeStep <= 0 {
		opts.FadeStep = DefaultFadeStep
	}
	if opts.SelfTestStep <= 0 {
		opts.SelfTestStep = DefaultSelfTestStep
	}
	p := &Plugin{opts: opts, clock: opts.Clock, logger: logger}
	if err := p.applyConfig(cfg); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Plugin) applyConfig(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	opener := p.opts.Opener
	if opener == nil {
		opener = NewOpener(cfg.Device, p.logger)
	}
	source := p.opts.Source
	if source == nil && !p.opts.NoSource {
		var err error
		source, err = NewSource(cfg.Telemetry, p.clock, p.logger)
		if err != nil {
			return err
		}
	}
	p.cfg = cfg
	p.opener = opener
	p.source = source
	return nil
}

// Config returns the config in use.
func (p *Plugin) Config() *config.Config {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cfg
}

// Enabled reports whether vibration is running.
func (p *Plugin) Enabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.engine != nil
}

// Send forwards a sample to the running engine. Samples sent while disabled are dropped.
func (p *Plugin) Send(s telemetry.Sample) {
	p.mu.Lock()
	engine := p.engine
	p.mu.Unlock()
	if engine != nil {
		engine.Send(s)
	}
}

// Enable fades the lights in, if configured, then starts the engine and the telemetry source.
// If the device cannot be opened vibration stays disabled and the error wraps
// actuator.ErrDeviceUnavailable.
func (p *Plugin) Enable(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.engine != nil {
		return nil
	}
	if p.opts.FadeLights {
		if err := p.fadeLocked(ctx, true); err != nil {
			p.logger.Warnw("could not fade lights on", "error", err)
		}
	}
	return p.startLocked(ctx)
}

func (p *Plugin) startLocked(ctx context.Context) error {
	engine, err := synthesis.NewEngine(p.cfg.Synthesis.SynthesisConfig(), p.opener, p.clock, p.logger.Sublogger("synthesis"))
	if err != nil {
		return err
	}
	if err := engine.Start(ctx); err != nil {
		p.logger.Errorw("could not open haptic device, vibration disabled", "error", err)
		return err
	}
	p.engine = engine
	if p.source != nil {
		source := p.source
		p.workers = utils.NewStoppableWorkers(func(ctx context.Context) {
			if err := source.Run(ctx, engine); err != nil && !errors.Is(err, context.Canceled) {
				p.logger.Errorw("telemetry source stopped", "error", err)
			}
		})
	}
	p.logger.Info("vibration enabled")
	return nil
}

// Disable stops the telemetry source and the engine, waiting for both, then fades the lights out
// if configured.
func (p *Plugin) Disable(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.engine == nil {
		return nil
	}
	err := p.stopLocked(ctx)
	if p.opts.FadeLights {
		err = multierr.Combine(err, p.fadeLocked(ctx, false))
	}
	return err
}

func (p *Plugin) stopLocked(ctx context.Context) error {
	if p.workers != nil {
		p.workers.Stop()
		p.workers = nil
	}
	err := p.engine.Stop(ctx)
	p.engine = nil
	p.logger.Info("vibration disabled")
	return err
}

// Reconfigure switches to cfg. A running engine is restarted with the new settings; it never sees
// a config change while it runs.
func (p *Plugin) Reconfigure(ctx context.Context, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	wasEnabled := p.engine != nil
	var err error
	if wasEnabled {
		err = p.stopLocked(ctx)
	}
	if applyErr := p.applyConfig(cfg); applyErr != nil {
		err = multierr.Combine(err, applyErr)
	}
	if wasEnabled {
		err = multierr.Combine(err, p.startLocked(ctx))
	}
	return err
}

// withDevice opens a short lived handle for a manual command. It refuses while the engine owns
// the device.
func (p *Plugin) withDevice(ctx context.Context, fn func(act actuator.Actuator) error) (err error) {
	if p.engine != nil {
		return ErrEngineRunning
	}
	act, err := p.opener(ctx, p.logger)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, act.Close(ctx))
	}()
	return fn(act)
}

// SerialNumber reads the device serial number.
func (p *Plugin) SerialNumber(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var serial string
	err := p.withDevice(ctx, func(act actuator.Actuator) error {
		sn, ok := act.SerialNumber(ctx)
		if !ok {
			return ErrNoSerialNumber
		}
		serial = sn
		return nil
	})
	return serial, err
}

// Restart reboots the device.
func (p *Plugin) Restart(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.withDevice(ctx, func(act actuator.Actuator) error {
		return act.Restart(ctx)
	})
}

// LightsOn fades the backlight from 0 to full.
func (p *Plugin) LightsOn(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fadeLocked(ctx, true)
}

// LightsOff fades the backlight from full to 0.
func (p *Plugin) LightsOff(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fadeLocked(ctx, false)
}

func (p *Plugin) fadeLocked(ctx context.Context, on bool) error {
	return p.withDevice(ctx, func(act actuator.Actuator) error {
		for i := 0; i <= math.MaxUint8; i++ {
			value := uint8(i)
			if !on {
				value = math.MaxUint8 - value
			}
			if err := act.WriteBacklight(ctx, value); err != nil {
				return err
			}
			if i < math.MaxUint8 && !p.wait(ctx, p.opts.FadeStep) {
				return ctx.Err()
			}
		}
		return nil
	})
}

// SelfTest ramps the motor up to full intensity and back down, always leaving it at 0.
func (p *Plugin) SelfTest(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.withDevice(ctx, func(act actuator.Actuator) (err error) {
		defer func() {
			err = multierr.Combine(err, act.WriteIntensity(context.WithoutCancel(ctx), 0))
		}()
		for _, value := range SelfTestPattern() {
			if value == 0 {
				continue
			}
			if err := act.WriteIntensity(ctx, value); err != nil {
				return err
			}
			if !p.wait(ctx, p.opts.SelfTestStep) {
				return ctx.Err()
			}
		}
		return nil
	})
}

// SelfTestPattern returns the intensities SelfTest steps through, from 0 up to 255 and back to 0.
func SelfTestPattern() []uint8 {
	var pattern []uint8
	for v := 0; v < math.MaxUint8; v += selfTestIncrement {
		pattern = append(pattern, uint8(v))
	}
	for v := math.MaxUint8; v >= 0; v -= selfTestIncrement {
		pattern = append(pattern, uint8(v))
	}
	return pattern
}

func (p *Plugin) wait(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-p.clock.After(d):
		return true
	}
}
