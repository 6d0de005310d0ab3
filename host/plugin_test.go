package host

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"
	"go.viam.com/utils/testutils"

	"go.viam.com/haptics/components/actuator"
	"go.viam.com/haptics/components/actuator/fake"
	"go.viam.com/haptics/components/actuator/ursaminor"
	"go.viam.com/haptics/config"
	"go.viam.com/haptics/logging"
	"go.viam.com/haptics/telemetry"
	"go.viam.com/haptics/usb"
)

func fakeConfig() *config.Config {
	cfg := config.Default()
	cfg.Device = config.Device{Model: config.ModelFake, Serial: "SN-7"}
	return cfg
}

// runAdvancing runs fn while moving the mock clock forward in step increments until fn returns.
func runAdvancing(mockClock *clock.Mock, step time.Duration, fn func() error) error {
	done := make(chan error, 1)
	go func() { done <- fn() }()
	for {
		select {
		case err := <-done:
			return err
		default:
			mockClock.Add(step)
		}
	}
}

func newTestPlugin(t *testing.T, act *fake.Actuator, opts Options) (*Plugin, *clock.Mock) {
	t.Helper()
	mockClock := clock.NewMock()
	opts.Clock = mockClock
	opts.Opener = act.Opener()
	opts.NoSource = true
	p, err := NewPlugin(fakeConfig(), opts, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	return p, mockClock
}

func TestEnableDisable(t *testing.T) {
	ctx := context.Background()
	act := fake.NewActuator("SN-7", logging.NewTestLogger(t))
	p, mockClock := newTestPlugin(t, act, Options{})
	tick := p.Config().Synthesis.SynthesisConfig().TickInterval

	test.That(t, p.Enabled(), test.ShouldBeFalse)
	p.Send(r3.Vector{X: 5})

	test.That(t, p.Enable(ctx), test.ShouldBeNil)
	test.That(t, p.Enabled(), test.ShouldBeTrue)
	// enabling twice is a no-op
	test.That(t, p.Enable(ctx), test.ShouldBeNil)
	test.That(t, act.Opens(), test.ShouldEqual, 1)

	_, err := p.SerialNumber(ctx)
	test.That(t, err, test.ShouldBeError, ErrEngineRunning)
	test.That(t, p.Restart(ctx), test.ShouldBeError, ErrEngineRunning)
	test.That(t, p.SelfTest(ctx), test.ShouldBeError, ErrEngineRunning)
	test.That(t, p.LightsOn(ctx), test.ShouldBeError, ErrEngineRunning)

	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		p.Send(r3.Vector{X: 5})
		mockClock.Add(tick)
		test.That(tb, len(act.Intensities()), test.ShouldBeGreaterThan, 0)
	})

	test.That(t, p.Disable(ctx), test.ShouldBeNil)
	test.That(t, p.Enabled(), test.ShouldBeFalse)
	test.That(t, act.Closed(), test.ShouldBeTrue)
	intensities := act.Intensities()
	test.That(t, intensities[len(intensities)-1], test.ShouldEqual, 0)
	test.That(t, p.Disable(ctx), test.ShouldBeNil)

	serial, err := p.SerialNumber(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, serial, test.ShouldEqual, "SN-7")
	test.That(t, act.Closed(), test.ShouldBeTrue)
}

func TestEnableDeviceUnavailable(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	p, err := NewPlugin(fakeConfig(), Options{Opener: fake.UnavailableOpener(), NoSource: true, Clock: clock.NewMock()}, logger)
	test.That(t, err, test.ShouldBeNil)

	err = p.Enable(context.Background())
	test.That(t, errors.Is(err, actuator.ErrDeviceUnavailable), test.ShouldBeTrue)
	test.That(t, p.Enabled(), test.ShouldBeFalse)
	test.That(t, logs.FilterMessageSnippet("vibration disabled").Len(), test.ShouldEqual, 1)

	_, err = p.SerialNumber(context.Background())
	test.That(t, errors.Is(err, actuator.ErrDeviceUnavailable), test.ShouldBeTrue)
}

func TestManualCommands(t *testing.T) {
	ctx := context.Background()
	act := fake.NewActuator("", logging.NewTestLogger(t))
	p, mockClock := newTestPlugin(t, act, Options{})

	_, err := p.SerialNumber(ctx)
	test.That(t, err, test.ShouldBeError, ErrNoSerialNumber)

	test.That(t, p.Restart(ctx), test.ShouldBeNil)
	kind, _ := actuator.DecodeReport(act.Reports()[0])
	test.That(t, kind, test.ShouldEqual, actuator.KindRestart)
	test.That(t, act.Closed(), test.ShouldBeTrue)

	act.Reset()
	err = runAdvancing(mockClock, DefaultFadeStep, func() error { return p.LightsOn(ctx) })
	test.That(t, err, test.ShouldBeNil)
	lights := act.Values(actuator.KindBacklight)
	test.That(t, lights, test.ShouldHaveLength, 256)
	for i, v := range lights {
		test.That(t, v, test.ShouldEqual, i)
	}

	act.Reset()
	err = runAdvancing(mockClock, DefaultFadeStep, func() error { return p.LightsOff(ctx) })
	test.That(t, err, test.ShouldBeNil)
	lights = act.Values(actuator.KindBacklight)
	test.That(t, lights, test.ShouldHaveLength, 256)
	test.That(t, lights[0], test.ShouldEqual, math.MaxUint8)
	test.That(t, lights[255], test.ShouldEqual, 0)

	act.Reset()
	err = runAdvancing(mockClock, DefaultSelfTestStep, func() error { return p.SelfTest(ctx) })
	test.That(t, err, test.ShouldBeNil)
	var expected []uint8
	for _, v := range SelfTestPattern() {
		if v != 0 {
			expected = append(expected, v)
		}
	}
	expected = append(expected, 0)
	test.That(t, act.Intensities(), test.ShouldResemble, expected)
}

func TestSelfTestPattern(t *testing.T) {
	pattern := SelfTestPattern()
	test.That(t, pattern[0], test.ShouldEqual, 0)
	test.That(t, pattern[len(pattern)-1], test.ShouldEqual, 0)
	peak := 0
	for i, v := range pattern {
		if v == math.MaxUint8 {
			peak = i
		}
	}
	test.That(t, peak, test.ShouldEqual, len(pattern)/2)
}

func TestSelfTestSilencesOnFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	act := fake.NewActuator("", logging.NewTestLogger(t))
	p, _ := newTestPlugin(t, act, Options{})

	// nothing advances the clock, so the test is stuck after its first step until cancelled
	done := make(chan error, 1)
	go func() { done <- p.SelfTest(ctx) }()
	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		test.That(tb, len(act.Intensities()), test.ShouldEqual, 1)
	})
	cancel()
	test.That(t, <-done, test.ShouldBeError, context.Canceled)
	test.That(t, act.Intensities(), test.ShouldResemble, []uint8{17, 0})
}

func TestFadeLightsOnEnable(t *testing.T) {
	ctx := context.Background()
	act := fake.NewActuator("", logging.NewTestLogger(t))
	p, mockClock := newTestPlugin(t, act, Options{FadeLights: true})

	test.That(t, runAdvancing(mockClock, DefaultFadeStep, func() error { return p.Enable(ctx) }), test.ShouldBeNil)
	test.That(t, p.Enabled(), test.ShouldBeTrue)
	lights := act.Values(actuator.KindBacklight)
	test.That(t, lights, test.ShouldHaveLength, 256)
	test.That(t, lights[255], test.ShouldEqual, math.MaxUint8)

	act.Reset()
	test.That(t, runAdvancing(mockClock, DefaultFadeStep, func() error { return p.Disable(ctx) }), test.ShouldBeNil)
	test.That(t, act.Values(actuator.KindBacklight)[255], test.ShouldEqual, 0)
	// silenced before the lights go out
	kind, value := actuator.DecodeReport(act.Reports()[0])
	test.That(t, kind, test.ShouldEqual, actuator.KindVibration)
	test.That(t, value, test.ShouldEqual, 0)
}

func TestReconfigure(t *testing.T) {
	ctx := context.Background()
	act := fake.NewActuator("", logging.NewTestLogger(t))
	p, _ := newTestPlugin(t, act, Options{})

	cfg := fakeConfig()
	cfg.Synthesis.MaxMagnitude = 3
	test.That(t, p.Reconfigure(ctx, cfg), test.ShouldBeNil)
	test.That(t, p.Enabled(), test.ShouldBeFalse)
	test.That(t, p.Config().Synthesis.MaxMagnitude, test.ShouldEqual, 3.0)

	test.That(t, p.Enable(ctx), test.ShouldBeNil)
	cfg = fakeConfig()
	cfg.Synthesis.WaveDurationMs = 400
	test.That(t, p.Reconfigure(ctx, cfg), test.ShouldBeNil)
	test.That(t, p.Enabled(), test.ShouldBeTrue)
	test.That(t, act.Opens(), test.ShouldEqual, 2)
	test.That(t, p.engine.Config().WaveDuration, test.ShouldEqual, 400*time.Millisecond)

	bad := fakeConfig()
	bad.Synthesis.TickIntervalMs = 0
	test.That(t, p.Reconfigure(ctx, bad), test.ShouldNotBeNil)
	// the previous config keeps running
	test.That(t, p.Enabled(), test.ShouldBeTrue)
	test.That(t, p.Config().Synthesis.WaveDurationMs, test.ShouldEqual, 400)
	test.That(t, p.Disable(ctx), test.ShouldBeNil)
}

func TestReplaySourceDrivesEngine(t *testing.T) {
	ctx := context.Background()
	trace := filepath.Join(t.TempDir(), "bump.csv")
	test.That(t, os.WriteFile(trace, []byte("# side,axial,normal\n0,0,1\n0,0,4\n0,0,1\n0,0,1\n"), 0o600), test.ShouldBeNil)

	cfg := fakeConfig()
	cfg.Telemetry = config.Telemetry{Source: config.SourceReplay, Trace: trace, Rate: 50, Absolute: true, Loop: true}
	act := fake.NewActuator("", logging.NewTestLogger(t))
	mockClock := clock.NewMock()
	p, err := NewPlugin(cfg, Options{Opener: act.Opener(), Clock: mockClock}, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	test.That(t, p.Enable(ctx), test.ShouldBeNil)
	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		mockClock.Add(20 * time.Millisecond)
		test.That(tb, len(act.Intensities()), test.ShouldBeGreaterThan, 0)
	})
	test.That(t, p.Disable(ctx), test.ShouldBeNil)
	intensities := act.Intensities()
	test.That(t, intensities[len(intensities)-1], test.ShouldEqual, 0)
}

func TestFactories(t *testing.T) {
	logger := logging.NewTestLogger(t)
	ctx := context.Background()

	act, err := NewOpener(config.Device{Model: config.ModelFake, Serial: "SN-9"}, logger)(ctx, logger)
	test.That(t, err, test.ShouldBeNil)
	serial, ok := act.SerialNumber(ctx)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, serial, test.ShouldEqual, "SN-9")

	prevSearch := usb.Search
	defer func() {
		usb.Search = prevSearch
	}()
	var searched []usb.Identifier
	usb.Search = func(filter usb.SearchFilter) []usb.Description {
		searched = append(searched, filter.ID)
		return nil
	}
	_, err = NewOpener(config.Device{Model: ursaminor.Model}, logger)(ctx, logger)
	test.That(t, errors.Is(err, actuator.ErrDeviceUnavailable), test.ShouldBeTrue)
	_, err = NewOpener(config.Device{Model: config.ModelURSAMinor, VendorID: 0x4098, ProductID: 0xbc28}, logger)(ctx, logger)
	test.That(t, errors.Is(err, actuator.ErrDeviceUnavailable), test.ShouldBeTrue)
	test.That(t, searched, test.ShouldResemble, []usb.Identifier{ursaminor.ID, {Vendor: 0x4098, Product: 0xbc28}})

	_, err = NewOpener(config.Device{Model: "gamepad"}, logger)(ctx, logger)
	test.That(t, errors.Is(err, actuator.ErrDeviceUnavailable), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "gamepad")

	source, err := NewSource(config.Telemetry{Source: config.SourceXPlane, Address: "127.0.0.1:0"}, nil, logger)
	test.That(t, err, test.ShouldBeNil)
	xplane, ok := source.(*telemetry.XPlaneSource)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, xplane.Addr, test.ShouldEqual, "127.0.0.1:0")

	_, err = NewSource(config.Telemetry{Source: config.SourceReplay, Trace: filepath.Join(t.TempDir(), "missing.csv")}, nil, logger)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = NewSource(config.Telemetry{Source: "acars"}, nil, logger)
	test.That(t, err, test.ShouldNotBeNil)
}
