package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	goutils "go.viam.com/utils"

	"go.viam.com/haptics/components/actuator"
	"go.viam.com/haptics/config"
	"go.viam.com/haptics/host"
	"go.viam.com/haptics/logging"
	"go.viam.com/haptics/synthesis"
	"go.viam.com/haptics/telemetry"
	"go.viam.com/haptics/usb"
)

// shutdownTimeout bounds the silence write and light fade after an interrupt.
const shutdownTimeout = 5 * time.Second

func printf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, format+"\n", a...)
}

func warningf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, "Warning: "+format+"\n", a...)
}

// loadConfig reads the --config file, or the defaults when none is given, and builds the logger it
// describes.
func loadConfig(c *cli.Context) (*config.Config, logging.Logger, error) {
	cfg := config.Default()
	if path := c.String(configFlag); path != "" {
		var err error
		cfg, err = config.Read(c.Context, path, logging.NewBlankLogger("config"))
		if err != nil {
			return nil, nil, errors.Wrapf(err, "cannot read config %s", path)
		}
	}
	if c.Bool(debugFlag) {
		cfg.Log.Level = logging.DEBUG.String()
	}
	logger, err := cfg.Log.NewLogger("hapticd")
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// newCommandPlugin returns a plugin for one-shot device commands.
func newCommandPlugin(c *cli.Context, opts host.Options) (*host.Plugin, error) {
	cfg, logger, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	opts.NoSource = true
	return host.NewPlugin(cfg, opts, logger)
}

// RunAction enables vibration until SIGINT or SIGTERM.
func RunAction(c *cli.Context) error {
	cfg, logger, err := loadConfig(c)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	plugin, err := host.NewPlugin(cfg, host.Options{FadeLights: !c.Bool(noLightsFlag)}, logger)
	if err != nil {
		return err
	}
	if err := plugin.Enable(ctx); err != nil {
		return err
	}

	if c.Bool(watchFlag) {
		if cfg.ConfigFilePath == "" {
			warningf(c.App.ErrWriter, "--%s needs --%s, not watching", watchFlag, configFlag)
		} else {
			watcher, err := config.NewWatcher(ctx, cfg.ConfigFilePath, cfg, logger, func(ctx context.Context, newCfg *config.Config) {
				if err := plugin.Reconfigure(ctx, newCfg); err != nil {
					logger.Errorw("failed to apply new config", "error", err)
				}
			})
			if err != nil {
				return multiStop(plugin, err)
			}
			defer goutils.UncheckedErrorFunc(watcher.Close)
		}
	}

	<-ctx.Done()
	logger.Info("shutting down")
	return multiStop(plugin, nil)
}

func multiStop(plugin *host.Plugin, err error) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if disableErr := plugin.Disable(ctx); disableErr != nil {
		if err == nil {
			return disableErr
		}
		return errors.Wrapf(err, "also failed to disable: %v", disableErr)
	}
	return err
}

// SerialAction prints the device serial number, optionally watching for changes.
func SerialAction(c *cli.Context) error {
	plugin, err := newCommandPlugin(c, host.Options{})
	if err != nil {
		return err
	}
	if !c.Bool(watchFlag) {
		serial, err := plugin.SerialNumber(c.Context)
		if err != nil {
			return err
		}
		printf(c.App.Writer, "%s", serial)
		return nil
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	last := ""
	for {
		serial, err := plugin.SerialNumber(ctx)
		switch {
		case errors.Is(err, actuator.ErrDeviceUnavailable):
			serial = ""
		case errors.Is(err, host.ErrNoSerialNumber):
			serial = "(none)"
		case err != nil:
			return err
		}
		if serial != last {
			if serial == "" {
				printf(c.App.Writer, "device disconnected")
			} else {
				printf(c.App.Writer, "%s", serial)
			}
			last = serial
		}
		if !goutils.SelectContextOrWait(ctx, c.Duration(intervalFlag)) {
			return nil
		}
	}
}

// RestartAction reboots the device.
func RestartAction(c *cli.Context) error {
	plugin, err := newCommandPlugin(c, host.Options{})
	if err != nil {
		return err
	}
	if err := plugin.Restart(c.Context); err != nil {
		return err
	}
	printf(c.App.Writer, "restart requested")
	return nil
}

// LightsAction fades the backlight on or off.
func LightsAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("expected exactly one argument: on or off")
	}
	plugin, err := newCommandPlugin(c, host.Options{FadeStep: c.Duration(fadeStepFlag)})
	if err != nil {
		return err
	}
	switch c.Args().First() {
	case "on":
		return plugin.LightsOn(c.Context)
	case "off":
		return plugin.LightsOff(c.Context)
	default:
		return errors.Errorf("unknown lights state %q, expected on or off", c.Args().First())
	}
}

// SelfTestAction runs the self-test pattern.
func SelfTestAction(c *cli.Context) error {
	plugin, err := newCommandPlugin(c, host.Options{})
	if err != nil {
		return err
	}
	if err := plugin.SelfTest(c.Context); err != nil {
		return err
	}
	printf(c.App.Writer, "self-test complete")
	return nil
}

// DevicesAction lists HID devices.
func DevicesAction(c *cli.Context) error {
	devices := usb.Search(usb.SearchFilter{})
	if len(devices) == 0 {
		warningf(c.App.ErrWriter, "no HID devices found")
		return nil
	}
	for _, d := range devices {
		serial := d.Serial
		if serial == "" {
			serial = "-"
		}
		printf(c.App.Writer, "%s\t%s\t%s\t%s", d.Path, d.ID, serial, d.Name)
	}
	return nil
}

// CalibrateAction suggests a max_magnitude for a recorded trace.
func CalibrateAction(c *cli.Context) error {
	cfg, _, err := loadConfig(c)
	if err != nil {
		return err
	}
	samples, err := telemetry.ReadTraceFile(c.String(traceFlag))
	if err != nil {
		return err
	}
	if c.Bool(absoluteFlag) {
		deltas := make([]telemetry.Sample, 0, len(samples))
		tracker := telemetry.NewDeltaTracker(telemetry.SinkFunc(func(s telemetry.Sample) {
			deltas = append(deltas, s)
		}))
		for _, s := range samples {
			tracker.Send(s)
		}
		samples = deltas
	}

	synthCfg := cfg.Synthesis.SynthesisConfig()
	result, err := synthesis.Calibrate(samples, synthCfg, c.Float64(percentileFlag))
	if err != nil {
		return err
	}
	printf(c.App.Writer, "samples: %d (%d in motion)", result.Samples, result.Active)
	printf(c.App.Writer, "filtered magnitude: mean %.4f, stddev %.4f, peak %.4f", result.Mean, result.StdDev, result.Peak)
	printf(c.App.Writer, "suggested max_magnitude: %.4f (currently %.4f)", result.Suggested, synthCfg.MaxMagnitude)
	return nil
}

// VersionAction prints the version of this program.
func VersionAction(c *cli.Context) error {
	version := config.Version
	if version == "" {
		version = "dev"
	}
	revision := config.GitRevision
	if revision == "" {
		if info, ok := debug.ReadBuildInfo(); ok {
			for _, setting := range info.Settings {
				if setting.Key == "vcs.revision" && len(setting.Value) >= 8 {
					revision = setting.Value[:8]
				}
			}
		}
	}
	if revision == "" {
		revision = "?"
	}
	printf(c.App.Writer, "hapticd %s git=%s", version, revision)
	return nil
}
