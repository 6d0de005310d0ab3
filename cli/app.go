// Package cli contains the hapticd command line tool.
package cli

import (
	"io"
	"time"

	"github.com/urfave/cli/v2"

	"go.viam.com/haptics/host"
)

const (
	configFlag      = "config"
	debugFlag       = "debug"
	noLightsFlag    = "no-lights"
	watchFlag       = "watch"
	intervalFlag    = "interval"
	fadeStepFlag    = "fade-step"
	traceFlag       = "trace"
	absoluteFlag    = "absolute"
	percentileFlag  = "percentile"
	defaultInterval = 2 * time.Second
)

var app = &cli.App{
	Name:            "hapticd",
	Usage:           "drive haptic feedback from flight simulator g-forces",
	HideHelpCommand: true,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    configFlag,
			Aliases: []string{"c"},
			Usage:   "load configuration from `FILE`",
			EnvVars: []string{"HAPTICS_CONFIG"},
		},
		&cli.BoolFlag{
			Name:    debugFlag,
			Aliases: []string{"vvv"},
			Usage:   "enable debug logging",
		},
	},
	Commands: []*cli.Command{
		{
			Name:  "run",
			Usage: "enable vibration and feed it from the configured telemetry source until interrupted",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  noLightsFlag,
					Usage: "do not fade the backlight in and out",
				},
				&cli.BoolFlag{
					Name:  watchFlag,
					Usage: "restart the engine whenever the config file changes",
				},
			},
			Action: RunAction,
		},
		{
			Name:  "serial",
			Usage: "print the device serial number",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  watchFlag,
					Usage: "keep polling and print the serial number whenever it changes",
				},
				&cli.DurationFlag{
					Name:  intervalFlag,
					Value: defaultInterval,
					Usage: "polling interval for --watch",
				},
			},
			Action: SerialAction,
		},
		{
			Name:   "restart",
			Usage:  "reboot the device",
			Action: RestartAction,
		},
		{
			Name:      "lights",
			Usage:     "fade the backlight on or off",
			ArgsUsage: "<on|off>",
			Flags: []cli.Flag{
				&cli.DurationFlag{
					Name:   fadeStepFlag,
					Value:  host.DefaultFadeStep,
					Hidden: true,
				},
			},
			Action: LightsAction,
		},
		{
			Name:   "test",
			Usage:  "ramp the motor up and down",
			Action: SelfTestAction,
		},
		{
			Name:   "devices",
			Usage:  "list connected HID devices",
			Action: DevicesAction,
		},
		{
			Name:  "calibrate",
			Usage: "suggest max_magnitude from a recorded trace",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     traceFlag,
					Usage:    "CSV trace of x,y,z samples",
					Required: true,
				},
				&cli.BoolFlag{
					Name:  absoluteFlag,
					Usage: "the trace holds absolute g-forces rather than frame deltas",
				},
				&cli.Float64Flag{
					Name:  percentileFlag,
					Value: 95,
					Usage: "percentile of filtered magnitudes that should map to full intensity",
				},
			},
			Action: CalibrateAction,
		},
		{
			Name:   "version",
			Usage:  "print version info for this program",
			Action: VersionAction,
		},
	},
}

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	app.Writer = out
	app.ErrWriter = errOut
	return app
}
