// Package cli contains the swingplan command line tool: inspect swing trajectories, foot phases
// and mode dispatch for a configuration.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"
	"go.viam.com/utils"

	"go.viam.com/leggedmpc/config"
	"go.viam.com/leggedmpc/logging"
)

const (
	flagConfig  = "config"
	flagDebug   = "debug"
	flagSamples = "samples"
	flagOut     = "out"
	flagMode    = "mode"
	flagState   = "state"

	loggerKey = "logger"
)

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	samplesFlag := &cli.IntFlag{
		Name:  flagSamples,
		Value: 11,
		Usage: "number of evenly spaced samples",
	}
	return &cli.App{
		Name:            "swingplan",
		Usage:           "inspect swing trajectories and mode dispatch",
		HideHelpCommand: true,
		Writer:          out,
		ErrWriter:       errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load configuration from `FILE`",
			},
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			level := logging.INFO
			if c.Bool(flagDebug) {
				level = logging.DEBUG
			}
			logger := logging.NewWriterLogger("swingplan", c.App.ErrWriter, level)
			c.App.Metadata = map[string]interface{}{loggerKey: logger}
			return nil
		},
		After: func(c *cli.Context) error {
			utils.UncheckedError(loggerFrom(c).Sync())
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "constraints",
				Usage:  "print the desired height, velocity and foot normal constraint along the configured swing",
				Flags:  []cli.Flag{samplesFlag},
				Action: ConstraintsAction,
			},
			{
				Name:  "plot",
				Usage: "plot the configured swing to a PNG",
				Flags: []cli.Flag{
					samplesFlag,
					&cli.PathFlag{
						Name:     flagOut,
						Required: true,
						Usage:    "output `FILE`",
					},
				},
				Action: PlotAction,
			},
			{
				Name:   "phases",
				Usage:  "plan a trot over the configured horizon and list every leg's foot phases",
				Action: PhasesAction,
			},
			{
				Name:  "dispatch",
				Usage: "sample the configured controller with and without mode dispatch",
				Flags: []cli.Flag{
					samplesFlag,
					&cli.IntFlag{
						Name:     flagMode,
						Required: true,
						Usage:    "mode index of the state",
					},
					&cli.Float64SliceFlag{
						Name:  flagState,
						Value: cli.NewFloat64Slice(0),
						Usage: "continuous state",
					},
				},
				Action: DispatchAction,
			},
			{
				Name:   "schema",
				Usage:  "print the JSON schema of the configuration",
				Action: SchemaAction,
			},
		},
	}
}

func loggerFrom(c *cli.Context) logging.Logger {
	if logger, ok := c.App.Metadata[loggerKey].(logging.Logger); ok {
		return logger
	}
	return logging.NewLogger("swingplan")
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	logger := loggerFrom(c)
	if path := c.String(flagConfig); path != "" {
		return config.Read(path, logger)
	}
	cfg := config.DefaultConfig()
	logger.Debug("no config given, using defaults")
	return &cfg, nil
}

// sampleTimes returns n evenly spaced times covering [start, end].
func sampleTimes(start, end float64, n int) []float64 {
	if n < 2 {
		return []float64{start}
	}
	times := make([]float64, n)
	for i := range times {
		times[i] = start + (end-start)*float64(i)/float64(n-1)
	}
	times[n-1] = end
	return times
}
