package cli

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"go.viam.com/leggedmpc/footplanner"
)

type swingSample struct {
	t, height, velocity, acceleration, jerk float64
	constraint                              footplanner.FootNormalConstraint
}

func sampleSwing(swing *footplanner.SwingPhase, n int) ([]swingSample, error) {
	spline := swing.Spline()
	samples := make([]swingSample, 0, n)
	for _, t := range sampleTimes(swing.StartTime(), swing.EndTime(), n) {
		s := swingSample{t: t}
		var err error
		if s.height, err = spline.Position(t); err != nil {
			return nil, err
		}
		if s.velocity, err = spline.Velocity(t); err != nil {
			return nil, err
		}
		if s.acceleration, err = spline.Acceleration(t); err != nil {
			return nil, err
		}
		if s.jerk, err = spline.Jerk(t); err != nil {
			return nil, err
		}
		if s.constraint, err = swing.FootNormalConstraintInWorldFrame(t); err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}
	return samples, nil
}

func buildSwingSamples(c *cli.Context) ([]swingSample, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	swing, err := cfg.Swing.Build()
	if err != nil {
		return nil, errors.Wrap(err, "building swing")
	}
	loggerFrom(c).Debugw("built swing", "nodes", len(swing.Spline().Nodes()))
	return sampleSwing(swing, c.Int(flagSamples))
}

// ConstraintsAction prints a table of the configured swing.
func ConstraintsAction(c *cli.Context) error {
	samples, err := buildSwingSamples(c)
	if err != nil {
		return err
	}
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Time", "Height", "Normal Velocity", "Acceleration", "Jerk", "Normal", "Constant"})
	for _, s := range samples {
		n := s.constraint.VelocityMatrix
		t.AppendRow(table.Row{
			fmt.Sprintf("%.4f", s.t),
			fmt.Sprintf("%.4f", s.height),
			fmt.Sprintf("%.4f", s.velocity),
			fmt.Sprintf("%.4f", s.acceleration),
			fmt.Sprintf("%.4f", s.jerk),
			fmt.Sprintf("X:%.2f, Y:%.2f, Z:%.2f", n.X, n.Y, n.Z),
			fmt.Sprintf("%.4f", s.constraint.Constant),
		})
	}
	fmt.Fprintln(c.App.Writer, t.Render())
	return nil
}

// PlotAction writes the height and normal velocity of the configured swing to a PNG.
func PlotAction(c *cli.Context) error {
	samples, err := buildSwingSamples(c)
	if err != nil {
		return err
	}

	p := plot.New()
	p.Title.Text = "Swing"
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Height (m), Velocity (m/s)"

	heights := make(plotter.XYs, 0, len(samples))
	velocities := make(plotter.XYs, 0, len(samples))
	for _, s := range samples {
		heights = append(heights, plotter.XY{X: s.t, Y: s.height})
		velocities = append(velocities, plotter.XY{X: s.t, Y: s.velocity})
	}
	heightLine, err := plotter.NewLine(heights)
	if err != nil {
		return err
	}
	heightLine.Width = vg.Points(1)
	velocityLine, err := plotter.NewLine(velocities)
	if err != nil {
		return err
	}
	velocityLine.Width = vg.Points(1)
	velocityLine.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	p.Add(plotter.NewGrid(), heightLine, velocityLine)
	p.Legend.Add("height", heightLine)
	p.Legend.Add("normal velocity", velocityLine)

	out := c.Path(flagOut)
	if err := p.Save(8*vg.Inch, 4*vg.Inch, out); err != nil {
		return errors.Wrapf(err, "saving plot to %s", out)
	}
	fmt.Fprintf(c.App.Writer, "wrote %s\n", out)
	return nil
}
