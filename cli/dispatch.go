package cli

import (
	"fmt"
	"math"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/leggedmpc/config"
	"go.viam.com/leggedmpc/control"
	"go.viam.com/leggedmpc/footplanner"
	"go.viam.com/leggedmpc/logging"
	"go.viam.com/leggedmpc/modeschedule"
	"go.viam.com/leggedmpc/spatialmath"
)

// PhasesAction plans a trot on flat ground and lists every leg's phases.
func PhasesAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	planner, err := footplanner.NewSwingTrajectoryPlanner(cfg.Planner.SwingTrajectoryPlannerSettings, loggerFrom(c))
	if err != nil {
		return err
	}
	schedule, err := cfg.Planner.Schedule()
	if err != nil {
		return err
	}
	terrain := spatialmath.NewTerrainRegistry()
	flat := terrain.Add(spatialmath.FlatTerrain())
	if err := planner.Update(schedule, terrain, footplanner.ConstantTerrain(flat), 0, cfg.Planner.Horizon); err != nil {
		return err
	}

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Leg", "#", "Contact", "Start", "End", "Peak Clearance"})
	for leg := 0; leg < modeschedule.NumLegs; leg++ {
		phases, err := planner.FootPhases(leg)
		if err != nil {
			return err
		}
		for i, phase := range phases {
			clearance := ""
			if swing, ok := phase.(*footplanner.SwingPhase); ok {
				peak, err := peakClearance(swing)
				if err != nil {
					return err
				}
				clearance = fmt.Sprintf("%.4f", peak)
			}
			t.AppendRow(table.Row{leg, i, phase.ContactFlag(), formatTime(phase.StartTime()), formatTime(phase.EndTime()), clearance})
		}
		t.AppendSeparator()
	}
	fmt.Fprintln(c.App.Writer, t.Render())
	return nil
}

func peakClearance(swing *footplanner.SwingPhase) (float64, error) {
	peak := 0.0
	for _, t := range sampleTimes(swing.StartTime(), swing.EndTime(), 21) {
		h, err := swing.MinimumFootClearance(t)
		if err != nil {
			return 0, err
		}
		peak = math.Max(peak, h)
	}
	return peak, nil
}

func formatTime(t float64) string {
	if math.IsInf(t, 0) {
		return fmt.Sprint(t)
	}
	return fmt.Sprintf("%.4f", t)
}

// DispatchAction samples the configured controller over the planning horizon, directly and
// through mode dispatch for the given mode.
func DispatchAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	rows, err := sampleDispatch(cfg, c.Int(flagMode), c.Float64Slice(flagState), c.Int(flagSamples), loggerFrom(c))
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Time", "Segment", "Raw Input", "Dispatched Input"})
	for _, row := range rows {
		t.AppendRow(table.Row{fmt.Sprintf("%.4f", row.t), row.segment, formatInput(row.raw), formatInput(row.dispatched)})
	}
	fmt.Fprintln(c.App.Writer, t.Render())
	return nil
}

type dispatchRow struct {
	t               float64
	segment         int
	raw, dispatched []float64
}

func sampleDispatch(cfg *config.Config, mode int, state []float64, n int, logger logging.Logger) ([]dispatchRow, error) {
	raw, err := cfg.Controller.Build()
	if err != nil {
		return nil, errors.Wrap(err, "building controller")
	}
	dispatcher, err := cfg.Controller.BuildDispatcher(logger)
	if err != nil {
		return nil, errors.Wrap(err, "building dispatcher")
	}
	schedule := modeschedule.NewEventSchedule(raw.EventTimes())
	segment, start, end := dispatcher.Segment(mode)
	logger.Debugw("dispatching", "mode", mode, "segment", segment, "start", start, "end", end)

	x := control.State{Continuous: state, Mode: mode}
	rows := make([]dispatchRow, 0, n)
	for _, t := range sampleTimes(0, cfg.Planner.Horizon, n) {
		rawInput, err := raw.ComputeInput(t, x)
		if err != nil {
			return nil, err
		}
		dispatched, err := dispatcher.ComputeInput(t, x)
		if err != nil {
			return nil, err
		}
		rows = append(rows, dispatchRow{t: t, segment: schedule.Segment(t), raw: rawInput, dispatched: dispatched})
	}
	return rows, nil
}

func formatInput(u []float64) string {
	parts := make([]string, len(u))
	for i, v := range u {
		parts[i] = fmt.Sprintf("%.4f", v)
	}
	return strings.Join(parts, ", ")
}

// SchemaAction prints the JSON schema of the configuration.
func SchemaAction(c *cli.Context) error {
	schema, err := config.Schema()
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, string(schema))
	return nil
}
