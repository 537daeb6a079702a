// Package footplanner turns contact-mode schedules into per-foot swing trajectories and the
// linear foot constraints a trajectory optimizer has to satisfy along them.
package footplanner

import (
	"math"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"go.viam.com/leggedmpc/logging"
	"go.viam.com/leggedmpc/modeschedule"
	"go.viam.com/leggedmpc/spatialmath"
)

// SwingTrajectoryPlannerSettings configures how swings are shaped.
type SwingTrajectoryPlannerSettings struct {
	LiftoffVelocity    float64      `json:"liftoff_velocity"`
	TouchdownVelocity  float64      `json:"touchdown_velocity"`
	StancePositionGain float64      `json:"stance_position_gain"`
	Profile            SwingProfile `json:"profile"`
}

// DefaultSwingTrajectoryPlannerSettings returns settings lifting off at 0.2 m/s, touching down at
// 0.4 m/s and clearing 10cm halfway through the swing.
func DefaultSwingTrajectoryPlannerSettings() SwingTrajectoryPlannerSettings {
	return SwingTrajectoryPlannerSettings{
		LiftoffVelocity:    0.2,
		TouchdownVelocity:  -0.4,
		StancePositionGain: 0,
		Profile:            SwingProfile{Nodes: []SwingProfileNode{DefaultSwingProfileNode()}},
	}
}

// TerrainSelector picks the terrain a foot stands on at time t.
type TerrainSelector func(leg int, t float64) spatialmath.TerrainHandle

// ConstantTerrain returns a selector putting every foot on the same plane.
func ConstantTerrain(handle spatialmath.TerrainHandle) TerrainSelector {
	return func(int, float64) spatialmath.TerrainHandle { return handle }
}

// SwingTrajectoryPlanner builds the stance and swing phases of every leg for a planning horizon.
// Update replaces the phases wholesale; queries read the latest set.
type SwingTrajectoryPlanner struct {
	settings SwingTrajectoryPlannerSettings
	logger   logging.Logger

	mu     sync.RWMutex
	phases [modeschedule.NumLegs][]FootPhase
}

// NewSwingTrajectoryPlanner returns a planner with no phases.
func NewSwingTrajectoryPlanner(settings SwingTrajectoryPlannerSettings, logger logging.Logger) (*SwingTrajectoryPlanner, error) {
	if err := settings.Profile.Validate(); err != nil {
		return nil, err
	}
	return &SwingTrajectoryPlanner{settings: settings, logger: logger.Sublogger("swing_planner")}, nil
}

type contactInterval struct {
	start, end float64
	contact    bool
}

// contactIntervals splits [initTime, finalTime] into maximal intervals of constant contact for
// one leg.
func contactIntervals(schedule modeschedule.ModeSchedule, leg int, initTime, finalTime float64) []contactInterval {
	intervals := []contactInterval{{start: initTime, end: finalTime, contact: schedule.ModeAt(initTime)[leg]}}
	for _, t := range schedule.EventTimes {
		if t <= initTime || t >= finalTime {
			continue
		}
		contact := schedule.ModeAt(t)[leg]
		last := &intervals[len(intervals)-1]
		if contact == last.contact {
			continue
		}
		last.end = t
		intervals = append(intervals, contactInterval{start: t, end: finalTime, contact: contact})
	}
	return intervals
}

// Update rebuilds every leg's phases over [initTime, finalTime]. Stances open at either end of
// the horizon extend to infinity; swings open at either end are cut at the horizon bounds.
func (p *SwingTrajectoryPlanner) Update(
	schedule modeschedule.ModeSchedule,
	terrain spatialmath.TerrainLookup,
	selectTerrain TerrainSelector,
	initTime, finalTime float64,
) error {
	if err := schedule.Validate(); err != nil {
		return err
	}
	if !(initTime < finalTime) {
		return errors.Errorf("planning horizon start %v must precede end %v", initTime, finalTime)
	}

	var phases [modeschedule.NumLegs][]FootPhase
	for leg := range phases {
		intervals := contactIntervals(schedule, leg, initTime, finalTime)
		for i, interval := range intervals {
			var phase FootPhase
			var err error
			if interval.contact {
				start, end := interval.start, interval.end
				if i == 0 {
					start = math.Inf(-1)
				}
				if i == len(intervals)-1 {
					end = math.Inf(1)
				}
				phase, err = NewStancePhase(terrain, selectTerrain(leg, interval.start), start, end, p.settings.StancePositionGain)
			} else {
				phase, err = NewSwingPhase(terrain,
					SwingEvent{
						Time:     interval.start,
						Velocity: p.settings.LiftoffVelocity,
						Terrain:  selectTerrain(leg, interval.start),
					},
					SwingEvent{
						Time:     interval.end,
						Velocity: p.settings.TouchdownVelocity,
						Terrain:  selectTerrain(leg, interval.end),
					},
					p.settings.Profile,
				)
			}
			if err != nil {
				return errors.Wrapf(err, "leg %d phase %d", leg, i)
			}
			phases[leg] = append(phases[leg], phase)
		}
		p.logger.Debugw("planned foot phases", "leg", leg, "phases", len(phases[leg]))
	}

	p.mu.Lock()
	p.phases = phases
	p.mu.Unlock()
	return nil
}

// FootPhases returns the phases of a leg in time order.
func (p *SwingTrajectoryPlanner) FootPhases(leg int) ([]FootPhase, error) {
	if leg < 0 || leg >= modeschedule.NumLegs {
		return nil, errors.Errorf("leg %d out of range", leg)
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]FootPhase(nil), p.phases[leg]...), nil
}

// FootPhase returns the phase of a leg active at t. At a boundary between two phases the later
// one is returned.
func (p *SwingTrajectoryPlanner) FootPhase(leg int, t float64) (FootPhase, error) {
	phases, err := p.FootPhases(leg)
	if err != nil {
		return nil, err
	}
	if len(phases) == 0 {
		return nil, errors.New("no foot phases planned, call Update first")
	}
	idx := sort.Search(len(phases), func(i int) bool { return phases[i].StartTime() > t }) - 1
	if idx < 0 {
		idx = 0
	}
	return phases[idx], nil
}

// FootNormalConstraint returns the constraint of the phase active at t.
func (p *SwingTrajectoryPlanner) FootNormalConstraint(leg int, t float64) (FootNormalConstraint, error) {
	phase, err := p.FootPhase(leg, t)
	if err != nil {
		return FootNormalConstraint{}, err
	}
	return phase.FootNormalConstraintInWorldFrame(t)
}
