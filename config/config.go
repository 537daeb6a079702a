// Package config defines the JSON configuration of swing planning, policy dispatch and the
// policy loop, along with its validation.
package config

import (
	"fmt"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"go.viam.com/leggedmpc/control"
	"go.viam.com/leggedmpc/footplanner"
	"go.viam.com/leggedmpc/modeschedule"
	"go.viam.com/leggedmpc/spatialmath"
)

// Config is the root configuration.
type Config struct {
	Swing      SwingConfig        `json:"swing"`
	Planner    PlannerConfig      `json:"planner"`
	Controller ControllerConfig   `json:"controller"`
	Loop       control.LoopConfig `json:"loop"`
}

// DefaultConfig returns a trotting configuration on flat ground with a one dimensional linear
// controller.
func DefaultConfig() Config {
	planner := footplanner.DefaultSwingTrajectoryPlannerSettings()
	return Config{
		Swing: SwingConfig{
			Liftoff:   EventConfig{Time: 0, Velocity: planner.LiftoffVelocity},
			Touchdown: EventConfig{Time: 0.4, Velocity: planner.TouchdownVelocity},
			Profile:   footplanner.DefaultSwingTrajectoryPlannerSettings().Profile,
		},
		Planner: PlannerConfig{
			SwingTrajectoryPlannerSettings: planner,
			GaitPeriod:                     0.8,
			Horizon:                        2,
		},
		Controller: ControllerConfig{
			Type: LinearControllerType,
			Attributes: AttributeMap{
				"times":       []float64{0, 2},
				"feedforward": [][]float64{{0}, {1}},
				"gains":       [][][]float64{{{-1}}, {{-1}}},
				"event_times": []float64{0.4, 0.8, 1.2, 1.6},
			},
			Reference: ReferenceConfig{
				Times:  []float64{0, 2},
				Inputs: [][]float64{{0}, {1}},
			},
		},
		Loop: control.LoopConfig{Frequency: 100},
	}
}

// Validate checks every section and returns all problems found.
func (c *Config) Validate() error {
	return multierr.Combine(
		c.Swing.Validate("swing"),
		c.Planner.Validate("planner"),
		c.Controller.Validate("controller"),
		validateLoop("loop", c.Loop),
	)
}

func validateLoop(path string, conf control.LoopConfig) error {
	if conf.Frequency <= 0 || conf.Frequency > control.MaxLoopFrequency {
		return utils.NewConfigValidationError(path,
			errors.Errorf("frequency_hz %v must be in (0, %v]", conf.Frequency, control.MaxLoopFrequency))
	}
	return nil
}

// TerrainConfig describes a terrain plane by a point on it and its normal. An omitted normal
// means level ground.
type TerrainConfig struct {
	Position [3]float64 `json:"position"`
	Normal   [3]float64 `json:"normal,omitempty"`
}

// Plane returns the described plane.
func (c TerrainConfig) Plane() (spatialmath.TerrainPlane, error) {
	normal := r3.Vector{X: c.Normal[0], Y: c.Normal[1], Z: c.Normal[2]}
	if c.Normal == [3]float64{} {
		normal = r3.Vector{Z: 1}
	}
	return spatialmath.NewTerrainPlane(r3.Vector{X: c.Position[0], Y: c.Position[1], Z: c.Position[2]}, normal)
}

// EventConfig is a liftoff or touchdown.
type EventConfig struct {
	Time     float64       `json:"time"`
	Velocity float64       `json:"velocity"`
	Terrain  TerrainConfig `json:"terrain"`
}

// SwingConfig describes a single swing.
type SwingConfig struct {
	Liftoff   EventConfig             `json:"liftoff"`
	Touchdown EventConfig             `json:"touchdown"`
	Profile   footplanner.SwingProfile `json:"profile"`
}

// Validate ensures the swing can be built.
func (c *SwingConfig) Validate(path string) error {
	var err error
	if !(c.Liftoff.Time < c.Touchdown.Time) {
		err = multierr.Append(err, utils.NewConfigValidationError(path,
			errors.Errorf("liftoff time %v must precede touchdown time %v", c.Liftoff.Time, c.Touchdown.Time)))
	}
	if _, planeErr := c.Liftoff.Terrain.Plane(); planeErr != nil {
		err = multierr.Append(err, utils.NewConfigValidationError(fmt.Sprintf("%s.%s", path, "liftoff.terrain"), planeErr))
	}
	if _, planeErr := c.Touchdown.Terrain.Plane(); planeErr != nil {
		err = multierr.Append(err, utils.NewConfigValidationError(fmt.Sprintf("%s.%s", path, "touchdown.terrain"), planeErr))
	}
	if profileErr := c.Profile.Validate(); profileErr != nil {
		err = multierr.Append(err, utils.NewConfigValidationError(fmt.Sprintf("%s.%s", path, "profile"), profileErr))
	}
	return err
}

// Build resolves both terrains and constructs the swing.
func (c *SwingConfig) Build() (*footplanner.SwingPhase, error) {
	liftoffPlane, err := c.Liftoff.Terrain.Plane()
	if err != nil {
		return nil, err
	}
	terrain := spatialmath.NewTerrainRegistry(liftoffPlane)
	liftoffHandle := spatialmath.TerrainHandle(1)
	touchdownHandle := liftoffHandle
	if c.Touchdown.Terrain != c.Liftoff.Terrain {
		touchdownPlane, err := c.Touchdown.Terrain.Plane()
		if err != nil {
			return nil, err
		}
		touchdownHandle = terrain.Add(touchdownPlane)
	}
	return footplanner.NewSwingPhase(terrain,
		footplanner.SwingEvent{Time: c.Liftoff.Time, Velocity: c.Liftoff.Velocity, Terrain: liftoffHandle},
		footplanner.SwingEvent{Time: c.Touchdown.Time, Velocity: c.Touchdown.Velocity, Terrain: touchdownHandle},
		c.Profile,
	)
}

// PlannerConfig configures the swing trajectory planner and the trot it plans for.
type PlannerConfig struct {
	footplanner.SwingTrajectoryPlannerSettings
	GaitPeriod float64 `json:"gait_period"`
	Horizon    float64 `json:"horizon"`
}

// Validate ensures the planner can be built.
func (c *PlannerConfig) Validate(path string) error {
	var err error
	if c.GaitPeriod <= 0 {
		err = multierr.Append(err, utils.NewConfigValidationFieldRequiredError(path, "gait_period"))
	}
	if c.Horizon <= 0 {
		err = multierr.Append(err, utils.NewConfigValidationFieldRequiredError(path, "horizon"))
	}
	if profileErr := c.Profile.Validate(); profileErr != nil {
		err = multierr.Append(err, utils.NewConfigValidationError(fmt.Sprintf("%s.%s", path, "profile"), profileErr))
	}
	return err
}

// Schedule returns a trot starting in full stance at time zero over the configured horizon.
func (c *PlannerConfig) Schedule() (modeschedule.ModeSchedule, error) {
	return modeschedule.Trot(c.GaitPeriod).Schedule(modeschedule.Stance, 0, c.Horizon)
}
