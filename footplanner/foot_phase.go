package footplanner

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/leggedmpc/spatialmath"
)

// FootNormalConstraint is the linear constraint
//
//	PositionMatrix · p + VelocityMatrix · v + Constant = 0
//
// on the world-frame foot position p and velocity v.
type FootNormalConstraint struct {
	PositionMatrix r3.Vector `json:"position_matrix"`
	VelocityMatrix r3.Vector `json:"velocity_matrix"`
	Constant       float64   `json:"constant"`
}

// Evaluate returns the constraint value for a foot state; zero when satisfied.
func (c FootNormalConstraint) Evaluate(position, velocity r3.Vector) float64 {
	return c.PositionMatrix.Dot(position) + c.VelocityMatrix.Dot(velocity) + c.Constant
}

// FootPhase is the contact or swing interval of a single foot.
type FootPhase interface {
	// ContactFlag is true for stance.
	ContactFlag() bool
	StartTime() float64
	EndTime() float64
	FootNormalConstraintInWorldFrame(t float64) (FootNormalConstraint, error)
	MinimumFootClearance(t float64) (float64, error)
}

// StancePhase keeps a foot on its terrain plane. The constraint drives the normal velocity
// toward a feedback on the distance to the plane.
type StancePhase struct {
	plane        spatialmath.TerrainPlane
	start, end   float64
	positionGain float64
}

// NewStancePhase returns a stance on the plane behind handle over [start, end]. end may be
// +Inf for a stance open at the horizon.
func NewStancePhase(
	terrain spatialmath.TerrainLookup,
	handle spatialmath.TerrainHandle,
	start, end, positionGain float64,
) (*StancePhase, error) {
	if !(start <= end) {
		return nil, newInvalidInputError("stance start %v after end %v", start, end)
	}
	plane, err := terrain.Plane(handle)
	if err != nil {
		return nil, wrapInvalidInputError(err, "stance terrain")
	}
	return &StancePhase{plane: plane, start: start, end: end, positionGain: positionGain}, nil
}

// ContactFlag returns true.
func (s *StancePhase) ContactFlag() bool { return true }

// StartTime returns the start of the stance.
func (s *StancePhase) StartTime() float64 { return s.start }

// EndTime returns the end of the stance.
func (s *StancePhase) EndTime() float64 { return s.end }

// Plane returns the terrain the foot stands on.
func (s *StancePhase) Plane() spatialmath.TerrainPlane { return s.plane }

func (s *StancePhase) checkRange(t float64) error {
	if !(t >= s.start && t <= s.end) {
		return newOutOfRangeError(t, s.start, s.end)
	}
	return nil
}

// FootNormalConstraintInWorldFrame returns n·v + k n·p - k n·origin = 0.
func (s *StancePhase) FootNormalConstraintInWorldFrame(t float64) (FootNormalConstraint, error) {
	if err := s.checkRange(t); err != nil {
		return FootNormalConstraint{}, err
	}
	n := s.plane.SurfaceNormal()
	return FootNormalConstraint{
		PositionMatrix: n.Mul(s.positionGain),
		VelocityMatrix: n,
		Constant:       -s.positionGain * n.Dot(s.plane.Position),
	}, nil
}

// MinimumFootClearance is zero during stance.
func (s *StancePhase) MinimumFootClearance(t float64) (float64, error) {
	if err := s.checkRange(t); err != nil {
		return 0, err
	}
	return 0, nil
}

// SwingPhase is the swing of one foot between a liftoff and a touchdown. It is immutable once
// built and safe for concurrent queries.
type SwingPhase struct {
	liftoff        SwingEvent
	touchdown      SwingEvent
	liftoffPlane   spatialmath.TerrainPlane
	touchdownPlane spatialmath.TerrainPlane
	spline         *QuinticSwing
}

// NewSwingPhase resolves the terrain of both events, assembles the swing nodes from profile and
// fits the normal-direction spline. The planes are copied, so terrain may be discarded after.
func NewSwingPhase(
	terrain spatialmath.TerrainLookup,
	liftoff, touchdown SwingEvent,
	profile SwingProfile,
) (*SwingPhase, error) {
	liftoffPlane, err := terrain.Plane(liftoff.Terrain)
	if err != nil {
		return nil, wrapInvalidInputError(err, "liftoff terrain")
	}
	touchdownPlane, err := terrain.Plane(touchdown.Terrain)
	if err != nil {
		return nil, wrapInvalidInputError(err, "touchdown terrain")
	}

	nodes, err := SwingNodes(liftoff, touchdown, liftoffPlane, touchdownPlane, profile)
	if err != nil {
		return nil, err
	}
	spline, err := NewQuinticSwing(nodes...)
	if err != nil {
		return nil, err
	}
	return &SwingPhase{
		liftoff:        liftoff,
		touchdown:      touchdown,
		liftoffPlane:   liftoffPlane,
		touchdownPlane: touchdownPlane,
		spline:         spline,
	}, nil
}

// ContactFlag returns false.
func (s *SwingPhase) ContactFlag() bool { return false }

// StartTime returns the liftoff time.
func (s *SwingPhase) StartTime() float64 { return s.liftoff.Time }

// EndTime returns the touchdown time.
func (s *SwingPhase) EndTime() float64 { return s.touchdown.Time }

// LiftoffEvent returns the event the swing starts with.
func (s *SwingPhase) LiftoffEvent() SwingEvent { return s.liftoff }

// TouchdownEvent returns the event the swing ends with.
func (s *SwingPhase) TouchdownEvent() SwingEvent { return s.touchdown }

// Spline returns the normal-direction swing spline.
func (s *SwingPhase) Spline() *QuinticSwing { return s.spline }

// surfaceNormal returns the normal of the liftoff plane for the first half of the swing and of
// the touchdown plane for the second half.
func (s *SwingPhase) surfaceNormal(t float64) r3.Vector {
	if s.liftoff.Terrain == s.touchdown.Terrain || t <= 0.5*(s.liftoff.Time+s.touchdown.Time) {
		return s.liftoffPlane.SurfaceNormal()
	}
	return s.touchdownPlane.SurfaceNormal()
}

// DesiredHeight returns the swing height along the liftoff normal at t.
func (s *SwingPhase) DesiredHeight(t float64) (float64, error) {
	return s.spline.Position(t)
}

// DesiredNormalVelocity returns the prescribed normal velocity at t.
func (s *SwingPhase) DesiredNormalVelocity(t float64) (float64, error) {
	return s.spline.Velocity(t)
}

// FootNormalConstraintInWorldFrame returns n·v - vDesired(t) = 0 for t within the swing. The
// position block is always zero, so only the normal velocity is tracked.
func (s *SwingPhase) FootNormalConstraintInWorldFrame(t float64) (FootNormalConstraint, error) {
	v, err := s.spline.Velocity(t)
	if err != nil {
		return FootNormalConstraint{}, err
	}
	return FootNormalConstraint{
		PositionMatrix: r3.Vector{},
		VelocityMatrix: s.surfaceNormal(t),
		Constant:       -v,
	}, nil
}

// MinimumFootClearance returns the desired swing height at t, never below zero.
func (s *SwingPhase) MinimumFootClearance(t float64) (float64, error) {
	h, err := s.spline.Position(t)
	if err != nil {
		return 0, err
	}
	return math.Max(h, 0), nil
}
