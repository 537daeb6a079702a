package footplanner

import (
	"github.com/golang/geo/r3"
)

// SwingNode3d is an interpolation knot with world-frame position and velocity.
type SwingNode3d struct {
	Time     float64   `json:"time"`
	Position r3.Vector `json:"position"`
	Velocity r3.Vector `json:"velocity"`
}

// SwingSpline3d fits an independent QuinticSwing per axis.
type SwingSpline3d struct {
	x, y, z *QuinticSwing
}

// NewSwingSpline3d fits a 3d swing through nodes, which must number at least two and be strictly
// increasing in time.
func NewSwingSpline3d(nodes ...SwingNode3d) (*SwingSpline3d, error) {
	xs := make([]SwingNode, len(nodes))
	ys := make([]SwingNode, len(nodes))
	zs := make([]SwingNode, len(nodes))
	for i, n := range nodes {
		xs[i] = SwingNode{Time: n.Time, Position: n.Position.X, Velocity: n.Velocity.X}
		ys[i] = SwingNode{Time: n.Time, Position: n.Position.Y, Velocity: n.Velocity.Y}
		zs[i] = SwingNode{Time: n.Time, Position: n.Position.Z, Velocity: n.Velocity.Z}
	}

	var s SwingSpline3d
	var err error
	if s.x, err = NewQuinticSwing(xs...); err != nil {
		return nil, err
	}
	if s.y, err = NewQuinticSwing(ys...); err != nil {
		return nil, err
	}
	if s.z, err = NewQuinticSwing(zs...); err != nil {
		return nil, err
	}
	return &s, nil
}

// StartTime returns the time of the first node.
func (s *SwingSpline3d) StartTime() float64 {
	return s.x.StartTime()
}

// EndTime returns the time of the last node.
func (s *SwingSpline3d) EndTime() float64 {
	return s.x.EndTime()
}

func (s *SwingSpline3d) eval(t float64, f func(*QuinticSwing, float64) (float64, error)) (r3.Vector, error) {
	x, err := f(s.x, t)
	if err != nil {
		return r3.Vector{}, err
	}
	// all axes share node times, so y and z are in range whenever x is
	y, _ := f(s.y, t)
	z, _ := f(s.z, t)
	return r3.Vector{X: x, Y: y, Z: z}, nil
}

// Position returns the world-frame position at t.
func (s *SwingSpline3d) Position(t float64) (r3.Vector, error) {
	return s.eval(t, (*QuinticSwing).Position)
}

// Velocity returns the world-frame velocity at t.
func (s *SwingSpline3d) Velocity(t float64) (r3.Vector, error) {
	return s.eval(t, (*QuinticSwing).Velocity)
}

// Acceleration returns the world-frame acceleration at t.
func (s *SwingSpline3d) Acceleration(t float64) (r3.Vector, error) {
	return s.eval(t, (*QuinticSwing).Acceleration)
}

// Jerk returns the world-frame jerk at t.
func (s *SwingSpline3d) Jerk(t float64) (r3.Vector, error) {
	return s.eval(t, (*QuinticSwing).Jerk)
}
