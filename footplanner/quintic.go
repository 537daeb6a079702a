package footplanner

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// SwingNode is one interpolation knot along the terrain-normal axis.
type SwingNode struct {
	Time     float64 `json:"time"`
	Position float64 `json:"position"`
	Velocity float64 `json:"velocity"`
}

// quinticSegment is a degree 5 polynomial in normalized time tau = (t - t0) / dt.
type quinticSegment struct {
	t0 float64
	dt float64
	c  [6]float64
}

// newQuinticSegment builds the unique quintic matching position, velocity and acceleration at
// both ends of [start.Time, end.Time].
func newQuinticSegment(start, end SwingNode, startAcc, endAcc float64) quinticSegment {
	dt := end.Time - start.Time
	dp := end.Position - start.Position
	v0 := start.Velocity * dt
	v1 := end.Velocity * dt
	a0 := startAcc * dt * dt
	a1 := endAcc * dt * dt
	return quinticSegment{
		t0: start.Time,
		dt: dt,
		c: [6]float64{
			start.Position,
			v0,
			0.5 * a0,
			10*dp - 6*v0 - 4*v1 - 1.5*a0 + 0.5*a1,
			-15*dp + 8*v0 + 7*v1 + 1.5*a0 - a1,
			6*dp - 3*v0 - 3*v1 - 0.5*a0 + 0.5*a1,
		},
	}
}

func (s *quinticSegment) tau(t float64) float64 {
	return (t - s.t0) / s.dt
}

func (s *quinticSegment) position(t float64) float64 {
	tau := s.tau(t)
	c := &s.c
	return c[0] + tau*(c[1]+tau*(c[2]+tau*(c[3]+tau*(c[4]+tau*c[5]))))
}

func (s *quinticSegment) velocity(t float64) float64 {
	tau := s.tau(t)
	c := &s.c
	return (c[1] + tau*(2*c[2]+tau*(3*c[3]+tau*(4*c[4]+tau*5*c[5])))) / s.dt
}

func (s *quinticSegment) acceleration(t float64) float64 {
	tau := s.tau(t)
	c := &s.c
	return (2*c[2] + tau*(6*c[3]+tau*(12*c[4]+tau*20*c[5]))) / (s.dt * s.dt)
}

func (s *quinticSegment) jerk(t float64) float64 {
	tau := s.tau(t)
	c := &s.c
	return (6*c[3] + tau*(24*c[4]+tau*60*c[5])) / (s.dt * s.dt * s.dt)
}

// QuinticSwing is a piecewise quintic through a set of swing nodes. It interpolates position and
// velocity at every node, has zero acceleration at the first and last node, and is continuous in
// acceleration and jerk across every interior node.
type QuinticSwing struct {
	nodes    []SwingNode
	segments []quinticSegment
}

// NewQuinticSwing fits a quintic swing through nodes, which must number at least two and be
// strictly increasing in time.
func NewQuinticSwing(nodes ...SwingNode) (*QuinticSwing, error) {
	if len(nodes) < 2 {
		return nil, newInvalidInputError("quintic swing needs at least 2 nodes, got %d", len(nodes))
	}
	for i, n := range nodes {
		if math.IsNaN(n.Time) || math.IsInf(n.Time, 0) ||
			math.IsNaN(n.Position) || math.IsInf(n.Position, 0) ||
			math.IsNaN(n.Velocity) || math.IsInf(n.Velocity, 0) {
			return nil, newInvalidInputError("node %d is not finite", i)
		}
		if i > 0 && n.Time <= nodes[i-1].Time {
			return nil, newInvalidInputError("node times must be strictly increasing, node %d at %v follows %v",
				i, n.Time, nodes[i-1].Time)
		}
	}

	accelerations, err := solveNodeAccelerations(nodes)
	if err != nil {
		return nil, err
	}

	q := &QuinticSwing{
		nodes:    append([]SwingNode(nil), nodes...),
		segments: make([]quinticSegment, 0, len(nodes)-1),
	}
	for i := 0; i+1 < len(nodes); i++ {
		q.segments = append(q.segments, newQuinticSegment(nodes[i], nodes[i+1], accelerations[i], accelerations[i+1]))
	}
	return q, nil
}

// solveNodeAccelerations returns the acceleration at every node. The first and last are zero;
// the interior ones make the jerk at the end of each segment equal the jerk at the start of the
// next, one equation per interior node:
//
//	-a[k-1]/ha + 3(1/ha + 1/hb) a[k] - a[k+1]/hb =
//	    20 dpb/hb^3 - (12 v[k] + 8 v[k+1])/hb^2 - 20 dpa/ha^3 + (8 v[k-1] + 12 v[k])/ha^2
//
// where ha, dpa span the segment ending at node k and hb, dpb the one starting at it.
func solveNodeAccelerations(nodes []SwingNode) ([]float64, error) {
	accelerations := make([]float64, len(nodes))
	m := len(nodes) - 2
	if m == 0 {
		return accelerations, nil
	}

	lower := make([]float64, m-1)
	diag := make([]float64, m)
	upper := make([]float64, m-1)
	rhs := make([]float64, m)
	for row := 0; row < m; row++ {
		prev, cur, next := nodes[row], nodes[row+1], nodes[row+2]
		ha := cur.Time - prev.Time
		hb := next.Time - cur.Time

		diag[row] = 3/ha + 3/hb
		if row > 0 {
			lower[row-1] = -1 / ha
		}
		if row < m-1 {
			upper[row] = -1 / hb
		}
		rhs[row] = 20*(next.Position-cur.Position)/(hb*hb*hb) -
			(12*cur.Velocity+8*next.Velocity)/(hb*hb) -
			20*(cur.Position-prev.Position)/(ha*ha*ha) +
			(8*prev.Velocity+12*cur.Velocity)/(ha*ha)
	}

	var solution mat.VecDense
	system := mat.NewTridiag(m, lower, diag, upper)
	if err := system.SolveVecTo(&solution, false, mat.NewVecDense(m, rhs)); err != nil {
		// a Condition error still leaves the solution in place
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, errors.Wrap(err, "solving swing node accelerations")
		}
	}
	for row := 0; row < m; row++ {
		accelerations[row+1] = solution.AtVec(row)
	}
	return accelerations, nil
}

// Nodes returns a copy of the nodes the swing was fitted through.
func (q *QuinticSwing) Nodes() []SwingNode {
	return append([]SwingNode(nil), q.nodes...)
}

// StartTime returns the time of the first node.
func (q *QuinticSwing) StartTime() float64 {
	return q.nodes[0].Time
}

// EndTime returns the time of the last node.
func (q *QuinticSwing) EndTime() float64 {
	return q.nodes[len(q.nodes)-1].Time
}

// segment returns the segment containing t. At an interior node the segment starting there is
// used; at the last node the final segment is used.
func (q *QuinticSwing) segment(t float64) (*quinticSegment, error) {
	start, end := q.StartTime(), q.EndTime()
	if !(t >= start && t <= end) {
		return nil, newOutOfRangeError(t, start, end)
	}
	idx := sort.Search(len(q.nodes), func(i int) bool { return q.nodes[i].Time > t }) - 1
	if idx > len(q.segments)-1 {
		idx = len(q.segments) - 1
	}
	return &q.segments[idx], nil
}

// Position returns the swing position at t.
func (q *QuinticSwing) Position(t float64) (float64, error) {
	s, err := q.segment(t)
	if err != nil {
		return 0, err
	}
	return s.position(t), nil
}

// Velocity returns the swing velocity at t.
func (q *QuinticSwing) Velocity(t float64) (float64, error) {
	s, err := q.segment(t)
	if err != nil {
		return 0, err
	}
	return s.velocity(t), nil
}

// Acceleration returns the swing acceleration at t.
func (q *QuinticSwing) Acceleration(t float64) (float64, error) {
	s, err := q.segment(t)
	if err != nil {
		return 0, err
	}
	return s.acceleration(t), nil
}

// Jerk returns the swing jerk at t.
func (q *QuinticSwing) Jerk(t float64) (float64, error) {
	s, err := q.segment(t)
	if err != nil {
		return 0, err
	}
	return s.jerk(t), nil
}
