package footplanner

import (
	"math"

	"go.viam.com/leggedmpc/spatialmath"
)

// SwingEvent marks a liftoff or touchdown. Velocity is the commanded velocity along the terrain
// normal at that instant: positive when lifting off, negative when descending.
type SwingEvent struct {
	Time     float64                   `json:"time"`
	Velocity float64                   `json:"velocity"`
	Terrain  spatialmath.TerrainHandle `json:"terrain"`
}

// SwingProfileNode is an intermediate swing node. Phase is the normalized time within the swing,
// SwingHeight is the height above the liftoff-to-touchdown terrain line.
type SwingProfileNode struct {
	Phase          float64 `json:"phase"`
	SwingHeight    float64 `json:"swing_height"`
	NormalVelocity float64 `json:"normal_velocity"`
}

// DefaultSwingProfileNode returns an apex node halfway through the swing, 10cm above the terrain
// with no normal velocity.
func DefaultSwingProfileNode() SwingProfileNode {
	return SwingProfileNode{Phase: 0.5, SwingHeight: 0.1, NormalVelocity: 0}
}

// SwingProfile is the ordered set of intermediate nodes shaping a swing.
type SwingProfile struct {
	Nodes []SwingProfileNode `json:"nodes"`
}

// Validate checks that phases are strictly increasing inside (0, 1).
func (p SwingProfile) Validate() error {
	prev := 0.0
	for i, n := range p.Nodes {
		if math.IsNaN(n.Phase) || n.Phase <= 0 || n.Phase >= 1 {
			return newInvalidInputError("swing profile node %d phase %v is outside (0, 1)", i, n.Phase)
		}
		if n.Phase <= prev {
			return newInvalidInputError("swing profile node %d phase %v does not increase", i, n.Phase)
		}
		prev = n.Phase
	}
	return nil
}

// SwingNodes assembles the node list for one swing. Heights are measured along the liftoff
// plane's normal from its origin: liftoff sits at zero, touchdown at the touchdown plane's
// height, and profile nodes on the straight line between them plus their swing height.
func SwingNodes(
	liftoff, touchdown SwingEvent,
	liftoffPlane, touchdownPlane spatialmath.TerrainPlane,
	profile SwingProfile,
) ([]SwingNode, error) {
	if !(liftoff.Time < touchdown.Time) {
		return nil, newInvalidInputError("liftoff at %v must precede touchdown at %v", liftoff.Time, touchdown.Time)
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	duration := touchdown.Time - liftoff.Time
	touchdownHeight := liftoffPlane.HeightAbove(touchdownPlane.Position)

	nodes := make([]SwingNode, 0, len(profile.Nodes)+2)
	nodes = append(nodes, SwingNode{Time: liftoff.Time, Position: 0, Velocity: liftoff.Velocity})
	for _, n := range profile.Nodes {
		nodes = append(nodes, SwingNode{
			Time:     liftoff.Time + n.Phase*duration,
			Position: n.Phase*touchdownHeight + n.SwingHeight,
			Velocity: n.NormalVelocity,
		})
	}
	nodes = append(nodes, SwingNode{Time: touchdown.Time, Position: touchdownHeight, Velocity: touchdown.Velocity})
	return nodes, nil
}
