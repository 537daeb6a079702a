package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"
)

// zAxis is the terrain-frame surface normal.
var zAxis = r3.Vector{X: 0, Y: 0, Z: 1}

// TerrainPlane is a locally planar piece of terrain. Orientation rotates terrain-frame vectors
// into the world frame; the terrain-frame z axis is the outward surface normal.
type TerrainPlane struct {
	Position    r3.Vector   `json:"position"`
	Orientation quat.Number `json:"orientation"`
}

// FlatTerrain returns the horizontal plane through the world origin.
func FlatTerrain() TerrainPlane {
	return TerrainPlane{Orientation: quat.Number{Real: 1}}
}

// NewTerrainPlane returns the plane through position with the given outward normal. The normal
// does not need to be unit length but must be nonzero.
func NewTerrainPlane(position, normal r3.Vector) (TerrainPlane, error) {
	if normal.Norm() == 0 {
		return TerrainPlane{}, errors.New("terrain normal must be nonzero")
	}
	n := normal.Normalize()
	axis := zAxis.Cross(n)
	sinTheta := axis.Norm()
	cosTheta := zAxis.Dot(n)

	var aa *R4AA
	switch {
	case sinTheta < 1e-12 && cosTheta > 0:
		aa = NewR4AA()
	case sinTheta < 1e-12:
		// upside down; any axis orthogonal to z works
		aa = &R4AA{Theta: math.Pi, RX: 1}
	default:
		aa = &R4AA{Theta: math.Atan2(sinTheta, cosTheta), RX: axis.X, RY: axis.Y, RZ: axis.Z}
	}
	return TerrainPlane{Position: position, Orientation: aa.ToQuat()}, nil
}

// SurfaceNormal returns the unit outward normal of the plane in world frame.
func (p TerrainPlane) SurfaceNormal() r3.Vector {
	return RotateVector(p.Orientation, zAxis).Normalize()
}

// HeightAbove returns the signed distance of point from the plane along its normal.
func (p TerrainPlane) HeightAbove(point r3.Vector) float64 {
	return p.SurfaceNormal().Dot(point.Sub(p.Position))
}

// TerrainHandle refers to a plane held by a TerrainLookup. The zero handle refers to nothing.
type TerrainHandle int

// TerrainLookup resolves handles into planes.
type TerrainLookup interface {
	Plane(handle TerrainHandle) (TerrainPlane, error)
}

// TerrainRegistry owns the terrain planes of one planning cycle. Phases built against it copy
// the planes they need when constructed, so the registry may be dropped or rebuilt afterwards.
type TerrainRegistry struct {
	planes []TerrainPlane
}

// NewTerrainRegistry returns a registry holding the given planes, in order.
func NewTerrainRegistry(planes ...TerrainPlane) *TerrainRegistry {
	r := &TerrainRegistry{}
	for _, p := range planes {
		r.Add(p)
	}
	return r
}

// Add stores a plane and returns its handle.
func (r *TerrainRegistry) Add(plane TerrainPlane) TerrainHandle {
	r.planes = append(r.planes, plane)
	return TerrainHandle(len(r.planes))
}

// Plane returns the plane behind handle.
func (r *TerrainRegistry) Plane(handle TerrainHandle) (TerrainPlane, error) {
	if handle <= 0 || int(handle) > len(r.planes) {
		return TerrainPlane{}, errors.Errorf("unknown terrain handle %d", handle)
	}
	return r.planes[handle-1], nil
}

// Len returns the number of planes in the registry.
func (r *TerrainRegistry) Len() int {
	return len(r.planes)
}
