package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestFlatTerrain(t *testing.T) {
	flat := FlatTerrain()
	n := flat.SurfaceNormal()
	test.That(t, n.X, test.ShouldAlmostEqual, 0)
	test.That(t, n.Y, test.ShouldAlmostEqual, 0)
	test.That(t, n.Z, test.ShouldAlmostEqual, 1)
	test.That(t, flat.HeightAbove(r3.Vector{X: 3, Y: -1, Z: 0.25}), test.ShouldAlmostEqual, 0.25)
}

func TestNewTerrainPlane(t *testing.T) {
	t.Run("tilted", func(t *testing.T) {
		normal := r3.Vector{X: 1, Y: 0, Z: 1}
		plane, err := NewTerrainPlane(r3.Vector{Z: 0.5}, normal)
		test.That(t, err, test.ShouldBeNil)
		n := plane.SurfaceNormal()
		expected := normal.Normalize()
		test.That(t, n.X, test.ShouldAlmostEqual, expected.X)
		test.That(t, n.Y, test.ShouldAlmostEqual, expected.Y)
		test.That(t, n.Z, test.ShouldAlmostEqual, expected.Z)
		test.That(t, plane.HeightAbove(r3.Vector{Z: 0.5}), test.ShouldAlmostEqual, 0)
		test.That(t, plane.HeightAbove(r3.Vector{Z: 1.5}), test.ShouldAlmostEqual, math.Sqrt2/2)
	})

	t.Run("upside down", func(t *testing.T) {
		plane, err := NewTerrainPlane(r3.Vector{}, r3.Vector{Z: -2})
		test.That(t, err, test.ShouldBeNil)
		n := plane.SurfaceNormal()
		test.That(t, n.Z, test.ShouldAlmostEqual, -1)
		test.That(t, n.X, test.ShouldAlmostEqual, 0)
	})

	t.Run("zero normal", func(t *testing.T) {
		_, err := NewTerrainPlane(r3.Vector{}, r3.Vector{})
		test.That(t, err, test.ShouldBeError, "terrain normal must be nonzero")
	})
}

func TestRotateVector(t *testing.T) {
	aa := &R4AA{Theta: math.Pi / 2, RX: 0, RY: 0, RZ: 1}
	rotated := RotateVector(aa.ToQuat(), r3.Vector{X: 1})
	test.That(t, rotated.X, test.ShouldAlmostEqual, 0)
	test.That(t, rotated.Y, test.ShouldAlmostEqual, 1)
	test.That(t, rotated.Z, test.ShouldAlmostEqual, 0)

	back := QuatToR4AA(aa.ToQuat())
	test.That(t, back.Theta, test.ShouldAlmostEqual, math.Pi/2)
	test.That(t, back.RZ, test.ShouldAlmostEqual, 1)
}

func TestTerrainRegistry(t *testing.T) {
	registry := NewTerrainRegistry(FlatTerrain())
	step, err := NewTerrainPlane(r3.Vector{Z: 0.1}, r3.Vector{Z: 1})
	test.That(t, err, test.ShouldBeNil)
	handle := registry.Add(step)
	test.That(t, handle, test.ShouldEqual, TerrainHandle(2))
	test.That(t, registry.Len(), test.ShouldEqual, 2)

	plane, err := registry.Plane(handle)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, plane.Position.Z, test.ShouldAlmostEqual, 0.1)

	_, err = registry.Plane(0)
	test.That(t, err, test.ShouldBeError, "unknown terrain handle 0")
	_, err = registry.Plane(3)
	test.That(t, err, test.ShouldNotBeNil)
}
