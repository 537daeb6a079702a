package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// R4AA is a rotation of Theta radians about the axis (RX, RY, RZ).
type R4AA struct {
	Theta float64 `json:"th"`
	RX    float64 `json:"x"`
	RY    float64 `json:"y"`
	RZ    float64 `json:"z"`
}

// NewR4AA returns the identity rotation about z.
func NewR4AA() *R4AA {
	return &R4AA{Theta: 0, RX: 0, RY: 0, RZ: 1}
}

// ToQuat returns the unit quaternion of the rotation. The axis is normalized in place.
func (r4 *R4AA) ToQuat() quat.Number {
	if r4.Theta == 0 {
		return quat.Number{Real: 1}
	}
	r4.Normalize()
	sinHalf, cosHalf := math.Sincos(r4.Theta / 2)
	return quat.Number{Real: cosHalf, Imag: r4.RX * sinHalf, Jmag: r4.RY * sinHalf, Kmag: r4.RZ * sinHalf}
}

// Normalize puts the axis on the unit sphere. It panics on a zero axis.
func (r4 *R4AA) Normalize() {
	norm := math.Sqrt(r4.RX*r4.RX + r4.RY*r4.RY + r4.RZ*r4.RZ)
	if norm == 0.0 {
		panic("cannot normalize R4AA, divide by zero")
	}
	r4.RX /= norm
	r4.RY /= norm
	r4.RZ /= norm
}

// QuatToR4AA recovers the axis and angle of a unit quaternion. Near-identity rotations report the
// x axis.
func QuatToR4AA(q quat.Number) R4AA {
	imagNorm := math.Sqrt(q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)
	angle := 2 * math.Atan2(imagNorm, math.Abs(q.Real))
	if q.Real < 0 {
		angle = -angle
	}
	if imagNorm < 1e-6 {
		return R4AA{angle, 1, 0, 0}
	}
	return R4AA{angle, q.Imag / imagNorm, q.Jmag / imagNorm, q.Kmag / imagNorm}
}

// RotateVector rotates v by the unit quaternion q.
func RotateVector(q quat.Number, v r3.Vector) r3.Vector {
	rotated := quat.Mul(quat.Mul(q, quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}), quat.Conj(q))
	return r3.Vector{X: rotated.Imag, Y: rotated.Jmag, Z: rotated.Kmag}
}
