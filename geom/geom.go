package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Tolerance below which an entry of a transform column is snapped to zero,
// relative to the dominant entry of that column.
const axisSnapTolerance = 1e-6

func EqualWithTolerance(a float32, b float32, tolerance float64) bool {
	return math.Abs(float64(a-b)) <= tolerance
}

// RelativeDiff returns |a-b| scaled by the larger magnitude of the two
// operands. It is 0 when both operands are 0.
func RelativeDiff(a float32, b float32) float32 {
	m := math.Max(math.Abs(float64(a)), math.Abs(float64(b)))
	if m == 0 {
		return 0
	}
	return float32(math.Abs(float64(a-b)) / m)
}

// SnapToAxisAligned zeroes entries of the upper-left 3x3 of m that are tiny
// relative to the dominant entry of their column. A transform that is
// axis-aligned up to floating-point noise becomes exactly axis-aligned, which
// keeps downstream epsilon comparisons from flipping on jitter.
func SnapToAxisAligned(m mgl32.Mat4) mgl32.Mat4 {
	for col := 0; col < 3; col++ {
		var dominant float64
		for row := 0; row < 3; row++ {
			if a := math.Abs(float64(m.At(row, col))); a > dominant {
				dominant = a
			}
		}
		if dominant == 0 {
			continue
		}
		for row := 0; row < 3; row++ {
			if math.Abs(float64(m.At(row, col))) < axisSnapTolerance*dominant {
				m.Set(row, col, 0)
			}
		}
	}
	return m
}

// TransformPoint applies the full affine transform m to p.
func TransformPoint(m mgl32.Mat4, p mgl32.Vec3) mgl32.Vec3 {
	return m.Mul4x1(p.Vec4(1)).Vec3()
}

// TransformVector applies only the linear part of m to v.
func TransformVector(m mgl32.Mat4, v mgl32.Vec3) mgl32.Vec3 {
	return m.Mul4x1(v.Vec4(0)).Vec3()
}

// Column returns the first three components of column col of m.
func Column(m mgl32.Mat4, col int) mgl32.Vec3 {
	return m.Col(col).Vec3()
}

// Plane is a plane in chunk-grid units: a point g lies on the plane when
// Normal.Dot(g) + Distance == 0. The normal is not required to be unit
// length; signed distances are only ever compared against zero.
type Plane struct {
	Normal   mgl32.Vec3
	Distance float32
}

// MinMaxOverBounds returns the signed distances of the two extremal corners
// of b. Per axis, the sign of the normal component selects which of the two
// bound values contributes to the maximal corner, so only two of the eight
// corners are ever evaluated.
func (p Plane) MinMaxOverBounds(b Bounds) (float32, float32) {
	min := p.Distance
	max := p.Distance
	for i := 0; i < 3; i++ {
		lower := p.Normal[i] * float32(b.Lower[i])
		upper := p.Normal[i] * float32(b.Upper[i])
		if p.Normal[i] >= 0 {
			min += lower
			max += upper
		} else {
			min += upper
			max += lower
		}
	}
	return min, max
}

// IntersectsBounds reports whether the plane passes through b: the minimal
// corner must be on or below the plane and the maximal corner on or above it.
func (p Plane) IntersectsBounds(b Bounds) bool {
	min, max := p.MinMaxOverBounds(b)
	return min <= 0 && max >= 0
}
