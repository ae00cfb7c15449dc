// Package predicate implements the robust geometric predicates the
// refinement engine builds on: 2D orientation, triangle containment,
// point-to-line/segment distance and the dihedral/angle measures used
// by the quality tests in package tessel.
//
// None of these take a Mesh: they work on raw points so they can be
// unit tested on handcrafted triangles independent of mesh topology.
package predicate

import (
	"math"

	"github.com/chewxy/math32"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Side reports which side of the line through a and b the point c lies
// on, or whether it is degenerate.
type Side int

const (
	// Negative means c is oriented clockwise (negative) with respect to a,b.
	Negative Side = -1
	// Degenerate means the three points are collinear (or coincident).
	Degenerate Side = 0
	// Positive means c is oriented counter-clockwise with respect to a,b.
	Positive Side = 1
)

// Area2D returns twice the signed area of the triangle (a,b,c): the
// parallelogram area (a-c) x (b-c). Positive when a,b,c wind
// counter-clockwise.
func Area2D(a, b, c r2.Vec) float64 {
	return (a.X-c.X)*(b.Y-c.Y) - (a.Y-c.Y)*(b.X-c.X)
}

// OrienTri is a robust 2D orientation predicate: it returns the sign of
// Area2D(a,b,c). A fast float32 evaluation is tried first; the exact
// float64 evaluation only runs when the fast result falls inside the
// float32 rounding envelope around zero, which is the standard
// "fast filter, exact fallback" shape for robust predicates.
func OrienTri(a, b, c r2.Vec) Side {
	fa := math32.Vec2{X: float32(a.X), Y: float32(a.Y)}
	fb := math32.Vec2{X: float32(b.X), Y: float32(b.Y)}
	fc := math32.Vec2{X: float32(c.X), Y: float32(c.Y)}
	fast := (fa.X-fc.X)*(fb.Y-fc.Y) - (fa.Y-fc.Y)*(fb.X-fc.X)
	const filterEnvelope = 1e-5
	if math32.Abs(fast) > filterEnvelope {
		return sign(float64(fast))
	}
	return sign(Area2D(a, b, c))
}

func sign(v float64) Side {
	switch {
	case v > 0:
		return Positive
	case v < 0:
		return Negative
	default:
		return Degenerate
	}
}

// InTriExact classifies point p against triangle (t1,t2,t3) using the
// sign of OrienTri on the three sub-triangles (p,t1,t2), (p,t2,t3),
// (p,t3,t1). It returns normalised barycentric weights w such that
// p == w[0]*t1 + w[1]*t2 + w[2]*t3 whenever the triangle is
// non-degenerate, and the containment classification:
//
//   - Inside: all three signs agree (or a boundary vertex has a zero
//     sign and the other two agree) — counted as inside.
//   - Outside: signs disagree.
//   - Degen: the triangle itself has zero area.
func InTriExact(t1, t2, t3, p r2.Vec) (class Containment, w [3]float64) {
	area := Area2D(t1, t2, t3)
	if area == 0 {
		return Degen, w
	}
	s0 := OrienTri(t2, t3, p)
	s1 := OrienTri(t3, t1, p)
	s2 := OrienTri(t1, t2, p)
	same := func(a, b Side) bool { return a == b || a == Degenerate || b == Degenerate }
	if !(same(s0, s1) && same(s1, s2) && same(s0, s2)) {
		return Outside, w
	}
	inv := 1 / area
	w[0] = Area2D(t2, t3, p) * inv
	w[1] = Area2D(t3, t1, p) * inv
	w[2] = Area2D(t1, t2, p) * inv
	return Inside, w
}

// Containment is the three-way result of a point-in-triangle test.
type Containment int

const (
	Outside Containment = iota
	Inside
	Degen
)

// InTri projects p onto the triangle's plane along its normal (see
// areaXYZ2D) and computes barycentric weights there, rejecting the
// point if any weight is <= fuzz. Unlike
// InTriExact this works directly on 3-space points and tolerates small
// deviation from the triangle's plane (the projection discards the
// out-of-plane component).
func InTri(t1, t2, t3, p r3.Vec, fuzz float64) (inside bool, w [3]float64) {
	area := areaXYZ2D(t1, t2, t3, p)
	if area == ([3]float64{}) {
		return false, w
	}
	w[0], w[1], w[2] = area[0], area[1], area[2]
	sum := w[0] + w[1] + w[2]
	if sum == 0 {
		return false, w
	}
	inv := 1 / sum
	w[0] *= inv
	w[1] *= inv
	w[2] *= inv
	for _, wi := range w {
		if wi <= fuzz {
			return false, w
		}
	}
	return true, w
}

// areaXYZ2D projects p onto the plane of (t1,t2,t3) via its normal and
// returns the three sub-triangle areas (t2,t3,p), (t3,t1,p), (t1,t2,p)
// measured in that plane; a zero return signals a degenerate triangle.
func areaXYZ2D(t1, t2, t3, p r3.Vec) [3]float64 {
	n := r3.Cross(r3.Sub(t2, t1), r3.Sub(t3, t1))
	n2 := r3.Dot(n, n)
	if n2 == 0 {
		return [3]float64{}
	}
	a0 := r3.Dot(n, r3.Cross(r3.Sub(t3, t2), r3.Sub(p, t2)))
	a1 := r3.Dot(n, r3.Cross(r3.Sub(t1, t3), r3.Sub(p, t3)))
	a2 := r3.Dot(n, r3.Cross(r3.Sub(t2, t1), r3.Sub(p, t1)))
	return [3]float64{a0, a1, a2}
}

// GetIntersect returns the squared distance from p2 to the infinite
// line through p0,p1. It returns 1e40 when the foot of the
// perpendicular falls outside the extended range [-0.01,1.01] along
// the segment, and 1e20 when p0==p1.
func GetIntersect(p0, p1, p2 r3.Vec) float64 {
	d := r3.Sub(p1, p0)
	denom := r3.Dot(d, d)
	if denom == 0 {
		return 1e20
	}
	t := r3.Dot(r3.Sub(p2, p0), d) / denom
	if t < -0.01 || t > 1.01 {
		return 1e40
	}
	foot := r3.Add(p0, r3.Scale(t, d))
	return r3.Norm2(r3.Sub(p2, foot))
}

// RayIntersect returns the perpendicular distance from p2 to segment
// p0p1, normalised by |p1-p0|. Returns 100.0 if the segment is
// zero-length.
func RayIntersect(p0, p1, p2 r3.Vec) float64 {
	d := r3.Sub(p1, p0)
	length := r3.Norm(d)
	if length == 0 {
		return 100.0
	}
	t := r3.Dot(r3.Sub(p2, p0), d) / (length * length)
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	foot := r3.Add(p0, r3.Scale(t, d))
	return r3.Norm(r3.Sub(p2, foot)) / length
}

// DotNorm returns the dot product of the unit face normals of
// triangles (p0,p1,p2) and (p3,p2,p1) -- the two triangles sharing
// edge p1-p2. Returns 1.0 (perfectly aligned) if either triangle is
// degenerate, matching the "don't penalise degenerate neighbours"
// convention used throughout the quality tests.
func DotNorm(p0, p1, p2, p3 r3.Vec) float64 {
	n1 := r3.Cross(r3.Sub(p1, p0), r3.Sub(p2, p0))
	n2 := r3.Cross(r3.Sub(p2, p3), r3.Sub(p1, p3))
	l1, l2 := r3.Norm(n1), r3.Norm(n2)
	if l1 == 0 || l2 == 0 {
		return 1.0
	}
	return r3.Dot(n1, n2) / (l1 * l2)
}

// MaxXYZangle returns the maximum interior angle of triangle
// (p1,p2,p3) in 3-space, in radians.
func MaxXYZangle(p1, p2, p3 r3.Vec) float64 {
	return math.Max(angleAt(p3, p1, p2), math.Max(angleAt(p1, p2, p3), angleAt(p2, p3, p1)))
}

func angleAt(apex, b, c r3.Vec) float64 {
	u, v := r3.Sub(b, apex), r3.Sub(c, apex)
	lu, lv := r3.Norm(u), r3.Norm(v)
	if lu == 0 || lv == 0 {
		return 0
	}
	cos := r3.Dot(u, v) / (lu * lv)
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return math.Acos(cos)
}

// MaxUVangle returns the maximum interior angle of triangle (p1,p2,p3)
// in parameter space, scaling the V component by voverU so that the
// angle reflects the face's true metric rather than a raw UV aspect
// ratio.
func MaxUVangle(p1, p2, p3 r2.Vec, voverU float64) float64 {
	scale := func(p r2.Vec) r3.Vec { return r3.Vec{X: p.X, Y: p.Y * voverU} }
	return MaxXYZangle(scale(p1), scale(p2), scale(p3))
}
