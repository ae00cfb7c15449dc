package tessel

import (
	"github.com/brepforge/tessel/predicate"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// splitTriangle inserts a new face-interior vertex at (xyz,uv) as the
// common apex of three triangles replacing t. It fixes the two outer
// neighbors' back-links and recomputes Mark for all three new
// triangles plus the outer neighbors.
func splitTriangle(m *Mesh, t int, xyz r3.Vec, uv r2.Vec) int {
	tr := *m.T(t)
	n := m.AddFaceVert(xyz, uv)

	i0, i1, i2 := tr.Indices[0], tr.Indices[1], tr.Indices[2]
	n0, n1, n2 := tr.Neighbors[0], tr.Neighbors[1], tr.Neighbors[2]

	// Reuse slot t for the first sub-triangle, append the other two.
	*m.T(t) = Triangle{Indices: [3]int{i0, i1, n}}
	tB := m.AddTri([3]int{i1, i2, n}, [3]int{0, 0, 0})
	tC := m.AddTri([3]int{i2, i0, n}, [3]int{0, 0, 0})

	// Triangle (i0,i1,n): side0 opposite i0 is (i1,n)->tB; side1
	// opposite i1 is (n,i0)->tC; side2 opposite n is (i0,i1)->n2.
	m.T(t).Neighbors = [3]int{tB, tC, n2}
	// Triangle (i1,i2,n): side0 opposite i1 is (i2,n)->tC; side1
	// opposite i2 is (n,i1)->t; side2 opposite n is (i1,i2)->n0.
	m.T(tB).Neighbors = [3]int{tC, t, n0}
	// Triangle (i2,i0,n): side0 opposite i2 is (i0,n)->t; side1
	// opposite i0 is (n,i2)->tB; side2 opposite n is (i2,i0)->n1.
	m.T(tC).Neighbors = [3]int{t, tB, n1}

	fixBackLink(m, n0, i1, i2, tB)
	fixBackLink(m, n1, i2, i0, tC)
	fixBackLink(m, n2, i0, i1, t)

	recomputeMark(m, t)
	recomputeMark(m, tB)
	recomputeMark(m, tC)
	for _, nb := range []int{n0, n1, n2} {
		if nb > 0 {
			recomputeMark(m, nb)
		}
	}
	return n
}

// splitSideResult enumerates why a side split did or did not happen.
type splitSideResult int

const (
	splitDone splitSideResult = iota
	splitRejectedShort
	splitRejectedDegenerate
)

// splitSide inserts a new vertex at the mid-parameter of side s of t1
// (shared with t2 = t1.Neighbors[s]), producing four triangles — two
// per original triangle. Before anything else it rejects the split if
// the quad (i0,i1,i3,i2) is not consistently oriented: a1*a2 <= 0 or
// a1*orUV < 0, where a1/a2 are the UV areas of the quad's two
// diagonally-split halves. When either endpoint is a degenerate node,
// it inverse-evaluates the Euclidean midpoint instead, validating the
// candidate UV against all four sub-triangles that would result on
// both sides of the shared edge (i0,i1,uv), (i0,uv,i2), (i1,i3,uv),
// (uv,i3,i2), falling back to the parameter midpoint if any of the
// four comes out inverted relative to a1. If sideMid is true, the
// split is rejected when either new half would be shorter than 1/8 of
// the original side.
func splitSide(m *Mesh, ev Evaluator, cfg *Config, t1, s, t2 int, sideMid bool) (int, splitSideResult) {
	i0, i1, i2, i3, ok := swapQuad(m, t1, s, t2)
	if !ok {
		return 0, splitRejectedDegenerate
	}
	a1 := predicate.Area2D(m.UV(i0), m.UV(i1), m.UV(i3))
	a2 := predicate.Area2D(m.UV(i0), m.UV(i3), m.UV(i2))
	if a1*a2 <= 0 || a1*cfg.OrUV < 0 {
		return 0, splitRejectedDegenerate
	}
	v1, v2 := m.V(i1), m.V(i2)

	uvMid := r2.Scale(0.5, r2.Add(v1.UV, v2.UV))
	xyzMid := r3.Scale(0.5, r3.Add(v1.XYZ, v2.XYZ))

	if v1.Degenerate() || v2.Degenerate() {
		uv, onSurf, err := ev.InvEvaluate(cfg.Face, xyzMid)
		valid := err == nil &&
			a1*predicate.Area2D(m.UV(i0), m.UV(i1), uv) > 0 &&
			a1*predicate.Area2D(m.UV(i0), uv, m.UV(i2)) > 0 &&
			a1*predicate.Area2D(m.UV(i1), m.UV(i3), uv) > 0 &&
			a1*predicate.Area2D(uv, m.UV(i3), m.UV(i2)) > 0
		if valid {
			uvMid, xyzMid = uv, onSurf
		}
	} else {
		d, err := ev.Evaluate(cfg.Face, uvMid)
		if err == nil {
			xyzMid = d.XYZ
		}
	}

	if sideMid {
		full2 := r3.Norm2(r3.Sub(v1.XYZ, v2.XYZ))
		half2 := r3.Norm2(r3.Sub(v1.XYZ, xyzMid))
		other2 := r3.Norm2(r3.Sub(v2.XYZ, xyzMid))
		if half2 < full2/64 || other2 < full2/64 {
			return 0, splitRejectedShort
		}
	}

	n := m.AddFaceVert(xyzMid, uvMid)

	tr1, tr2 := *m.T(t1), *m.T(t2)
	no1 := tr1.Neighbors[sideOpposite(&tr1, i2)]
	no2 := tr1.Neighbors[sideOpposite(&tr1, i1)]
	no3 := tr2.Neighbors[sideOpposite(&tr2, i2)]
	no4 := tr2.Neighbors[sideOpposite(&tr2, i1)]

	*m.T(t1) = Triangle{Indices: [3]int{i0, i1, n}}
	tB := m.AddTri([3]int{i0, n, i2}, [3]int{0, 0, 0})
	*m.T(t2) = Triangle{Indices: [3]int{i3, i2, n}}
	tD := m.AddTri([3]int{i3, n, i1}, [3]int{0, 0, 0})

	m.T(t1).Neighbors = [3]int{tD, tB, no1}
	m.T(tB).Neighbors = [3]int{t2, no2, t1}
	m.T(t2).Neighbors = [3]int{tB, tD, no4}
	m.T(tD).Neighbors = [3]int{t1, no3, t2}

	fixBackLink(m, no1, i0, i1, t1)
	fixBackLink(m, no2, i0, i2, tB)
	fixBackLink(m, no3, i3, i1, tD)
	fixBackLink(m, no4, i3, i2, t2)

	for _, tt := range []int{t1, tB, t2, tD} {
		recomputeMark(m, tt)
	}
	for _, nb := range []int{no1, no2, no3, no4} {
		if nb > 0 {
			recomputeMark(m, nb)
		}
	}
	return n, splitDone
}
