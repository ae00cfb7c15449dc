package tessel

import (
	"math"

	"github.com/brepforge/tessel/predicate"
)

// testState carries the shared, monotone accumulator the swap loop
// uses to observe progress across a pass of quality tests, plus the
// configuration the tests need (dotnrm threshold, voverU metric,
// planar flag).
type testState struct {
	cfg    *Config
	voverU float64
	planar bool

	// accum is maximised by minimisation tests (they track the worst
	// remaining value so the caller can tell when it has bottomed out)
	// and minimised by maximisation tests (diagTest); see each test's
	// doc comment for its own convention.
	accum float64
}

// qualityTest is the common shape of every swap-candidate test: given
// the two triangles sharing side s of t1 (t2 = t1.Neighbors[s]),
// report whether swapping improves the associated metric by more than
// AngTol, without inverting UV orientation or violating the
// configured dihedral floor.
type qualityTest func(m *Mesh, ts *testState, t1, s, t2 int) bool

// swapQuad returns the four vertices of the quadrilateral formed by
// t1 and its neighbour across side s: i0 opposite s in t1, i1/i2 the
// shared edge (in t1's winding order), and i3 opposite the shared edge
// in t2.
func swapQuad(m *Mesh, t1, s, t2 int) (i0, i1, i2, i3 int, ok bool) {
	tr1, tr2 := m.T(t1), m.T(t2)
	i0 = tr1.OppositeVert(s)
	i1, i2 = tr1.SideVerts(s)
	sum := tr2.Indices[0] + tr2.Indices[1] + tr2.Indices[2]
	i3 = sum - i1 - i2
	for _, idx := range tr2.Indices {
		if idx == i3 {
			return i0, i1, i2, i3, true
		}
	}
	return 0, 0, 0, 0, false
}

// areaTest reports whether the current quad has at least one
// UV-inverted half while the proposed swap gives two correctly
// oriented halves.
func areaTest(m *Mesh, ts *testState, t1, s, t2 int) bool {
	i0, i1, i2, i3, ok := swapQuad(m, t1, s, t2)
	if !ok {
		return false
	}
	or := ts.cfg.OrUV
	a0 := or * predicate.Area2D(m.UV(i1), m.UV(i3), m.UV(i0))
	a1 := or * predicate.Area2D(m.UV(i2), m.UV(i0), m.UV(i3))
	before0 := or * predicate.Area2D(m.UV(i1), m.UV(i2), m.UV(i0))
	before1 := or * predicate.Area2D(m.UV(i2), m.UV(i1), m.UV(i3))
	improves := (before0 <= 0 || before1 <= 0) && a0 > 0 && a1 > 0
	if improves {
		ts.accum = math.Max(ts.accum, 1)
	}
	return improves
}

// angUVTest reports whether swapping reduces the maximum UV-angle
// across the two triangles. accum tracks the worst (maximum) UV-angle
// seen, so a caller monitoring it for "does accum go negative" sees
// the minimisation convention described in spec.md §4.6 step Phase 0.
func angUVTest(m *Mesh, ts *testState, t1, s, t2 int) bool {
	i0, i1, i2, i3, ok := swapQuad(m, t1, s, t2)
	if !ok {
		return false
	}
	before := math.Max(
		predicate.MaxUVangle(m.UV(i0), m.UV(i1), m.UV(i2), ts.voverU),
		predicate.MaxUVangle(m.UV(i3), m.UV(i2), m.UV(i1), ts.voverU))
	after := math.Max(
		predicate.MaxUVangle(m.UV(i1), m.UV(i3), m.UV(i0), ts.voverU),
		predicate.MaxUVangle(m.UV(i2), m.UV(i0), m.UV(i3), ts.voverU))
	ts.accum = math.Max(ts.accum, before)
	if before-after <= AngTol {
		return false
	}
	or := ts.cfg.OrUV
	if or*predicate.Area2D(m.UV(i1), m.UV(i3), m.UV(i0)) <= 0 ||
		or*predicate.Area2D(m.UV(i2), m.UV(i0), m.UV(i3)) <= 0 {
		return false
	}
	return true
}

// angXYZTest reports whether swapping reduces the maximum 3-D angle
// across the two triangles, additionally requiring (outside the
// planar phase) that the new dihedral dot not drop below dotnrm.
func angXYZTest(m *Mesh, ts *testState, t1, s, t2 int) bool {
	i0, i1, i2, i3, ok := swapQuad(m, t1, s, t2)
	if !ok {
		return false
	}
	p0, p1, p2, p3 := m.XYZ(i0), m.XYZ(i1), m.XYZ(i2), m.XYZ(i3)
	before := math.Max(predicate.MaxXYZangle(p0, p1, p2), predicate.MaxXYZangle(p3, p2, p1))
	after := math.Max(predicate.MaxXYZangle(p1, p3, p0), predicate.MaxXYZangle(p2, p0, p3))
	ts.accum = math.Max(ts.accum, before)
	if before-after <= AngTol {
		return false
	}
	if !ts.planar {
		dot := predicate.DotNorm(p1, p3, p0, p2)
		if dot < ts.cfg.Dotnrm {
			return false
		}
	}
	or := ts.cfg.OrUV
	if or*predicate.Area2D(m.UV(i1), m.UV(i3), m.UV(i0)) <= 0 ||
		or*predicate.Area2D(m.UV(i2), m.UV(i0), m.UV(i3)) <= 0 {
		return false
	}
	return true
}

// diagTest reports whether swapping increases the minimum dotNorm
// across the shared edge, provided the worst new UV-angle stays <=
// MaxAng. This is a maximisation test: accum tracks the new minimum
// so the caller can watch it climb towards 1.
func diagTest(m *Mesh, ts *testState, t1, s, t2 int) bool {
	i0, i1, i2, i3, ok := swapQuad(m, t1, s, t2)
	if !ok {
		return false
	}
	p0, p1, p2, p3 := m.XYZ(i0), m.XYZ(i1), m.XYZ(i2), m.XYZ(i3)
	beforeMin := math.Min(predicate.DotNorm(p0, p1, p3, p2), predicate.DotNorm(p0, p2, p1, p3))
	afterMin := predicate.DotNorm(p1, p3, p0, p2)
	if afterMin <= beforeMin+AngTol {
		return false
	}
	worstAfterAng := math.Max(
		predicate.MaxUVangle(m.UV(i1), m.UV(i3), m.UV(i0), ts.voverU),
		predicate.MaxUVangle(m.UV(i2), m.UV(i0), m.UV(i3), ts.voverU))
	if worstAfterAng > MaxAng {
		return false
	}
	or := ts.cfg.OrUV
	if or*predicate.Area2D(m.UV(i1), m.UV(i3), m.UV(i0)) <= 0 ||
		or*predicate.Area2D(m.UV(i2), m.UV(i0), m.UV(i3)) <= 0 {
		return false
	}
	ts.accum = math.Max(ts.accum, afterMin)
	return true
}
