package tessel

import "github.com/brepforge/tessel/predicate"

// checkOr reports whether swapping side s between t1 and its neighbour
// t2 yields two triangles whose signed UV area both carry the sign of
// orUV. On a mismatch it increments *orCnt. Its only caller,
// recomputeMark, passes a local counter that it discards, so these
// rejections never reach phaseCtx.orCnt or the MaxOrCnt check.
func checkOr(m *Mesh, orCnt *int, t1, s, t2 int) bool {
	i0, i1, i2, i3, ok := swapQuad(m, t1, s, t2)
	if !ok {
		*orCnt++
		return false
	}
	or := m.OrUV
	a0 := or * predicate.Area2D(m.UV(i1), m.UV(i3), m.UV(i0))
	a1 := or * predicate.Area2D(m.UV(i2), m.UV(i0), m.UV(i3))
	if a0 <= 0 || a1 <= 0 {
		*orCnt++
		return false
	}
	return true
}

// doSwap performs the edge swap across side s of t1 against its
// current neighbour t2 = t1.Neighbors[s]. It rewrites both triangles'
// vertex triples, patches the six outer neighbor links (including the
// two formerly-adjacent triangles' back-links), and recomputes Mark
// on the two new triangles and their four outer neighbors.
func doSwap(m *Mesh, t1, s, t2 int) bool {
	i0, i1, i2, i3, ok := swapQuad(m, t1, s, t2)
	if !ok {
		return false
	}
	tr1, tr2 := m.T(t1), m.T(t2)
	s2 := tr2.SideOf(i1, i2)
	if s2 < 0 {
		return false
	}

	// Outer neighbors, indexed by the side of t1/t2 they currently sit
	// on, captured before either triangle is overwritten.
	outI0I1 := tr1.Neighbors[sideOpposite(tr1, i2)]
	outI0I2 := tr1.Neighbors[sideOpposite(tr1, i1)]
	outI3I1 := tr2.Neighbors[sideOpposite(tr2, i2)]
	outI3I2 := tr2.Neighbors[sideOpposite(tr2, i1)]

	*tr1 = Triangle{Indices: [3]int{i1, i3, i0}}
	*tr2 = Triangle{Indices: [3]int{i2, i0, i3}}

	// New t1 = (i1,i3,i0): side0 opposite i1 is (i3,i0)=shared new edge
	// -> neighbor t2; side1 opposite i3 is (i0,i1) -> outI0I1; side2
	// opposite i0 is (i1,i3) -> outI3I1.
	tr1.Neighbors = [3]int{t2, outI0I1, outI3I1}
	// New t2 = (i2,i0,i3): side0 opposite i2 is (i0,i3) -> neighbor t1;
	// side1 opposite i0 is (i3,i2) -> outI3I2; side2 opposite i3 is
	// (i2,i0) -> outI0I2.
	tr2.Neighbors = [3]int{t1, outI3I2, outI0I2}

	fixBackLink(m, outI0I1, i0, i1, t1)
	fixBackLink(m, outI3I1, i3, i1, t1)
	fixBackLink(m, outI3I2, i3, i2, t2)
	fixBackLink(m, outI0I2, i0, i2, t2)

	recomputeMark(m, t1)
	recomputeMark(m, t2)
	for _, n := range []int{outI0I1, outI3I1, outI3I2, outI0I2} {
		if n > 0 {
			recomputeMark(m, n)
		}
	}
	return true
}

// sideOpposite returns the side index of tr opposite the given
// 1-based vertex index.
func sideOpposite(tr *Triangle, vert int) int {
	for s := 0; s < 3; s++ {
		if tr.Indices[s] == vert {
			return s
		}
	}
	return -1
}

// fixBackLink rewrites nbr's back-link from its old owner to newOwner
// on the side bounded by (a,b), if nbr is an interior triangle.
func fixBackLink(m *Mesh, nbr, a, b, newOwner int) {
	if nbr <= 0 {
		return
	}
	tr := m.T(nbr)
	if s := tr.SideOf(a, b); s >= 0 {
		tr.Neighbors[s] = newOwner
	}
}

// recomputeMark refreshes the swap-candidate bits of t by testing each
// interior side for orientation validity; a side whose neighbour
// disagrees on UV-area sign stays unmarked (it is either already
// optimal by the area test's standard or handled by a later explicit
// area-swap).
func recomputeMark(m *Mesh, t int) {
	tr := m.T(t)
	for s := 0; s < 3; s++ {
		nbr := tr.Neighbors[s]
		if nbr <= 0 {
			tr.SetMarkSide(s, false)
			continue
		}
		var orCnt int
		tr.SetMarkSide(s, checkOr(m, &orCnt, t, s, nbr))
	}
}

// swapTris runs the bounded swap loop of spec.md §4.6: at most 200
// rounds, each scanning every marked side, applying test and swapping
// when it returns true, until a round produces no swaps or the round
// cap is hit. A final no-op scan refreshes ts.accum for reporting, and
// every triangle's Hit flag is cleared on return.
func swapTris(m *Mesh, ts *testState, test qualityTest, stats *Stats) {
	const maxRounds = 200
	for round := 0; round < maxRounds; round++ {
		anySwap := false
		for t1 := 1; t1 <= m.NTris(); t1++ {
			if m.T(t1).Hit != 0 {
				continue
			}
			dirty := false
			for s := 0; s < 3; s++ {
				tr := m.T(t1)
				if !tr.MarkSide(s) {
					continue
				}
				t2 := tr.Neighbors[s]
				if t2 <= 0 {
					continue
				}
				if test(m, ts, t1, s, t2) {
					if doSwap(m, t1, s, t2) {
						anySwap = true
						dirty = true
						stats.Swaps++
					}
				}
			}
			if !dirty {
				m.T(t1).Hit = 1
			} else {
				m.T(t1).Hit = 0
			}
		}
		if !anySwap {
			break
		}
		for t1 := 1; t1 <= m.NTris(); t1++ {
			m.T(t1).Hit = 0
		}
	}
	// Final no-op scan: refresh accum without applying any swap.
	for t1 := 1; t1 <= m.NTris(); t1++ {
		tr := m.T(t1)
		for s := 0; s < 3; s++ {
			if !tr.MarkSide(s) {
				continue
			}
			t2 := tr.Neighbors[s]
			if t2 > 0 {
				test(m, ts, t1, s, t2)
			}
		}
	}
	for t1 := 1; t1 <= m.NTris(); t1++ {
		m.T(t1).Hit = 0
	}
}
