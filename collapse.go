package tessel

// collapseEdge merges vertex from into vertex onto, per spec.md
// §4.4's edge-collapse operation. Flag 0 requires from to be
// face-interior; flag 1 additionally allows a boundary vertex to be
// collapsed. The two triangles sharing the (from,onto) edge are
// removed by swapping them to the end of the triangle array (and
// patching the displaced occupants' back-links), from is moved to the
// end of the vertex array the same way, every remaining triangle that
// referenced from is rewritten to reference onto, and the two pairs
// of surviving outer neighbors across the collapsed slot are
// cross-linked. Mark is recomputed on every triangle touched.
func collapseEdge(m *Mesh, from, onto, flag int) bool {
	fv := m.V(from)
	if flag == 0 && fv.Kind != VertexFace {
		return false
	}

	var tShare []int
	var sideInShare []int
	for ti := 1; ti <= m.NTris(); ti++ {
		tr := m.T(ti)
		if s := tr.SideOf(from, onto); s >= 0 {
			tShare = append(tShare, ti)
			sideInShare = append(sideInShare, s)
		}
	}
	if len(tShare) == 0 || len(tShare) > 2 {
		return false
	}

	// For each side-sharing triangle, find the apex opposite the
	// collapsed edge and its two outer neighbors (the sides adjacent
	// to that apex), so the two survivors on either side of the
	// collapsed edge can be cross-linked once the shared triangles are
	// removed.
	type wing struct {
		apex   int
		nFrom  int // neighbor across the side (apex,from)
		nOnto  int // neighbor across the side (apex,onto)
	}
	wings := make([]wing, len(tShare))
	for k, ti := range tShare {
		tr := m.T(ti)
		s := sideInShare[k]
		apex := tr.Indices[s]
		wings[k] = wing{
			apex:  apex,
			nFrom: tr.Neighbors[sideOpposite(tr, onto)],
			nOnto: tr.Neighbors[sideOpposite(tr, from)],
		}
	}
	for _, w := range wings {
		fixBackLink(m, w.nFrom, w.apex, from, w.nOnto)
		fixBackLink(m, w.nOnto, w.apex, onto, w.nFrom)
	}

	// Rewrite every surviving triangle's reference to from -> onto.
	for ti := 1; ti <= m.NTris(); ti++ {
		if isShared(tShare, ti) {
			continue
		}
		tr := m.T(ti)
		for s := 0; s < 3; s++ {
			if tr.Indices[s] == from {
				tr.Indices[s] = onto
			}
		}
	}

	removeTris(m, tShare)
	removeVert(m, from)

	for ti := 1; ti <= m.NTris(); ti++ {
		tr := m.T(ti)
		for s := 0; s < 3; s++ {
			if tr.Indices[s] == onto {
				recomputeMark(m, ti)
				break
			}
		}
	}
	return true
}

func isShared(list []int, t int) bool {
	for _, v := range list {
		if v == t {
			return true
		}
	}
	return false
}

// removeTris deletes the given 1-based triangle indices by swapping
// each with the current last triangle and shrinking, repairing the
// displaced occupant's back-links each time. Indices are processed
// largest-first so earlier removals don't invalidate later ones.
func removeTris(m *Mesh, kill []int) {
	sorted := append([]int(nil), kill...)
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			if sorted[j] > sorted[i] {
				sorted[i], sorted[j] = sorted[j], sorted[i]
			}
		}
	}
	for _, dead := range sorted {
		last := m.NTris()
		if dead != last {
			*m.T(dead) = *m.T(last)
			relinkNeighborsAfterMove(m, last, dead)
		}
		m.Tris = m.Tris[:last]
	}
}

// relinkNeighborsAfterMove rewrites every back-link that pointed at
// oldIdx (the triangle that used to live at the slot now occupied by
// the relocated triangle) to point at newIdx instead.
func relinkNeighborsAfterMove(m *Mesh, oldIdx, newIdx int) {
	tr := m.T(newIdx)
	for s := 0; s < 3; s++ {
		n := tr.Neighbors[s]
		if n <= 0 {
			continue
		}
		nb := m.T(n)
		for ns := 0; ns < 3; ns++ {
			if nb.Neighbors[ns] == oldIdx {
				nb.Neighbors[ns] = newIdx
			}
		}
	}
}

// removeVert deletes vertex index dead by swapping with the last
// vertex and shrinking, rewriting every triangle reference to the
// relocated vertex.
func removeVert(m *Mesh, dead int) {
	last := m.NVerts()
	if dead != last {
		*m.V(dead) = *m.V(last)
		for ti := 1; ti <= m.NTris(); ti++ {
			tr := m.T(ti)
			for s := 0; s < 3; s++ {
				if tr.Indices[s] == last {
					tr.Indices[s] = dead
				}
			}
		}
	}
	m.Verts = m.Verts[:last]
}
