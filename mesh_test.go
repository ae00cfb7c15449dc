package tessel

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// twoTriMesh builds the handcrafted two-triangle quad spec.md §9
// recommends for single-op topology tests: a unit square split along
// its diagonal, with orUV = +1.
func twoTriMesh() *Mesh {
	cfg := &Config{OrUV: 1}
	m := NewMesh(cfg, nil)
	uvs := []r2.Vec{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
	for _, uv := range uvs {
		m.AddVert(VertexNode, r3.Vec{X: uv.X, Y: uv.Y, Z: 0}, uv)
	}
	// t1 = (1,2,3), t2 = (1,3,4); shared side is (1,3) i.e. the diagonal:
	// t1's side1 (endpoints Indices[2],Indices[0] = (3,1)) and t2's
	// side2 (endpoints Indices[0],Indices[1] = (1,3)).
	m.AddTri([3]int{1, 2, 3}, [3]int{0, 2, 0})
	m.AddTri([3]int{1, 3, 4}, [3]int{0, 0, 1})
	return m
}

func TestMeshInvariantsOnHandcraftedQuad(t *testing.T) {
	m := twoTriMesh()
	if err := m.CheckInvariants(); err != nil {
		t.Fatalf("unexpected invariant failure: %v", err)
	}
}

func TestDoSwapPreservesInvariants(t *testing.T) {
	m := twoTriMesh()
	// t1's side opposite vertex 2 (side 1) is the shared diagonal (1,3).
	tr1 := m.T(1)
	s := tr1.SideOf(1, 3)
	if s < 0 {
		t.Fatalf("expected triangle 1 to have a side on (1,3)")
	}
	if !doSwap(m, 1, s, tr1.Neighbors[s]) {
		t.Fatalf("doSwap failed")
	}
	if err := m.CheckInvariants(); err != nil {
		t.Fatalf("invariants broken after swap: %v", err)
	}
	// After swapping the diagonal of a unit square, the new diagonal
	// should connect vertices 2 and 4.
	found := false
	for ti := 1; ti <= m.NTris(); ti++ {
		if m.T(ti).SideOf(2, 4) >= 0 {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected new diagonal (2,4) after swap")
	}
}

func TestSplitTriangleAddsVertexAndThreeTriangles(t *testing.T) {
	m := twoTriMesh()
	nBefore := m.NVerts()
	tBefore := m.NTris()
	n := splitTriangle(m, 1, r3.Vec{X: 0.5, Y: 0.3, Z: 0}, r2.Vec{X: 0.5, Y: 0.3})
	if n != nBefore+1 {
		t.Fatalf("expected new vertex index %d, got %d", nBefore+1, n)
	}
	if m.NTris() != tBefore+2 {
		t.Fatalf("expected %d triangles after split, got %d", tBefore+2, m.NTris())
	}
	if err := m.CheckInvariants(); err != nil {
		t.Fatalf("invariants broken after split: %v", err)
	}
}

// identityEvaluator is a flat-plane fixture: XYZ == (u, v, 0).
type identityEvaluator struct{}

func (identityEvaluator) Evaluate(face FaceHandle, uv r2.Vec) (Derivatives, error) {
	return Derivatives{
		XYZ:  r3.Vec{X: uv.X, Y: uv.Y, Z: 0},
		DXDU: r3.Vec{X: 1, Y: 0, Z: 0},
		DXDV: r3.Vec{X: 0, Y: 1, Z: 0},
	}, nil
}

func (identityEvaluator) InvEvaluate(face FaceHandle, xyz r3.Vec) (r2.Vec, r3.Vec, error) {
	return r2.Vec{X: xyz.X, Y: xyz.Y}, r3.Vec{X: xyz.X, Y: xyz.Y, Z: 0}, nil
}

func (identityEvaluator) Range(face FaceHandle) (umin, umax, vmin, vmax float64, periodic bool, err error) {
	return 0, 1, 0, 1, false, nil
}

func TestSplitSideProducesFourTriangles(t *testing.T) {
	m := twoTriMesh()
	tr1 := m.T(1)
	s := tr1.SideOf(1, 3)
	tBefore := m.NTris()
	_, res := splitSide(m, identityEvaluator{}, &Config{OrUV: 1}, 1, s, tr1.Neighbors[s], false)
	if res != splitDone {
		t.Fatalf("expected split to succeed, got %v", res)
	}
	if m.NTris() != tBefore+2 {
		t.Fatalf("expected %d triangles after side split, got %d", tBefore+2, m.NTris())
	}
	if err := m.CheckInvariants(); err != nil {
		t.Fatalf("invariants broken after side split: %v", err)
	}
}

// fourTriMesh builds a small fan of four triangles around a central
// face-interior vertex, for collapse testing.
func fourTriMesh() *Mesh {
	cfg := &Config{OrUV: 1}
	m := NewMesh(cfg, nil)
	m.AddVert(VertexNode, r3.Vec{X: 0, Y: 0, Z: 0}, r2.Vec{X: 0, Y: 0})   // 1 center-adjacent corner
	m.AddVert(VertexNode, r3.Vec{X: 1, Y: 0, Z: 0}, r2.Vec{X: 1, Y: 0})   // 2
	m.AddVert(VertexNode, r3.Vec{X: 1, Y: 1, Z: 0}, r2.Vec{X: 1, Y: 1})   // 3
	m.AddVert(VertexNode, r3.Vec{X: 0, Y: 1, Z: 0}, r2.Vec{X: 0, Y: 1})   // 4
	m.AddVert(VertexFace, r3.Vec{X: 0.5, Y: 0.5, Z: 0}, r2.Vec{X: 0.5, Y: 0.5}) // 5 center
	m.AddTri([3]int{1, 2, 5}, [3]int{0, 0, 0})
	m.AddTri([3]int{2, 3, 5}, [3]int{0, 0, 0})
	m.AddTri([3]int{3, 4, 5}, [3]int{0, 0, 0})
	m.AddTri([3]int{4, 1, 5}, [3]int{0, 0, 0})
	m.BuildNeighbors()
	return m
}

func TestCollapseEdgeRemovesVertexAndTwoTriangles(t *testing.T) {
	m := fourTriMesh()
	if err := m.CheckInvariants(); err != nil {
		t.Fatalf("fixture invariants broken: %v", err)
	}
	nv, nt := m.NVerts(), m.NTris()
	if !collapseEdge(m, 5, 1, 0) {
		t.Fatalf("collapseEdge failed")
	}
	if m.NVerts() != nv-1 {
		t.Fatalf("expected %d vertices after collapse, got %d", nv-1, m.NVerts())
	}
	if m.NTris() != nt-2 {
		t.Fatalf("expected %d triangles after collapse, got %d", nt-2, m.NTris())
	}
	if err := m.CheckInvariants(); err != nil {
		t.Fatalf("invariants broken after collapse: %v", err)
	}
}

func TestCollapseEdgeRejectsBoundaryVertexWithFlagZero(t *testing.T) {
	m := fourTriMesh()
	if collapseEdge(m, 1, 5, 0) {
		t.Fatalf("expected collapse of boundary vertex to be rejected with flag 0")
	}
}

func TestMidpointCacheRoundTrip(t *testing.T) {
	c := newMidpointCache(10)
	xyz := r3.Vec{X: 1, Y: 2, Z: 3}
	c.add(5, 3, 9, true, xyz)
	close, got, ok := c.find(9, 5, 3)
	if !ok {
		t.Fatalf("expected cache hit for permuted triple")
	}
	if !close || got != xyz {
		t.Fatalf("cache returned wrong entry: close=%v xyz=%v", close, got)
	}
	c.remove(3, 9, 5)
	if _, _, ok := c.find(5, 9, 3); ok {
		t.Fatalf("expected cache miss after remove")
	}
}
