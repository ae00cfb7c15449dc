package baryframe

import (
	"math"
	"testing"

	"github.com/brepforge/tessel"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// squareFrameMesh builds a 4-vertex, 2-triangle unit-square frame, then
// appends one extra interior vertex (not part of the frame) sitting
// inside the first triangle, mimicking what a refined mesh looks like
// once BuildNeighbors/NFrVrts/NFrame have captured the original frame.
func squareFrameMesh() *tessel.Mesh {
	cfg := &tessel.Config{OrUV: 1}
	m := tessel.NewMesh(cfg, nil)
	uvs := []r2.Vec{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
	for _, uv := range uvs {
		m.AddVert(tessel.VertexNode, r3.Vec{X: uv.X, Y: uv.Y, Z: 0}, uv)
	}
	m.AddTri([3]int{1, 2, 3}, [3]int{0, 2, 0})
	m.AddTri([3]int{1, 3, 4}, [3]int{0, 0, 1})
	m.NFrVrts = m.NVerts()
	m.NFrame = m.NTris()

	// Interior vertex, well inside triangle (1,2,3).
	m.AddVert(tessel.VertexFace, r3.Vec{X: 0.6, Y: 0.2, Z: 0}, r2.Vec{X: 0.6, Y: 0.2})
	return m
}

func sumTo1(w [3]float64) float64 { return w[0] + w[1] + w[2] }

func TestBaryFrameMapsFrameVerticesToThemselves(t *testing.T) {
	m := squareFrameMesh()
	fm, err := BaryFrame(m, nil)
	if err != nil {
		t.Fatalf("BaryFrame failed: %v", err)
	}
	for vi := 1; vi <= m.NFrVrts; vi++ {
		w := fm.Tri[vi]
		if math.Abs(sumTo1(w)-1) > 1e-9 {
			t.Fatalf("frame vertex %d weights do not sum to 1: %v", vi, w)
		}
		nonzero := 0
		for _, wi := range w {
			if wi != 0 {
				nonzero++
			}
		}
		if nonzero != 1 {
			t.Fatalf("frame vertex %d should have a single 1.0 weight, got %v", vi, w)
		}
	}
}

func TestBaryFrameLocatesInteriorVertex(t *testing.T) {
	m := squareFrameMesh()
	fm, err := BaryFrame(m, nil)
	if err != nil {
		t.Fatalf("BaryFrame failed: %v", err)
	}
	vi := m.NVerts()
	ti := fm.Idx[vi]
	if ti != 1 {
		t.Fatalf("expected interior vertex to land in frame triangle 1, got %d", ti)
	}
	w := fm.Tri[vi]
	if math.Abs(sumTo1(w)-1) > 1e-9 {
		t.Fatalf("weights do not sum to 1: %v", w)
	}
	for _, wi := range w {
		if wi < -1e-9 {
			t.Fatalf("expected all-nonnegative weights for a strictly interior point, got %v", w)
		}
	}
	// Reconstruct the UV location from the barycentric weights and
	// check it matches the original query point.
	a, b, c := m.TriUV(ti)
	got := r2.Vec{
		X: w[0]*a.X + w[1]*b.X + w[2]*c.X,
		Y: w[0]*a.Y + w[1]*b.Y + w[2]*c.Y,
	}
	want := m.UV(vi)
	if math.Abs(got.X-want.X) > 1e-9 || math.Abs(got.Y-want.Y) > 1e-9 {
		t.Fatalf("barycentric reconstruction mismatch: got %v want %v", got, want)
	}
}

func TestBaryFrameFallsBackOutsideFrame(t *testing.T) {
	m := squareFrameMesh()
	// Overwrite the extra vertex's UV to sit outside every frame
	// triangle, forcing the closest-inside-out fallback path.
	m.Verts[m.NVerts()].UV = r2.Vec{X: 5, Y: 5}
	fm, err := BaryFrame(m, nil)
	if err != nil {
		t.Fatalf("BaryFrame failed: %v", err)
	}
	ti := fm.Idx[m.NVerts()]
	if ti < 1 || ti > m.NFrame {
		t.Fatalf("expected a valid fallback frame triangle, got %d", ti)
	}
}

func TestBaryTessLocatesPointInRefinedMesh(t *testing.T) {
	m := squareFrameMesh()
	ti, w := BaryTess(m, r2.Vec{X: 0.25, Y: 0.25})
	if ti == 0 {
		t.Fatalf("expected BaryTess to find a containing triangle")
	}
	if math.Abs(sumTo1(w)-1) > 1e-9 {
		t.Fatalf("weights do not sum to 1: %v", w)
	}

	ti, _ = BaryTess(m, r2.Vec{X: 10, Y: 10})
	if ti != 0 {
		t.Fatalf("expected BaryTess to report no containing triangle outside the mesh, got %d", ti)
	}
}
