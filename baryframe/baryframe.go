// Package baryframe associates every non-frame vertex of a refined
// mesh with the frame triangle that contains it and its barycentric
// weights there, per spec.md §4.7. Downstream sensitivity code inverts
// this map to transport a UV displacement of a frame vertex to every
// refined vertex.
package baryframe

import (
	"fmt"
	"log/slog"

	"github.com/brepforge/tessel"
	"github.com/brepforge/tessel/predicate"
	"github.com/dhconnelly/rtreego"
	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r2"
)

// FrameMap is the result of BaryFrame: for every mesh vertex (1-based,
// slot 0 unused) the frame triangle index that contains it and its
// barycentric weights there. Frame vertices map to themselves with a
// single 1.0 weight at their own corner.
type FrameMap struct {
	Tri [][3]float64
	Idx []int
}

const rtreeDim = 2

// triBox adapts a frame triangle's UV bounding box to rtreego's
// Spatial interface, the same adapter shape the teacher uses for its
// kdtree.Bounder implementations in helpers/sdfexp.
type triBox struct {
	idx  int
	rect rtreego.Rect
}

func (t *triBox) Bounds() rtreego.Rect { return t.rect }

// triCentroid adapts a frame triangle's UV centroid to
// kdtree.Comparable, for the "closest inside-out" fallback scan. The
// shape here (a *triCentroid Comparable plus a centroidList
// Interface/kdPlane pair) mirrors the teacher's own meshTriangle /
// mesh / kdPlane trio in helpers/sdfexp/import.go almost exactly,
// substituted to 2-D UV centroids instead of 3-D triangle centroids.
type triCentroid struct {
	idx int
	uv  r2.Vec
}

func (c *triCentroid) Compare(cmp kdtree.Comparable, d kdtree.Dim) float64 {
	o := cmp.(*triCentroid)
	switch d {
	case 0:
		return c.uv.X - o.uv.X
	default:
		return c.uv.Y - o.uv.Y
	}
}
func (c *triCentroid) Dims() int { return 2 }
func (c *triCentroid) Distance(cmp kdtree.Comparable) float64 {
	o := cmp.(*triCentroid)
	dx, dy := c.uv.X-o.uv.X, c.uv.Y-o.uv.Y
	return dx*dx + dy*dy
}

type centroidList []triCentroid

func (l centroidList) Index(i int) kdtree.Comparable { return &l[i] }
func (l centroidList) Len() int                       { return len(l) }
func (l centroidList) Pivot(d kdtree.Dim) int {
	p := centroidPlane{dim: int(d), pts: l}
	return kdtree.Partition(p, kdtree.MedianOfMedians(p))
}
func (l centroidList) Slice(start, end int) kdtree.Interface { return l[start:end] }

type centroidPlane struct {
	dim int
	pts centroidList
}

func (p centroidPlane) Less(i, j int) bool {
	return p.pts[i].Compare(&p.pts[j], kdtree.Dim(p.dim)) < 0
}
func (p centroidPlane) Swap(i, j int)   { p.pts[i], p.pts[j] = p.pts[j], p.pts[i] }
func (p centroidPlane) Len() int        { return len(p.pts) }
func (p centroidPlane) Slice(start, end int) kdtree.SortSlicer {
	p.pts = p.pts[start:end]
	return p
}

// BaryFrame populates a FrameMap for every vertex in m, using an
// R-tree over the frame triangles' UV bounding boxes to narrow the
// candidate set before deciding containment with
// predicate.InTriExact, and a kdtree of frame-triangle UV centroids
// for the closest-inside-out fallback when no frame triangle contains
// a vertex exactly.
func BaryFrame(m *tessel.Mesh, logger *slog.Logger) (*FrameMap, error) {
	if logger == nil {
		logger = slog.Default()
	}
	rt := rtreego.NewTree(rtreeDim, 25, 50)
	centroids := make(centroidList, 0, m.NFrame)
	for ti := 1; ti <= m.NFrame; ti++ {
		a, b, c := m.TriUV(ti)
		lo := r2.Vec{X: min3(a.X, b.X, c.X), Y: min3(a.Y, b.Y, c.Y)}
		hi := r2.Vec{X: max3(a.X, b.X, c.X), Y: max3(a.Y, b.Y, c.Y)}
		size := [2]float64{hi.X - lo.X, hi.Y - lo.Y}
		if size[0] <= 0 {
			size[0] = 1e-12
		}
		if size[1] <= 0 {
			size[1] = 1e-12
		}
		rect, err := rtreego.NewRect([]float64{lo.X, lo.Y}, size[:])
		if err != nil {
			return nil, fmt.Errorf("baryframe: building R-tree rect for frame triangle %d: %w", ti, err)
		}
		rt.Insert(&triBox{idx: ti, rect: rect})
		cu := r2.Scale(1.0/3, r2.Add(r2.Add(a, b), c))
		centroids = append(centroids, triCentroid{idx: ti, uv: cu})
	}
	tree := kdtree.New(centroids, false)

	fm := &FrameMap{
		Tri: make([][3]float64, m.NVerts()+1),
		Idx: make([]int, m.NVerts()+1),
	}

	for vi := 1; vi <= m.NVerts(); vi++ {
		if vi <= m.NFrVrts {
			fm.Idx[vi] = frameTriOfFrameVert(m, vi)
			fm.Tri[vi] = weightsForFrameVert(m, fm.Idx[vi], vi)
			continue
		}
		uv := m.UV(vi)
		ti, w, found := locate(m, rt, uv)
		if !found {
			ti, w = closestInsideOut(m, tree, uv)
			logger.Warn("baryframe: no containing frame triangle, using closest inside-out", "vertex", vi, "tri", ti)
		}
		fm.Idx[vi] = ti
		fm.Tri[vi] = w
	}
	return fm, nil
}

func locate(m *tessel.Mesh, rt *rtreego.Rtree, uv r2.Vec) (int, [3]float64, bool) {
	pt := rtreego.Point{uv.X, uv.Y}
	results := rt.SearchIntersect(pointRect(pt))
	for _, res := range results {
		tb := res.(*triBox)
		a, b, c := m.TriUV(tb.idx)
		class, w := predicate.InTriExact(a, b, c, uv)
		if class == predicate.Inside {
			return tb.idx, w, true
		}
	}
	return 0, [3]float64{}, false
}

func pointRect(pt rtreego.Point) rtreego.Rect {
	size := make([]float64, len(pt))
	for i := range size {
		size[i] = 1e-12
	}
	rect, _ := rtreego.NewRect(pt, size)
	return rect
}

// closestInsideOut implements the "first containing triangle, else
// the triangle whose least barycentric weight is greatest" fallback
// of spec.md §4.7, scanning outward from the kdtree nearest-centroid
// match instead of linearly over every frame triangle.
func closestInsideOut(m *tessel.Mesh, tree *kdtree.Tree, uv r2.Vec) (int, [3]float64) {
	nearest, _ := tree.Nearest(&triCentroid{uv: uv})
	if nearest == nil {
		return 0, [3]float64{}
	}
	seed := nearest.(*triCentroid).idx

	bestLeast := -1.0
	bestTri := seed
	var bestW [3]float64
	visited := map[int]bool{}
	queue := []int{seed}
	for len(queue) > 0 && len(visited) < 64 {
		ti := queue[0]
		queue = queue[1:]
		if visited[ti] {
			continue
		}
		visited[ti] = true
		a, b, c := m.TriUV(ti)
		_, w := predicate.InTriExact(a, b, c, uv)
		least := minOf3(w[0], w[1], w[2])
		if least > bestLeast {
			bestLeast, bestTri, bestW = least, ti, w
		}
		tr := m.T(ti)
		for s := 0; s < 3; s++ {
			if n := tr.Neighbors[s]; n > 0 && n <= m.NFrame && !visited[n] {
				queue = append(queue, n)
			}
		}
	}
	return bestTri, bestW
}

func frameTriOfFrameVert(m *tessel.Mesh, vi int) int {
	for ti := 1; ti <= m.NFrame; ti++ {
		tr := m.T(ti)
		for _, idx := range tr.Indices {
			if idx == vi {
				return ti
			}
		}
	}
	return 0
}

func weightsForFrameVert(m *tessel.Mesh, ti, vi int) [3]float64 {
	if ti == 0 {
		return [3]float64{}
	}
	tr := m.T(ti)
	var w [3]float64
	for s, idx := range tr.Indices {
		if idx == vi {
			w[s] = 1
		}
	}
	return w
}

func min3(a, b, c float64) float64 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

func max3(a, b, c float64) float64 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}

func minOf3(a, b, c float64) float64 { return min3(a, b, c) }

// BaryTess locates uv in the refined (non-frame) mesh tess2d, mirroring
// spec.md §6's baryTess point query: it returns the containing
// triangle's 1-based index and barycentric weights there, or 0 if uv
// lies outside every triangle.
func BaryTess(tess2d *tessel.Mesh, uv r2.Vec) (triIndex int, w [3]float64) {
	for ti := 1; ti <= tess2d.NTris(); ti++ {
		a, b, c := tess2d.TriUV(ti)
		class, weights := predicate.InTriExact(a, b, c, uv)
		if class == predicate.Inside {
			return ti, weights
		}
	}
	return 0, [3]float64{}
}
