package tessel

import (
	"log/slog"
	"math"

	"github.com/brepforge/tessel/predicate"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// phaseCtx bundles the per-call state every phase function needs: the
// mesh, evaluator, config, derived metrics, the shared orientation
// fault counter, and a logger gated by outLevel.
//
// egSplit counts splits made by breakTri across both its Phase A and
// Phase C invocations within this call. spec.md §9 notes the original
// source shares this counter by pointer across both phase calls but
// never clarifies its reset point; since a fresh phaseCtx is built at
// the top of every Tessellate call, egSplit is implicitly local to one
// call and shared only across that call's Phase A/C invocations, which
// is the reading spec.md §9 recommends.
type phaseCtx struct {
	m        *Mesh
	ev       Evaluator
	cfg      *Config
	met      metrics
	orCnt    int
	egSplit  int
	outLevel int
	log      *slog.Logger
	stats    *Stats
	normals  []r3.Vec // per-vertex unit average of facet normals, Phases X and B
}

func (pc *phaseCtx) logPhase(name string) {
	pc.stats.logPhase(name)
	if pc.outLevel >= 2 {
		pc.log.Info("phase", "name", name, "nverts", pc.m.NVerts(), "ntris", pc.m.NTris())
	}
}

// zeroAreaSweep implements spec.md §4.6 step 2: collapse the
// degenerate side of every frame triangle whose 3-D cross product is
// zero and whose degenerate side joins two edge-or-node vertices
// sharing the same frame site.
func zeroAreaSweep(pc *phaseCtx) {
	m := pc.m
	for ti := 1; ti <= m.NTris(); ti++ {
		tr := m.T(ti)
		p0, p1, p2 := m.XYZ(tr.Indices[0]), m.XYZ(tr.Indices[1]), m.XYZ(tr.Indices[2])
		n := r3.Cross(r3.Sub(p1, p0), r3.Sub(p2, p0))
		if r3.Norm2(n) != 0 {
			continue
		}
		for s := 0; s < 3; s++ {
			a, b := tr.SideVerts(s)
			va, vb := m.V(a), m.V(b)
			if va.Kind == VertexFace || vb.Kind == VertexFace {
				continue
			}
			if sameFrameSite(va, vb) {
				if collapseEdge(m, a, b, 1) {
					pc.stats.Collapse++
				}
				break
			}
		}
	}
}

// initialMarkSeed implements spec.md §4.6 step 6: mark every interior
// edge as a swap candidate if checkOr approves and area-sign is
// consistent, and report whether more than one frame triangle has the
// wrong UV-area sign (badStart).
func initialMarkSeed(pc *phaseCtx) (badWrong int) {
	m := pc.m
	for ti := 1; ti <= m.NTris(); ti++ {
		a, b, c := m.TriUV(ti)
		if m.OrUV*predicate.Area2D(a, b, c) <= 0 {
			badWrong++
		}
		recomputeMark(m, ti)
	}
	return badWrong
}

// phaseX is the inter-edge split phase: for each triangle's longest
// interior side whose two endpoints' averaged facet normals (see
// refreshNormals) have dot < -1e-5,
// side-split it; after each batch re-run angUVTest then diagTest
// swaps.
func phaseX(pc *phaseCtx, ts *testState) {
	pc.logPhase("X")
	m := pc.m
	pc.refreshNormals()
	splitAny := true
	for splitAny {
		splitAny = false
		for ti := 1; ti <= m.NTris(); ti++ {
			if ti > m.NTris() {
				break
			}
			tr := m.T(ti)
			longest, ls := -1.0, -1
			for s := 0; s < 3; s++ {
				nbr := tr.Neighbors[s]
				if nbr <= 0 {
					continue
				}
				a, b := tr.SideVerts(s)
				if r3.Dot(pc.normalOf(a), pc.normalOf(b)) >= -1e-5 {
					continue
				}
				l2 := r3.Norm2(r3.Sub(m.XYZ(a), m.XYZ(b)))
				if l2 > longest {
					longest, ls = l2, s
				}
			}
			if ls < 0 {
				continue
			}
			nbr := tr.Neighbors[ls]
			if _, res := splitSide(m, pc.ev, pc.cfg, ti, ls, nbr, false); res == splitDone {
				pc.stats.Splits++
				splitAny = true
				pc.refreshNormals()
			}
		}
		if splitAny {
			swapTris(m, ts, angUVTest, pc.stats)
			swapTris(m, ts, diagTest, pc.stats)
		}
	}
}

func (pc *phaseCtx) refreshNormals() {
	m := pc.m
	pc.normals = make([]r3.Vec, m.NVerts()+1)
	counts := make([]int, m.NVerts()+1)
	for ti := 1; ti <= m.NTris(); ti++ {
		tr := m.T(ti)
		p0, p1, p2 := m.XYZ(tr.Indices[0]), m.XYZ(tr.Indices[1]), m.XYZ(tr.Indices[2])
		n := r3.Cross(r3.Sub(p1, p0), r3.Sub(p2, p0))
		if r3.Norm(n) == 0 {
			continue
		}
		n = r3.Unit(n)
		for _, idx := range tr.Indices {
			pc.normals[idx] = r3.Add(pc.normals[idx], n)
			counts[idx]++
		}
	}
	for i := range pc.normals {
		if counts[i] > 0 && r3.Norm(pc.normals[i]) > 0 {
			pc.normals[i] = r3.Unit(pc.normals[i])
		}
	}
}

func (pc *phaseCtx) normalOf(i int) r3.Vec {
	if i < len(pc.normals) {
		return pc.normals[i]
	}
	return r3.Vec{}
}

// phaseSplitLong implements Phase 0 and Phase D: iteratively split the
// longest side exceeding the threshold max(4*maxlen^2, devia2, eps2)
// (Phase 0) or the tighter maxlen^2 (Phase D), alternating with
// UV-angle and diagonal swaps, until no splits occur, maxPts is hit,
// or UV-angles exceed MaxAng with accum negative.
func phaseSplitLong(pc *phaseCtx, ts *testState, name string, threshold2 func() float64) {
	pc.logPhase(name)
	m := pc.m
	if pc.cfg.Maxlen <= 0 {
		return
	}
	cap := pc.cfg.vertCap(m.NFrVrts)
	for {
		if m.NVerts() >= cap {
			break
		}
		longest, bestT, bestS := -1.0, -1, -1
		thr := threshold2()
		for ti := 1; ti <= m.NTris(); ti++ {
			tr := m.T(ti)
			for s := 0; s < 3; s++ {
				if tr.Neighbors[s] <= 0 {
					continue
				}
				a, b := tr.SideVerts(s)
				l2 := r3.Norm2(r3.Sub(m.XYZ(a), m.XYZ(b)))
				if l2 > thr && l2 > longest {
					longest, bestT, bestS = l2, ti, s
				}
			}
		}
		if bestT < 0 {
			break
		}
		nbr := m.T(bestT).Neighbors[bestS]
		if _, res := splitSide(m, pc.ev, pc.cfg, bestT, bestS, nbr, true); res != splitDone {
			break
		}
		pc.stats.Splits++
		swapTris(m, ts, angUVTest, pc.stats)
		swapTris(m, ts, diagTest, pc.stats)
		if ts.accum < 0 {
			worst := 0.0
			for ti := 1; ti <= m.NTris(); ti++ {
				a, b, c := m.TriUV(ti)
				worst = math.Max(worst, predicate.MaxUVangle(a, b, c, ts.voverU))
			}
			if worst > MaxAng {
				break
			}
		}
	}
}

// closeToEdge is the depth-bounded flood search spec.md §9 calls
// recCloseEdge/recClose2Edge: it reports whether triangle t's
// centroid lies within 4 neighbour hops of a boundary segment.
func closeToEdge(m *Mesh, t, depth int, visited map[int]bool) bool {
	if depth <= 0 || visited[t] {
		return false
	}
	visited[t] = true
	tr := m.T(t)
	for s := 0; s < 3; s++ {
		if tr.Neighbors[s] <= 0 {
			return true
		}
	}
	for s := 0; s < 3; s++ {
		if closeToEdge(m, tr.Neighbors[s], depth-1, visited) {
			return true
		}
	}
	return false
}

// floodHit marks a depth-6 neighbourhood around t with Hit=1 so the
// first round of the swapTris calls that follow a split skips it; those
// swapTris calls clear every Hit flag when they return.
func floodHit(m *Mesh, t, depth int) {
	if depth <= 0 {
		return
	}
	tr := m.T(t)
	if tr.Hit != 0 {
		return
	}
	tr.Hit = 1
	for s := 0; s < 3; s++ {
		if tr.Neighbors[s] > 0 {
			floodHit(m, tr.Neighbors[s], depth-1)
		}
	}
}

// breakTriMode selects Phase A (-1, pure area eligibility) versus
// Phase C (0, cache-miss eligibility) semantics for breakTri.
type breakTriMode int

const (
	breakTriArea  breakTriMode = -1
	breakTriCache breakTriMode = 0
)

// breakTri implements Phases A and C: find the largest eligible
// triangle, evaluate its UV-centroid on the surface, validate it, and
// split if valid. Eligibility and the validation fuzz differ by mode
// per spec.md §4.6.
func breakTri(pc *phaseCtx, ts *testState, mode breakTriMode, cache *midpointCache) bool {
	m := pc.m
	bestArea, bestT := -1.0, -1
	for ti := 1; ti <= m.NTris(); ti++ {
		tr := m.T(ti)
		if tr.Hit != 0 {
			continue
		}
		if !eligibleForBreak(m, ti, mode, cache) {
			continue
		}
		p0, p1, p2 := m.TriXYZ(ti)
		area2 := r3.Norm2(r3.Cross(r3.Sub(p1, p0), r3.Sub(p2, p0)))
		if area2 > bestArea {
			bestArea, bestT = area2, ti
		}
	}
	if bestT < 0 {
		return false
	}
	if m.NVerts() >= pc.cfg.vertCap(m.NFrVrts) {
		return false
	}

	uvA, uvB, uvC := m.TriUV(bestT)
	centroidUV := r2.Scale(1.0/3, r2.Add(r2.Add(uvA, uvB), uvC))
	d, err := pc.ev.Evaluate(pc.cfg.Face, centroidUV)
	if err != nil {
		pc.log.Debug("breakTri: evaluator error, rejecting", "tri", bestT, "err", err)
		m.T(bestT).Hit = 1
		return false
	}

	fuzz := 0.0001
	if mode == breakTriCache {
		fuzz = 0.1
	}
	ok, _ := predicate.InTri(m.XYZ(m.T(bestT).Indices[0]), m.XYZ(m.T(bestT).Indices[1]), m.XYZ(m.T(bestT).Indices[2]), d.XYZ, fuzz)
	if !ok {
		m.T(bestT).Hit = 1
		return false
	}

	p0, p1, p2 := m.TriXYZ(bestT)
	if predicate.DotNorm(d.XYZ, p0, p1, p2) <= -0.98 {
		m.T(bestT).Hit = 1
		return false
	}
	if closeToEdge(m, bestT, 4, map[int]bool{}) {
		m.T(bestT).Hit = 1
		return false
	}

	if cache != nil {
		tr := m.T(bestT)
		cache.remove(tr.Indices[0], tr.Indices[1], tr.Indices[2])
	}
	splitTriangle(m, bestT, d.XYZ, centroidUV)
	pc.stats.Splits++
	pc.egSplit++
	floodHit(m, bestT, FloodDepth)
	swapTris(m, ts, angUVTest, pc.stats)
	swapTris(m, ts, diagTest, pc.stats)
	return true
}

// eligibleForBreak implements the shared Phase A/C candidate filter:
// maximum UV angle (with voverU 1) <= CutAng, more than one interior
// side, and a minimum DotNorm to the neighbours <= -0.9. Phase C
// additionally requires a midpoint-cache miss for this triangle's
// vertex triple. It does not check the triangle's area, a
// flipped-area ratio, or side lengths.
func eligibleForBreak(m *Mesh, t int, mode breakTriMode, cache *midpointCache) bool {
	tr := m.T(t)
	a, b, c := m.TriUV(t)
	if predicate.MaxUVangle(a, b, c, 1.0) > CutAng {
		return false
	}
	interiorSides := 0
	minDot := 1.0
	for s := 0; s < 3; s++ {
		if tr.Neighbors[s] > 0 {
			interiorSides++
			p0, p1, _ := m.TriXYZ(t)
			q0, q1, q2 := m.TriXYZ(tr.Neighbors[s])
			dot := predicate.DotNorm(p0, q0, p1, q1)
			_ = q2
			if dot < minDot {
				minDot = dot
			}
		}
	}
	if interiorSides <= 1 {
		return false
	}
	if minDot > -0.9 {
		return false
	}
	if mode == breakTriCache {
		if _, _, ok := cache.find(tr.Indices[0], tr.Indices[1], tr.Indices[2]); ok {
			return false
		}
	}
	return true
}

// splitInter implements Phase B: for each triangle, pick its longest
// interior side whose two endpoints both lie on the face interior (or
// have opposite normals), side-split it, and swap. Capped at 3x the
// initial triangle count.
func splitInter(pc *phaseCtx, ts *testState, initialTris int) {
	pc.logPhase("B")
	m := pc.m
	cap := 3 * initialTris
	splits := 0
	for ti := 1; ti <= m.NTris() && splits < cap; ti++ {
		tr := m.T(ti)
		longest, ls := -1.0, -1
		for s := 0; s < 3; s++ {
			nbr := tr.Neighbors[s]
			if nbr <= 0 {
				continue
			}
			a, b := tr.SideVerts(s)
			va, vb := m.V(a), m.V(b)
			interiorBoth := va.Kind == VertexFace && vb.Kind == VertexFace
			oppositeNormals := r3.Dot(pc.normalOf(a), pc.normalOf(b)) < 0
			if !interiorBoth && !oppositeNormals {
				continue
			}
			l2 := r3.Norm2(r3.Sub(m.XYZ(a), m.XYZ(b)))
			if l2 > longest {
				longest, ls = l2, s
			}
		}
		if ls < 0 {
			continue
		}
		nbr := tr.Neighbors[ls]
		if _, res := splitSide(m, pc.ev, pc.cfg, ti, ls, nbr, false); res == splitDone {
			pc.stats.Splits++
			splits++
		}
	}
	swapTris(m, ts, angUVTest, pc.stats)
	swapTris(m, ts, diagTest, pc.stats)
}

// addFacetNorm implements Phase 1: split any triangle whose minimum
// dihedral dot to a neighbour is below dotnrm-AngTol, inserting at its
// surface-evaluated UV-centroid. It looks the vertex triple up in cache
// first, but nothing in this package adds cache entries, so the lookup
// always misses. Stops when splits
// stop improving accum for six consecutive rounds or maxPts is hit.
func addFacetNorm(pc *phaseCtx, ts *testState, cache *midpointCache) {
	pc.logPhase("1")
	m := pc.m
	cap := pc.cfg.vertCap(m.NFrVrts)
	stale := 0
	lastAccum := math.Inf(-1)
	for stale < 6 {
		if m.NVerts() >= cap {
			break
		}
		worstDot, bestT := 1.0, -1
		for ti := 1; ti <= m.NTris(); ti++ {
			tr := m.T(ti)
			p0, p1, p2 := m.TriXYZ(ti)
			for s := 0; s < 3; s++ {
				nbr := tr.Neighbors[s]
				if nbr <= 0 {
					continue
				}
				q0, q1, q2 := m.TriXYZ(nbr)
				dot := predicate.DotNorm(p0, q0, p1, q1)
				_, _ = p2, q2
				if dot < pc.cfg.Dotnrm-AngTol && dot < worstDot {
					worstDot, bestT = dot, ti
				}
			}
		}
		if bestT < 0 {
			break
		}
		tr := m.T(bestT)
		var xyz r3.Vec
		if cl, cached, ok := cache.find(tr.Indices[0], tr.Indices[1], tr.Indices[2]); ok {
			xyz = cached
			_ = cl
		} else {
			a, b, c := m.TriUV(bestT)
			centroidUV := r2.Scale(1.0/3, r2.Add(r2.Add(a, b), c))
			d, err := pc.ev.Evaluate(pc.cfg.Face, centroidUV)
			if err != nil {
				m.T(bestT).Hit = 1
				continue
			}
			xyz = d.XYZ
		}
		a, b, c := m.TriUV(bestT)
		centroidUV := r2.Scale(1.0/3, r2.Add(r2.Add(a, b), c))
		cache.remove(tr.Indices[0], tr.Indices[1], tr.Indices[2])
		splitTriangle(m, bestT, xyz, centroidUV)
		pc.stats.Splits++

		swapTris(m, ts, angUVTest, pc.stats)
		swapTris(m, ts, diagTest, pc.stats)

		if ts.accum <= lastAccum+AngTol {
			stale++
		} else {
			stale = 0
		}
		lastAccum = ts.accum
	}
}

// addFacetDist implements Phase 2: split a triangle if the squared
// distance between its arithmetic-mean centroid and its
// surface-evaluated centroid exceeds max(chord^2, devia2), subject to
// the UV-angle, containment, side-normal and already-short-side
// rejections of spec.md §4.6.
func addFacetDist(pc *phaseCtx, ts *testState) {
	pc.logPhase("2")
	m := pc.m
	if pc.cfg.Chord <= 0 {
		return
	}
	chord2 := math.Max(pc.cfg.Chord*pc.cfg.Chord, pc.met.devia2)
	cap := pc.cfg.vertCap(m.NFrVrts)
	for {
		if m.NVerts() >= cap {
			break
		}
		worst, bestT := chord2, -1
		var bestCentroid3, bestCentroidSurf r3.Vec
		var bestUV r2.Vec
		for ti := 1; ti <= m.NTris(); ti++ {
			tr := m.T(ti)
			a, b, c := m.TriUV(ti)
			if predicate.MaxUVangle(a, b, c, ts.voverU) > DevAng {
				continue
			}
			p0, p1, p2 := m.TriXYZ(ti)
			centroid3 := r3.Scale(1.0/3, r3.Add(r3.Add(p0, p1), p2))
			centroidUV := r2.Scale(1.0/3, r2.Add(r2.Add(a, b), c))
			d, err := pc.ev.Evaluate(pc.cfg.Face, centroidUV)
			if err != nil {
				continue
			}
			dist2 := r3.Norm2(r3.Sub(centroid3, d.XYZ))
			if dist2 <= worst {
				continue
			}
			ok, _ := predicate.InTri(p0, p1, p2, d.XYZ, 0.1)
			if !ok {
				continue
			}
			badSide := false
			for s := 0; s < 3; s++ {
				nbr := tr.Neighbors[s]
				if nbr <= 0 {
					continue
				}
				q0, q1, q2 := m.TriXYZ(nbr)
				if predicate.DotNorm(p0, q0, p1, q1) < 0 {
					badSide = true
				}
				_ = q2
			}
			if badSide {
				continue
			}
			shortSide := false
			for s := 0; s < 3; s++ {
				v0, v1 := tr.SideVerts(s)
				if r3.Norm2(r3.Sub(m.XYZ(v0), m.XYZ(v1))) <= chord2 {
					shortSide = true
					break
				}
			}
			if shortSide {
				continue
			}
			worst, bestT = dist2, ti
			bestCentroid3, bestCentroidSurf, bestUV = centroid3, d.XYZ, centroidUV
		}
		if bestT < 0 {
			break
		}
		_ = bestCentroid3
		splitTriangle(m, bestT, bestCentroidSurf, bestUV)
		pc.stats.Splits++
	}
}

// finalCleanup implements Phase 3: one UV-angle swap pass and one
// diagonal pass; an additional XYZ-angle pass when planar.
func finalCleanup(pc *phaseCtx, ts *testState) {
	pc.logPhase("3")
	m := pc.m
	swapTris(m, ts, angUVTest, pc.stats)
	swapTris(m, ts, diagTest, pc.stats)
	if ts.planar {
		swapTris(m, ts, angXYZTest, pc.stats)
	}
}
