package tessel

import (
	"log/slog"
	"os"

	"github.com/brepforge/tessel/predicate"
)

// Tessellate refines ts (an in/out mesh holding the initial frame
// triangulation) against cfg's tolerances using ev for surface
// evaluation, following the fixed phase schedule of spec.md §4.6:
//
//  1. metric derivation, 2. zero-area sweep, 3. initial area-swap,
//     4. frame capture, 5. optional quad path, 6. initial mark seeding,
//     7. {X,0,A,B,C,D,1,2,3} if non-planar, or
//     {XYZ-swap, optional D, 3} if planar.
//
// outLevel gates diagnostic logging: 0 is silent, >=1 surfaces
// degenerate-input warnings, >=2 additionally logs one line per phase
// transition with running vertex/triangle counts.
func Tessellate(outLevel int, ts *Mesh, ev Evaluator, cfg *Config) (Status, *Stats, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(outLevel),
	}))
	stats := &Stats{}
	pc := &phaseCtx{m: ts, ev: ev, cfg: cfg, outLevel: outLevel, log: logger, stats: stats}

	// Step 1: metric derivation.
	met, err := deriveMetrics(ts, ev, cfg)
	if err != nil {
		return StatusDegenerate, stats, wrapErr("Tessellate", 0, err)
	}
	pc.met = met

	testSt := &testState{cfg: cfg, voverU: met.voverU, planar: cfg.Planar}

	// Step 2: zero-area sweep.
	zeroAreaSweep(pc)

	// Step 3: initial area-swap.
	swapTris(ts, testSt, areaTest, stats)

	// Step 4: frame capture.
	ts.NFrVrts = ts.NVerts()
	ts.NFrame = ts.NTris()

	// Step 5: optional quad path.
	if cfg.Quad != nil && len(cfg.UVs) > 0 {
		if ok := tryQuadPath(pc); ok {
			pc.logPhase("quad")
		}
	}

	// Step 6: initial mark seeding.
	badWrong := initialMarkSeed(pc)
	badStart := badWrong > 0
	if badWrong > 1 && (ts.NTris() < 16 || cfg.Planar) {
		if outLevel >= 1 {
			logger.Warn("tessellate: returning early, degenerate frame", "badTriangles", badWrong)
		}
		return StatusDegenerate, stats, nil
	}

	if cfg.Planar {
		// Planar schedule: XYZ-swap, optional length enforcement.
		swapTris(ts, testSt, angXYZTest, stats)
		if cfg.Maxlen > 0 {
			phaseSplitLong(pc, testSt, "D", func() float64 { return cfg.Maxlen * cfg.Maxlen })
		}
		finalCleanup(pc, testSt)
		return StatusOK, stats, nil
	}

	if badStart {
		// Inverted frame triangles on a non-planar mesh that passed the
		// early return above (one, or several on 16 or more triangles):
		// per spec.md scenario 5 semantics applied generally, fall back
		// to the XYZ-swap-only schedule rather than risking thrash in
		// the later phases.
		swapTris(ts, testSt, angXYZTest, stats)
		return StatusOK, stats, nil
	}

	initialTris := ts.NTris()

	phaseX(pc, testSt)

	if cfg.Maxlen > 0 {
		phaseSplitLong(pc, testSt, "0", func() float64 {
			l := cfg.Maxlen * cfg.Maxlen
			return max3(4*l, pc.met.devia2, pc.met.eps2)
		})
	}

	cacheA := newMidpointCache(ts.NTris() * 2)
	for i := 0; i < 100_000; i++ {
		if pc.orCnt >= MaxOrCnt {
			break
		}
		if !breakTri(pc, testSt, breakTriArea, cacheA) {
			break
		}
		if testSt.accum > 0.866 || testSt.accum <= -1.0 {
			break
		}
	}
	pc.logPhase("A")

	splitInter(pc, testSt, initialTris)

	cacheC := newMidpointCache(ts.NTris() * 2)
	for i := 0; i < 100_000; i++ {
		if pc.orCnt >= MaxOrCnt {
			break
		}
		if !breakTri(pc, testSt, breakTriCache, cacheC) {
			break
		}
	}
	pc.logPhase("C")

	if cfg.Maxlen > 0 {
		phaseSplitLong(pc, testSt, "D", func() float64 { return cfg.Maxlen * cfg.Maxlen })
	}

	addFacetNorm(pc, testSt, newMidpointCache(ts.NTris()*2))
	addFacetDist(pc, testSt)
	finalCleanup(pc, testSt)

	if outLevel >= 1 && pc.orCnt >= MaxOrCnt {
		logger.Warn("tessellate: orientation-fault circuit breaker tripped", "orCnt", pc.orCnt)
	}
	return StatusOK, stats, nil
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

func logLevel(outLevel int) slog.Level {
	switch {
	case outLevel >= 2:
		return slog.LevelDebug
	case outLevel >= 1:
		return slog.LevelWarn
	default:
		return slog.LevelError + 4 // effectively silent
	}
}

// tryQuadPath invokes the caller-supplied Quadder, and if the result
// passes a per-triangle normal-consistency check, replaces the mesh
// contents with it. Otherwise the mesh is left untouched (the "revert
// to saved frame" of spec.md §4.6 step 5 is a no-op here because the
// quad attempt never mutates ts directly).
func tryQuadPath(pc *phaseCtx) bool {
	m := pc.m
	verts, tris, err := pc.cfg.Quad.Quad(pc.cfg.Qparm, pc.cfg.UVs, pc.cfg.Lens)
	if err != nil || len(tris) == 0 {
		return false
	}

	trial := NewMesh(pc.cfg, pc.ev)
	trial.OrUV = m.OrUV
	for _, uv := range verts {
		d, everr := pc.ev.Evaluate(pc.cfg.Face, uv)
		if everr != nil {
			return false
		}
		trial.AddFaceVert(d.XYZ, uv)
	}
	for _, idx := range tris {
		trial.AddTri([3]int{idx[0], idx[1], idx[2]}, [3]int{0, 0, 0})
	}
	trial.BuildNeighbors()

	for ti := 1; ti <= trial.NTris(); ti++ {
		tr := trial.T(ti)
		for s := 0; s < 3; s++ {
			nbr := tr.Neighbors[s]
			if nbr <= 0 {
				continue
			}
			p0, p1, p2 := trial.TriXYZ(ti)
			q0, q1, q2 := trial.TriXYZ(nbr)
			if predicate.DotNorm(p0, q0, p1, q1) < 0 {
				return false
			}
			_, _ = p2, q2
		}
	}

	*m = *trial
	return true
}
