package tessel

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

// metrics holds the per-call derived tolerances computed once from the
// frame, per spec.md §4.6 step 1.
type metrics struct {
	voverU float64
	devia2 float64
	eps2   float64
	edist2 float64
}

// deriveMetrics evaluates the surface at every frame vertex, and from
// the accumulated derivative magnitudes and frame segment lengths
// derives the four scalars every later phase consults.
func deriveMetrics(m *Mesh, ev Evaluator, cfg *Config) (metrics, error) {
	var sumU, sumV float64
	var maxDevia2 float64
	n := 0

	for vi := 1; vi <= m.NVerts(); vi++ {
		v := m.V(vi)
		d, err := ev.Evaluate(cfg.Face, v.UV)
		if err != nil {
			continue // degenerate vertex; skip, don't fail metric derivation
		}
		sumU += r3.Norm(d.DXDU)
		sumV += r3.Norm(d.DXDV)
		n++
		off := r3.Norm2(r3.Sub(v.XYZ, d.XYZ))
		if off > maxDevia2 {
			maxDevia2 = off
		}
	}

	voverU := 1.0
	if sumU > 0 {
		voverU = sumV / sumU
	}

	segLen2 := make([]float64, 0, len(m.Segs))
	for _, seg := range m.Segs {
		segLen2 = append(segLen2, r3.Norm2(r3.Sub(m.XYZ(seg.I1), m.XYZ(seg.I2))))
	}

	var minLen2, eps2, edist2 float64
	if len(segLen2) > 0 {
		minLen2 = floats.Min(segLen2)
		eps2 = minLen2 / 4
		var sumLen float64
		for _, l2 := range segLen2 {
			sumLen += math.Sqrt(l2)
		}
		mean := sumLen / float64(len(segLen2))
		edist2 = mean * mean
	}

	if cfg.Minlen > 0 {
		floor := cfg.Minlen * cfg.Minlen
		if eps2 < floor {
			eps2 = floor
		}
	}

	return metrics{voverU: voverU, devia2: maxDevia2, eps2: eps2, edist2: edist2}, nil
}

// Stats reports refinement-loop counters for diagnostics and tests.
type Stats struct {
	Splits   int
	Swaps    int
	Collapse int
	OrFaults int
	Phases   []string
}

func (s *Stats) logPhase(name string) { s.Phases = append(s.Phases, name) }
