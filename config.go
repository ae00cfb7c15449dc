package tessel

import (
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Tolerance and schedule constants, bound as immutable package-level
// constants rather than mutable globals (see DESIGN.md on the
// "Global mutable state" design note).
const (
	// AngTol is the minimum quality improvement a swap must deliver to
	// be taken; below this the swap is considered a no-op.
	AngTol = 1e-6
	// MaxAng is the largest tolerated UV interior angle, in radians.
	MaxAng = 3.13
	// CutAng is the UV-angle eligibility ceiling for breakTri candidates.
	CutAng = 3.10
	// DevAng is the UV-angle eligibility ceiling for chord-height splits.
	DevAng = 2.65
	// MaxOrCnt is the orientation-fault limit: Tessellate stops its
	// Phase A and C loops once phaseCtx.orCnt reaches it. checkOr's
	// rejections are counted in a local that recomputeMark discards, so
	// phaseCtx.orCnt stays 0 and the limit is never reached.
	MaxOrCnt = 500
	// FloodDepth is the neighbourhood radius flooded with a hit mark
	// after a breakTri split to suppress immediate re-visitation.
	FloodDepth = 6
)

// VertexKind classifies where a Vertex sits on the face.
type VertexKind uint8

const (
	// VertexNode is a B-rep node (corner) vertex.
	VertexNode VertexKind = iota
	// VertexEdge is an interior point of a bounding edge discretization.
	VertexEdge
	// VertexFace is an interior point of the face, inserted by refinement.
	VertexFace
)

// FaceHandle identifies a face to the surrounding geometry kernel; the
// engine itself never interprets it beyond passing it to an Evaluator.
type FaceHandle int

// Derivatives is the result of evaluating the parametric surface at a
// UV point: position and first partial derivatives. It has no fields
// for second derivatives.
type Derivatives struct {
	XYZ  r3.Vec
	DXDU r3.Vec
	DXDV r3.Vec
}

// Evaluator is the geometry kernel's surface-evaluation contract. All
// three methods are synchronous; the engine never suspends mid-call.
type Evaluator interface {
	// Evaluate returns the surface position and first derivatives at uv.
	Evaluate(face FaceHandle, uv r2.Vec) (Derivatives, error)
	// InvEvaluate inverse-evaluates xyz onto the surface, returning the
	// UV location and the corresponding on-surface point (which may
	// differ slightly from xyz if xyz was off-surface).
	InvEvaluate(face FaceHandle, xyz r3.Vec) (uv r2.Vec, onSurface r3.Vec, err error)
	// Range returns the face's parametric domain and whether it is
	// periodic in either direction.
	Range(face FaceHandle) (umin, umax, vmin, vmax float64, periodic bool, err error)
}

// Quadder is consulted once, at the "optional quad path" step, if the
// caller supplied a quad UV grid. The core never generates quads
// itself (Non-goal); it only validates and optionally accepts a
// caller-supplied quad triangulation.
type Quadder interface {
	Quad(qparm [3]float64, uvs []r2.Vec, lens [4]int) (verts []r2.Vec, tris [][3]int, err error)
}

// Status is the outcome of a Tessellate call.
type Status int

const (
	// StatusOK means the mesh satisfies the configured tolerances, or
	// refinement terminated gracefully at a resource cap.
	StatusOK Status = iota
	// StatusDegenerate means the frame itself was too degenerate to
	// refine (e.g. more than one mis-oriented triangle on a small or
	// planar mesh); the mesh is returned unmodified.
	StatusDegenerate
)

// Config holds the per-face parameters that drive Tessellate. Field
// names and semantics follow spec.md §6's enumeration.
type Config struct {
	Face   FaceHandle
	FIndex int

	// Planar, when true, restricts the schedule to the XYZ-swap phase
	// plus an optional edge-length enforcement pass.
	Planar bool
	// OrUV is the per-face UV-orientation reference; every triangle's
	// signed UV area must share this sign.
	OrUV float64
	// Dotnrm is the minimum acceptable dihedral dot between adjacent
	// triangle normals.
	Dotnrm float64
	// Maxlen, Minlen bound triangle side length; Maxlen <= 0 disables
	// the corresponding split phases.
	Maxlen, Minlen float64
	// Chord is the chord-height tolerance; Chord <= 0 disables Phase 2.
	Chord float64
	// MaxPts bounds the number of vertices the engine may add: a
	// positive value is an absolute cap, a negative value is an
	// increment over the frame vertex count.
	MaxPts int

	// Qparm, UVs, Lens are quadder hints/inputs, consumed only by the
	// optional quad path at step 5 of Tessellate.
	Qparm [3]float64
	UVs   []r2.Vec
	Lens  [4]int

	// Quad, when non-nil, is invoked at the optional quad path step.
	Quad Quadder
}

// vertCap returns the absolute vertex budget given the frame size.
func (c *Config) vertCap(nfrvrts int) int {
	if c.MaxPts > 0 {
		return c.MaxPts
	}
	if c.MaxPts < 0 {
		return nfrvrts - c.MaxPts
	}
	return 1 << 30
}
