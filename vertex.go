package tessel

import (
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Vertex is one point of the mesh, carrying both its 3-space position
// and its parameter-space coordinate. UV and XYZ are consistent up to
// the evaluator's tolerance at insertion time; they may only drift
// across an explicit re-evaluation.
type Vertex struct {
	XYZ r3.Vec
	UV  r2.Vec

	Kind VertexKind

	// PEdge/POrd are valid when Kind == VertexEdge: the owning edge
	// index and the discretisation ordinal on that edge.
	PEdge, POrd int
	// PNode is valid when Kind == VertexNode: the node index. A
	// negative value marks a degenerate node (a side split touching one
	// inverse-evaluates the XYZ midpoint and falls back to the UV
	// midpoint only when that result is invalid).
	PNode int
}

// Degenerate reports whether this is a degenerate node vertex, per
// spec.md §3's negative-sentinel convention.
func (v *Vertex) Degenerate() bool {
	return v.Kind == VertexNode && v.PNode < 0
}

// sameFrameSite reports whether v and o are both edge-or-node vertices
// sharing the same (kind, edge-or-node index). Used by the zero-area
// sweep to find the collapsible side of a degenerate frame triangle.
func sameFrameSite(v, o *Vertex) bool {
	if v.Kind == VertexNode && o.Kind == VertexNode {
		return v.PNode == o.PNode
	}
	if v.Kind == VertexEdge && o.Kind == VertexEdge {
		return v.PEdge == o.PEdge
	}
	return false
}
