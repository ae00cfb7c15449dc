// Package tessel implements an adaptive surface-triangulation
// refinement engine for a parametric face of a boundary-representation
// model. Given an initial frame triangulation and an Evaluator callback
// for the underlying surface, Tessellate refines the mesh by edge
// swaps, vertex insertions and edge collapses until the triangulation
// meets the configured dihedral, chord-height, maximum-edge and
// minimum-edge tolerances.
//
// The package is organised the way the refinement loop itself is:
// mesh.go holds the arena-indexed vertex/triangle/segment store,
// midpointcache.go a transient memoisation table for surface-evaluated
// centroids, swap.go/split.go/collapse.go the three topology edits, and
// quality.go the tests that decide whether an edit helps. phases.go and
// tessellate.go wire those into the fixed phase schedule described by
// Tessellate's doc comment.
package tessel
