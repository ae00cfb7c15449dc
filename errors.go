package tessel

import "fmt"

// Sentinel errors returned by Tessellate and its helpers. Callers should
// use errors.Is against these rather than comparing *MeshError directly,
// since every returned error is wrapped with positional context.
var (
	// ErrMalloc signals an allocation limit. No function in this
	// package returns it.
	ErrMalloc = fmt.Errorf("tessel: allocation limit reached")
	// ErrDegen signals a degenerate frame triangle (zero UV or XYZ area)
	// that the engine cannot refine.
	ErrDegen = fmt.Errorf("tessel: degenerate triangle")
	// ErrRangeErr signals a UV coordinate produced by the evaluator fell
	// outside the face's parametric range.
	ErrRangeErr = fmt.Errorf("tessel: point outside parametric range")
	// ErrIndexErr signals an internal topology inconsistency (bad vertex
	// or neighbor index); this indicates a bug in the engine, not bad
	// input.
	ErrIndexErr = fmt.Errorf("tessel: inconsistent mesh index")
	// ErrExtrapol signals the evaluator's inverse-evaluation fallback had
	// to extrapolate beyond the face boundary to place a midpoint.
	ErrExtrapol = fmt.Errorf("tessel: extrapolation during inverse evaluation")
	// ErrNotFound signals a barycentric query point could not be located
	// inside any frame triangle within tolerance.
	ErrNotFound = fmt.Errorf("tessel: point not found in frame")
)

// MeshError wraps a sentinel error with the mesh-local context (the
// triangle, vertex or phase involved) needed to diagnose a refinement
// failure without re-running with verbose logging.
type MeshError struct {
	Op    string // operation in progress, e.g. "phaseA", "splitSide"
	Index int    // 1-based triangle or vertex index, 0 if not applicable
	Err   error  // one of the sentinel errors above
}

func (e *MeshError) Error() string {
	if e.Index != 0 {
		return fmt.Sprintf("tessel: %s: index %d: %v", e.Op, e.Index, e.Err)
	}
	return fmt.Sprintf("tessel: %s: %v", e.Op, e.Err)
}

func (e *MeshError) Unwrap() error { return e.Err }

func wrapErr(op string, index int, err error) error {
	if err == nil {
		return nil
	}
	return &MeshError{Op: op, Index: index, Err: err}
}
