package tessel

import "gonum.org/v1/gonum/spatial/r3"

// sides maps a side index to the ordered pair of vertex-slot indices
// (into Triangle.Indices) that bound it: side i is opposite vertex i,
// with endpoints (i+1)%3 and (i+2)%3.
var sides = [3][2]int{
	{1, 2},
	{2, 0},
	{0, 1},
}

// Triangle is one face of the mesh. Indices and Neighbors are 1-based;
// a Neighbors entry <= 0 means the opposite side is a boundary segment
// (the sentinel value, negated, is a segment index).
type Triangle struct {
	Indices   [3]int
	Neighbors [3]int

	// Mark is a 3-bit field; bit i set means side i is a swap
	// candidate this round.
	Mark uint8

	// Hit and Count are transient scratch used by flood-fill and
	// per-round dirty tracking in the swap loop and breakTri passes.
	Hit   int
	Count int

	// Mid is a slot for a cached 3-D centroid; nothing in this package
	// reads or writes it.
	Mid r3.Vec
	// Close flags that this triangle's centroid lies within
	// ray-distance of a boundary edge segment.
	Close bool

	// Area is scratch storage for the triangle's current squared 3-D
	// area, refreshed by callers that need it across several tests.
	Area float64
}

// MarkSide reports whether side s is currently a swap candidate.
func (t *Triangle) MarkSide(s int) bool { return t.Mark&(1<<uint(s))&0xff != 0 }

// SetMarkSide sets or clears the swap-candidate bit for side s.
func (t *Triangle) SetMarkSide(s int, v bool) {
	bit := uint8(1 << uint(s))
	if v {
		t.Mark |= bit
	} else {
		t.Mark &^= bit
	}
}

// SideVerts returns the 1-based vertex indices of the two endpoints of
// side s, in the triangle's own winding order.
func (t *Triangle) SideVerts(s int) (i1, i2 int) {
	e := sides[s]
	return t.Indices[e[0]], t.Indices[e[1]]
}

// OppositeVert returns the 1-based vertex index opposite side s.
func (t *Triangle) OppositeVert(s int) int { return t.Indices[s] }

// SideOf returns the side index of t whose unordered endpoint pair
// matches (i1,i2), or -1 if none match.
func (t *Triangle) SideOf(i1, i2 int) int {
	for s := 0; s < 3; s++ {
		a, b := t.SideVerts(s)
		if (a == i1 && b == i2) || (a == i2 && b == i1) {
			return s
		}
	}
	return -1
}

// Segment is one boundary side of the frame: two endpoint vertex
// indices and a signed neighbor (positive names the triangle sharing
// this side; non-positive values are boundary sentinels).
type Segment struct {
	I1, I2   int
	Neighbor int
}
