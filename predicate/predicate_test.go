package predicate

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestOrienTri(t *testing.T) {
	ccw := OrienTri(r2.Vec{X: 0, Y: 0}, r2.Vec{X: 1, Y: 0}, r2.Vec{X: 0, Y: 1})
	if ccw != Positive {
		t.Fatalf("want Positive, got %v", ccw)
	}
	cw := OrienTri(r2.Vec{X: 0, Y: 0}, r2.Vec{X: 0, Y: 1}, r2.Vec{X: 1, Y: 0})
	if cw != Negative {
		t.Fatalf("want Negative, got %v", cw)
	}
	deg := OrienTri(r2.Vec{X: 0, Y: 0}, r2.Vec{X: 1, Y: 1}, r2.Vec{X: 2, Y: 2})
	if deg != Degenerate {
		t.Fatalf("want Degenerate, got %v", deg)
	}
}

func TestInTriExact(t *testing.T) {
	t1, t2, t3 := r2.Vec{X: 0, Y: 0}, r2.Vec{X: 1, Y: 0}, r2.Vec{X: 0, Y: 1}
	class, w := InTriExact(t1, t2, t3, r2.Vec{X: 0.25, Y: 0.25})
	if class != Inside {
		t.Fatalf("want Inside, got %v", class)
	}
	sum := w[0] + w[1] + w[2]
	if math.Abs(sum-1) > 1e-12 {
		t.Fatalf("weights should sum to 1, got %v", sum)
	}
	class, _ = InTriExact(t1, t2, t3, r2.Vec{X: 2, Y: 2})
	if class != Outside {
		t.Fatalf("want Outside, got %v", class)
	}
}

func TestInTri(t *testing.T) {
	t1 := r3.Vec{X: 0, Y: 0, Z: 0}
	t2 := r3.Vec{X: 1, Y: 0, Z: 0}
	t3 := r3.Vec{X: 0, Y: 1, Z: 0}
	inside, w := InTri(t1, t2, t3, r3.Vec{X: 0.2, Y: 0.2, Z: 0}, 0)
	if !inside {
		t.Fatalf("expected point inside triangle")
	}
	if math.Abs(w[0]+w[1]+w[2]-1) > 1e-9 {
		t.Fatalf("weights should sum to 1, got %v", w)
	}
	outside, _ := InTri(t1, t2, t3, r3.Vec{X: 5, Y: 5, Z: 0}, 0)
	if outside {
		t.Fatalf("expected point outside triangle")
	}
}

func TestGetIntersectAndRayIntersect(t *testing.T) {
	p0 := r3.Vec{X: 0, Y: 0, Z: 0}
	p1 := r3.Vec{X: 1, Y: 0, Z: 0}
	mid := r3.Vec{X: 0.5, Y: 1, Z: 0}
	d2 := GetIntersect(p0, p1, mid)
	if math.Abs(d2-1) > 1e-12 {
		t.Fatalf("want squared distance 1, got %v", d2)
	}
	d := RayIntersect(p0, p1, mid)
	if math.Abs(d-1) > 1e-12 {
		t.Fatalf("want normalised distance 1, got %v", d)
	}
}

func TestDotNorm(t *testing.T) {
	p0 := r3.Vec{X: 0, Y: 0, Z: 0}
	p1 := r3.Vec{X: 1, Y: 0, Z: 0}
	p2 := r3.Vec{X: 0, Y: 1, Z: 0}
	p3 := r3.Vec{X: 1, Y: 1, Z: 0}
	d := DotNorm(p0, p1, p2, p3)
	if math.Abs(d-1) > 1e-9 {
		t.Fatalf("coplanar quad should give dot 1, got %v", d)
	}
}

func TestMaxXYZangle(t *testing.T) {
	p1 := r3.Vec{X: 0, Y: 0, Z: 0}
	p2 := r3.Vec{X: 1, Y: 0, Z: 0}
	p3 := r3.Vec{X: 0, Y: 1, Z: 0}
	a := MaxXYZangle(p1, p2, p3)
	if math.Abs(a-math.Pi/2) > 1e-9 {
		t.Fatalf("right triangle max angle should be pi/2, got %v", a)
	}
}
