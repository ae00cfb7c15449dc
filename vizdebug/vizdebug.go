// Package vizdebug is ambient developer/test tooling: it rasterises a
// mesh's current triangulation for use in golden-image regression
// tests, mirroring the teacher's own render/form3_test.go harness. It
// is not part of the core refiner (the core performs no rendering or
// persistence, per spec.md's Non-goals) but a complete repo carries
// this kind of tooling regardless.
package vizdebug

import (
	"fmt"
	"image"
	"image/color"
	"os"

	"github.com/brepforge/tessel"
	"github.com/fogleman/fauxgl"
	"github.com/nfnt/resize"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// View is a camera setup for ShadedView: eye/center/up in the
// teacher's fauxgl.V(x,y,z) convention, plus a near/far clip pair.
type View struct {
	Eye, Center, Up r3.Vec
	Near, Far       float64
}

// ShadedView rasterises mesh m's XYZ triangulation with a Phong
// shader, supersampled by factor ss and downsampled back to w x h with
// nfnt/resize for antialiasing, the same two-step shade-then-resize
// pipeline the teacher uses for its own form3 golden images.
func ShadedView(m *tessel.Mesh, w, h, ss int, view View) image.Image {
	var tris []*fauxgl.Triangle
	for ti := 1; ti <= m.NTris(); ti++ {
		a, b, c := m.TriXYZ(ti)
		tris = append(tris, fauxgl.NewTriangle(toFaux(a), toFaux(b), toFaux(c)))
	}
	mesh := fauxgl.NewTriangleMesh(tris)
	mesh.SmoothNormalsThreshold(fauxgl.Radians(30))

	eye := toFaux(view.Eye)
	center := toFaux(view.Center)
	up := toFaux(view.Up)
	light := fauxgl.V(-0.75, 1, 0.25).Normalize()

	ctx := fauxgl.NewContext(w*ss, h*ss)
	ctx.ClearColorBufferWith(fauxgl.HexColor("#FFF8E3"))
	aspect := float64(w) / float64(h)
	matrix := fauxgl.LookAt(eye, center, up).Perspective(30, aspect, view.Near, view.Far)
	shader := fauxgl.NewPhongShader(matrix, light, eye)
	ctx.Shader = shader
	ctx.DrawMesh(mesh)

	full := ctx.Image()
	return resize.Resize(uint(w), uint(h), full, resize.Bilinear)
}

func toFaux(v r3.Vec) fauxgl.Vector { return fauxgl.V(v.X, v.Y, v.Z) }

// SavePNG writes img to path, for use as a golden-image fixture or
// regression-test artifact (compare with gonum.org/v1/plot/cmpimg).
func SavePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("vizdebug: %w", err)
	}
	defer f.Close()
	return fauxgl.SavePNG(path, img)
}

// UVWireframe renders mesh m's UV-space wireframe as an SVG, via
// gonum/plot, for use as a lightweight 2-D regression fixture
// alongside the 3-D ShadedView.
func UVWireframe(m *tessel.Mesh, path string) error {
	p := plot.New()
	p.Title.Text = "triangulation (UV space)"
	p.X.Label.Text = "u"
	p.Y.Label.Text = "v"

	for ti := 1; ti <= m.NTris(); ti++ {
		a, b, c := m.TriUV(ti)
		line, err := plotter.NewLine(plotter.XYs{toXY(a), toXY(b), toXY(c), toXY(a)})
		if err != nil {
			return fmt.Errorf("vizdebug: %w", err)
		}
		line.Color = color.Black
		line.Width = vg.Points(0.5)
		p.Add(line)
	}

	if err := p.Save(6*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("vizdebug: saving %s: %w", path, err)
	}
	return nil
}

func toXY(v r2.Vec) plotter.XY { return plotter.XY{X: v.X, Y: v.Y} }
