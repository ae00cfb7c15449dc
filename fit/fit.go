// Package fit is the optional surface-fit consumer of spec.md §4.8:
// out of scope for the core refiner, but specified as a downstream
// reader of baryframe's barycentric frame map. It reconstructs a
// tensor-product control grid from the refined, barycentrically
// mapped mesh by solving a least-squares fit against an external
// parameteriser's UV grid.
package fit

import (
	"fmt"

	"github.com/brepforge/tessel"
	"github.com/brepforge/tessel/baryframe"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Parameteriser is the external UV-grid pipeline spec.md §6 names:
// createUV/smoothUV/normalizeUV/bestGrid. The fit package only calls
// it; it never implements parameterisation itself.
type Parameteriser interface {
	CreateUV(m *tessel.Mesh) ([]r2.Vec, error)
	SmoothUV(uvs []r2.Vec) []r2.Vec
	NormalizeUV(uvs []r2.Vec) []r2.Vec
	BestGrid(uvs []r2.Vec, nu, nv int) (gridU, gridV []float64, err error)
}

// Grid is a tensor-product control-point grid, row-major in U.
type Grid struct {
	NU, NV int
	Points []r3.Vec
}

// At returns the control point at grid coordinate (u,v).
func (g *Grid) At(u, v int) r3.Vec { return g.Points[v*g.NU+u] }

// FitTriangles reconstructs an (nu x nv) tensor-product control grid
// from mesh m's refined vertices by solving the linear least-squares
// system
//
//	B * ctrl = xyz
//
// where B's rows are bilinear basis weights of each vertex's UV
// location within the parameteriser's grid and ctrl are the unknown
// control-point coordinates, one linear solve per XYZ component. The
// frame map fm is accepted but not read.
func FitTriangles(m *tessel.Mesh, fm *baryframe.FrameMap, p Parameteriser, nu, nv int) (*Grid, error) {
	if nu < 2 || nv < 2 {
		return nil, fmt.Errorf("fit: grid must be at least 2x2, got %dx%d", nu, nv)
	}
	uvs, err := p.CreateUV(m)
	if err != nil {
		return nil, fmt.Errorf("fit: createUV: %w", err)
	}
	uvs = p.SmoothUV(uvs)
	uvs = p.NormalizeUV(uvs)
	gridU, gridV, err := p.BestGrid(uvs, nu, nv)
	if err != nil {
		return nil, fmt.Errorf("fit: bestGrid: %w", err)
	}

	n := m.NVerts()
	ncols := nu * nv
	basis := mat.NewDense(n, ncols, nil)
	rhs := [3]*mat.VecDense{mat.NewVecDense(n, nil), mat.NewVecDense(n, nil), mat.NewVecDense(n, nil)}

	for vi := 1; vi <= n; vi++ {
		uv := m.UV(vi)
		iu, fu := locate1D(gridU, uv.X)
		iv, fv := locate1D(gridV, uv.Y)
		for du := 0; du < 2; du++ {
			for dv := 0; dv < 2; dv++ {
				wu := 1 - fu
				if du == 1 {
					wu = fu
				}
				wv := 1 - fv
				if dv == 1 {
					wv = fv
				}
				col := (iv+dv)*nu + (iu + du)
				if col >= 0 && col < ncols {
					basis.Set(vi-1, col, basis.At(vi-1, col)+wu*wv)
				}
			}
		}
		xyz := m.XYZ(vi)
		rhs[0].SetVec(vi-1, xyz.X)
		rhs[1].SetVec(vi-1, xyz.Y)
		rhs[2].SetVec(vi-1, xyz.Z)
	}

	grid := &Grid{NU: nu, NV: nv, Points: make([]r3.Vec, ncols)}
	for comp := 0; comp < 3; comp++ {
		var qr mat.QR
		qr.Factorize(basis)
		var sol mat.VecDense
		if err := qr.SolveVecTo(&sol, false, rhs[comp]); err != nil {
			return nil, fmt.Errorf("fit: least-squares solve for component %d: %w", comp, err)
		}
		for i := 0; i < ncols; i++ {
			switch comp {
			case 0:
				grid.Points[i].X = sol.AtVec(i)
			case 1:
				grid.Points[i].Y = sol.AtVec(i)
			case 2:
				grid.Points[i].Z = sol.AtVec(i)
			}
		}
	}
	return grid, nil
}

// locate1D returns the lower grid index and fractional offset of x
// within the sorted grid line knots.
func locate1D(knots []float64, x float64) (idx int, frac float64) {
	if len(knots) < 2 {
		return 0, 0
	}
	for i := 0; i < len(knots)-1; i++ {
		if x >= knots[i] && x <= knots[i+1] {
			span := knots[i+1] - knots[i]
			if span <= 0 {
				return i, 0
			}
			return i, (x - knots[i]) / span
		}
	}
	if x < knots[0] {
		return 0, 0
	}
	return len(knots) - 2, 1
}
