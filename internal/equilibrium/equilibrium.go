// Package equilibrium derives ion equilibrium positions from a sampled
// trap potential.
//
// The axial potential is reduced to a fixed-degree polynomial by least
// squares, and the equilibrium configuration of n ions is the minimum of a
// small 1-D energy functional: the trap potential at each ion position plus
// pairwise Coulomb repulsion.
package equilibrium

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/san-kum/trapfield/internal/field"
)

// ErrNoConverge indicates the energy minimizer failed to find an
// equilibrium configuration.
var ErrNoConverge = errors.New("equilibrium: minimizer did not converge")

// Poly is a polynomial with coefficients in ascending degree order.
type Poly []float64

// Eval evaluates the polynomial by Horner's rule.
func (p Poly) Eval(x float64) float64 {
	v := 0.0
	for i := len(p) - 1; i >= 0; i-- {
		v = v*x + p[i]
	}
	return v
}

// Fit computes the least-squares polynomial of the given degree through the
// samples, via QR on the Vandermonde system.
func Fit(xs, ys []float64, degree int) (Poly, error) {
	if degree < 1 {
		return nil, fmt.Errorf("equilibrium: fit degree must be at least 1, got %d", degree)
	}
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("equilibrium: %d sample points but %d values", len(xs), len(ys))
	}
	if len(xs) <= degree {
		return nil, fmt.Errorf("equilibrium: need more than %d samples for a degree-%d fit, got %d", degree, degree, len(xs))
	}

	v := mat.NewDense(len(xs), degree+1, nil)
	for i, x := range xs {
		pow := 1.0
		for d := 0; d <= degree; d++ {
			v.Set(i, d, pow)
			pow *= x
		}
	}

	var qr mat.QR
	qr.Factorize(v)

	var coef mat.VecDense
	if err := qr.SolveVecTo(&coef, false, mat.NewVecDense(len(ys), ys)); err != nil {
		return nil, fmt.Errorf("equilibrium: fit: %w", err)
	}

	p := make(Poly, degree+1)
	for d := range p {
		p[d] = coef.AtVec(d)
	}
	return p, nil
}

// FitAxial fits the potential along the trap axis at the grid's transverse
// midpoint.
func FitAxial(f *field.Field, degree int) (Poly, error) {
	j := f.Geom.DimY / 2
	k := f.Geom.DimZ / 2
	return Fit(f.Geom.Xs(), f.AxialSlice(j, k), degree)
}

// Options configures the equilibrium solve.
type Options struct {
	// Ions is the number of ions in the chain.
	Ions int
	// Coulomb is the pairwise repulsion coefficient, in the units of the
	// fitted potential times length.
	Coulomb float64
}

// Positions minimizes the chain energy over the axial span and returns the
// equilibrium coordinates in ascending order.
func Positions(pot func(float64) float64, span [2]float64, opts Options) ([]float64, error) {
	n := opts.Ions
	if n < 1 {
		return nil, fmt.Errorf("equilibrium: ion count must be positive, got %d", n)
	}
	if opts.Coulomb <= 0 && n > 1 {
		return nil, fmt.Errorf("equilibrium: coulomb coefficient must be positive, got %g", opts.Coulomb)
	}

	energy := func(x []float64) float64 {
		e := 0.0
		for _, xi := range x {
			e += pot(xi)
		}
		for i := 0; i < len(x); i++ {
			for j := i + 1; j < len(x); j++ {
				d := math.Abs(x[i] - x[j])
				if d == 0 {
					return math.Inf(1)
				}
				e += opts.Coulomb / d
			}
		}
		return e
	}

	// Spread the initial chain over the middle half of the span.
	center := (span[0] + span[1]) / 2
	width := (span[1] - span[0]) / 4
	x0 := make([]float64, n)
	for i := range x0 {
		if n == 1 {
			x0[i] = center
			break
		}
		x0[i] = center + width*(2*float64(i)/float64(n-1)-1)
	}

	res, err := optimize.Minimize(optimize.Problem{Func: energy}, x0, nil, &optimize.NelderMead{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoConverge, err)
	}
	if math.IsInf(res.F, 0) || math.IsNaN(res.F) {
		return nil, ErrNoConverge
	}

	out := append([]float64(nil), res.X...)
	sort.Float64s(out)
	return out, nil
}
