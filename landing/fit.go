package landing

import (
	"fmt"
	"math"

	balltrack "github.com/milosgajdos/go-balltrack"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// rcond is the relative singular value cutoff used to determine the rank of the fit.
const rcond = 1e-10

// Fit is a quadratic least squares fit x = A*y^2 + B*y + C.
type Fit struct {
	// A, B and C are the fitted coefficients
	A, B, C float64
	// Rank is the numerical rank of the design matrix
	Rank int
	// Cond is the condition number of the column scaled design matrix
	Cond float64
	// Degenerate is set when the design matrix is rank deficient.
	// The coefficients are then the minimum norm least squares solution.
	Degenerate bool
}

// Eval evaluates the fitted quadratic at y.
func (f Fit) Eval(y float64) float64 {
	return f.A*y*y + f.B*y + f.C
}

// FitQuadratic fits x as a quadratic function of y over pts using SVD least squares.
// Rank deficient inputs, such as points sharing a single y, are not an error:
// the best effort minimum norm solution is returned with Degenerate set.
// It returns error if fewer than 3 points are given or the factorization fails.
func FitQuadratic(pts []balltrack.Point) (Fit, error) {
	n := len(pts)
	if n < 3 {
		return Fit{}, fmt.Errorf("not enough points to fit: %d", n)
	}

	v := mat.NewDense(n, 3, nil)
	x := mat.NewVecDense(n, nil)
	for i, p := range pts {
		v.Set(i, 0, p.Y*p.Y)
		v.Set(i, 1, p.Y)
		v.Set(i, 2, 1.0)
		x.SetVec(i, p.X)
	}

	// scale columns to unit length so y^2 does not dominate the conditioning
	scale := make([]float64, 3)
	col := make([]float64, n)
	for j := range scale {
		mat.Col(col, j, v)
		scale[j] = floats.Norm(col, 2)
		if scale[j] == 0 {
			scale[j] = 1
		}
		for i := 0; i < n; i++ {
			v.Set(i, j, v.At(i, j)/scale[j])
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(v, mat.SVDThin); !ok {
		return Fit{}, fmt.Errorf("failed to factorize design matrix")
	}

	rank := svd.Rank(rcond)
	if rank == 0 {
		return Fit{}, fmt.Errorf("design matrix has zero rank")
	}

	coef := mat.NewVecDense(3, nil)
	svd.SolveVecTo(coef, x, rank)

	f := Fit{
		A:          coef.AtVec(0) / scale[0],
		B:          coef.AtVec(1) / scale[1],
		C:          coef.AtVec(2) / scale[2],
		Rank:       rank,
		Cond:       svd.Cond(),
		Degenerate: rank < 3,
	}

	if math.IsNaN(f.A) || math.IsNaN(f.B) || math.IsNaN(f.C) {
		return Fit{}, fmt.Errorf("fit produced invalid coefficients")
	}

	return f, nil
}
