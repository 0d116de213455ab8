// Package linalg provides the dense linear algebra used by the ARMA estimators.
package linalg

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrSingularMatrix is returned when a pivot falls below the relative
	// singularity threshold.
	ErrSingularMatrix = errors.New("linalg: matrix is numerically singular")
	// ErrDimensionMismatch is returned when operand shapes disagree.
	ErrDimensionMismatch = errors.New("linalg: dimension mismatch")
	// ErrInvalidWeights is returned for negative or non-finite weights.
	ErrInvalidWeights = errors.New("linalg: weights must be finite and non-negative")
)

// PivotTolerance is the relative pivot threshold: a pivot smaller than
// PivotTolerance times the 1-norm of the matrix is treated as zero.
const PivotTolerance = 1e-12

// Solve returns x such that a*x = b.
func Solve(a *mat.Dense, b []float64) ([]float64, error) {
	r, c := a.Dims()
	if r != c || r != len(b) {
		return nil, ErrDimensionMismatch
	}

	norm := mat.Norm(a, 1)
	if norm == 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
		return nil, ErrSingularMatrix
	}

	if isSymmetric(a, norm) {
		sym := mat.NewSymDense(r, nil)
		for i := 0; i < r; i++ {
			for j := i; j < r; j++ {
				sym.SetSym(i, j, a.At(i, j))
			}
		}
		if x, err := solveCholesky(sym, b, norm); err == nil {
			return x, nil
		}
	}

	return solveQR(a, b, norm)
}

// solveCholesky solves a symmetric positive definite system.
func solveCholesky(a *mat.SymDense, b []float64, norm float64) ([]float64, error) {
	n := a.SymmetricDim()

	var chol mat.Cholesky
	if ok := chol.Factorize(a); !ok {
		return nil, ErrSingularMatrix
	}

	// The squared diagonal of L holds the Gaussian elimination pivots.
	var l mat.TriDense
	chol.LTo(&l)
	for i := 0; i < n; i++ {
		d := l.At(i, i)
		if d*d < PivotTolerance*norm {
			return nil, ErrSingularMatrix
		}
	}

	x := mat.NewVecDense(n, nil)
	if err := chol.SolveVecTo(x, mat.NewVecDense(n, clone(b))); err != nil {
		return nil, ErrSingularMatrix
	}
	return x.RawVector().Data, nil
}

// solveQR solves a square or overdetermined system in the least squares sense.
func solveQR(a *mat.Dense, b []float64, norm float64) ([]float64, error) {
	_, c := a.Dims()

	var qr mat.QR
	qr.Factorize(a)

	var rm mat.Dense
	qr.RTo(&rm)
	for i := 0; i < c; i++ {
		if math.Abs(rm.At(i, i)) < PivotTolerance*norm {
			return nil, ErrSingularMatrix
		}
	}

	x := mat.NewVecDense(c, nil)
	if err := qr.SolveVecTo(x, false, mat.NewVecDense(len(b), clone(b))); err != nil {
		return nil, ErrSingularMatrix
	}
	return x.RawVector().Data, nil
}

// Gram returns X'WX for the design x and optional weights w (nil means unit weights).
func Gram(x *mat.Dense, w []float64) (*mat.SymDense, error) {
	xw, err := scaleRows(x, w)
	if err != nil {
		return nil, err
	}
	_, c := xw.Dims()
	g := mat.NewSymDense(c, nil)
	g.SymOuterK(1, xw.T())
	return g, nil
}

// LeastSquares returns the weighted least squares coefficients minimizing
// sum w_i (y_i - x_i'beta)^2. A nil w means unit weights.
func LeastSquares(x *mat.Dense, y, w []float64) ([]float64, error) {
	return RidgeLeastSquares(x, y, w, 0)
}

// RidgeLeastSquares solves (X'WX + lambda*I) beta = X'Wy.
func RidgeLeastSquares(x *mat.Dense, y, w []float64, lambda float64) ([]float64, error) {
	r, c := x.Dims()
	if r != len(y) || (w != nil && len(w) != r) {
		return nil, ErrDimensionMismatch
	}
	if r == 0 || c == 0 {
		return nil, ErrDimensionMismatch
	}

	xw, err := scaleRows(x, w)
	if err != nil {
		return nil, err
	}
	yw := make([]float64, r)
	for i, v := range y {
		if w == nil {
			yw[i] = v
		} else {
			yw[i] = v * math.Sqrt(w[i])
		}
	}

	// Normal equations
	xtx := mat.NewDense(c, c, nil)
	xtx.Mul(xw.T(), xw)
	for i := 0; i < c; i++ {
		xtx.Set(i, i, xtx.At(i, i)+lambda)
	}
	var xty mat.VecDense
	xty.MulVec(xw.T(), mat.NewVecDense(r, yw))

	beta, err := Solve(xtx, xty.RawVector().Data)
	if err == nil || lambda != 0 || r < c {
		return beta, err
	}

	// Normal equations square the condition number; retry on the design itself.
	norm := mat.Norm(xw, 1)
	if norm == 0 {
		return nil, ErrSingularMatrix
	}
	return solveQR(xw, yw, norm)
}

// InverseSPD returns the inverse of a symmetric positive definite matrix.
func InverseSPD(a *mat.SymDense) (*mat.SymDense, error) {
	var chol mat.Cholesky
	if ok := chol.Factorize(a); !ok {
		return nil, ErrSingularMatrix
	}
	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		return nil, ErrSingularMatrix
	}
	return &inv, nil
}

// scaleRows returns a copy of x with row i multiplied by sqrt(w[i]).
func scaleRows(x *mat.Dense, w []float64) (*mat.Dense, error) {
	r, _ := x.Dims()
	out := mat.DenseCopyOf(x)
	if w == nil {
		return out, nil
	}
	if len(w) != r {
		return nil, ErrDimensionMismatch
	}
	for i, wi := range w {
		if wi < 0 || math.IsNaN(wi) || math.IsInf(wi, 0) {
			return nil, ErrInvalidWeights
		}
		row := out.RawRowView(i)
		s := math.Sqrt(wi)
		for j := range row {
			row[j] *= s
		}
	}
	return out, nil
}

func isSymmetric(a *mat.Dense, norm float64) bool {
	n, _ := a.Dims()
	tol := PivotTolerance * norm
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if math.Abs(a.At(i, j)-a.At(j, i)) > tol {
				return false
			}
		}
	}
	return true
}

func clone(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
