package robust

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/sartorproj/gorobarma/linalg"
	"github.com/sartorproj/gorobarma/timeseries"
)

// RegressionResult is the outcome of an iteratively reweighted regression.
type RegressionResult struct {
	Coefficients []float64
	Scale        float64
	Weights      []float64
	Iterations   int
	Converged    bool
}

// Regression fits y ~ x by a bisquare M-estimator with tuning constant c,
// started at least squares and solved by iteratively reweighted least
// squares. The residual scale is the normalized MAD, recomputed every
// iteration. Iteration stops when no coefficient moves by more than
// tol*(1+|beta|).
func Regression(x *mat.Dense, y []float64, c float64, maxIter int, tol float64) (*RegressionResult, error) {
	rows, cols := x.Dims()
	if rows != len(y) {
		return nil, fmt.Errorf("robust regression: %w", linalg.ErrDimensionMismatch)
	}

	beta, err := linalg.LeastSquares(x, y, nil)
	if err != nil {
		return nil, fmt.Errorf("robust regression start: %w", err)
	}

	loss := NewBisquare(c)
	res := &RegressionResult{Coefficients: beta, Weights: ones(rows)}
	resid := make([]float64, rows)
	for it := 1; it <= maxIter; it++ {
		residuals(x, y, beta, resid)
		scale := mad(resid)
		res.Scale = scale
		res.Iterations = it
		if scale == 0 {
			res.Converged = true
			return res, nil
		}

		w := make([]float64, rows)
		for i, r := range resid {
			w[i] = loss.Weight(r / scale)
		}
		next, err := linalg.LeastSquares(x, y, w)
		if err != nil {
			// Too many rejected rows to identify the coefficients.
			return res, nil
		}

		res.Weights = w
		moved := false
		for j := 0; j < cols; j++ {
			if math.Abs(next[j]-beta[j]) > tol*(1+math.Abs(beta[j])) {
				moved = true
			}
		}
		beta = next
		res.Coefficients = beta
		if !moved {
			res.Converged = true
			return res, nil
		}
	}
	return res, nil
}

func residuals(x *mat.Dense, y, beta, dst []float64) {
	rows, cols := x.Dims()
	for i := 0; i < rows; i++ {
		fit := 0.0
		for j := 0; j < cols; j++ {
			fit += x.At(i, j) * beta[j]
		}
		dst[i] = y[i] - fit
	}
}

// mad returns the median absolute value normalized for the standard deviation.
func mad(r []float64) float64 {
	abs := make([]float64, len(r))
	for i, v := range r {
		abs[i] = math.Abs(v)
	}
	return timeseries.Median(abs) / madNormal
}

func ones(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1
	}
	return w
}
