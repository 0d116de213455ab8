// Package linalg provides the dense linear algebra used by the ARMA estimators.
//
// Every routine is a pure function over gonum matrices: inputs are never
// modified and results are returned in freshly allocated buffers, so the
// package is safe for concurrent use without coordination.
//
// # Solving Systems
//
// Solve picks a Cholesky factorization when the matrix is symmetric positive
// definite and a QR factorization otherwise:
//
//	a := mat.NewDense(2, 2, []float64{4, 1, 1, 3})
//	x, err := linalg.Solve(a, []float64{1, 2})
//	if errors.Is(err, linalg.ErrSingularMatrix) {
//	    // regularize and retry, or give up on this iteration
//	}
//
// # Least Squares
//
// LeastSquares solves weighted normal equations and falls back to a QR solve
// of the scaled design when the normal equations are ill conditioned.
// RidgeLeastSquares adds a diagonal penalty for callers that need to recover
// from a singular design.
package linalg
