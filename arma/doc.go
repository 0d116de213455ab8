// Package arma implements the ARMA(p,q) model specification.
//
// An ARMA(p,q) process with location mu satisfies
//
//	y_t - mu = phi_1 (y_{t-1} - mu) + ... + phi_p (y_{t-p} - mu)
//	         + e_t + theta_1 e_{t-1} + ... + theta_q e_{t-q}
//
// # Building a Model
//
// A Model binds an order to a copy of the observations:
//
//	model, err := arma.New(y, 1, 1)
//	if errors.Is(err, arma.ErrInvalidOrder) {
//	    // p < 0, q < 0 or p = q = 0
//	}
//	fmt.Println(model.N(), model.R(), model.NumParams())
//
// # Residuals
//
// Residuals evaluates the conditional residual recursion from t = max(p,q)
// and refuses parameters that are not stationary and invertible:
//
//	params := arma.NewParams([]float64{0.5}, []float64{0.2}, 0)
//	residuals, err := model.Residuals(params)
//
// Filter runs the same recursion without checks and optionally bounds the
// propagation of large prediction errors into later residuals, which is the
// residual generator of the BIP estimators.
//
// # Stability
//
// Stationarity and invertibility are tested through the partial
// autocorrelations of the polynomial (ToPartials); the estimators also use
// FromPartials to search over an unconstrained space that maps only to
// feasible parameters.
package arma
