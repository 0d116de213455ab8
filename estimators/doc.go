// Package estimators fits ARMA(p,q) models by classical and robust methods.
//
// Every method takes an *arma.Model and returns a *Fit holding the estimated
// parameters and a Result record with the residual scale, standard errors,
// convergence state, iteration count and final objective value:
//
//	model, err := arma.New(y, 1, 1)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fit, err := estimators.MM(model)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(fit.Params, fit.Result.Converged)
//
// # Methods
//
// Classical:
//   - HannanRissanen: two-stage regression
//   - OLS: conditional least squares by Gauss-Newton
//   - MLE: exact Gaussian likelihood by BFGS
//
// Robust:
//   - S: minimizes a bisquare M-scale of the residuals
//   - MM: efficient bisquare M-step started at S
//   - FTau: filtered tau-estimator
//   - BIPS, BIPMM: S and MM on bounded-propagation residuals
//
// Methods are also available by name through Lookup, using the names
// hannan_rissanen, ols, mle, ftau, s, bs, mm and bmm.
//
// # Convergence
//
// Numerical trouble never surfaces as an error. A fit that hits the
// iteration cap or fails to descend reports Converged=false together with
// the best point reached; errors are reserved for invalid input.
//
// Use New to change iteration caps, tolerances and tuning constants or to
// attach a zerolog logger. The package-level functions use Default.
package estimators
