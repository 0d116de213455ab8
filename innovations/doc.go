// Package innovations evaluates one-step prediction errors and the Gaussian
// likelihood of ARMA models.
//
// # Residual Modes
//
// An Evaluator produces prediction errors in one of three modes:
//
//   - ModeExact: the innovations algorithm on the exact autocovariance, with
//     prediction variances that start at the stationary variance and decay
//     towards one.
//   - ModeConditional: the conditional residual recursion of arma.Model.
//   - ModeBoundedPropagation: the conditional recursion with each past error
//     replaced by Scale*Eta(u/Scale) before it feeds later predictions.
//
// Example:
//
//	ev := innovations.NewEvaluator(model, innovations.ModeExact)
//	in, err := ev.Evaluate(params)
//	if errors.Is(err, innovations.ErrNonPositiveVariance) {
//	    // reject this parameter point
//	}
//	loglik := in.ConcentratedLogLikelihood()
//
// # Autocovariance
//
// Autocovariance returns the theoretical autocovariances of a stationary
// ARMA process with unit innovation variance:
//
//	gamma, err := innovations.Autocovariance(params, 10)
package innovations
