// Package robust provides the loss functions and scale estimators of the
// robust ARMA estimators.
//
// All losses are Tukey bisquares rescaled to a supremum of one, which makes
// the consistency constant of an M-scale its breakdown point:
//
//	s := robust.NewBisquare(robust.SConstant)
//	b := s.Expectation() // 0.5
//	scale := robust.MScale(residuals, s, b, 200, 1e-10).Scale
//
// The tau-scale combines a robustness loss and an efficiency loss:
//
//	tau := robust.TauScale(residuals, scale, robust.NewBisquare(robust.TauConstant2), b2)
//
// Regression is an iteratively reweighted bisquare regression, used to
// compute outlier-resistant starting values.
package robust
