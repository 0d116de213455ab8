// Package gorobarma provides classical and robust estimation of ARMA(p,q)
// models together with a simulator for testing them.
//
// Robust estimators bound the influence of outliers on the fitted
// coefficients: a few gross errors in a series can drive a least squares or
// maximum likelihood fit far from the truth, while an MM or filtered tau fit
// stays close to the parameters of the bulk of the data.
//
// # Features
//
//   - Conditional and exact Gaussian likelihood (innovations algorithm)
//   - Hannan-Rissanen, conditional least squares and exact MLE
//   - S, MM, filtered tau, BIP-S and BIP-MM robust estimators
//   - Standard errors, convergence state and residual diagnostics
//   - ARMA simulation with Gaussian or heavy-tailed innovations and outliers
//
// # Quick Start
//
// Simulate a contaminated AR(1) and fit it robustly:
//
//	y, _ := simulate.Generate([]float64{0.5}, nil, 0, 500, 100, 42)
//	y = simulate.Contaminate(y, []int{50, 120, 300}, 10)
//
//	model, _ := arma.New(y, 1, 0)
//	fit, _ := estimators.MM(model)
//	fmt.Println(fit)
//
// Select an estimator by name:
//
//	entry, _ := estimators.Lookup("bip_mm")
//	fit, _ = entry(model)
//
// # Packages
//
// The library is organized into the following packages:
//
//   - arma: model specification, parameters and residual recursions
//   - innovations: autocovariance, innovations algorithm and likelihood
//   - estimators: classical and robust estimators
//   - robust: bisquare losses, M-scale and tau-scale
//   - simulate: ARMA sample paths
//   - linalg: linear solves and least squares
//   - stats: autocorrelation, portmanteau tests and information criteria
//   - timeseries: time series data structures and CSV input
//   - config, logging: configuration loading and structured logging
//
// # References
//
//   - Muler, N., Pena, D., & Yohai, V. J. (2009). Robust estimation for ARMA models. Annals of Statistics
//   - Maronna, R. A., Martin, R. D., Yohai, V. J., & Salibian-Barrera, M. (2019). Robust Statistics: Theory and Methods
//   - Brockwell, P. J., & Davis, R. A. (1991). Time Series: Theory and Methods
package gorobarma
