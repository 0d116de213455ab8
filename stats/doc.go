// Package stats provides residual diagnostics for fitted ARMA models.
//
// # Autocorrelation Functions
//
// Analyze autocorrelation patterns of a series or of model residuals:
//
//	// Autocorrelation Function
//	acf := stats.ACF(residuals, 20)
//
//	// Partial Autocorrelation Function
//	pacf := stats.PACF(residuals, 20)
//
//	// ACF with confidence bounds
//	acfResult := stats.ACFWithConfidence(residuals, 20)
//	significant := stats.SignificantLags(acfResult.Values, acfResult.ConfBounds)
//
// # Residual Diagnostics
//
// Test residuals for autocorrelation and normality:
//
//	// Ljung-Box test for autocorrelation
//	lb := stats.LjungBox(residuals, 10, p+q)
//	if lb.PValue > 0.05 {
//	    // Residuals are white noise (good)
//	}
//
//	// Box-Pierce test
//	bp := stats.BoxPierce(residuals, 10, p+q)
//
//	// Durbin-Watson test
//	dw := stats.DurbinWatson(residuals)
//
//	// Jarque-Bera test, sensitive to outliers and heavy tails
//	jb := stats.JarqueBera(residuals)
//
// # Information Criteria
//
// Compare fits through their Gaussian log-likelihood:
//
//	ic := stats.CalculateIC(logLik, n, p+q+1)
//	fmt.Printf("AIC=%.2f AICc=%.2f BIC=%.2f\n", ic.AIC, ic.AICc, ic.BIC)
package stats
