package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// InformationCriteria holds AIC, AICc and BIC for a fitted model.
type InformationCriteria struct {
	AIC    float64
	AICc   float64
	BIC    float64
	LogLik float64
}

// CalculateIC calculates all information criteria.
// logLik is the log-likelihood, nObs is the number of observations,
// nParams is the number of estimated parameters.
func CalculateIC(logLik float64, nObs int, nParams int) *InformationCriteria {
	k := float64(nParams)
	n := float64(nObs)

	aic := -2*logLik + 2*k
	return &InformationCriteria{
		AIC:    aic,
		AICc:   AICc(aic, nObs, nParams),
		BIC:    -2*logLik + k*math.Log(n),
		LogLik: logLik,
	}
}

// AICc calculates the corrected Akaike Information Criterion,
// AIC + 2k(k+1)/(n-k-1).
func AICc(aic float64, nObs int, nParams int) float64 {
	k := float64(nParams)
	n := float64(nObs)
	if n-k-1 <= 0 {
		return math.Inf(1)
	}
	return aic + 2*k*(k+1)/(n-k-1)
}

// JarqueBeraResult represents the result of a Jarque-Bera normality test.
type JarqueBeraResult struct {
	Statistic float64
	PValue    float64
	Skewness  float64
	Kurtosis  float64 // excess kurtosis
}

// JarqueBera tests residuals for normality from their sample skewness and
// excess kurtosis. Heavy-tailed innovations give large statistics.
func JarqueBera(residuals []float64) *JarqueBeraResult {
	n := len(residuals)
	if n < 4 {
		return nil
	}
	if stat.Variance(residuals, nil) == 0 {
		return nil
	}

	skew := stat.Skew(residuals, nil)
	kurt := stat.ExKurtosis(residuals, nil)
	jb := float64(n) / 6 * (skew*skew + kurt*kurt/4)
	return &JarqueBeraResult{
		Statistic: jb,
		PValue:    distuv.ChiSquared{K: 2}.Survival(jb),
		Skewness:  skew,
		Kurtosis:  kurt,
	}
}
