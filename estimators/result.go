package estimators

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/sartorproj/gorobarma/arma"
	"github.com/sartorproj/gorobarma/innovations"
	"github.com/sartorproj/gorobarma/stats"
)

// Result describes how an estimate was obtained.
type Result struct {
	Method     Method
	State      State
	Converged  bool
	Iterations int
	// Scale is the residual scale of the fit: the standard deviation for the
	// classical methods, the M-scale for S/MM and the tau-scale for FTau.
	Scale float64
	// StandardErrors are ordered phi_1..phi_p, theta_1..theta_q, mu. They are
	// NaN when the information matrix is singular.
	StandardErrors []float64
	// ObjectiveValue is the criterion the method minimized: the mean squared
	// residual for OLS, the negative log-likelihood for MLE, the attained
	// scale for S, BIP-S and FTau, and mean rho_MM(r/s) for the MM steps.
	// An MM value is not comparable with the scale reported by its S start;
	// InitialResult of an MM fit carries the S estimate rescored on the MM
	// criterion instead.
	ObjectiveValue float64
	Report         string
}

// String formats the result like "method: mm, convergence: true, ...".
func (r Result) String() string {
	s := fmt.Sprintf("method: %s, convergence: %t, state: %s, iterations: %d, scale: %.6g, final_cost: %.6g",
		r.Method, r.Converged, r.State, r.Iterations, r.Scale, r.ObjectiveValue)
	if r.Report != "" {
		s += ", report: " + r.Report
	}
	return s
}

func (r Result) clone() Result {
	r.StandardErrors = slices.Clone(r.StandardErrors)
	return r
}

// Fit is the outcome of one estimator call.
type Fit struct {
	Model  *arma.Model
	Params arma.Params
	Result Result
	// InitialParams and InitialResult describe the starting estimate the
	// method refined, for example the S estimate behind an MM fit.
	InitialParams arma.Params
	InitialResult Result
}

// Residuals returns the conditional residuals at the fitted parameters.
func (f *Fit) Residuals() []float64 {
	return f.Model.Filter(f.Params, nil)
}

// Summary is a diagnostic digest of a fit.
type Summary struct {
	Method         Method
	Order          arma.Order
	Params         arma.Params
	StandardErrors []float64
	Scale          float64
	Converged      bool
	NObs           int
	// LogLik is the exact Gaussian log-likelihood at the fitted parameters
	// with the innovation variance profiled out.
	LogLik     float64
	Criteria   *stats.InformationCriteria
	LjungBox     *stats.LjungBoxResult
	BoxPierce    *stats.BoxPierceResult
	DurbinWatson *stats.DurbinWatsonResult
	JarqueBera   *stats.JarqueBeraResult
	// ResidualACF holds the residual autocorrelations up to diagnosticLags
	// and SignificantLags the lags outside its 95% bound.
	ResidualACF     *stats.ACFResult
	SignificantLags []int
	ARRoots         []complex128
	MARoots         []complex128
}

// diagnosticLags is the number of residual autocorrelations behind the
// portmanteau tests of a Summary.
const diagnosticLags = 10

// Summary returns a summary of the fit.
func (f *Fit) Summary() *Summary {
	order := f.Model.Order()
	residuals := f.Residuals()

	logLik := math.NaN()
	if in, err := innovations.NewEvaluator(f.Model, innovations.ModeExact).Evaluate(f.Params); err == nil {
		logLik = in.ConcentratedLogLikelihood()
	}

	fitdf := order.P + order.Q
	s := &Summary{
		Method:         f.Result.Method,
		Order:          order,
		Params:         f.Params.Clone(),
		StandardErrors: append([]float64(nil), f.Result.StandardErrors...),
		Scale:          f.Result.Scale,
		Converged:      f.Result.Converged,
		NObs:           f.Model.N(),
		LogLik:         logLik,
		Criteria:       stats.CalculateIC(logLik, f.Model.N(), order.NumParams()+1),
		LjungBox:       stats.LjungBox(residuals, diagnosticLags, fitdf),
		BoxPierce:      stats.BoxPierce(residuals, diagnosticLags, fitdf),
		DurbinWatson:   stats.DurbinWatson(residuals),
		JarqueBera:     stats.JarqueBera(residuals),
		ResidualACF:    stats.ACFWithConfidence(residuals, diagnosticLags),
		ARRoots:        f.Params.ARRoots(),
		MARoots:        f.Params.MARoots(),
	}
	if s.ResidualACF != nil {
		s.SignificantLags = stats.SignificantLags(s.ResidualACF.Values, s.ResidualACF.ConfBounds)
	}
	return s
}

// String formats the fit as a coefficient table followed by the result.
func (f *Fit) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s fit by %s (n=%d)\n", f.Model.Order(), f.Result.Method, f.Model.N())

	names := paramNames(f.Model.Order())
	values := f.Params.Vector()
	for i, name := range names {
		se := math.NaN()
		if i < len(f.Result.StandardErrors) {
			se = f.Result.StandardErrors[i]
		}
		fmt.Fprintf(&b, "  %-8s %12.6f  (se %.6f)\n", name, values[i], se)
	}
	fmt.Fprintf(&b, "  %s\n", f.Result)
	return b.String()
}

func paramNames(order arma.Order) []string {
	names := make([]string, 0, order.NumParams())
	for i := 1; i <= order.P; i++ {
		names = append(names, fmt.Sprintf("phi%d", i))
	}
	for j := 1; j <= order.Q; j++ {
		names = append(names, fmt.Sprintf("theta%d", j))
	}
	return append(names, "mu")
}
