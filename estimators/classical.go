package estimators

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"

	"github.com/sartorproj/gorobarma/arma"
	"github.com/sartorproj/gorobarma/innovations"
)

// mlePenalty is the objective value of a rejected likelihood evaluation.
const mlePenalty = 1e10

// leastSquares is the conditional sum-of-squares criterion.
func leastSquares(model *arma.Model, method Method) problem {
	ev := innovations.NewEvaluator(model, innovations.ModeConditional)
	return problem{
		method:    method,
		order:     model.Order(),
		residuals: ev.Residuals,
		objective: func(r []float64) float64 {
			if len(r) == 0 {
				return 0
			}
			return floats.Dot(r, r) / float64(len(r))
		},
	}
}

// residualStd returns sqrt(sum r^2 / (m - k)), or the root mean square when
// there are no more residuals than parameters.
func residualStd(r []float64, k int) float64 {
	m := len(r)
	if m == 0 {
		return 0
	}
	ss := floats.Dot(r, r)
	if m > k {
		return math.Sqrt(ss / float64(m-k))
	}
	return math.Sqrt(ss / float64(m))
}

// HannanRissanen fits model by the two-stage regression. When the
// regressions are singular the zero start is returned in StateDiverged.
func (e *Estimator) HannanRissanen(model *arma.Model) (*Fit, error) {
	if err := checkModel(model); err != nil {
		return nil, err
	}
	order := model.Order()
	pr := leastSquares(model, MethodHannanRissanen)

	state, report := StateConverged, ""
	params, err := e.hannanRissanen(model, false)
	if err != nil {
		e.log.Warn().Str("method", MethodHannanRissanen.String()).Err(err).Msg("two-stage regression failed")
		params = arma.Zero(order, model.Mean())
		state, report = StateDiverged, err.Error()
	}

	r := pr.residuals(params)
	scale := residualStd(r, order.NumParams())
	res := Result{
		Method:         MethodHannanRissanen,
		State:          state,
		Converged:      state == StateConverged,
		Iterations:     1,
		Scale:          scale,
		StandardErrors: standardErrors(pr, params, scale, 1),
		ObjectiveValue: pr.objective(r),
		Report:         report,
	}
	return &Fit{
		Model:         model,
		Params:        params,
		Result:        res,
		InitialParams: params.Clone(),
		InitialResult: res.clone(),
	}, nil
}

// OLS fits model by conditional least squares, started at the two-stage
// regression estimate.
func (e *Estimator) OLS(model *arma.Model) (*Fit, error) {
	init, err := e.HannanRissanen(model)
	if err != nil {
		return nil, err
	}
	pr := leastSquares(model, MethodOLS)
	out := e.minimize(pr, init.Params)

	r := pr.residuals(out.params)
	scale := residualStd(r, model.NumParams())
	e.log.Debug().Str("method", MethodOLS.String()).Str("state", out.state.String()).
		Int("iterations", out.iterations).Float64("objective", out.value).Msg("fit finished")

	return &Fit{
		Model:  model,
		Params: out.params,
		Result: Result{
			Method:         MethodOLS,
			State:          out.state,
			Converged:      out.state == StateConverged,
			Iterations:     out.iterations,
			Scale:          scale,
			StandardErrors: standardErrors(pr, out.params, scale, 1),
			ObjectiveValue: out.value,
		},
		InitialParams: init.Params,
		InitialResult: init.Result,
	}, nil
}

// reparam maps parameters to the unconstrained space of the likelihood
// search: atanh of the partial autocorrelations of phi and of -theta, then mu.
type reparam struct {
	order arma.Order
	bound float64
}

func (rp reparam) forward(params arma.Params) []float64 {
	params = params.Stabilize()
	z := make([]float64, 0, rp.order.NumParams())

	neg := make([]float64, len(params.Theta))
	for i, v := range params.Theta {
		neg[i] = -v
	}
	for _, coefs := range [][]float64{params.Phi, neg} {
		partials, ok := arma.ToPartials(coefs)
		if !ok {
			partials = make([]float64, len(coefs))
		}
		for _, a := range partials {
			z = append(z, math.Atanh(math.Max(-rp.bound, math.Min(rp.bound, a))))
		}
	}
	return append(z, params.Mu)
}

func (rp reparam) inverse(z []float64) arma.Params {
	p, q := rp.order.P, rp.order.Q
	tanh := func(v []float64) []float64 {
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = math.Tanh(x)
		}
		return out
	}
	theta := arma.FromPartials(tanh(z[p : p+q]))
	for i := range theta {
		theta[i] = -theta[i]
	}
	return arma.Params{Phi: arma.FromPartials(tanh(z[:p])), Theta: theta, Mu: z[p+q]}
}

// MLE fits model by exact Gaussian maximum likelihood, started at the OLS
// estimate. The innovation variance is profiled out and the search runs BFGS
// over the reparametrized coefficients, so every candidate is stationary and
// invertible. Rejected evaluations are penalized and the returned point is
// the best one evaluated.
func (e *Estimator) MLE(model *arma.Model) (*Fit, error) {
	init, err := e.OLS(model)
	if err != nil {
		return nil, err
	}
	order := model.Order()
	n := float64(model.N())
	ev := innovations.NewEvaluator(model, innovations.ModeExact)
	rp := reparam{order: order, bound: e.opts.PartialBound}

	// The likelihood is unbounded at an exact fit.
	if in, err := ev.Evaluate(init.Params); err == nil && in.Sigma2() == 0 {
		e.log.Debug().Str("method", MethodMLE.String()).Msg("exact fit at the start, skipping the likelihood search")
		return &Fit{
			Model:  model,
			Params: init.Params.Clone(),
			Result: Result{
				Method:         MethodMLE,
				State:          StateConverged,
				Converged:      true,
				StandardErrors: standardErrors(leastSquares(model, MethodMLE), init.Params, math.NaN(), 1),
				ObjectiveValue: math.Inf(-1),
				Report:         "exact fit",
			},
			InitialParams: init.Params.Clone(),
			InitialResult: init.Result.clone(),
		}, nil
	}

	var (
		bestZ []float64
		bestF = math.Inf(1)
	)
	objective := func(z []float64) float64 {
		in, err := ev.Evaluate(rp.inverse(z))
		if err != nil {
			return mlePenalty
		}
		f := -in.ConcentratedLogLikelihood() / n
		if !finite(f) {
			return mlePenalty
		}
		if f < bestF {
			bestF = f
			bestZ = append(bestZ[:0], z...)
		}
		return f
	}
	gradient := func(grad, z []float64) {
		fd.Gradient(grad, objective, z, &fd.Settings{Formula: fd.Central})
	}

	z0 := rp.forward(init.Params)
	f0 := objective(z0)

	settings := &optimize.Settings{
		MajorIterations:   e.opts.MaxIterations,
		GradientThreshold: 1e-6,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-10,
			Relative:   e.opts.Tolerance,
			Iterations: 10,
		},
	}
	res, err := optimize.Minimize(optimize.Problem{Func: objective, Grad: gradient}, z0, settings, &optimize.BFGS{})

	iterations := 0
	status := optimize.Failure
	if res != nil {
		iterations = res.MajorIterations
		status = res.Status
	}

	state := StateDiverged
	switch {
	case bestZ == nil:
		bestZ = z0
	case err == nil && converged(status):
		state = StateConverged
	case status == optimize.IterationLimit:
		state = StateMaxIterReached
	default:
		g := make([]float64, len(bestZ))
		gradient(g, bestZ)
		if floats.Norm(g, math.Inf(1)) < 1e-4 {
			state = StateConverged
		}
	}

	report := fmt.Sprintf("optimizer status: %s", status)
	if err != nil {
		report += fmt.Sprintf(" (%v)", err)
		e.log.Warn().Str("method", MethodMLE.String()).Err(err).Str("status", status.String()).
			Msg("likelihood search stopped early")
	}

	params := rp.inverse(bestZ)
	if !(bestF <= f0) && finite(f0) {
		params = init.Params
	}

	scale, objectiveValue := math.NaN(), math.NaN()
	if in, err := ev.Evaluate(params); err == nil {
		scale = math.Sqrt(in.Sigma2())
		objectiveValue = -in.ConcentratedLogLikelihood()
	}
	e.log.Debug().Str("method", MethodMLE.String()).Str("state", state.String()).
		Int("iterations", iterations).Float64("objective", objectiveValue).Msg("fit finished")

	return &Fit{
		Model:  model,
		Params: params,
		Result: Result{
			Method:         MethodMLE,
			State:          state,
			Converged:      state == StateConverged,
			Iterations:     iterations,
			Scale:          scale,
			StandardErrors: standardErrors(leastSquares(model, MethodMLE), params, scale, 1),
			ObjectiveValue: objectiveValue,
			Report:         report,
		},
		InitialParams: init.Params,
		InitialResult: init.Result,
	}, nil
}

func converged(status optimize.Status) bool {
	switch status {
	case optimize.Success, optimize.FunctionConvergence, optimize.GradientThreshold,
		optimize.StepConvergence, optimize.MethodConverge:
		return true
	}
	return false
}
