package estimators

import (
	"math"

	"github.com/sartorproj/gorobarma/arma"
	"github.com/sartorproj/gorobarma/innovations"
	"github.com/sartorproj/gorobarma/robust"
)

// filterTolerance is the relative change of the filter scale that ends the
// outer rounds of the bounded-propagation estimators.
const filterTolerance = 1e-4

// residualSource returns the conditional residuals of model, or the
// bounded-propagation residuals with cleaner scale filterScale when it is
// positive.
func (e *Estimator) residualSource(model *arma.Model, filterScale float64) func(arma.Params) []float64 {
	ev := innovations.NewEvaluator(model, innovations.ModeConditional)
	if filterScale > 0 {
		ev = ev.WithPropagation(filterScale, e.eta.Eta)
	}
	return ev.Residuals
}

func (e *Estimator) mScale(r []float64) float64 {
	return robust.MScale(r, e.sLoss, e.sB, e.opts.ScaleIterations, e.opts.ScaleTolerance).Scale
}

func weightsAt(r []float64, s float64, loss robust.Loss) []float64 {
	w := make([]float64, len(r))
	for i, v := range r {
		w[i] = loss.Weight(v / s)
	}
	return w
}

func standardize(r []float64, s float64) []float64 {
	u := make([]float64, len(r))
	for i, v := range r {
		u[i] = v / s
	}
	return u
}

// sProblem minimizes the M-scale of the residuals.
func (e *Estimator) sProblem(model *arma.Model, method Method, filterScale float64) problem {
	return problem{
		method:    method,
		order:     model.Order(),
		residuals: e.residualSource(model, filterScale),
		objective: e.mScale,
		weights: func(r []float64) []float64 {
			s := e.mScale(r)
			if s == 0 {
				return nil
			}
			return weightsAt(r, s, e.sLoss)
		},
	}
}

// tauProblem minimizes the tau-scale of the residuals.
func (e *Estimator) tauProblem(model *arma.Model, filterScale float64) problem {
	return problem{
		method:    MethodFTau,
		order:     model.Order(),
		residuals: e.residualSource(model, filterScale),
		objective: e.tauScale,
		weights: func(r []float64) []float64 {
			s := e.tauM(r)
			if s == 0 {
				return nil
			}
			return robust.TauWeights(standardize(r, s), e.tau1, e.tau2)
		},
	}
}

// tauM is the M-scale of the robustness loss behind the tau-scale.
func (e *Estimator) tauM(r []float64) float64 {
	return robust.MScale(r, e.tau1, e.tau1B, e.opts.ScaleIterations, e.opts.ScaleTolerance).Scale
}

func (e *Estimator) tauScale(r []float64) float64 {
	return robust.TauScale(r, e.tauM(r), e.tau2, e.tau2B)
}

// initialScale returns the smallest criterion value of the conditional
// residuals over the start points, the first filter scale of a
// bounded-propagation fit.
func (e *Estimator) initialScale(model *arma.Model, starts []startPoint, scale func([]float64) float64) float64 {
	residuals := e.residualSource(model, 0)
	best := math.Inf(1)
	for _, s := range starts {
		p := s.params
		if !p.Feasible() {
			p = p.Stabilize()
		}
		if v := scale(residuals(p)); finite(v) && v < best {
			best = v
		}
	}
	if math.IsInf(best, 1) {
		return 0
	}
	return best
}

// filtered minimizes build(sigma) from the start points, then alternates
// between refreshing sigma with the attained scale and minimizing again from
// the current estimate. It stops when sigma settles or after FilterRounds
// rounds and returns the final problem with the estimate.
func (e *Estimator) filtered(build func(sigma float64) problem, starts []startPoint, sigma float64) (ranked, problem) {
	pr := build(sigma)
	best := e.multiStart(pr, starts)
	iterations := best.iterations

	for round := 2; round <= e.opts.FilterRounds; round++ {
		next := best.value
		if !finite(next) || next <= 0 || math.Abs(next-sigma) <= filterTolerance*sigma {
			break
		}
		e.log.Debug().Str("method", pr.method.String()).Int("round", round).
			Float64("filter_scale", next).Msg("filter scale refreshed")
		sigma = next
		pr = build(sigma)
		best.outcome = e.minimize(pr, best.params)
		iterations += best.iterations
	}
	best.iterations = iterations
	return best, pr
}

// scaleFit packages the outcome of a scale-minimizing fit. se computes the
// standard errors at the final estimate.
func (e *Estimator) scaleFit(model *arma.Model, method Method, best ranked, se []float64) *Fit {
	e.log.Debug().Str("method", method.String()).Str("state", best.state.String()).
		Str("start", best.start.label).Int("iterations", best.iterations).
		Float64("scale", best.value).Msg("fit finished")
	return &Fit{
		Model:  model,
		Params: best.params,
		Result: Result{
			Method:         method,
			State:          best.state,
			Converged:      best.state == StateConverged,
			Iterations:     best.iterations,
			Scale:          best.value,
			StandardErrors: se,
			ObjectiveValue: best.value,
			Report:         "start: " + best.start.label,
		},
		InitialParams: best.start.params,
		InitialResult: Result{
			Method:         method,
			State:          StateInitialEstimate,
			Scale:          best.startValue,
			ObjectiveValue: best.startValue,
			Report:         "start: " + best.start.label,
		},
	}
}

// mSE returns the standard errors of an M-type fit with residual scale s.
func mSE(pr problem, params arma.Params, s float64, loss robust.Loss) []float64 {
	if s == 0 || !finite(s) {
		return standardErrors(pr, params, math.NaN(), 1)
	}
	u := standardize(pr.residuals(params), s)
	return standardErrors(pr, params, s, robust.AsymptoticFactor(u, loss))
}

// S fits model by the S-estimator: the parameters minimizing the bisquare
// M-scale of the conditional residuals, searched from several start points.
func (e *Estimator) S(model *arma.Model) (*Fit, error) {
	if err := checkModel(model); err != nil {
		return nil, err
	}
	pr := e.sProblem(model, MethodS, 0)
	best := e.multiStart(pr, e.candidates(model))
	return e.scaleFit(model, MethodS, best, mSE(pr, best.params, best.value, e.sLoss)), nil
}

// BIPS fits model by the S-estimator on bounded-propagation residuals. The
// cleaner scale starts at the smallest conditional M-scale of the start
// points and follows the attained M-scale between rounds.
func (e *Estimator) BIPS(model *arma.Model) (*Fit, error) {
	if err := checkModel(model); err != nil {
		return nil, err
	}
	starts := e.candidates(model)
	sigma := e.initialScale(model, starts, e.mScale)
	best, pr := e.filtered(func(sigma float64) problem {
		return e.sProblem(model, MethodBS, sigma)
	}, starts, sigma)
	return e.scaleFit(model, MethodBS, best, mSE(pr, best.params, best.value, e.sLoss)), nil
}

// FTau fits model by the filtered tau-estimator: the parameters minimizing
// the tau-scale of the bounded-propagation residuals, with the cleaner scale
// following the attained tau-scale.
func (e *Estimator) FTau(model *arma.Model) (*Fit, error) {
	if err := checkModel(model); err != nil {
		return nil, err
	}
	starts := e.candidates(model)
	sigma := e.initialScale(model, starts, e.tauScale)
	best, pr := e.filtered(func(sigma float64) problem {
		return e.tauProblem(model, sigma)
	}, starts, sigma)

	se := standardErrors(pr, best.params, math.NaN(), 1)
	r := pr.residuals(best.params)
	if s := e.tauM(r); s > 0 {
		u := standardize(r, s)
		mix := robust.Mixture{W: robust.TauFactor(u, e.tau1, e.tau2), First: e.tau1, Second: e.tau2}
		se = standardErrors(pr, best.params, s, robust.AsymptoticFactor(u, mix))
	}
	return e.scaleFit(model, MethodFTau, best, se), nil
}

// MM fits model by the MM-estimator started at the S estimate.
func (e *Estimator) MM(model *arma.Model) (*Fit, error) {
	init, err := e.S(model)
	if err != nil {
		return nil, err
	}
	return e.mmStep(model, init, 0, MethodMM), nil
}

// BIPMM fits model by the MM step started at whichever of the S and BIP-S
// estimates has the smaller scale. The MM step uses the residual mode of the
// chosen start.
func (e *Estimator) BIPMM(model *arma.Model) (*Fit, error) {
	sFit, err := e.S(model)
	if err != nil {
		return nil, err
	}
	bFit, err := e.BIPS(model)
	if err != nil {
		return nil, err
	}

	init, filterScale := sFit, 0.0
	if bFit.Result.Scale < sFit.Result.Scale {
		init, filterScale = bFit, bFit.Result.Scale
	}
	e.log.Debug().Str("method", MethodBMM.String()).Str("start", init.Result.Method.String()).
		Float64("scale", init.Result.Scale).Msg("mm start selected")
	return e.mmStep(model, init, filterScale, MethodBMM), nil
}

// mmStep minimizes mean rho_MM(r/s) with s held at the scale of init. The
// returned InitialResult reports the objective of init on the MM criterion.
// When the step diverges the estimate of init is returned unconverged.
func (e *Estimator) mmStep(model *arma.Model, init *Fit, filterScale float64, method Method) *Fit {
	s := init.Result.Scale
	pr := problem{
		method:    method,
		order:     model.Order(),
		residuals: e.residualSource(model, filterScale),
		objective: func(r []float64) float64 {
			return robust.MeanRho(r, e.mmLoss, s)
		},
		weights: func(r []float64) []float64 {
			return weightsAt(r, s, e.mmLoss)
		},
	}

	fit := &Fit{Model: model, InitialParams: init.Params.Clone(), InitialResult: init.Result.clone()}
	if s == 0 {
		// An exact fit of more than half of the series.
		fit.Params = init.Params.Clone()
		fit.Result = Result{
			Method:         method,
			State:          StateConverged,
			Converged:      true,
			StandardErrors: mSE(pr, init.Params, s, e.mmLoss),
			Report:         "zero scale",
		}
		return fit
	}

	startValue := math.NaN()
	if finite(s) {
		startValue = pr.value(init.Params)
	}
	fit.InitialResult.ObjectiveValue = startValue
	fit.InitialResult.Report = joinReport(init.Result.Report, "objective on the mm criterion")

	var out outcome
	if finite(startValue) {
		out = e.minimize(pr, init.Params)
	} else {
		out = outcome{params: init.Params, value: startValue, state: StateDiverged}
	}

	if out.state == StateDiverged || !(out.value <= startValue) {
		e.log.Warn().Str("method", method.String()).Float64("start_objective", startValue).
			Float64("objective", out.value).Msg("mm step diverged, returning the initial estimate")
		fit.Params = init.Params.Clone()
		fit.Result = Result{
			Method:         method,
			State:          StateDiverged,
			Iterations:     out.iterations,
			Scale:          s,
			StandardErrors: mSE(pr, init.Params, s, e.mmLoss),
			ObjectiveValue: startValue,
			Report:         "mm step diverged",
		}
		return fit
	}

	e.log.Debug().Str("method", method.String()).Str("state", out.state.String()).
		Int("iterations", out.iterations).Float64("objective", out.value).Msg("fit finished")
	fit.Params = out.params
	fit.Result = Result{
		Method:         method,
		State:          out.state,
		Converged:      out.state == StateConverged,
		Iterations:     out.iterations,
		Scale:          s,
		StandardErrors: mSE(pr, out.params, s, e.mmLoss),
		ObjectiveValue: out.value,
	}
	return fit
}

func joinReport(a, b string) string {
	if a == "" {
		return b
	}
	return a + "; " + b
}
