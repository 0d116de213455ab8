package estimators

import (
	"cmp"
	"math"
	"slices"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"

	"github.com/sartorproj/gorobarma/arma"
	"github.com/sartorproj/gorobarma/linalg"
)

// ridgeFactor scales the diagonal penalty of a retried singular solve.
const ridgeFactor = 1e-6

// problem is one criterion minimized by the Gauss-Newton/IRLS engine.
type problem struct {
	method    Method
	order     arma.Order
	residuals func(arma.Params) []float64
	// objective maps a residual vector to the criterion value.
	objective func(r []float64) float64
	// weights returns the IRLS weights at a residual vector. A nil function
	// means ordinary least squares.
	weights func(r []float64) []float64
}

func (pr problem) value(params arma.Params) float64 {
	return pr.objective(pr.residuals(params))
}

// jacobian returns d r / d params by central differences.
func (pr problem) jacobian(params arma.Params, m int) *mat.Dense {
	jac := mat.NewDense(m, pr.order.NumParams(), nil)
	fd.Jacobian(jac, func(dst, x []float64) {
		copy(dst, pr.residuals(arma.ParamsFromVector(x, pr.order)))
	}, params.Vector(), &fd.JacobianSettings{Formula: fd.Central})
	return jac
}

// outcome is the terminal state of one engine run.
type outcome struct {
	params     arma.Params
	value      float64
	iterations int
	state      State
}

// minimize runs Gauss-Newton/IRLS from start. Every accepted iterate is
// stationary, invertible and strictly decreases the objective, so the
// returned point is never worse than the (stabilized) start.
func (e *Estimator) minimize(pr problem, start arma.Params) outcome {
	cur := start.Clone()
	if !cur.Feasible() {
		cur = cur.Stabilize()
	}
	r := pr.residuals(cur)
	f := pr.objective(r)
	out := outcome{params: cur, value: f, state: StateIterating}
	if !finite(f) {
		out.state = StateDiverged
		return out
	}

	for it := 1; it <= e.opts.MaxIterations; it++ {
		if f == 0 {
			out.state = StateConverged
			return out
		}

		jac := pr.jacobian(cur, len(r))
		var w []float64
		if pr.weights != nil {
			w = pr.weights(r)
		}
		neg := make([]float64, len(r))
		for i, v := range r {
			neg[i] = -v
		}

		step, err := linalg.LeastSquares(jac, neg, w)
		if err != nil {
			step, err = linalg.RidgeLeastSquares(jac, neg, w, ridge(jac, w))
			if err != nil {
				e.log.Warn().Str("method", pr.method.String()).Int("iteration", it).Err(err).
					Msg("normal equations singular after ridge retry")
				out.state = StateDiverged
				return out
			}
			e.log.Debug().Str("method", pr.method.String()).Int("iteration", it).Msg("ridge retry")
		}

		next, fNext, ok := e.halve(pr, cur, step, f)
		if !ok {
			// No descent along the Gauss-Newton direction.
			out.state = StateConverged
			return out
		}

		decrease := (f - fNext) / math.Max(math.Abs(f), math.SmallestNonzeroFloat64)
		cur, f = next, fNext
		r = pr.residuals(cur)
		out.params, out.value, out.iterations = cur, f, it

		e.log.Debug().Str("method", pr.method.String()).Int("iteration", it).
			Float64("objective", f).Float64("decrease", decrease).Msg("step accepted")

		if decrease < e.opts.Tolerance {
			out.state = StateConverged
			return out
		}
	}

	out.state = StateMaxIterReached
	return out
}

// halve tries cur + t*step for t = 1, 1/2, 1/4, ... and returns the first
// feasible point with a strictly smaller objective.
func (e *Estimator) halve(pr problem, cur arma.Params, step []float64, f float64) (arma.Params, float64, bool) {
	x := cur.Vector()
	cand := make([]float64, len(x))
	t := 1.0
	for h := 0; h <= e.opts.MaxHalvings; h++ {
		for i := range x {
			cand[i] = x[i] + t*step[i]
		}
		p := arma.ParamsFromVector(cand, pr.order)
		if p.Feasible() {
			if v := pr.value(p); finite(v) && v < f {
				return p, v, true
			}
		}
		t /= 2
	}
	return arma.Params{}, f, false
}

// ridge returns the diagonal penalty for a singular weighted design.
func ridge(jac *mat.Dense, w []float64) float64 {
	g, err := linalg.Gram(jac, w)
	if err != nil {
		return ridgeFactor
	}
	n, _ := g.Dims()
	largest := 0.0
	for i := 0; i < n; i++ {
		largest = math.Max(largest, g.At(i, i))
	}
	if largest == 0 {
		return ridgeFactor
	}
	return ridgeFactor * largest
}

// startPoint is a labelled candidate start of a multi-start fit.
type startPoint struct {
	label  string
	params arma.Params
}

// ranked is a multi-start outcome together with the start it came from.
type ranked struct {
	outcome
	start      startPoint
	startValue float64
}

// multiStart evaluates every candidate, runs the engine from the
// e.opts.Starts best of them and returns the lowest final objective.
// Ties keep the earlier candidate.
func (e *Estimator) multiStart(pr problem, starts []startPoint) ranked {
	scored := make([]ranked, 0, len(starts))
	for _, s := range starts {
		p := s.params
		if !p.Feasible() {
			p = p.Stabilize()
		}
		v := pr.value(p)
		if !finite(v) {
			continue
		}
		scored = append(scored, ranked{start: startPoint{label: s.label, params: p}, startValue: v})
	}
	if len(scored) == 0 {
		zero := arma.Zero(pr.order, 0)
		return ranked{
			outcome:    outcome{params: zero, value: math.NaN(), state: StateDiverged},
			start:      startPoint{label: "zero", params: zero},
			startValue: math.NaN(),
		}
	}

	slices.SortStableFunc(scored, func(a, b ranked) int {
		return cmp.Compare(a.startValue, b.startValue)
	})

	best := -1
	for i := range scored[:min(len(scored), e.opts.Starts)] {
		scored[i].outcome = e.minimize(pr, scored[i].start.params)
		e.log.Debug().Str("method", pr.method.String()).Str("start", scored[i].start.label).
			Float64("initial", scored[i].startValue).Float64("final", scored[i].value).
			Str("state", scored[i].state.String()).Msg("candidate finished")
		if best < 0 || scored[i].value < scored[best].value {
			best = i
		}
	}
	return scored[best]
}

// standardErrors returns scale * sqrt(factor * diag((J'J)^-1)) for the
// residual Jacobian J at params, or NaN entries when J'J is singular.
func standardErrors(pr problem, params arma.Params, scale, factor float64) []float64 {
	k := pr.order.NumParams()
	se := make([]float64, k)
	r := pr.residuals(params)

	var inv *mat.SymDense
	g, err := linalg.Gram(pr.jacobian(params, len(r)), nil)
	if err == nil {
		inv, err = linalg.InverseSPD(g)
	}
	if err != nil || !finite(scale) || !finite(factor) {
		for i := range se {
			se[i] = math.NaN()
		}
		return se
	}
	for i := range se {
		se[i] = scale * math.Sqrt(factor*inv.At(i, i))
	}
	return se
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
