package estimators

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/sartorproj/gorobarma/arma"
	"github.com/sartorproj/gorobarma/linalg"
	"github.com/sartorproj/gorobarma/robust"
)

var errShortSeries = errors.New("series too short for the two-stage regression")

// gridValues are the coefficient values of the start grid for small orders.
var gridValues = []float64{-0.5, 0, 0.5}

// hannanRissanen returns the two-stage regression estimate: a long AR(m)
// fit supplies innovation estimates, then y is regressed on its own lags and
// the lagged innovation estimates. With robustFit the series is centered at
// its median and both stages are bisquare M-regressions. The estimate is
// stabilized before it is returned.
func (e *Estimator) hannanRissanen(model *arma.Model, robustFit bool) (arma.Params, error) {
	y := model.Y()
	n := len(y)
	p, q := model.P(), model.Q()

	center := model.Mean()
	if robustFit {
		center = model.Mu()
	}
	x := make([]float64, n)
	for i, v := range y {
		x[i] = v - center
	}

	regress := func(design *mat.Dense, target []float64) ([]float64, error) {
		if !robustFit {
			return linalg.LeastSquares(design, target, nil)
		}
		res, err := robust.Regression(design, target, e.opts.RegressionConstant, e.opts.MaxIterations, e.opts.Tolerance)
		if err != nil {
			return nil, err
		}
		return res.Coefficients, nil
	}

	if q == 0 {
		rows := n - p
		if rows < p+1 {
			return arma.Params{}, errShortSeries
		}
		design := mat.NewDense(rows, p, nil)
		target := make([]float64, rows)
		for t := p; t < n; t++ {
			for i := 1; i <= p; i++ {
				design.Set(t-p, i-1, x[t-i])
			}
			target[t-p] = x[t]
		}
		phi, err := regress(design, target)
		if err != nil {
			return arma.Params{}, fmt.Errorf("ar regression: %w", err)
		}
		return arma.NewParams(phi, nil, center).Stabilize(), nil
	}

	// Long autoregression order, bounded so that both stages keep at least
	// as many rows as columns.
	m := max(p+q+1, min(20, int(math.Sqrt(float64(n)))))
	m = min(m, n/2, n-p-2*q-1)
	if m < 1 {
		return arma.Params{}, errShortSeries
	}

	design := mat.NewDense(n-m, m, nil)
	target := make([]float64, n-m)
	for t := m; t < n; t++ {
		for i := 1; i <= m; i++ {
			design.Set(t-m, i-1, x[t-i])
		}
		target[t-m] = x[t]
	}
	a, err := regress(design, target)
	if err != nil {
		return arma.Params{}, fmt.Errorf("long ar regression: %w", err)
	}

	innov := make([]float64, n)
	for t := m; t < n; t++ {
		pred := 0.0
		for i := 1; i <= m; i++ {
			pred += a[i-1] * x[t-i]
		}
		innov[t] = x[t] - pred
	}

	first := m + q
	rows := n - first
	design = mat.NewDense(rows, p+q, nil)
	target = make([]float64, rows)
	for t := first; t < n; t++ {
		for i := 1; i <= p; i++ {
			design.Set(t-first, i-1, x[t-i])
		}
		for j := 1; j <= q; j++ {
			design.Set(t-first, p+j-1, innov[t-j])
		}
		target[t-first] = x[t]
	}
	coef, err := regress(design, target)
	if err != nil {
		return arma.Params{}, fmt.Errorf("arma regression: %w", err)
	}
	return arma.NewParams(coef[:p], coef[p:], center).Stabilize(), nil
}

// candidates returns the start points of the S-type estimators: the
// classical and robust two-stage regressions, the zero start at the median
// and, for p+q <= 2, a coefficient grid.
func (e *Estimator) candidates(model *arma.Model) []startPoint {
	order := model.Order()
	var starts []startPoint
	if p, err := e.hannanRissanen(model, false); err == nil {
		starts = append(starts, startPoint{label: "hannan_rissanen", params: p})
	}
	if p, err := e.hannanRissanen(model, true); err == nil {
		starts = append(starts, startPoint{label: "robust_hannan_rissanen", params: p})
	}
	starts = append(starts, startPoint{label: "zero", params: arma.Zero(order, model.Mu())})

	k := order.P + order.Q
	if k > 2 {
		return starts
	}
	coefs := make([]float64, k)
	var walk func(i int)
	walk = func(i int) {
		if i == k {
			allZero := true
			for _, c := range coefs {
				allZero = allZero && c == 0
			}
			if !allZero {
				v := append(append([]float64(nil), coefs...), model.Mu())
				starts = append(starts, startPoint{
					label:  fmt.Sprintf("grid%v", coefs),
					params: arma.ParamsFromVector(v, order),
				})
			}
			return
		}
		for _, g := range gridValues {
			coefs[i] = g
			walk(i + 1)
		}
	}
	walk(0)
	return starts
}
