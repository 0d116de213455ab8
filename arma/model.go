// Package arma implements the ARMA(p,q) model specification and its residual recursions.
package arma

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/sartorproj/gorobarma/timeseries"
)

var (
	// ErrInvalidOrder is returned for p < 0, q < 0 or p = q = 0.
	ErrInvalidOrder = errors.New("arma: invalid order")
	// ErrInvalidInput is returned for malformed observations or parameters.
	ErrInvalidInput = errors.New("arma: invalid input")
	// ErrNotStationary is returned when the AR polynomial has a root on or inside the unit circle.
	ErrNotStationary = errors.New("arma: AR polynomial is not stationary")
	// ErrNotInvertible is returned when the MA polynomial has a root on or inside the unit circle.
	ErrNotInvertible = errors.New("arma: MA polynomial is not invertible")
)

// madConsistency makes the MAD consistent for the standard deviation under normality.
const madConsistency = 1.4826

// Order represents ARMA model order (p, q).
type Order struct {
	P int // AR order
	Q int // MA order
}

// Validate checks that the order is usable.
func (o Order) Validate() error {
	if o.P < 0 || o.Q < 0 {
		return fmt.Errorf("%w: p=%d q=%d must be non-negative", ErrInvalidOrder, o.P, o.Q)
	}
	if o.P == 0 && o.Q == 0 {
		return fmt.Errorf("%w: p and q cannot both be zero", ErrInvalidOrder)
	}
	return nil
}

// R returns max(p, q), the number of leading observations without a residual.
func (o Order) R() int {
	return max(o.P, o.Q)
}

// NumParams returns p + q + 1 (coefficients plus location).
func (o Order) NumParams() int {
	return o.P + o.Q + 1
}

// String formats the order as ARMA(p,q).
func (o Order) String() string {
	return fmt.Sprintf("ARMA(%d,%d)", o.P, o.Q)
}

// Model is an ARMA(p,q) specification bound to an observation sequence.
// A Model is immutable once constructed.
type Model struct {
	y     []float64
	order Order
	mu    float64 // median of y
	sigma float64 // normalized MAD of y
}

// New creates a model for the observations y. The slice is copied.
func New(y []float64, p, q int) (*Model, error) {
	order := Order{P: p, Q: q}
	if err := order.Validate(); err != nil {
		return nil, err
	}
	if len(y) <= p+q {
		return nil, fmt.Errorf("%w: need more than %d observations for %s, got %d",
			ErrInvalidInput, p+q, order, len(y))
	}
	for i, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: observation %d is not finite", ErrInvalidInput, i)
		}
	}

	data := clone(y)
	series := timeseries.New(data)
	return &Model{
		y:     data,
		order: order,
		mu:    series.Median(),
		sigma: madConsistency * series.MAD(),
	}, nil
}

// FromSeries creates a model from a time series.
func FromSeries(series *timeseries.Series, p, q int) (*Model, error) {
	if series == nil {
		return nil, fmt.Errorf("%w: nil series", ErrInvalidInput)
	}
	return New(series.Values, p, q)
}

// Y returns a copy of the observations.
func (m *Model) Y() []float64 { return clone(m.y) }

// P returns the AR order.
func (m *Model) P() int { return m.order.P }

// Q returns the MA order.
func (m *Model) Q() int { return m.order.Q }

// N returns the number of observations.
func (m *Model) N() int { return len(m.y) }

// R returns max(p, q).
func (m *Model) R() int { return m.order.R() }

// NumParams returns p + q + 1.
func (m *Model) NumParams() int { return m.order.NumParams() }

// Order returns the model order.
func (m *Model) Order() Order { return m.order }

// Mu returns the median of the observations, a robust location estimate.
func (m *Model) Mu() float64 { return m.mu }

// Sigma returns the normalized MAD of the observations, a robust scale estimate.
func (m *Model) Sigma() float64 { return m.sigma }

// Mean returns the sample mean of the observations.
func (m *Model) Mean() float64 { return stat.Mean(m.y, nil) }

// At returns observation t without copying.
func (m *Model) At(t int) float64 { return m.y[t] }

// Residuals computes the conditional residuals for t = r..n-1:
//
//	r_t = y_t - mu - sum phi_i (y_{t-i} - mu) - sum theta_j r_{t-j}
//
// with residuals before t = r taken as zero. The parameters must match the
// model order and satisfy the stationarity and invertibility invariant.
func (m *Model) Residuals(params Params) ([]float64, error) {
	if err := params.Check(m.order); err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return m.Filter(params, nil), nil
}

// Cleaner bounds the contribution of a one-step prediction error to the
// predictions that follow it.
type Cleaner func(u float64) float64

// Filter runs the residual recursion without checking the parameters.
//
// With a nil cleaner it returns the conditional residuals of Residuals. With
// a cleaner it runs the bounded-influence propagation recursion: each
// prediction is built from cleaned past values x*_s = yhat_s + clean(u_s) and
// cleaned past residuals clean(u_s), so an outlier at time s influences later
// residuals only through clean(u_s). The identity cleaner reproduces the
// conditional residuals exactly.
func (m *Model) Filter(params Params, clean Cleaner) []float64 {
	n := len(m.y)
	p, q := len(params.Phi), len(params.Theta)
	r := max(p, q)
	mu := params.Mu

	// Centered cleaned values and cleaned residuals over the full index range.
	xc := make([]float64, n)
	uc := make([]float64, n)
	for t := 0; t < r && t < n; t++ {
		xc[t] = m.y[t] - mu
	}

	out := make([]float64, n-r)
	for t := r; t < n; t++ {
		pred := 0.0
		for i := 1; i <= p; i++ {
			pred += params.Phi[i-1] * xc[t-i]
		}
		for j := 1; j <= q; j++ {
			pred += params.Theta[j-1] * uc[t-j]
		}

		u := m.y[t] - mu - pred
		out[t-r] = u

		if clean == nil {
			uc[t] = u
			xc[t] = m.y[t] - mu
			continue
		}
		uc[t] = clean(u)
		xc[t] = pred + uc[t]
	}
	return out
}
