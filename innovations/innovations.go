// Package innovations evaluates one-step prediction errors of ARMA models.
package innovations

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/sartorproj/gorobarma/arma"
	"github.com/sartorproj/gorobarma/linalg"
)

// ErrNonPositiveVariance is returned when the recursion produces a prediction
// variance that is not strictly positive. Callers should reject the
// parameter point rather than treat the error as fatal.
var ErrNonPositiveVariance = errors.New("innovations: non-positive prediction variance")

// Mode selects how prediction errors are generated.
type Mode int

const (
	// ModeExact runs the innovations algorithm on the exact autocovariance.
	ModeExact Mode = iota
	// ModeConditional uses the conditional residual recursion with unit variances.
	ModeConditional
	// ModeBoundedPropagation uses the BIP recursion with cleaner Scale*Eta(u/Scale).
	ModeBoundedPropagation
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeExact:
		return "exact"
	case ModeConditional:
		return "conditional"
	case ModeBoundedPropagation:
		return "bounded-propagation"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Innovations holds one-step prediction errors and their relative variances.
// The prediction variance at time t is sigma^2 * Variances[t].
type Innovations struct {
	Errors    []float64
	Variances []float64
}

// Len returns the number of prediction errors.
func (in *Innovations) Len() int {
	return len(in.Errors)
}

// Standardized returns e_t / sqrt(v_t).
func (in *Innovations) Standardized() []float64 {
	out := make([]float64, len(in.Errors))
	for i, e := range in.Errors {
		out[i] = e / math.Sqrt(in.Variances[i])
	}
	return out
}

// Sigma2 returns the profile estimate of the innovation variance,
// (1/n) sum e_t^2 / v_t.
func (in *Innovations) Sigma2() float64 {
	if len(in.Errors) == 0 {
		return 0
	}
	s := 0.0
	for i, e := range in.Errors {
		s += e * e / in.Variances[i]
	}
	return s / float64(len(in.Errors))
}

// LogLikelihood returns the Gaussian log-likelihood for innovation variance sigma2:
//
//	-1/2 sum [log(2 pi sigma2 v_t) + e_t^2 / (sigma2 v_t)]
func (in *Innovations) LogLikelihood(sigma2 float64) float64 {
	ll := 0.0
	for i, e := range in.Errors {
		v := sigma2 * in.Variances[i]
		ll += math.Log(2*math.Pi*v) + e*e/v
	}
	return -ll / 2
}

// ConcentratedLogLikelihood returns the log-likelihood at the profile
// estimate of sigma2.
func (in *Innovations) ConcentratedLogLikelihood() float64 {
	return in.LogLikelihood(in.Sigma2())
}

// Evaluator produces prediction errors for a model under one residual mode.
type Evaluator struct {
	Model *arma.Model
	Mode  Mode
	// Scale and Eta configure ModeBoundedPropagation. Eta must satisfy
	// Eta(x) ~ x near zero and be bounded.
	Scale float64
	Eta   func(float64) float64
}

// NewEvaluator returns an evaluator for the model in the given mode.
func NewEvaluator(model *arma.Model, mode Mode) *Evaluator {
	return &Evaluator{Model: model, Mode: mode}
}

// WithPropagation returns a copy of the evaluator in ModeBoundedPropagation.
func (ev *Evaluator) WithPropagation(scale float64, eta func(float64) float64) *Evaluator {
	return &Evaluator{Model: ev.Model, Mode: ModeBoundedPropagation, Scale: scale, Eta: eta}
}

// Evaluate checks the parameters and returns the prediction errors.
func (ev *Evaluator) Evaluate(params arma.Params) (*Innovations, error) {
	if err := params.Check(ev.Model.Order()); err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	if ev.Mode == ModeExact {
		return exact(ev.Model, params)
	}

	errs := ev.Residuals(params)
	variances := make([]float64, len(errs))
	for i := range variances {
		variances[i] = 1
	}
	return &Innovations{Errors: errs, Variances: variances}, nil
}

// Residuals returns the residuals of the conditional or bounded-propagation
// recursion without checking the parameters. In ModeExact it returns all n
// standardized innovations, or nil when the recursion fails.
func (ev *Evaluator) Residuals(params arma.Params) []float64 {
	switch ev.Mode {
	case ModeExact:
		in, err := exact(ev.Model, params)
		if err != nil {
			return nil
		}
		return in.Standardized()
	case ModeBoundedPropagation:
		if ev.Scale > 0 && ev.Eta != nil {
			scale, eta := ev.Scale, ev.Eta
			return ev.Model.Filter(params, func(u float64) float64 {
				return scale * eta(u/scale)
			})
		}
	}
	return ev.Model.Filter(params, nil)
}

// Autocovariance returns gamma(0..maxLag) of the ARMA process with unit
// innovation variance. The first p+1 values solve the linear system
//
//	gamma(k) - sum_i phi_i gamma(|k-i|) = sum_{j=k..q} theta_j psi_{j-k},  k = 0..p
//
// where psi are the MA(infinity) weights; later lags follow the AR recursion.
func Autocovariance(params arma.Params, maxLag int) ([]float64, error) {
	phi, theta := params.Phi, params.Theta
	p, q := len(phi), len(theta)
	if maxLag < 0 {
		return nil, fmt.Errorf("%w: negative lag", arma.ErrInvalidInput)
	}

	thetaAt := func(j int) float64 {
		switch {
		case j == 0:
			return 1
		case j <= q:
			return theta[j-1]
		default:
			return 0
		}
	}

	psi := make([]float64, q+1)
	psi[0] = 1
	for j := 1; j <= q; j++ {
		psi[j] = thetaAt(j)
		for i := 1; i <= min(j, p); i++ {
			psi[j] += phi[i-1] * psi[j-i]
		}
	}

	rhs := func(k int) float64 {
		s := 0.0
		for j := k; j <= q; j++ {
			s += thetaAt(j) * psi[j-k]
		}
		return s
	}

	size := p + 1
	a := mat.NewDense(size, size, nil)
	b := make([]float64, size)
	for k := 0; k < size; k++ {
		a.Set(k, k, a.At(k, k)+1)
		for i := 1; i <= p; i++ {
			col := k - i
			if col < 0 {
				col = -col
			}
			a.Set(k, col, a.At(k, col)-phi[i-1])
		}
		b[k] = rhs(k)
	}

	g, err := linalg.Solve(a, b)
	if err != nil {
		return nil, fmt.Errorf("autocovariance: %w", err)
	}

	gamma := make([]float64, max(maxLag, p)+1)
	copy(gamma, g)
	for k := p + 1; k < len(gamma); k++ {
		v := rhs(k)
		for i := 1; i <= p; i++ {
			v += phi[i-1] * gamma[k-i]
		}
		gamma[k] = v
	}
	return gamma[:maxLag+1], nil
}

// exact runs the innovations algorithm (Brockwell and Davis, section 5.3) on
// the transformed process W_t = X_t for t <= m and W_t = phi(B) X_t for t > m,
// m = max(p, q), whose covariance is banded beyond lag q. Only the last m
// coefficients of each row are stored, which bounds the work by O(n m^2).
func exact(model *arma.Model, params arma.Params) (*Innovations, error) {
	phi, theta := params.Phi, params.Theta
	p, q := len(phi), len(theta)
	m := max(p, q)
	n := model.N()

	gamma, err := Autocovariance(params, 2*m+1)
	if err != nil {
		return nil, err
	}

	thetaAt := func(j int) float64 {
		switch {
		case j == 0:
			return 1
		case j <= q:
			return theta[j-1]
		default:
			return 0
		}
	}

	// kappa is the covariance of W at 1-based times i and j.
	kappa := func(i, j int) float64 {
		if i > j {
			i, j = j, i
		}
		h := j - i
		switch {
		case j <= m:
			return gamma[h]
		case i <= m && j <= 2*m:
			v := gamma[h]
			for r := 1; r <= p; r++ {
				lag := r - h
				if lag < 0 {
					lag = -lag
				}
				v -= phi[r-1] * gamma[lag]
			}
			return v
		case i > m:
			if h > q {
				return 0
			}
			v := 0.0
			for r := 0; r+h <= q; r++ {
				v += thetaAt(r) * thetaAt(r+h)
			}
			return v
		default:
			return 0
		}
	}

	// coef[k][j] holds theta_{k,j} for j = 1..m.
	v := make([]float64, n)
	coef := make([][]float64, n)
	v[0] = kappa(1, 1)
	if !(v[0] > 0) {
		return nil, ErrNonPositiveVariance
	}
	for k := 1; k < n; k++ {
		coef[k] = make([]float64, m+1)
		lo := max(0, k-m)
		for i := lo; i < k; i++ {
			s := kappa(k+1, i+1)
			for j := lo; j < i; j++ {
				s -= coef[i][i-j] * coef[k][k-j] * v[j]
			}
			coef[k][k-i] = s / v[i]
		}
		s := kappa(k+1, k+1)
		for j := lo; j < k; j++ {
			c := coef[k][k-j]
			s -= c * c * v[j]
		}
		if !(s > 0) {
			return nil, fmt.Errorf("%w at t=%d", ErrNonPositiveVariance, k)
		}
		v[k] = s
	}

	// One-step predictions of the centered series.
	x := make([]float64, n)
	for t := 0; t < n; t++ {
		x[t] = model.At(t) - params.Mu
	}
	errs := make([]float64, n)
	errs[0] = x[0]
	for k := 1; k < n; k++ {
		pred := 0.0
		if k < m {
			for j := 1; j <= k; j++ {
				pred += coef[k][j] * errs[k-j]
			}
		} else {
			for i := 1; i <= p; i++ {
				pred += phi[i-1] * x[k-i]
			}
			for j := 1; j <= q; j++ {
				pred += coef[k][j] * errs[k-j]
			}
		}
		errs[k] = x[k] - pred
	}

	return &Innovations{Errors: errs, Variances: v}, nil
}
