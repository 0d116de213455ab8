package arma

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// stabilityMargin keeps partial autocorrelations strictly inside (-1, 1).
const stabilityMargin = 1e-8

// Params holds ARMA parameters.
type Params struct {
	Phi   []float64 // AR coefficients
	Theta []float64 // MA coefficients
	Mu    float64   // Location
}

// NewParams copies phi and theta into a new parameter set.
func NewParams(phi, theta []float64, mu float64) Params {
	return Params{Phi: clone(phi), Theta: clone(theta), Mu: mu}
}

// Zero returns the parameter set with all coefficients zero and location mu.
func Zero(order Order, mu float64) Params {
	return Params{
		Phi:   make([]float64, order.P),
		Theta: make([]float64, order.Q),
		Mu:    mu,
	}
}

// Clone returns a deep copy.
func (p Params) Clone() Params {
	return NewParams(p.Phi, p.Theta, p.Mu)
}

// Order returns the order implied by the coefficient lengths.
func (p Params) Order() Order {
	return Order{P: len(p.Phi), Q: len(p.Theta)}
}

// Vector packs the parameters as (phi_1..phi_p, theta_1..theta_q, mu).
func (p Params) Vector() []float64 {
	v := make([]float64, 0, len(p.Phi)+len(p.Theta)+1)
	v = append(v, p.Phi...)
	v = append(v, p.Theta...)
	return append(v, p.Mu)
}

// ParamsFromVector unpacks a vector laid out as by Params.Vector.
func ParamsFromVector(v []float64, order Order) Params {
	return Params{
		Phi:   clone(v[:order.P]),
		Theta: clone(v[order.P : order.P+order.Q]),
		Mu:    v[order.P+order.Q],
	}
}

// Check verifies that the parameters match order and are finite.
func (p Params) Check(order Order) error {
	if len(p.Phi) != order.P || len(p.Theta) != order.Q {
		return fmt.Errorf("%w: parameters have order (%d,%d), model has (%d,%d)",
			ErrInvalidInput, len(p.Phi), len(p.Theta), order.P, order.Q)
	}
	for _, v := range p.Vector() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite parameter", ErrInvalidInput)
		}
	}
	return nil
}

// Stationary reports whether the roots of 1 - phi_1 z - ... - phi_p z^p lie
// outside the unit circle.
func (p Params) Stationary() bool {
	_, ok := ToPartials(p.Phi)
	return ok
}

// Invertible reports whether the roots of 1 + theta_1 z + ... + theta_q z^q
// lie outside the unit circle.
func (p Params) Invertible() bool {
	_, ok := ToPartials(negate(p.Theta))
	return ok
}

// Feasible reports whether the parameters are both stationary and invertible.
func (p Params) Feasible() bool {
	return p.Stationary() && p.Invertible()
}

// Validate returns ErrNotStationary or ErrNotInvertible when the parameters
// violate the stability invariant.
func (p Params) Validate() error {
	if !p.Stationary() {
		return ErrNotStationary
	}
	if !p.Invertible() {
		return ErrNotInvertible
	}
	return nil
}

// Stabilize shrinks the AR and MA coefficients geometrically until the
// parameters are feasible.
func (p Params) Stabilize() Params {
	out := p.Clone()
	for i := 0; i < 200 && !out.Stationary(); i++ {
		for j := range out.Phi {
			out.Phi[j] *= 0.9
		}
	}
	for i := 0; i < 200 && !out.Invertible(); i++ {
		for j := range out.Theta {
			out.Theta[j] *= 0.9
		}
	}
	return out
}

// ARRoots returns the roots of the AR polynomial.
func (p Params) ARRoots() []complex128 {
	return polynomialRoots(p.Phi)
}

// MARoots returns the roots of the MA polynomial.
func (p Params) MARoots() []complex128 {
	return polynomialRoots(negate(p.Theta))
}

// String formats the parameters.
func (p Params) String() string {
	return fmt.Sprintf("phi=%v theta=%v mu=%.6g", p.Phi, p.Theta, p.Mu)
}

// ToPartials maps AR coefficients to partial autocorrelations with the
// Durbin-Levinson step-down recursion. ok is false when some partial
// autocorrelation is not strictly inside the unit interval, which happens
// exactly when the AR polynomial has a root on or inside the unit circle.
func ToPartials(phi []float64) (partials []float64, ok bool) {
	p := len(phi)
	partials = make([]float64, p)
	cur := clone(phi)
	for k := p; k >= 1; k-- {
		a := cur[k-1]
		if math.IsNaN(a) || math.Abs(a) >= 1-stabilityMargin {
			return nil, false
		}
		partials[k-1] = a
		denom := 1 - a*a
		next := make([]float64, k-1)
		for j := 0; j < k-1; j++ {
			next[j] = (cur[j] + a*cur[k-2-j]) / denom
		}
		cur = next
	}
	return partials, true
}

// FromPartials maps partial autocorrelations in (-1, 1) to the coefficients
// of a stationary AR polynomial (Durbin-Levinson step-up recursion).
func FromPartials(partials []float64) []float64 {
	p := len(partials)
	phi := make([]float64, p)
	work := make([]float64, p)
	for k := 0; k < p; k++ {
		a := partials[k]
		copy(work, phi)
		for j := 0; j < k; j++ {
			phi[j] = work[j] - a*work[k-1-j]
		}
		phi[k] = a
	}
	return phi
}

// polynomialRoots returns the roots of 1 - c_1 z - ... - c_k z^k. They are the
// reciprocals of the eigenvalues of the companion matrix of c.
func polynomialRoots(c []float64) []complex128 {
	k := len(c)
	if k == 0 {
		return nil
	}

	companion := mat.NewDense(k, k, nil)
	for j := 0; j < k; j++ {
		companion.Set(0, j, c[j])
	}
	for i := 1; i < k; i++ {
		companion.Set(i, i-1, 1)
	}

	var eig mat.Eigen
	if ok := eig.Factorize(companion, mat.EigenNone); !ok {
		return nil
	}

	values := eig.Values(nil)
	roots := make([]complex128, 0, len(values))
	for _, v := range values {
		if cmplx.Abs(v) == 0 {
			roots = append(roots, cmplx.Inf())
			continue
		}
		roots = append(roots, 1/v)
	}
	return roots
}

func negate(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = -x
	}
	return out
}

func clone(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
