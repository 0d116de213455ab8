// Package robust provides the loss functions and scale estimators of the robust ARMA estimators.
package robust

import (
	"math"

	"gonum.org/v1/gonum/integrate/quad"
	"gonum.org/v1/gonum/stat/distuv"
)

// Tuning constants of the Tukey bisquare.
const (
	// SConstant gives the S-estimator a 50% breakdown point (E rho = 0.5).
	SConstant = 1.547645
	// MMConstant gives the MM-estimator 85% Gaussian efficiency.
	MMConstant = 3.443689
	// TauConstant1 is the robustness loss of the tau-scale.
	TauConstant1 = 1.547645
	// TauConstant2 is the efficiency loss of the tau-scale.
	TauConstant2 = 6.08
	// RegressionConstant gives the bisquare regression M-estimator 95% efficiency.
	RegressionConstant = 4.685
)

// quadraturePoints is the Gauss-Legendre order used for expectations.
const quadraturePoints = 64

// Loss is a bounded rho function with its derivatives.
type Loss interface {
	// Rho is the loss.
	Rho(x float64) float64
	// Psi is the derivative of Rho.
	Psi(x float64) float64
	// Weight is Psi(x)/x, with its limit at zero.
	Weight(x float64) float64
	// Deriv is the derivative of Psi.
	Deriv(x float64) float64
}

// Bisquare is Tukey's biweight loss rescaled so that rho(x) = 1 for |x| >= C:
//
//	rho(x) = 1 - (1 - (x/C)^2)^3
type Bisquare struct {
	C float64
}

// NewBisquare returns the bisquare loss with tuning constant c.
func NewBisquare(c float64) Bisquare {
	return Bisquare{C: c}
}

// Rho returns the loss at x.
func (b Bisquare) Rho(x float64) float64 {
	u := x / b.C
	if math.Abs(u) >= 1 {
		return 1
	}
	t := 1 - u*u
	return 1 - t*t*t
}

// Psi returns 6x(1 - (x/C)^2)^2 / C^2.
func (b Bisquare) Psi(x float64) float64 {
	return x * b.Weight(x)
}

// Weight returns 6(1 - (x/C)^2)^2 / C^2.
func (b Bisquare) Weight(x float64) float64 {
	u := x / b.C
	if math.Abs(u) >= 1 {
		return 0
	}
	t := 1 - u*u
	return 6 * t * t / (b.C * b.C)
}

// Deriv returns the derivative of Psi.
func (b Bisquare) Deriv(x float64) float64 {
	u := x / b.C
	if math.Abs(u) >= 1 {
		return 0
	}
	u2 := u * u
	return 6 * (1 - u2) * (1 - 5*u2) / (b.C * b.C)
}

// Eta is the cleaning function of the bounded-propagation filter. It has
// unit slope at zero and redescends to zero beyond C.
func (b Bisquare) Eta(x float64) float64 {
	u := x / b.C
	if math.Abs(u) >= 1 {
		return 0
	}
	t := 1 - u*u
	return x * t * t
}

// Expectation returns E rho(Z) for standard normal Z, the consistency
// constant b of an M-scale built on this loss.
func (b Bisquare) Expectation() float64 {
	return ExpectNormal(b.Rho, b.C, 1)
}

// Efficiency returns the asymptotic Gaussian efficiency (E psi')^2 / E psi^2
// of the location M-estimator built on this loss.
func (b Bisquare) Efficiency() float64 {
	dpsi := ExpectNormal(b.Deriv, b.C, 0)
	psi2 := ExpectNormal(func(x float64) float64 {
		p := b.Psi(x)
		return p * p
	}, b.C, 0)
	return dpsi * dpsi / psi2
}

// Mixture is the loss W*First + Second. The tau-estimator behaves locally
// like an M-estimator with this loss.
type Mixture struct {
	W      float64
	First  Loss
	Second Loss
}

// Rho returns W rho1(x) + rho2(x).
func (m Mixture) Rho(x float64) float64 {
	return m.W*m.First.Rho(x) + m.Second.Rho(x)
}

// Psi returns W psi1(x) + psi2(x).
func (m Mixture) Psi(x float64) float64 {
	return m.W*m.First.Psi(x) + m.Second.Psi(x)
}

// Weight returns W w1(x) + w2(x).
func (m Mixture) Weight(x float64) float64 {
	return m.W*m.First.Weight(x) + m.Second.Weight(x)
}

// Deriv returns W psi1'(x) + psi2'(x).
func (m Mixture) Deriv(x float64) float64 {
	return m.W*m.First.Deriv(x) + m.Second.Deriv(x)
}

// ExpectNormal returns E f(Z) for standard normal Z when f equals tail for
// |z| >= c. The bounded part is integrated by Gauss-Legendre quadrature.
func ExpectNormal(f func(float64) float64, c, tail float64) float64 {
	normal := distuv.UnitNormal
	inner := quad.Fixed(func(z float64) float64 {
		return f(z) * normal.Prob(z)
	}, -c, c, quadraturePoints, nil, 0)
	return inner + tail*2*normal.Survival(c)
}
