package robust

import (
	"math"

	"github.com/sartorproj/gorobarma/timeseries"
)

// madNormal makes median |r| consistent for the standard deviation under normality.
const madNormal = 0.6745

// MScaleResult is the solution of an M-scale fixed point.
type MScaleResult struct {
	Scale      float64
	Iterations int
	Converged  bool
}

// MScale solves (1/n) sum rho(r_t/s) = b for s with the fixed-point iteration
//
//	s <- s * sqrt(mean rho(r/s) / b)
//
// started at the normalized median absolute residual. A zero start (more than
// half of the residuals exactly zero) returns zero immediately.
func MScale(r []float64, loss Loss, b float64, maxIter int, tol float64) MScaleResult {
	if len(r) == 0 {
		return MScaleResult{Converged: true}
	}

	abs := make([]float64, len(r))
	for i, v := range r {
		abs[i] = math.Abs(v)
	}
	s := timeseries.Median(abs) / madNormal
	if s == 0 || math.IsNaN(s) {
		return MScaleResult{Scale: 0, Converged: s == 0}
	}

	for it := 1; it <= maxIter; it++ {
		next := s * math.Sqrt(MeanRho(r, loss, s)/b)
		if math.Abs(next-s) <= tol*s {
			return MScaleResult{Scale: next, Iterations: it, Converged: true}
		}
		s = next
	}
	return MScaleResult{Scale: s, Iterations: maxIter}
}

// TauScale returns the tau-scale s * sqrt(mean rho2(r/s) / b2) where s is an
// M-scale of r built on the robustness loss.
func TauScale(r []float64, s float64, efficiency Loss, b2 float64) float64 {
	if s == 0 || len(r) == 0 {
		return 0
	}
	return s * math.Sqrt(MeanRho(r, efficiency, s)/b2)
}

// TauFactor returns the weight W = sum(2 rho2(u) - psi2(u) u) / sum psi1(u) u
// that combines the two losses of the tau-estimator, clamped at zero.
func TauFactor(u []float64, robustness, efficiency Loss) float64 {
	num, den := 0.0, 0.0
	for _, v := range u {
		num += 2*efficiency.Rho(v) - efficiency.Psi(v)*v
		den += robustness.Psi(v) * v
	}
	if den <= 0 {
		return 0
	}
	return math.Max(num/den, 0)
}

// TauWeights returns the IRLS weights of the tau-estimator for standardized
// residuals u = r/s:
//
//	w_t = W psi1(u_t)/u_t + psi2(u_t)/u_t
//
// with W from TauFactor, so the weights are non-negative.
func TauWeights(u []float64, robustness, efficiency Loss) []float64 {
	mix := Mixture{W: TauFactor(u, robustness, efficiency), First: robustness, Second: efficiency}
	w := make([]float64, len(u))
	for i, v := range u {
		w[i] = mix.Weight(v)
	}
	return w
}

// AsymptoticFactor returns mean psi(u)^2 / (mean psi'(u))^2, the variance
// inflation of an M-estimator relative to least squares. It returns NaN when
// the mean derivative vanishes.
func AsymptoticFactor(u []float64, loss Loss) float64 {
	if len(u) == 0 {
		return math.NaN()
	}
	psi2, dpsi := 0.0, 0.0
	for _, v := range u {
		p := loss.Psi(v)
		psi2 += p * p
		dpsi += loss.Deriv(v)
	}
	n := float64(len(u))
	psi2 /= n
	dpsi /= n
	if dpsi == 0 {
		return math.NaN()
	}
	return psi2 / (dpsi * dpsi)
}

// MeanRho returns (1/n) sum rho(r_t/s).
func MeanRho(r []float64, loss Loss, s float64) float64 {
	if len(r) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range r {
		sum += loss.Rho(v / s)
	}
	return sum / float64(len(r))
}
