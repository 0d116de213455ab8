// Package simulate generates ARMA(p,q) sample paths.
package simulate

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/stat/distuv"
)

var (
	// ErrShortInnovations is returned when fewer innovations than
	// observations are supplied.
	ErrShortInnovations = errors.New("simulate: innovation sequence shorter than n")
	// ErrInvalidLength is returned for a negative length.
	ErrInvalidLength = errors.New("simulate: negative length")
)

// Simulate returns n observations of
//
//	y_t = mu + sum phi_i (y_{t-i} - mu) + e_t + sum theta_j e_{t-j}
//
// driven by the innovations e. Pre-sample observations equal mu and
// pre-sample innovations are zero. The coefficients are not checked, so an
// explosive AR polynomial yields an explosive path.
func Simulate(phi, theta []float64, mu float64, n int, e []float64) ([]float64, error) {
	if n < 0 {
		return nil, ErrInvalidLength
	}
	if len(e) < n {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrShortInnovations, len(e), n)
	}

	x := make([]float64, n) // centered observations
	y := make([]float64, n)
	for t := 0; t < n; t++ {
		v := e[t]
		for i, c := range phi {
			if t-i-1 >= 0 {
				v += c * x[t-i-1]
			}
		}
		for j, c := range theta {
			if t-j-1 >= 0 {
				v += c * e[t-j-1]
			}
		}
		x[t] = v
		y[t] = mu + v
	}
	return y, nil
}

// Generate returns n observations with standard Gaussian innovations after
// discarding burnIn warm-up values. A zero seed draws a seed from the clock.
func Generate(phi, theta []float64, mu float64, n, burnIn int, seed uint64) ([]float64, error) {
	if n < 0 || burnIn < 0 {
		return nil, ErrInvalidLength
	}
	e := Innovations(distuv.Normal{Mu: 0, Sigma: 1, Src: NewSource(seed)}, n+burnIn)
	y, err := Simulate(phi, theta, mu, n+burnIn, e)
	if err != nil {
		return nil, err
	}
	return y[burnIn:], nil
}

// Innovations draws n values from dist.
func Innovations(dist distuv.Rander, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = dist.Rand()
	}
	return out
}

// Gaussian returns n standard normal innovations.
func Gaussian(n int, seed uint64) []float64 {
	return Innovations(distuv.Normal{Mu: 0, Sigma: 1, Src: NewSource(seed)}, n)
}

// Cauchy returns n standard Cauchy innovations, a Student t with one degree
// of freedom.
func Cauchy(n int, seed uint64) []float64 {
	return Innovations(distuv.StudentsT{Mu: 0, Sigma: 1, Nu: 1, Src: NewSource(seed)}, n)
}

// NewSource returns a PCG source. A zero seed draws a seed from the clock.
func NewSource(seed uint64) rand.Source {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
}

// Contaminate returns a copy of y with size added at each position.
// Positions outside the series are ignored.
func Contaminate(y []float64, positions []int, size float64) []float64 {
	out := make([]float64, len(y))
	copy(out, y)
	for _, p := range positions {
		if p >= 0 && p < len(out) {
			out[p] += size
		}
	}
	return out
}

// Positions returns k distinct positions in [0, n) drawn uniformly from src.
func Positions(n, k int, src rand.Source) []int {
	k = max(0, min(k, n))
	return rand.New(src).Perm(n)[:k]
}
