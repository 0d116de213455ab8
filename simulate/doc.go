// Package simulate generates ARMA(p,q) sample paths.
//
// Simulate is the deterministic recursion driven by caller-supplied
// innovations. Generate draws Gaussian innovations from a seeded PCG source
// and discards a warm-up prefix:
//
//	y, err := simulate.Generate([]float64{0.5}, []float64{0.3}, 0, 500, 100, 42)
//
// Heavy-tailed paths and outlier studies combine Simulate with Cauchy
// innovations or with Contaminate:
//
//	y, _ = simulate.Simulate(phi, theta, 0, 50, simulate.Cauchy(50, 7))
//	dirty := simulate.Contaminate(y, []int{10, 30}, 8)
package simulate
