package estimators

import (
	"bytes"
	"math"
	"math/cmplx"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/gorobarma/arma"
	"github.com/sartorproj/gorobarma/simulate"
)

func simulated(t *testing.T, phi, theta []float64, mu float64, n int, seed uint64) []float64 {
	t.Helper()
	y, err := simulate.Generate(phi, theta, mu, n, 100, seed)
	require.NoError(t, err)
	return y
}

func newModel(t *testing.T, y []float64, p, q int) *arma.Model {
	t.Helper()
	m, err := arma.New(y, p, q)
	require.NoError(t, err)
	return m
}

func TestClassicalRecoversAR1(t *testing.T) {
	model := newModel(t, simulated(t, []float64{0.5}, nil, 2, 4000, 1), 1, 0)

	for _, method := range []Method{MethodHannanRissanen, MethodOLS, MethodMLE} {
		t.Run(method.String(), func(t *testing.T) {
			fit, err := Default().Fit(model, method)
			require.NoError(t, err)

			assert.Equal(t, method, fit.Result.Method)
			assert.InDelta(t, 0.5, fit.Params.Phi[0], 0.05)
			assert.InDelta(t, 2, fit.Params.Mu, 0.1)
			assert.InDelta(t, 1, fit.Result.Scale, 0.05)
			assert.True(t, fit.Result.Converged, fit.Result.String())
			assert.Equal(t, StateConverged, fit.Result.State)
			require.Len(t, fit.Result.StandardErrors, 2)
			for _, se := range fit.Result.StandardErrors {
				assert.Greater(t, se, 0.0)
			}
		})
	}
}

func TestClassicalRecoversARMA11(t *testing.T) {
	model := newModel(t, simulated(t, []float64{0.5}, []float64{0.2}, 1, 8000, 2), 1, 1)

	for _, method := range []Method{MethodOLS, MethodMLE} {
		t.Run(method.String(), func(t *testing.T) {
			fit, err := Default().Fit(model, method)
			require.NoError(t, err)
			assert.InDelta(t, 0.5, fit.Params.Phi[0], 0.05)
			assert.InDelta(t, 0.2, fit.Params.Theta[0], 0.06)
			assert.InDelta(t, 1, fit.Params.Mu, 0.1)
			assert.True(t, fit.Params.Feasible())
		})
	}
}

func TestOLSNotWorseThanStart(t *testing.T) {
	model := newModel(t, simulated(t, []float64{0.4, 0.2}, []float64{0.5}, 1, 800, 3), 2, 1)

	fit, err := OLS(model)
	require.NoError(t, err)
	assert.Equal(t, MethodHannanRissanen, fit.InitialResult.Method)
	assert.LessOrEqual(t, fit.Result.ObjectiveValue, fit.InitialResult.ObjectiveValue)
}

func TestMLENotWorseThanOLS(t *testing.T) {
	model := newModel(t, simulated(t, []float64{0.7}, []float64{-0.4}, 0, 600, 4), 1, 1)

	fit, err := MLE(model)
	require.NoError(t, err)

	ols, err := OLS(model)
	require.NoError(t, err)
	assert.Equal(t, ols.Params, fit.InitialParams)

	negLogLik := func(p arma.Params) float64 {
		f := &Fit{Model: model, Params: p}
		return -f.Summary().LogLik
	}
	assert.LessOrEqual(t, negLogLik(fit.Params), negLogLik(ols.Params)+1e-9)
	assert.InDelta(t, fit.Result.ObjectiveValue, negLogLik(fit.Params), 1e-9)
}

func TestRobustRecoversCleanAR1(t *testing.T) {
	model := newModel(t, simulated(t, []float64{0.5}, nil, 0, 1000, 5), 1, 0)

	// The bounded-propagation filter biases BIP-S on clean data; BIP-MM
	// corrects it by starting from the smaller scale.
	tolerance := map[Method]float64{
		MethodS:    0.15,
		MethodMM:   0.15,
		MethodFTau: 0.15,
		MethodBS:   0.2,
		MethodBMM:  0.15,
	}
	for method, delta := range tolerance {
		t.Run(method.String(), func(t *testing.T) {
			fit, err := Default().Fit(model, method)
			require.NoError(t, err)
			assert.InDelta(t, 0.5, fit.Params.Phi[0], delta)
			assert.Greater(t, fit.Result.Scale, 0.5)
			assert.Less(t, fit.Result.Scale, 1.5)
			assert.True(t, fit.Params.Feasible())
		})
	}
}

func TestRobustResistsAdditiveOutliers(t *testing.T) {
	const phi = 0.5
	n := 500
	clean := simulated(t, []float64{phi}, nil, 0, n, 6)
	dirty := simulate.Contaminate(clean, simulate.Positions(n, n/20, simulate.NewSource(9)), 10)
	model := newModel(t, dirty, 1, 0)

	ols, err := OLS(model)
	require.NoError(t, err)
	olsErr := math.Abs(ols.Params.Phi[0] - phi)
	require.Greater(t, olsErr, 0.2, "outliers should bias least squares")

	phiErr := func(method Method) float64 {
		fit, err := Default().Fit(model, method)
		require.NoError(t, err, method.String())
		return math.Abs(fit.Params.Phi[0] - phi)
	}

	// Conditional residuals carry each additive outlier into the next
	// residual, so MM from the S start is only held to the OLS error.
	assert.LessOrEqual(t, phiErr(MethodMM), 1.25*olsErr)
	assert.Less(t, phiErr(MethodFTau), olsErr)

	for _, method := range []Method{MethodS, MethodBS, MethodBMM} {
		err := phiErr(method)
		assert.Less(t, err, 0.15, method.String())
		assert.Less(t, err, olsErr/2, method.String())
	}
}

func TestMMObjectiveNotAboveStart(t *testing.T) {
	model := newModel(t, simulated(t, []float64{0.6}, []float64{0.2}, 0, 400, 7), 1, 1)

	for _, method := range []Method{MethodMM, MethodBMM} {
		fit, err := Default().Fit(model, method)
		require.NoError(t, err)
		assert.LessOrEqual(t, fit.Result.ObjectiveValue, fit.InitialResult.ObjectiveValue, method.String())
		assert.Equal(t, fit.InitialResult.Scale, fit.Result.Scale)
		assert.Contains(t, []Method{MethodS, MethodBS}, fit.InitialResult.Method)
	}
}

func TestSInitialEstimate(t *testing.T) {
	model := newModel(t, simulated(t, []float64{0.3}, nil, 0, 300, 8), 1, 0)

	fit, err := S(model)
	require.NoError(t, err)
	assert.Equal(t, StateInitialEstimate, fit.InitialResult.State)
	assert.True(t, strings.HasPrefix(fit.Result.Report, "start: "))
	assert.LessOrEqual(t, fit.Result.ObjectiveValue, fit.InitialResult.ObjectiveValue)
	assert.Equal(t, fit.Result.Scale, fit.Result.ObjectiveValue)
}

func TestFitsAreDeterministic(t *testing.T) {
	model := newModel(t, simulated(t, []float64{0.4}, []float64{0.3}, 1, 300, 10), 1, 1)

	for _, method := range Methods() {
		a, err := Default().Fit(model, method)
		require.NoError(t, err)
		b, err := Default().Fit(model, method)
		require.NoError(t, err)
		assert.Equal(t, a.Params, b.Params, method.String())
		assert.Equal(t, a.Result.Iterations, b.Result.Iterations, method.String())
	}
}

func TestEveryEntryPointReturnsResult(t *testing.T) {
	model := newModel(t, simulated(t, []float64{0.5}, []float64{-0.3}, 0, 200, 11), 1, 1)

	entries := map[Method]EntryPoint{
		MethodHannanRissanen: HannanRissanen,
		MethodOLS:            OLS,
		MethodMLE:            MLE,
		MethodS:              S,
		MethodMM:             MM,
		MethodFTau:           FTau,
		MethodBS:             BIPS,
		MethodBMM:            BIPMM,
	}
	for method, entry := range entries {
		fit, err := entry(model)
		require.NoError(t, err, method.String())
		assert.Equal(t, method, fit.Result.Method)
		assert.Len(t, fit.Params.Vector(), 3)
		assert.Len(t, fit.Result.StandardErrors, 3)
		assert.True(t, fit.Result.State.Terminal(), method.String())
		assert.Equal(t, fit.Result.State == StateConverged, fit.Result.Converged)
		assert.GreaterOrEqual(t, fit.Result.Scale, 0.0)
		assert.Len(t, fit.Residuals(), 199)
	}
}

func TestNilModel(t *testing.T) {
	for _, method := range Methods() {
		_, err := Default().Fit(nil, method)
		assert.ErrorIs(t, err, arma.ErrInvalidInput, method.String())
	}
}

func TestConstantSeries(t *testing.T) {
	model := newModel(t, make([]float64, 50), 1, 1)

	for _, method := range Methods() {
		fit, err := Default().Fit(model, method)
		require.NoError(t, err, method.String())
		assert.Equal(t, 0.0, fit.Result.Scale, method.String())
		for _, v := range fit.Params.Vector() {
			assert.False(t, math.IsNaN(v), method.String())
		}
	}
}

func TestMLEKeepsExactFit(t *testing.T) {
	y := make([]float64, 60)
	for i := range y {
		y[i] = 5
	}
	model := newModel(t, y, 1, 1)

	ols, err := OLS(model)
	require.NoError(t, err)
	require.Equal(t, 0.0, ols.Result.Scale)

	fit, err := MLE(model)
	require.NoError(t, err)
	assert.Equal(t, ols.Params, fit.Params)
	assert.Equal(t, 0.0, fit.Result.Scale)
	assert.Equal(t, StateConverged, fit.Result.State)
	assert.True(t, fit.Result.Converged)
	assert.Equal(t, "exact fit", fit.Result.Report)
	assert.True(t, math.IsInf(fit.Result.ObjectiveValue, -1))
}

func TestConcurrentFitsMatchSerial(t *testing.T) {
	models := make([]*arma.Model, 4)
	for i := range models {
		models[i] = newModel(t, simulated(t, []float64{0.5}, []float64{0.2}, float64(i), 250, uint64(20+i)), 1, 1)
	}

	type key struct {
		model  int
		method Method
	}
	serial := make(map[key]*Fit)
	for i, model := range models {
		for _, method := range Methods() {
			fit, err := Default().Fit(model, method)
			require.NoError(t, err)
			serial[key{i, method}] = fit
		}
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		parallel = make(map[key]*Fit)
		errs     []error
	)
	for i, model := range models {
		for _, method := range Methods() {
			wg.Add(1)
			go func() {
				defer wg.Done()
				fit, err := Default().Fit(model, method)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					errs = append(errs, err)
					return
				}
				parallel[key{i, method}] = fit
			}()
		}
	}
	wg.Wait()

	require.Empty(t, errs)
	for k, want := range serial {
		got := parallel[k]
		require.NotNil(t, got, k.method.String())
		assert.Equal(t, want.Params, got.Params, k.method.String())
		assert.Equal(t, want.Result.Iterations, got.Result.Iterations, k.method.String())
		assert.Equal(t, want.Result.State, got.Result.State, k.method.String())
	}
}

func TestLookup(t *testing.T) {
	model := newModel(t, simulated(t, []float64{0.5}, nil, 0, 200, 12), 1, 0)

	for _, method := range Methods() {
		entry, err := Lookup(method.String())
		require.NoError(t, err)
		fit, err := entry(model)
		require.NoError(t, err)
		assert.Equal(t, method, fit.Result.Method)
	}

	entry, err := Lookup("bip_mm")
	require.NoError(t, err)
	fit, err := entry(model)
	require.NoError(t, err)
	assert.Equal(t, MethodBMM, fit.Result.Method)

	_, err = Lookup("lad")
	assert.Error(t, err)
	_, err = Default().Lookup(Method(99))
	assert.Error(t, err)
}

func TestSummary(t *testing.T) {
	model := newModel(t, simulated(t, []float64{0.6}, []float64{0.3}, 5, 500, 13), 1, 1)
	fit, err := MLE(model)
	require.NoError(t, err)

	s := fit.Summary()
	assert.Equal(t, MethodMLE, s.Method)
	assert.Equal(t, arma.Order{P: 1, Q: 1}, s.Order)
	assert.Equal(t, 500, s.NObs)
	assert.False(t, math.IsNaN(s.LogLik))
	require.NotNil(t, s.Criteria)
	assert.Less(t, s.Criteria.AIC, s.Criteria.BIC)
	require.NotNil(t, s.LjungBox)
	assert.Greater(t, s.LjungBox.PValue, 0.001)
	require.NotNil(t, s.JarqueBera)
	require.NotNil(t, s.BoxPierce)
	assert.Equal(t, s.LjungBox.Lags, s.BoxPierce.Lags)
	assert.LessOrEqual(t, s.BoxPierce.Statistic, s.LjungBox.Statistic)
	require.NotNil(t, s.DurbinWatson)
	assert.InDelta(t, 2, s.DurbinWatson.Statistic, 0.3)
	require.NotNil(t, s.ResidualACF)
	assert.Len(t, s.ResidualACF.Values, 11)
	for _, lag := range s.SignificantLags {
		assert.Greater(t, math.Abs(s.ResidualACF.Values[lag]), s.ResidualACF.ConfBounds)
	}
	require.Len(t, s.ARRoots, 1)
	require.Len(t, s.MARoots, 1)
	assert.Greater(t, cmplx.Abs(s.ARRoots[0]), 1.0)
	assert.Greater(t, cmplx.Abs(s.MARoots[0]), 1.0)

	out := fit.String()
	for _, want := range []string{"phi1", "theta1", "mu", "method: mle"} {
		assert.Contains(t, out, want)
	}
}

func TestEstimatorLogs(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	e, err := New(DefaultOptions(), logger)
	require.NoError(t, err)

	model := newModel(t, simulated(t, []float64{0.5}, nil, 0, 200, 14), 1, 0)
	_, err = e.OLS(model)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), `"component":"estimators"`)
	assert.Contains(t, buf.String(), `"method":"ols"`)
	assert.Contains(t, buf.String(), "fit finished")
}

func TestIterationCap(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxIterations = 1
	opts.Tolerance = 1e-15
	e, err := New(opts, zerolog.Nop())
	require.NoError(t, err)

	model := newModel(t, simulated(t, []float64{0.5}, []float64{0.4}, 0, 300, 15), 1, 1)
	fit, err := e.S(model)
	require.NoError(t, err)
	assert.LessOrEqual(t, fit.Result.Iterations, 1)
	if fit.Result.State == StateMaxIterReached {
		assert.False(t, fit.Result.Converged)
	}
}
