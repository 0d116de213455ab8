package arma

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModel(t *testing.T) {
	y := make([]float64, 10)
	model, err := New(y, 1, 1)
	require.NoError(t, err)

	assert.Equal(t, 1, model.P())
	assert.Equal(t, 1, model.Q())
	assert.Equal(t, 10, model.N())
	assert.Equal(t, 1, model.R())
	assert.Equal(t, 3, model.NumParams())
	assert.Equal(t, y, model.Y())
}

func TestNewModelCopiesObservations(t *testing.T) {
	y := []float64{1, 2, 3, 4, 5}
	model, err := New(y, 1, 0)
	require.NoError(t, err)

	y[0] = 100
	assert.Equal(t, 1.0, model.Y()[0])

	got := model.Y()
	got[1] = 100
	assert.Equal(t, 2.0, model.Y()[1])
}

func TestNewModelRobustSummaries(t *testing.T) {
	model, err := New([]float64{1, 2, 3, 4, 100}, 1, 0)
	require.NoError(t, err)

	assert.Equal(t, 3.0, model.Mu())
	assert.InDelta(t, madConsistency*1.0, model.Sigma(), 1e-12)
	assert.InDelta(t, 22.0, model.Mean(), 1e-12)
}

func TestNewModelRejectsInvalidOrder(t *testing.T) {
	tests := []struct {
		name string
		p, q int
	}{
		{name: "both zero", p: 0, q: 0},
		{name: "negative p", p: -1, q: 1},
		{name: "negative q", p: 1, q: -2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(make([]float64, 20), tt.p, tt.q)
			assert.ErrorIs(t, err, ErrInvalidOrder)
		})
	}
}

func TestNewModelRejectsInvalidInput(t *testing.T) {
	_, err := New([]float64{1, 2}, 1, 1)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = New([]float64{1, math.NaN(), 3, 4}, 1, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = New([]float64{1, 2, math.Inf(1), 4}, 1, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = FromSeries(nil, 1, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)

	// n = p + q + 1 is the smallest admissible length.
	_, err = New([]float64{1, 2, 3}, 1, 1)
	assert.NoError(t, err)
}

func TestResidualsAR1(t *testing.T) {
	y := []float64{1, 2, 4, 3, 5}
	model, err := New(y, 1, 0)
	require.NoError(t, err)

	params := NewParams([]float64{0.5}, nil, 1)
	res, err := model.Residuals(params)
	require.NoError(t, err)

	// r_t = (y_t - 1) - 0.5 (y_{t-1} - 1)
	want := []float64{1, 2.5, 0.5, 3}
	assert.InDeltaSlice(t, want, res, 1e-12)
}

func TestResidualsMA1(t *testing.T) {
	y := []float64{0, 1, 0, 2}
	model, err := New(y, 0, 1)
	require.NoError(t, err)

	params := NewParams(nil, []float64{0.5}, 0)
	res, err := model.Residuals(params)
	require.NoError(t, err)

	// r_1 = 1 - 0.5*0, r_2 = 0 - 0.5*1, r_3 = 2 - 0.5*(-0.5)
	want := []float64{1, -0.5, 2.25}
	assert.InDeltaSlice(t, want, res, 1e-12)
}

func TestResidualsLengthIsNMinusR(t *testing.T) {
	model, err := New(make([]float64, 30), 2, 3)
	require.NoError(t, err)

	res, err := model.Residuals(Zero(model.Order(), 0))
	require.NoError(t, err)
	assert.Len(t, res, 27)
}

func TestResidualsRejectsInfeasibleParams(t *testing.T) {
	model, err := New(make([]float64, 20), 1, 1)
	require.NoError(t, err)

	_, err = model.Residuals(NewParams([]float64{1.2}, []float64{0}, 0))
	assert.ErrorIs(t, err, ErrNotStationary)

	_, err = model.Residuals(NewParams([]float64{0.2}, []float64{-1.5}, 0))
	assert.ErrorIs(t, err, ErrNotInvertible)

	_, err = model.Residuals(NewParams([]float64{0.2, 0.1}, []float64{0}, 0))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestFilterIdentityCleanerMatchesResiduals(t *testing.T) {
	y := []float64{0.3, -1.2, 0.8, 2.5, -0.4, 0.1, 9.0, 0.2, -0.6, 0.4}
	model, err := New(y, 2, 1)
	require.NoError(t, err)

	params := NewParams([]float64{0.4, -0.2}, []float64{0.3}, 0.1)
	plain, err := model.Residuals(params)
	require.NoError(t, err)

	identity := model.Filter(params, func(u float64) float64 { return u })
	assert.InDeltaSlice(t, plain, identity, 1e-12)
}

func TestFilterBoundsPropagation(t *testing.T) {
	// A single spike in an otherwise zero AR(1) series.
	y := make([]float64, 8)
	y[3] = 10
	model, err := New(y, 1, 0)
	require.NoError(t, err)

	params := NewParams([]float64{0.5}, nil, 0)
	plain := model.Filter(params, nil)
	// Rejecting the spike entirely stops it from leaking into the next residual.
	reject := model.Filter(params, func(u float64) float64 {
		if math.Abs(u) > 3 {
			return 0
		}
		return u
	})

	assert.InDelta(t, -5.0, plain[3], 1e-12)
	assert.InDelta(t, 0.0, reject[3], 1e-12)
	assert.InDelta(t, 10.0, reject[2], 1e-12)
}

func TestOrderValidate(t *testing.T) {
	assert.NoError(t, Order{P: 1}.Validate())
	assert.NoError(t, Order{Q: 1}.Validate())
	assert.ErrorIs(t, Order{}.Validate(), ErrInvalidOrder)
	assert.Equal(t, "ARMA(2,1)", Order{P: 2, Q: 1}.String())
}

func TestVectorRoundTrip(t *testing.T) {
	params := NewParams([]float64{0.1, 0.2}, []float64{0.3}, 4)
	v := params.Vector()
	assert.Equal(t, []float64{0.1, 0.2, 0.3, 4}, v)
	assert.Equal(t, params, ParamsFromVector(v, Order{P: 2, Q: 1}))
}

func TestPartialsRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		partials []float64
	}{
		{name: "ar1", partials: []float64{0.7}},
		{name: "ar2", partials: []float64{0.5, -0.3}},
		{name: "ar3", partials: []float64{-0.9, 0.4, 0.2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			phi := FromPartials(tt.partials)
			back, ok := ToPartials(phi)
			require.True(t, ok)
			assert.InDeltaSlice(t, tt.partials, back, 1e-12)
		})
	}

	// AR(2) closed form: phi_1 = a1 (1 - a2), phi_2 = a2
	phi := FromPartials([]float64{0.5, -0.3})
	assert.InDeltaSlice(t, []float64{0.65, -0.3}, phi, 1e-12)
}

func TestStationarity(t *testing.T) {
	tests := []struct {
		name string
		phi  []float64
		want bool
	}{
		{name: "empty", phi: nil, want: true},
		{name: "ar1 stable", phi: []float64{0.9}, want: true},
		{name: "ar1 unit root", phi: []float64{1}, want: false},
		{name: "ar1 explosive", phi: []float64{-1.1}, want: false},
		{name: "ar2 stable", phi: []float64{0.5, 0.3}, want: true},
		{name: "ar2 outside triangle", phi: []float64{0.7, 0.5}, want: false},
		{name: "ar2 complex stable", phi: []float64{1.0, -0.5}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Params{Phi: tt.phi}
			assert.Equal(t, tt.want, p.Stationary())
		})
	}
}

func TestInvertibility(t *testing.T) {
	assert.True(t, Params{Theta: []float64{0.8}}.Invertible())
	assert.True(t, Params{Theta: []float64{-0.8}}.Invertible())
	assert.False(t, Params{Theta: []float64{1.2}}.Invertible())
	assert.False(t, Params{Theta: []float64{-1}}.Invertible())
}

func TestStabilize(t *testing.T) {
	p := NewParams([]float64{1.5}, []float64{-2}, 3).Stabilize()
	assert.True(t, p.Feasible())
	assert.Equal(t, 3.0, p.Mu)
}

func TestRoots(t *testing.T) {
	p := NewParams([]float64{0.5}, []float64{0.25}, 0)

	ar := p.ARRoots()
	require.Len(t, ar, 1)
	assert.InDelta(t, 2.0, real(ar[0]), 1e-10)

	ma := p.MARoots()
	require.Len(t, ma, 1)
	assert.InDelta(t, -4.0, real(ma[0]), 1e-10)

	// 1 - z + 0.5 z^2 has roots 1 +/- i with modulus sqrt(2).
	complexRoots := NewParams([]float64{1, -0.5}, nil, 0).ARRoots()
	require.Len(t, complexRoots, 2)
	for _, r := range complexRoots {
		assert.InDelta(t, math.Sqrt2, cmplx.Abs(r), 1e-10)
	}
}
