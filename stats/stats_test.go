package stats

import (
	"math"
	"testing"
)

func ar1(n int, phi float64) []float64 {
	values := make([]float64, n)
	for i := 1; i < n; i++ {
		values[i] = phi*values[i-1] + (float64(i%10)-4.5)/10
	}
	return values
}

func TestACF(t *testing.T) {
	acf := ACF(ar1(100, 0.8), 10)
	if acf == nil {
		t.Fatal("ACF returned nil")
	}

	// ACF at lag 0 should be 1
	if math.Abs(acf[0]-1.0) > 1e-10 {
		t.Errorf("ACF at lag 0 should be 1, got %f", acf[0])
	}
	if acf[1] < 0.3 {
		t.Errorf("ACF at lag 1 should be strongly positive for AR(1), got %f", acf[1])
	}
	for i, v := range acf {
		if math.Abs(v) > 1+1e-12 {
			t.Errorf("ACF at lag %d out of range: %f", i, v)
		}
	}
}

func TestACFEdgeCases(t *testing.T) {
	if ACF([]float64{2, 2, 2, 2}, 2) != nil {
		t.Error("ACF of a constant series should be nil")
	}
	if ACF(nil, 3) != nil {
		t.Error("ACF of an empty series should be nil")
	}
	if got := ACF([]float64{1, 2, 3}, 10); len(got) != 3 {
		t.Errorf("maxLag should be clipped to n-1, got %d values", len(got))
	}
}

func TestPACF(t *testing.T) {
	values := ar1(200, 0.7)
	pacf := PACF(values, 10)
	if pacf == nil {
		t.Fatal("PACF returned nil")
	}

	if math.Abs(pacf[0]-1.0) > 1e-10 {
		t.Errorf("PACF at lag 0 should be 1, got %f", pacf[0])
	}

	// Lag 1 PACF equals lag 1 ACF
	acf := ACF(values, 1)
	if math.Abs(pacf[1]-acf[1]) > 1e-12 {
		t.Errorf("PACF(1) = %f, want ACF(1) = %f", pacf[1], acf[1])
	}

	// Lag 2 PACF from the closed form (r2 - r1^2) / (1 - r1^2)
	acf = ACF(values, 2)
	want := (acf[2] - acf[1]*acf[1]) / (1 - acf[1]*acf[1])
	if math.Abs(pacf[2]-want) > 1e-12 {
		t.Errorf("PACF(2) = %f, want %f", pacf[2], want)
	}
}

func TestACFWithConfidence(t *testing.T) {
	result := ACFWithConfidence(ar1(100, 0.5), 10)
	if result == nil {
		t.Fatal("ACFWithConfidence returned nil")
	}
	if math.Abs(result.ConfBounds-0.196) > 1e-12 {
		t.Errorf("ConfBounds = %f, want 0.196", result.ConfBounds)
	}
	if len(result.Lags) != 11 {
		t.Errorf("expected 11 lags, got %d", len(result.Lags))
	}
}

func TestSignificantLags(t *testing.T) {
	got := SignificantLags([]float64{1, 0.5, 0.1, -0.3, 0.05}, 0.2)
	want := []int{1, 3}
	if len(got) != len(want) {
		t.Fatalf("SignificantLags = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("SignificantLags = %v, want %v", got, want)
		}
	}
}

func TestLjungBox(t *testing.T) {
	autocorrelated := ar1(200, 0.9)
	result := LjungBox(autocorrelated, 10, 0)
	if result == nil {
		t.Fatal("LjungBox returned nil")
	}
	if result.PValue > 0.01 {
		t.Errorf("autocorrelated series should be rejected, p=%f", result.PValue)
	}
	if result.DOF != 10 {
		t.Errorf("DOF = %d, want 10", result.DOF)
	}

	fitted := LjungBox(autocorrelated, 10, 2)
	if fitted.DOF != 8 {
		t.Errorf("DOF with fitdf=2 = %d, want 8", fitted.DOF)
	}

	if LjungBox([]float64{1, 2, 3}, 5, 0) != nil {
		t.Error("LjungBox should return nil for short series")
	}
}

func TestBoxPierce(t *testing.T) {
	values := ar1(100, 0.5)
	bp := BoxPierce(values, 10, 0)
	lb := LjungBox(values, 10, 0)
	if bp == nil || lb == nil {
		t.Fatal("portmanteau test returned nil")
	}

	// Ljung-Box weights each lag by (n+2)/(n-k) > 1
	if bp.Statistic >= lb.Statistic {
		t.Errorf("Box-Pierce %f should be below Ljung-Box %f", bp.Statistic, lb.Statistic)
	}
	if bp.PValue < 0 || bp.PValue > 1 {
		t.Errorf("p-value out of range: %f", bp.PValue)
	}
}

func TestChiSquaredSurvival(t *testing.T) {
	tests := []struct {
		x    float64
		k    int
		want float64
	}{
		{x: 0, k: 3, want: 1},
		{x: 3.841459, k: 1, want: 0.05},
		{x: 18.307038, k: 10, want: 0.05},
		{x: 2, k: 2, want: math.Exp(-1)},
	}

	for _, tt := range tests {
		got := chiSquaredSurvival(tt.x, tt.k)
		if math.Abs(got-tt.want) > 1e-6 {
			t.Errorf("chiSquaredSurvival(%f, %d) = %f, want %f", tt.x, tt.k, got, tt.want)
		}
	}
}

func TestDurbinWatson(t *testing.T) {
	tests := []struct {
		name      string
		residuals []float64
		expected  float64
	}{
		{
			name:      "negative autocorrelation",
			residuals: []float64{1, -1, 1, -1, 1, -1, 1, -1},
			expected:  3.5,
		},
		{
			name:      "positive autocorrelation",
			residuals: []float64{1, 1, 1, 1, -1, -1, -1, -1},
			expected:  0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DurbinWatson(tt.residuals)
			if result == nil {
				t.Fatal("DurbinWatson returned nil")
			}
			if math.Abs(result.Statistic-tt.expected) > 1e-12 {
				t.Errorf("DurbinWatson = %f, want %f", result.Statistic, tt.expected)
			}
		})
	}

	if DurbinWatson([]float64{0, 0, 0}) != nil {
		t.Error("DurbinWatson of zero residuals should be nil")
	}
}

func TestCalculateIC(t *testing.T) {
	ic := CalculateIC(-100, 50, 3)

	if math.Abs(ic.AIC-206) > 1e-10 {
		t.Errorf("AIC = %f, want 206", ic.AIC)
	}
	wantBIC := 200 + 3*math.Log(50)
	if math.Abs(ic.BIC-wantBIC) > 1e-10 {
		t.Errorf("BIC = %f, want %f", ic.BIC, wantBIC)
	}
	wantAICc := 206 + 24.0/46
	if math.Abs(ic.AICc-wantAICc) > 1e-10 {
		t.Errorf("AICc = %f, want %f", ic.AICc, wantAICc)
	}
	if ic.LogLik != -100 {
		t.Errorf("LogLik = %f, want -100", ic.LogLik)
	}
}

func TestAICc(t *testing.T) {
	if !math.IsInf(AICc(10, 4, 3), 1) {
		t.Error("AICc should be +Inf when n-k-1 <= 0")
	}
}

func TestJarqueBera(t *testing.T) {
	// Symmetric light-tailed residuals
	uniform := make([]float64, 200)
	for i := range uniform {
		uniform[i] = float64(i%20) - 9.5
	}
	heavy := make([]float64, 200)
	copy(heavy, uniform)
	heavy[50] = 500
	heavy[150] = -400

	light := JarqueBera(uniform)
	spiked := JarqueBera(heavy)
	if light == nil || spiked == nil {
		t.Fatal("JarqueBera returned nil")
	}
	if math.Abs(light.Skewness) > 1e-10 {
		t.Errorf("symmetric residuals should have zero skewness, got %f", light.Skewness)
	}
	if spiked.Statistic <= light.Statistic {
		t.Errorf("outliers should raise the statistic: %f <= %f", spiked.Statistic, light.Statistic)
	}
	if spiked.PValue > 1e-6 {
		t.Errorf("outliers should reject normality, p=%g", spiked.PValue)
	}

	if JarqueBera([]float64{1, 1, 1, 1, 1}) != nil {
		t.Error("JarqueBera of a constant series should be nil")
	}
}
