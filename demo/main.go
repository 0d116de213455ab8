// Package main compares the classical and robust ARMA estimators on clean,
// heavy-tailed and contaminated series.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/sartorproj/gorobarma/arma"
	"github.com/sartorproj/gorobarma/config"
	"github.com/sartorproj/gorobarma/estimators"
	"github.com/sartorproj/gorobarma/logging"
	"github.com/sartorproj/gorobarma/simulate"
	"github.com/sartorproj/gorobarma/stats"
	"github.com/sartorproj/gorobarma/timeseries"
)

// Scenario defines one series and the ARMA order fitted to it. A scenario
// with a File loads the series from CSV; otherwise it is simulated.
type Scenario struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	Phi         []float64 `yaml:"phi"`
	Theta       []float64 `yaml:"theta"`
	Mu          float64   `yaml:"mu"`
	N           int       `yaml:"n"`
	BurnIn      int       `yaml:"burn_in"`
	Seed        uint64    `yaml:"seed"`
	Innovations string    `yaml:"innovations"`  // gaussian (default) or cauchy
	Outliers    float64   `yaml:"outliers"`     // fraction of additive outliers
	OutlierSize float64   `yaml:"outlier_size"` // in innovation standard deviations
	File        string    `yaml:"file"`
	Column      string    `yaml:"column"`
	P           int       `yaml:"p"`
	Q           int       `yaml:"q"`
}

// MethodResult holds one fit for JSON export. Non-finite numbers are null.
type MethodResult struct {
	Method         string     `json:"method"`
	Phi            []float64  `json:"phi"`
	Theta          []float64  `json:"theta"`
	Mu             float64    `json:"mu"`
	Scale          *float64   `json:"scale"`
	StandardErrors []*float64 `json:"standard_errors"`
	Converged      bool       `json:"converged"`
	State          string     `json:"state"`
	Iterations     int        `json:"iterations"`
	Objective      *float64   `json:"objective"`
	LogLik         *float64   `json:"loglik"`
	AIC            *float64   `json:"aic"`
	LjungBoxP      *float64   `json:"ljung_box_p"`
	ParamError     *float64   `json:"param_error,omitempty"`
}

// ScenarioResult holds the analysis of one scenario.
type ScenarioResult struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Order       string         `json:"order"`
	NObs        int            `json:"n_obs"`
	True        []float64      `json:"true_params,omitempty"`
	Outliers    []int          `json:"outliers,omitempty"`
	Data        []float64      `json:"data"`
	ACF         []float64      `json:"acf"`
	PACF        []float64      `json:"pacf"`
	Models      []MethodResult `json:"models"`
}

// OutputData holds every scenario.
type OutputData struct {
	Scenarios []ScenarioResult `json:"scenarios"`
}

func defaultScenarios() []Scenario {
	return []Scenario{
		{Name: "AR(1) clean", Phi: []float64{0.5}, N: 500, Seed: 1, Description: "Gaussian AR(1)"},
		{Name: "ARMA(1,1) clean", Phi: []float64{0.6}, Theta: []float64{0.3}, Mu: 10, N: 500, Seed: 2, Description: "Gaussian ARMA(1,1) with level 10"},
		{Name: "AR(1) outliers", Phi: []float64{0.5}, N: 500, Seed: 3, Outliers: 0.05, OutlierSize: 10, Description: "5% additive outliers of size 10"},
		{Name: "ARMA(1,1) outliers", Phi: []float64{0.7}, Theta: []float64{-0.4}, N: 500, Seed: 4, Outliers: 0.1, OutlierSize: 6, Description: "10% additive outliers of size 6"},
		{Name: "AR(2) Cauchy", Phi: []float64{0.5, 0.2}, N: 300, Seed: 5, Innovations: "cauchy", Description: "Heavy-tailed innovations"},
		{Name: "MA(1) short", Theta: []float64{0.5}, N: 50, Seed: 6, Innovations: "cauchy", Description: "50 observations, Cauchy innovations"},
	}
}

func main() {
	configPath := flag.String("config", "", "estimator and logging config (YAML)")
	scenarioPath := flag.String("scenarios", "", "scenario file (YAML list); built-in scenarios when empty")
	outDir := flag.String("out", ".", "directory for robarma_results.json and the series CSV files")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger, logCloser, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()
	est, err := estimators.New(cfg.Estimator, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid estimator options")
	}

	scenarios := defaultScenarios()
	if *scenarioPath != "" {
		if scenarios, err = loadScenarios(*scenarioPath); err != nil {
			logger.Fatal().Err(err).Str("path", *scenarioPath).Msg("failed to load scenarios")
		}
	}

	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("Robust ARMA estimation: classical versus robust fits")
	fmt.Println(strings.Repeat("=", 80))

	output := OutputData{Scenarios: []ScenarioResult{}}
	for i, sc := range scenarios {
		fmt.Printf("\n%s\n[%d/%d] %s\n%s\n", strings.Repeat("=", 80), i+1, len(scenarios), sc.Name, strings.Repeat("=", 80))
		result, series, err := analyze(est, sc, logger)
		if err != nil {
			logger.Error().Err(err).Str("scenario", sc.Name).Msg("scenario skipped")
			continue
		}
		output.Scenarios = append(output.Scenarios, *result)

		csvPath := filepath.Join(*outDir, slug(sc.Name)+".csv")
		if err := timeseries.SaveCSV(series, csvPath); err != nil {
			logger.Warn().Err(err).Str("path", csvPath).Msg("failed to save series")
		}
	}

	fmt.Printf("\n%s\nEXPORTING RESULTS\n%s\n", strings.Repeat("=", 80), strings.Repeat("=", 80))
	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to encode results")
	}
	path := filepath.Join(*outDir, "robarma_results.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		logger.Fatal().Err(err).Str("path", path).Msg("failed to write results")
	}
	fmt.Printf("Exported %d scenarios to %s\n", len(output.Scenarios), path)
}

func loadScenarios(path string) ([]Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var scenarios []Scenario
	if err := yaml.Unmarshal(raw, &scenarios); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return scenarios, nil
}

// analyze builds the series of a scenario and fits every method to it.
func analyze(est *estimators.Estimator, sc Scenario, logger zerolog.Logger) (*ScenarioResult, *timeseries.Series, error) {
	series, outliers, err := buildSeries(sc)
	if err != nil {
		return nil, nil, err
	}

	p, q := sc.P, sc.Q
	if p == 0 && q == 0 {
		p, q = len(sc.Phi), len(sc.Theta)
	}
	model, err := arma.FromSeries(series, p, q)
	if err != nil {
		return nil, nil, err
	}
	fmt.Printf("   %s, n=%d, median=%.3f, MAD scale=%.3f\n", model.Order(), model.N(), model.Mu(), model.Sigma())
	if len(outliers) > 0 {
		fmt.Printf("   %d additive outliers\n", len(outliers))
	}

	var truth []float64
	if sc.File == "" && len(sc.Phi) == p && len(sc.Theta) == q {
		truth = arma.NewParams(sc.Phi, sc.Theta, sc.Mu).Vector()
	}

	maxLag := min(20, model.N()/2)
	result := &ScenarioResult{
		Name:        sc.Name,
		Description: sc.Description,
		Order:       model.Order().String(),
		NObs:        model.N(),
		True:        truth,
		Outliers:    outliers,
		Data:        series.Values,
		ACF:         stats.ACF(series.Values, maxLag),
		PACF:        stats.PACF(series.Values, maxLag),
		Models:      []MethodResult{},
	}

	fmt.Printf("   %-16s %-28s %10s %6s %6s %10s\n", "method", "params", "scale", "conv", "iter", "error")
	for _, method := range estimators.Methods() {
		fit, err := est.Fit(model, method)
		if err != nil {
			logger.Error().Err(err).Str("method", method.String()).Msg("fit failed")
			continue
		}
		mr := summarize(fit, truth)
		result.Models = append(result.Models, mr)

		errText := "-"
		if mr.ParamError != nil {
			errText = fmt.Sprintf("%.4f", *mr.ParamError)
		}
		fmt.Printf("   %-16s %-28s %10.4f %6t %6d %10s\n", method, formatCoefs(fit.Params),
			fit.Result.Scale, fit.Result.Converged, fit.Result.Iterations, errText)
	}
	return result, series, nil
}

func buildSeries(sc Scenario) (*timeseries.Series, []int, error) {
	if sc.File != "" {
		opts := timeseries.DefaultCSVOptions()
		if sc.Column != "" {
			opts.ValueColumn = sc.Column
		}
		series, err := timeseries.LoadCSV(sc.File, opts)
		if err != nil {
			return nil, nil, err
		}
		return series, nil, nil
	}

	burnIn := sc.BurnIn
	if burnIn == 0 {
		burnIn = 100
	}
	var e []float64
	switch sc.Innovations {
	case "", "gaussian":
		e = simulate.Gaussian(sc.N+burnIn, sc.Seed)
	case "cauchy":
		e = simulate.Cauchy(sc.N+burnIn, sc.Seed)
	default:
		return nil, nil, fmt.Errorf("unknown innovation distribution %q", sc.Innovations)
	}
	y, err := simulate.Simulate(sc.Phi, sc.Theta, sc.Mu, sc.N+burnIn, e)
	if err != nil {
		return nil, nil, err
	}
	y = y[burnIn:]

	var outliers []int
	if sc.Outliers > 0 {
		k := int(math.Round(sc.Outliers * float64(len(y))))
		outliers = simulate.Positions(len(y), k, simulate.NewSource(sc.Seed+1))
		y = simulate.Contaminate(y, outliers, sc.OutlierSize)
	}

	series := timeseries.New(y)
	series.Name = sc.Name
	return series, outliers, nil
}

func summarize(fit *estimators.Fit, truth []float64) MethodResult {
	s := fit.Summary()
	mr := MethodResult{
		Method:         fit.Result.Method.String(),
		Phi:            fit.Params.Phi,
		Theta:          fit.Params.Theta,
		Mu:             fit.Params.Mu,
		Scale:          num(fit.Result.Scale),
		StandardErrors: nums(fit.Result.StandardErrors),
		Converged:      fit.Result.Converged,
		State:          fit.Result.State.String(),
		Iterations:     fit.Result.Iterations,
		Objective:      num(fit.Result.ObjectiveValue),
		LogLik:         num(s.LogLik),
	}
	if s.Criteria != nil {
		mr.AIC = num(s.Criteria.AIC)
	}
	if s.LjungBox != nil {
		mr.LjungBoxP = num(s.LjungBox.PValue)
	}
	if truth != nil {
		// Coefficient error only; the location is not comparable under outliers.
		est := fit.Params.Vector()
		sq := 0.0
		for i := 0; i < len(truth)-1; i++ {
			d := est[i] - truth[i]
			sq += d * d
		}
		mr.ParamError = num(math.Sqrt(sq))
	}
	return mr
}

func formatCoefs(p arma.Params) string {
	var parts []string
	for _, v := range p.Phi {
		parts = append(parts, fmt.Sprintf("%.3f", v))
	}
	if len(p.Theta) > 0 {
		parts = append(parts, "|")
		for _, v := range p.Theta {
			parts = append(parts, fmt.Sprintf("%.3f", v))
		}
	}
	return strings.Join(parts, " ")
}

func num(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func nums(vs []float64) []*float64 {
	out := make([]*float64, len(vs))
	for i, v := range vs {
		out[i] = num(v)
	}
	return out
}

func slug(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case b.Len() > 0 && !strings.HasSuffix(b.String(), "_"):
			b.WriteByte('_')
		}
	}
	return strings.Trim(b.String(), "_")
}
