// Package estimators fits ARMA(p,q) models by classical and robust methods.
package estimators

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/sartorproj/gorobarma/arma"
	"github.com/sartorproj/gorobarma/robust"
)

// Estimator runs the estimation methods with one set of options. It holds no
// mutable state and is safe for concurrent use.
type Estimator struct {
	opts Options
	log  zerolog.Logger

	sLoss  robust.Bisquare
	sB     float64 // E rho_S(Z)
	mmLoss robust.Bisquare
	tau1   robust.Bisquare
	tau1B  float64
	tau2   robust.Bisquare
	tau2B  float64
	eta    robust.Bisquare
}

// New validates the options and computes the consistency constants of the
// losses.
func New(opts Options, logger zerolog.Logger) (*Estimator, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	e := &Estimator{
		opts:   opts,
		log:    logger.With().Str("component", "estimators").Logger(),
		sLoss:  robust.NewBisquare(opts.SConstant),
		mmLoss: robust.NewBisquare(opts.MMConstant),
		tau1:   robust.NewBisquare(opts.TauConstant1),
		tau2:   robust.NewBisquare(opts.TauConstant2),
		eta:    robust.NewBisquare(opts.EtaConstant),
	}
	e.sB = e.sLoss.Expectation()
	e.tau1B = e.tau1.Expectation()
	e.tau2B = e.tau2.Expectation()
	return e, nil
}

// Options returns the options of the estimator.
func (e *Estimator) Options() Options {
	return e.opts
}

var defaultEstimator = sync.OnceValue(func() *Estimator {
	e, err := New(DefaultOptions(), zerolog.Nop())
	if err != nil {
		panic(err)
	}
	return e
})

// Default returns the shared estimator with default options and no logging.
func Default() *Estimator {
	return defaultEstimator()
}

// EntryPoint fits a model by one method.
type EntryPoint func(model *arma.Model) (*Fit, error)

// Fit dispatches to the entry point of method.
func (e *Estimator) Fit(model *arma.Model, method Method) (*Fit, error) {
	entry, err := e.Lookup(method)
	if err != nil {
		return nil, err
	}
	return entry(model)
}

// methods maps every method to its implementation.
var methods = map[Method]func(*Estimator, *arma.Model) (*Fit, error){
	MethodHannanRissanen: (*Estimator).HannanRissanen,
	MethodOLS:            (*Estimator).OLS,
	MethodMLE:            (*Estimator).MLE,
	MethodFTau:           (*Estimator).FTau,
	MethodS:              (*Estimator).S,
	MethodBS:             (*Estimator).BIPS,
	MethodMM:             (*Estimator).MM,
	MethodBMM:            (*Estimator).BIPMM,
}

// Lookup returns the entry point of method bound to the estimator.
func (e *Estimator) Lookup(method Method) (EntryPoint, error) {
	fn, ok := methods[method]
	if !ok {
		return nil, fmt.Errorf("unknown estimation method: %s", method)
	}
	return func(model *arma.Model) (*Fit, error) {
		return fn(e, model)
	}, nil
}

// Lookup returns the default entry point registered under name.
func Lookup(name string) (EntryPoint, error) {
	method, err := ParseMethod(name)
	if err != nil {
		return nil, err
	}
	return Default().Lookup(method)
}

// HannanRissanen fits model by the two-stage regression with default options.
func HannanRissanen(model *arma.Model) (*Fit, error) { return Default().HannanRissanen(model) }

// OLS fits model by conditional least squares with default options.
func OLS(model *arma.Model) (*Fit, error) { return Default().OLS(model) }

// MLE fits model by exact Gaussian maximum likelihood with default options.
func MLE(model *arma.Model) (*Fit, error) { return Default().MLE(model) }

// S fits model by the S-estimator with default options.
func S(model *arma.Model) (*Fit, error) { return Default().S(model) }

// MM fits model by the MM-estimator with default options.
func MM(model *arma.Model) (*Fit, error) { return Default().MM(model) }

// FTau fits model by the filtered tau-estimator with default options.
func FTau(model *arma.Model) (*Fit, error) { return Default().FTau(model) }

// BIPS fits model by the BIP S-estimator with default options.
func BIPS(model *arma.Model) (*Fit, error) { return Default().BIPS(model) }

// BIPMM fits model by the BIP MM-estimator with default options.
func BIPMM(model *arma.Model) (*Fit, error) { return Default().BIPMM(model) }

var errNilModel = errors.New("estimators: nil model")

func checkModel(model *arma.Model) error {
	if model == nil {
		return fmt.Errorf("%w: %w", arma.ErrInvalidInput, errNilModel)
	}
	return nil
}
