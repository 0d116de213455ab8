package estimators

import (
	"errors"
	"fmt"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
)

// ErrInvalidOptions is returned by New for options that fail validation.
var ErrInvalidOptions = errors.New("estimators: invalid options")

var validate = validator.New()

// Options tunes the iteration caps, tolerances and loss constants shared by
// every estimator. Zero fields take the values of their default tags.
type Options struct {
	// MaxIterations caps the Gauss-Newton/IRLS and BFGS iterations.
	MaxIterations int `mapstructure:"max_iterations" yaml:"max_iterations" default:"100" validate:"gte=1,lte=100000"`
	// Tolerance is the relative decrease of the objective that stops iteration.
	Tolerance float64 `mapstructure:"tolerance" yaml:"tolerance" default:"1e-8" validate:"gt=0,lt=1"`
	// MaxHalvings bounds the step-halving search of one iteration.
	MaxHalvings int `mapstructure:"max_halvings" yaml:"max_halvings" default:"30" validate:"gte=1,lte=60"`

	ScaleIterations int     `mapstructure:"scale_iterations" yaml:"scale_iterations" default:"200" validate:"gte=1"`
	ScaleTolerance  float64 `mapstructure:"scale_tolerance" yaml:"scale_tolerance" default:"1e-10" validate:"gt=0,lt=1"`

	// Starts is the number of candidate start points the S-type estimators
	// iterate from, best initial objective first.
	Starts int `mapstructure:"starts" yaml:"starts" default:"3" validate:"gte=1,lte=32"`
	// FilterRounds caps the outer rounds that refresh the filter scale of the
	// bounded-propagation estimators.
	FilterRounds int `mapstructure:"filter_rounds" yaml:"filter_rounds" default:"5" validate:"gte=1,lte=50"`

	SConstant          float64 `mapstructure:"s_constant" yaml:"s_constant" default:"1.547645" validate:"gt=0"`
	MMConstant         float64 `mapstructure:"mm_constant" yaml:"mm_constant" default:"3.443689" validate:"gtfield=SConstant"`
	TauConstant1       float64 `mapstructure:"tau_constant1" yaml:"tau_constant1" default:"1.547645" validate:"gt=0"`
	TauConstant2       float64 `mapstructure:"tau_constant2" yaml:"tau_constant2" default:"6.08" validate:"gtfield=TauConstant1"`
	EtaConstant        float64 `mapstructure:"eta_constant" yaml:"eta_constant" default:"3.443689" validate:"gt=0"`
	RegressionConstant float64 `mapstructure:"regression_constant" yaml:"regression_constant" default:"4.685" validate:"gt=0"`

	// PartialBound clamps the partial autocorrelations of the MLE start.
	PartialBound float64 `mapstructure:"partial_bound" yaml:"partial_bound" default:"0.95" validate:"gt=0,lt=1"`
}

// DefaultOptions returns the options with every field at its default.
func DefaultOptions() Options {
	var opts Options
	if err := defaults.Set(&opts); err != nil {
		panic(fmt.Sprintf("estimators: default tags: %v", err))
	}
	return opts
}

// Validate fills zero fields with their defaults and checks the result.
func (o *Options) Validate() error {
	if err := defaults.Set(o); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	if err := validate.Struct(o); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			e := verrs[0]
			return fmt.Errorf("%w: %s failed %s=%s", ErrInvalidOptions, e.Field(), e.Tag(), e.Param())
		}
		return fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	return nil
}
