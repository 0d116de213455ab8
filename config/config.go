// Package config loads estimator options and logging settings from YAML
// files and ROBARMA_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/sartorproj/gorobarma/estimators"
	"github.com/sartorproj/gorobarma/logging"
)

// EnvPrefix prefixes the environment overrides, for example
// ROBARMA_ESTIMATOR_MAX_ITERATIONS or ROBARMA_LOGGING_LEVEL.
const EnvPrefix = "ROBARMA"

// Config is the configuration of a robarma run.
type Config struct {
	Estimator estimators.Options `mapstructure:"estimator" yaml:"estimator"`
	Logging   logging.Config     `mapstructure:"logging" yaml:"logging"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Estimator: estimators.DefaultOptions(),
		Logging:   logging.DefaultConfig(),
	}
}

// Validate checks both sections.
func (c *Config) Validate() error {
	if err := c.Estimator.Validate(); err != nil {
		return fmt.Errorf("estimator config: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}
	return nil
}

// Load reads configPath, or robarma.yaml from the working directory and
// ./configs when configPath is empty. A missing default file leaves the
// defaults in place; environment variables override both.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("robarma")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	if err := setDefaults(v); err != nil {
		return nil, err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// setDefaults registers every key of Default so that environment variables
// can override keys absent from the file.
func setDefaults(v *viper.Viper) error {
	raw, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("failed to encode defaults: %w", err)
	}
	var sections map[string]map[string]any
	if err := yaml.Unmarshal(raw, &sections); err != nil {
		return fmt.Errorf("failed to decode defaults: %w", err)
	}
	for section, keys := range sections {
		for key, value := range keys {
			v.SetDefault(section+"."+key, value)
		}
	}
	return nil
}
