// Package logging builds the zerolog loggers used by the estimators and the demo.
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// ErrInvalidConfig is returned for an unknown level or format.
var ErrInvalidConfig = errors.New("logging: invalid config")

// Config selects the level, format and destination of a logger.
type Config struct {
	Level      string `mapstructure:"level" yaml:"level"`             // debug, info, warn, error, disabled
	Format     string `mapstructure:"format" yaml:"format"`           // json, console
	OutputPath string `mapstructure:"output_path" yaml:"output_path"` // stdout, stderr, file path
	TimeFormat string `mapstructure:"time_format" yaml:"time_format"` // RFC3339, UnixDate, Kitchen, Unix (epoch seconds)
}

// DefaultConfig returns info-level JSON logging to stderr.
func DefaultConfig() Config {
	return Config{Level: "info", Format: "json", OutputPath: "stderr", TimeFormat: "RFC3339"}
}

// Validate checks the level, format and time format.
func (c Config) Validate() error {
	switch c.Level {
	case "debug", "info", "warn", "error", "disabled":
	default:
		return fmt.Errorf("%w: level must be one of debug, info, warn, error, disabled, got %q", ErrInvalidConfig, c.Level)
	}
	switch c.Format {
	case "json", "console":
	default:
		return fmt.Errorf("%w: format must be json or console, got %q", ErrInvalidConfig, c.Format)
	}
	switch c.TimeFormat {
	case "", "RFC3339", "UnixDate", "Kitchen", "Unix":
	default:
		return fmt.Errorf("%w: time format must be one of RFC3339, UnixDate, Kitchen, Unix, got %q", ErrInvalidConfig, c.TimeFormat)
	}
	return nil
}

// New creates a logger from cfg. File outputs are created with their parent
// directory and opened for appending. The returned closer closes the log
// file and does nothing for stdout and stderr.
func New(cfg Config) (zerolog.Logger, io.Closer, error) {
	if err := cfg.Validate(); err != nil {
		return zerolog.Nop(), nopCloser{}, err
	}

	var (
		output io.Writer
		closer io.Closer = nopCloser{}
	)
	switch cfg.OutputPath {
	case "stdout":
		output = os.Stdout
	case "stderr", "":
		output = os.Stderr
	default:
		dir := filepath.Dir(cfg.OutputPath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return zerolog.Nop(), nopCloser{}, fmt.Errorf("failed to create log directory %s: %w", dir, err)
		}
		file, err := os.OpenFile(cfg.OutputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), nopCloser{}, fmt.Errorf("failed to open log file %s: %w", cfg.OutputPath, err)
		}
		output, closer = file, file
	}
	return NewWithWriter(cfg, output), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewWithWriter creates a logger writing to w. The level and format of cfg
// are used without validation; an unknown level falls back to info.
func NewWithWriter(cfg Config, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	unix := cfg.TimeFormat == "Unix"
	if cfg.Format == "console" {
		cw := zerolog.ConsoleWriter{Out: w, TimeFormat: timeFormat(cfg.TimeFormat), NoColor: true}
		if unix {
			cw.FormatTimestamp = func(i any) string { return fmt.Sprint(i) }
		}
		w = cw
	}

	logger := zerolog.New(w).Level(level)
	if unix {
		return logger.Hook(unixTimestamp{})
	}
	return logger.With().Timestamp().Logger()
}

// unixTimestamp stamps every event with the current time in epoch seconds.
type unixTimestamp struct{}

func (unixTimestamp) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	e.Int64(zerolog.TimestampFieldName, time.Now().Unix())
}

func timeFormat(format string) string {
	switch format {
	case "UnixDate":
		return time.UnixDate
	case "Kitchen":
		return time.Kitchen
	default:
		return time.RFC3339
	}
}
