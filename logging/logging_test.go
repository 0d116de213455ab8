package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	tests := []struct {
		name string
		cfg  Config
	}{
		{"bad level", Config{Level: "verbose", Format: "json"}},
		{"bad format", Config{Level: "info", Format: "xml"}},
		{"empty", Config{}},
		{"bad time format", Config{Level: "info", Format: "json", TimeFormat: "epoch"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.cfg.Validate(), ErrInvalidConfig)
			_, _, err := New(tt.cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestNewWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(Config{Level: "warn", Format: "json"}, &buf)

	log.Info().Msg("hidden")
	log.Warn().Str("method", "mm").Msg("diverged")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "mm", entry["method"])
	assert.Equal(t, "diverged", entry["message"])
	assert.Contains(t, entry, "time")
}

func TestNewWithWriterConsole(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(Config{Level: "debug", Format: "console"}, &buf)
	log.Debug().Int("iteration", 3).Msg("step accepted")

	out := buf.String()
	assert.Contains(t, out, "step accepted")
	assert.Contains(t, out, "iteration=3")
}

func TestNewFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "fit.log")
	log, closer, err := New(Config{Level: "info", Format: "json", OutputPath: path})
	require.NoError(t, err)

	log.Info().Msg("written")
	require.NoError(t, closer.Close())
	assert.Error(t, closer.Close(), "file closed twice")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written")
}

func TestNewStdStreamCloser(t *testing.T) {
	for _, output := range []string{"stdout", "stderr", ""} {
		_, closer, err := New(Config{Level: "info", Format: "json", OutputPath: output})
		require.NoError(t, err)
		assert.NoError(t, closer.Close())
	}
}

func TestUnixTimeFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(Config{Level: "info", Format: "json", TimeFormat: "Unix"}, &buf)
	before := time.Now().Unix()
	log.Info().Msg("stamped")
	after := time.Now().Unix()

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	stamp, ok := entry["time"].(float64)
	require.True(t, ok, "time is %T", entry["time"])
	assert.GreaterOrEqual(t, int64(stamp), before)
	assert.LessOrEqual(t, int64(stamp), after)
}

func TestUnixTimeFormatConsole(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(Config{Level: "info", Format: "console", TimeFormat: "Unix"}, &buf)
	log.Info().Msg("stamped")

	fields := strings.Fields(buf.String())
	require.NotEmpty(t, fields)
	_, err := strconv.ParseInt(fields[0], 10, 64)
	assert.NoError(t, err, buf.String())
}
