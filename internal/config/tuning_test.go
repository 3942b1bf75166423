package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/tray.report/internal/align"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefaultTuningConfig(t *testing.T) {
	cfg := DefaultTuningConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, align.DefaultConfig(), cfg.AlignerConfig())
	dir, err := cfg.Direction()
	require.NoError(t, err)
	assert.Equal(t, align.LeftToRight, dir)
	assert.Equal(t, 2*time.Minute, cfg.GetDetectTimeout())
	assert.Equal(t, 5*time.Second, cfg.GetScaleIdleTimeout())
	assert.Equal(t, 9600, cfg.GetScaleBaudRate())
}

func TestDefaultsFileMatchesCode(t *testing.T) {
	fromFile := MustLoadDefaultConfig()
	if diff := cmp.Diff(DefaultTuningConfig(), fromFile); diff != "" {
		t.Errorf("%s drifted from DefaultTuningConfig (-code +file):\n%s", DefaultConfigPath, diff)
	}
}

func TestEmptyConfigUsesDefaults(t *testing.T) {
	cfg := &TuningConfig{}
	assert.Equal(t, align.DefaultConfig(), cfg.AlignerConfig())
	assert.Equal(t, "http://localhost:11434", cfg.GetOllamaURL())
	assert.Equal(t, "openbmb/minicpm-v4.5", cfg.GetOllamaModel())
	assert.Equal(t, 1024, cfg.GetMaxImageDim())
	assert.False(t, cfg.GetStrictEvents())
}

func TestLoadTuningConfig(t *testing.T) {
	path := writeConfig(t, "tray.json", `{
  "density_factor": 0.08,
  "sort_direction": "clockwise",
  "strict_events": true,
  "scale_idle_timeout": "750ms"
}`)

	cfg, err := LoadTuningConfig(path)
	require.NoError(t, err)

	ac := cfg.AlignerConfig()
	assert.Equal(t, 0.08, ac.DensityFactor)
	assert.True(t, ac.StrictEvents)
	assert.Equal(t, align.DefaultSpatialWeight, ac.SpatialWeight, "unset fields keep defaults")

	dir, err := cfg.Direction()
	require.NoError(t, err)
	assert.Equal(t, align.Clockwise, dir)
	assert.Equal(t, 750*time.Millisecond, cfg.GetScaleIdleTimeout())
}

func TestLoadTuningConfigErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadTuningConfig("/nonexistent/path/to/config.json")
		assert.Error(t, err)
	})

	t.Run("wrong extension", func(t *testing.T) {
		_, err := LoadTuningConfig(writeConfig(t, "tray.yaml", "{}"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), ".json")
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := LoadTuningConfig(writeConfig(t, "bad.json", `{"density_factor": "heavy"`))
		assert.Error(t, err)
	})

	t.Run("too large", func(t *testing.T) {
		body := `{"ollama_model": "` + strings.Repeat("x", 1024*1024) + `"}`
		_, err := LoadTuningConfig(writeConfig(t, "big.json", body))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "too large")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     TuningConfig
		wantErr bool
	}{
		{"empty", TuningConfig{}, false},
		{"negative spatial", TuningConfig{SpatialWeight: ptrFloat64(-0.1)}, true},
		{"zero density", TuningConfig{DensityFactor: ptrFloat64(0)}, true},
		{"negative floor", TuningConfig{NoiseFloorGrams: ptrFloat64(-1)}, true},
		{"unknown direction", TuningConfig{SortDirection: ptrString("spiral")}, true},
		{"relative ollama url", TuningConfig{OllamaURL: ptrString("localhost")}, true},
		{"negative image dim", TuningConfig{MaxImageDim: ptrInt(-5)}, true},
		{"zero baud", TuningConfig{ScaleBaudRate: ptrInt(0)}, true},
		{"bad timeout", TuningConfig{DetectTimeout: ptrString("soon")}, true},
		{"negative idle", TuningConfig{ScaleIdleTimeout: ptrString("-1s")}, true},
		{"top to bottom", TuningConfig{SortDirection: ptrString("top_to_bottom")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDurationFallbacks(t *testing.T) {
	cfg := &TuningConfig{DetectTimeout: ptrString("garbage"), ScaleIdleTimeout: ptrString("")}
	assert.Equal(t, 2*time.Minute, cfg.GetDetectTimeout())
	assert.Equal(t, 5*time.Second, cfg.GetScaleIdleTimeout())
}
