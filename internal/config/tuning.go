package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/tray.report/internal/align"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig is the flat JSON schema for the aligner, the detector client
// and the scale stream. Nil fields fall back to the defaults returned by the
// Get* accessors, so partial files are safe.
type TuningConfig struct {
	// Alignment
	SpatialWeight   *float64 `json:"spatial_weight,omitempty"`
	TemporalWeight  *float64 `json:"temporal_weight,omitempty"`
	NoiseFloorGrams *float64 `json:"noise_floor_grams,omitempty"`
	DensityFactor   *float64 `json:"density_factor,omitempty"` // grams per px², calibrate per camera
	SortDirection   *string  `json:"sort_direction,omitempty"`
	StrictEvents    *bool    `json:"strict_events,omitempty"`

	// Detector
	OllamaURL     *string `json:"ollama_url,omitempty"`
	OllamaModel   *string `json:"ollama_model,omitempty"`
	MaxImageDim   *int    `json:"max_image_dim,omitempty"`
	DetectTimeout *string `json:"detect_timeout,omitempty"` // duration string like "120s"

	// Scale
	ScaleBaudRate    *int    `json:"scale_baud_rate,omitempty"`
	ScaleIdleTimeout *string `json:"scale_idle_timeout,omitempty"` // duration string like "5s"
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// DefaultTuningConfig returns a TuningConfig with every field populated.
func DefaultTuningConfig() *TuningConfig {
	return &TuningConfig{
		SpatialWeight:    ptrFloat64(align.DefaultSpatialWeight),
		TemporalWeight:   ptrFloat64(align.DefaultTemporalWeight),
		NoiseFloorGrams:  ptrFloat64(align.DefaultNoiseFloor),
		DensityFactor:    ptrFloat64(align.DefaultDensityFactor),
		SortDirection:    ptrString(align.LeftToRight.String()),
		StrictEvents:     ptrBool(false),
		OllamaURL:        ptrString(defaultOllamaURL),
		OllamaModel:      ptrString(defaultOllamaModel),
		MaxImageDim:      ptrInt(defaultMaxImageDim),
		DetectTimeout:    ptrString(defaultDetectTimeout.String()),
		ScaleBaudRate:    ptrInt(defaultScaleBaudRate),
		ScaleIdleTimeout: ptrString(defaultScaleIdleTimeout.String()),
	}
}

const (
	defaultOllamaURL        = "http://localhost:11434"
	defaultOllamaModel      = "openbmb/minicpm-v4.5"
	defaultMaxImageDim      = 1024
	defaultDetectTimeout    = 2 * time.Minute
	defaultScaleBaudRate    = 9600
	defaultScaleIdleTimeout = 5 * time.Second
)

// LoadTuningConfig loads a TuningConfig from a JSON file. The path must have
// a .json extension and the file must be under 1MB.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &TuningConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents up to the repository root. Panics on failure;
// intended for tests and tools run from inside the tree.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/config/ or cmd/tray-align/
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run from the repository root")
}

// Validate checks the values that are set.
func (c *TuningConfig) Validate() error {
	if _, err := align.ParseSortDirection(c.GetSortDirection()); err != nil {
		return err
	}
	if err := c.AlignerConfig().Validate(); err != nil {
		return err
	}
	if c.OllamaURL != nil {
		u, err := url.Parse(*c.OllamaURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid ollama_url %q", *c.OllamaURL)
		}
	}
	if c.MaxImageDim != nil && *c.MaxImageDim < 0 {
		return fmt.Errorf("max_image_dim must be non-negative, got %d", *c.MaxImageDim)
	}
	if c.ScaleBaudRate != nil && *c.ScaleBaudRate <= 0 {
		return fmt.Errorf("scale_baud_rate must be positive, got %d", *c.ScaleBaudRate)
	}
	for name, v := range map[string]*string{
		"detect_timeout":     c.DetectTimeout,
		"scale_idle_timeout": c.ScaleIdleTimeout,
	} {
		if v == nil || *v == "" {
			continue
		}
		if d, err := time.ParseDuration(*v); err != nil {
			return fmt.Errorf("invalid %s '%s': %w", name, *v, err)
		} else if d < 0 {
			return fmt.Errorf("%s must be non-negative, got %s", name, *v)
		}
	}
	return nil
}

// AlignerConfig converts the alignment fields into an align.Config.
func (c *TuningConfig) AlignerConfig() align.Config {
	return align.Config{
		SpatialWeight:  c.GetSpatialWeight(),
		TemporalWeight: c.GetTemporalWeight(),
		NoiseFloor:     c.GetNoiseFloorGrams(),
		DensityFactor:  c.GetDensityFactor(),
		StrictEvents:   c.GetStrictEvents(),
	}
}

// Direction parses sort_direction. Validate has already rejected bad values
// for loaded configs.
func (c *TuningConfig) Direction() (align.SortDirection, error) {
	return align.ParseSortDirection(c.GetSortDirection())
}

func (c *TuningConfig) GetSpatialWeight() float64 {
	if c.SpatialWeight == nil {
		return align.DefaultSpatialWeight
	}
	return *c.SpatialWeight
}

func (c *TuningConfig) GetTemporalWeight() float64 {
	if c.TemporalWeight == nil {
		return align.DefaultTemporalWeight
	}
	return *c.TemporalWeight
}

func (c *TuningConfig) GetNoiseFloorGrams() float64 {
	if c.NoiseFloorGrams == nil {
		return align.DefaultNoiseFloor
	}
	return *c.NoiseFloorGrams
}

// GetDensityFactor returns the grams-per-px² factor. The default is an
// uncalibrated placeholder.
func (c *TuningConfig) GetDensityFactor() float64 {
	if c.DensityFactor == nil {
		return align.DefaultDensityFactor
	}
	return *c.DensityFactor
}

func (c *TuningConfig) GetSortDirection() string {
	if c.SortDirection == nil {
		return align.LeftToRight.String()
	}
	return *c.SortDirection
}

func (c *TuningConfig) GetStrictEvents() bool {
	if c.StrictEvents == nil {
		return false
	}
	return *c.StrictEvents
}

func (c *TuningConfig) GetOllamaURL() string {
	if c.OllamaURL == nil || *c.OllamaURL == "" {
		return defaultOllamaURL
	}
	return *c.OllamaURL
}

func (c *TuningConfig) GetOllamaModel() string {
	if c.OllamaModel == nil || *c.OllamaModel == "" {
		return defaultOllamaModel
	}
	return *c.OllamaModel
}

// GetMaxImageDim returns the longest edge sent to the vision model; 0 keeps
// the original size.
func (c *TuningConfig) GetMaxImageDim() int {
	if c.MaxImageDim == nil {
		return defaultMaxImageDim
	}
	return *c.MaxImageDim
}

// GetDetectTimeout parses detect_timeout, falling back to the default on a
// missing or unparsable value.
func (c *TuningConfig) GetDetectTimeout() time.Duration {
	return parseDurationOr(c.DetectTimeout, defaultDetectTimeout)
}

func (c *TuningConfig) GetScaleBaudRate() int {
	if c.ScaleBaudRate == nil {
		return defaultScaleBaudRate
	}
	return *c.ScaleBaudRate
}

// GetScaleIdleTimeout is how long a scale capture waits for a new reading
// before treating the tray as finished.
func (c *TuningConfig) GetScaleIdleTimeout() time.Duration {
	return parseDurationOr(c.ScaleIdleTimeout, defaultScaleIdleTimeout)
}

func parseDurationOr(v *string, def time.Duration) time.Duration {
	if v == nil || *v == "" {
		return def
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return def
	}
	return d
}
