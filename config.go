package engrave

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// ConfigEnv names the environment variable consulted by [ConfigFromEnv].
const ConfigEnv = "ENGRAVE_CONFIG"

// Config holds the tunable constants of the decoration core.
// Zero-valued fields in a config file keep their defaults.
type Config struct {
	Fill     FillConfig     `toml:"fill"`
	Surface  SurfaceConfig  `toml:"surface"`
	Layout   LayoutConfig   `toml:"layout"`
	Attach   AttachConfig   `toml:"attach"`
	Resource ResourceConfig `toml:"resource"`
}

// FillConfig holds the line-pixel classification thresholds.
type FillConfig struct {
	// LineMaxChannel: a line pixel has R, G and B all below this value.
	LineMaxChannel uint8 `toml:"line_max_channel"`
	// LineMinAlpha: a line pixel has alpha above this value.
	LineMinAlpha uint8 `toml:"line_min_alpha"`
}

// SurfaceConfig holds the standoff of new decorations from the host's
// front plane, one tier per finish variant, in host-local units.
type SurfaceConfig struct {
	BiasFlush  float64 `toml:"bias_flush"`
	BiasEtched float64 `toml:"bias_etched"`
	BiasRaised float64 `toml:"bias_raised"`
}

// LayoutConfig bounds the curvature-to-arc mapping of inscriptions.
type LayoutConfig struct {
	MaxCurvature float64 `toml:"max_curvature"`
	MinArc       float64 `toml:"min_arc"`
	// MaxArc is the requested arc at MaxCurvature. A line's radius never
	// drops below half its length, so the drawn sweep stops growing at
	// 2 radians; larger values only reach that cap at lower curvatures.
	MaxArc float64 `toml:"max_arc"`
	// DefaultWidth is the advance, in em, of characters missing from a
	// width table.
	DefaultWidth float64 `toml:"default_width"`
}

// AttachConfig tunes the attachment controller.
type AttachConfig struct {
	// Epsilon is the smallest local-pose change worth writing back.
	Epsilon float64 `toml:"epsilon"`
	// RoundTripTolerance bounds the error of a local -> world -> local
	// conversion before a pose is rejected as corrupt.
	RoundTripTolerance float64 `toml:"round_trip_tolerance"`
}

// ResourceConfig tunes image loading.
type ResourceConfig struct {
	// MaxRasterDimension caps the width and height of loaded art; larger
	// images are downscaled at load time.
	MaxRasterDimension int `toml:"max_raster_dimension"`
	// CacheEntries is the number of decoded images kept per loader.
	CacheEntries int `toml:"cache_entries"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		Fill: FillConfig{
			LineMaxChannel: 60,
			LineMinAlpha:   32,
		},
		Surface: SurfaceConfig{
			BiasFlush:  0.0005,
			BiasEtched: 0.001,
			BiasRaised: 0.003,
		},
		Layout: LayoutConfig{
			MaxCurvature: 45,
			MinArc:       math.Pi / 36,
			MaxArc:       2,
			DefaultWidth: 0.6,
		},
		Attach: AttachConfig{
			Epsilon:            1e-6,
			RoundTripTolerance: 1e-5,
		},
		Resource: ResourceConfig{
			MaxRasterDimension: 2048,
			CacheEntries:       32,
		},
	}
}

// Sentinel errors for configuration.
var (
	// ErrInvalidConfig is wrapped by every validation failure.
	ErrInvalidConfig = errors.New("engrave: invalid config")
)

// ParseConfig decodes TOML over the defaults and validates the result.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("engrave: parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads and parses a TOML config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return Config{}, fmt.Errorf("engrave: read config: %w", err)
	}
	return ParseConfig(data)
}

// ConfigFromEnv loads the file named by $ENGRAVE_CONFIG, or returns the
// defaults when the variable is unset.
func ConfigFromEnv() (Config, error) {
	path := os.Getenv(ConfigEnv)
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadConfig(path)
}

// Marshal encodes the configuration as TOML.
func (c Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}

// Validate checks the ranges of every field.
func (c Config) Validate() error {
	switch {
	case c.Surface.BiasFlush < 0 || c.Surface.BiasEtched < 0 || c.Surface.BiasRaised < 0:
		return fmt.Errorf("%w: surface biases must be non-negative", ErrInvalidConfig)
	case !(c.Surface.BiasFlush <= c.Surface.BiasEtched && c.Surface.BiasEtched <= c.Surface.BiasRaised):
		return fmt.Errorf("%w: surface biases must grow flush <= etched <= raised", ErrInvalidConfig)
	case c.Layout.MaxCurvature <= 0:
		return fmt.Errorf("%w: layout.max_curvature must be positive", ErrInvalidConfig)
	case c.Layout.MinArc <= 0 || c.Layout.MaxArc < c.Layout.MinArc || c.Layout.MaxArc >= 2*math.Pi:
		return fmt.Errorf("%w: layout arc bounds need 0 < min_arc <= max_arc < 2pi", ErrInvalidConfig)
	case c.Layout.DefaultWidth < 0:
		return fmt.Errorf("%w: layout.default_width must be non-negative", ErrInvalidConfig)
	case c.Attach.Epsilon < 0 || c.Attach.RoundTripTolerance <= 0:
		return fmt.Errorf("%w: attach tolerances out of range", ErrInvalidConfig)
	case c.Resource.MaxRasterDimension <= 0:
		return fmt.Errorf("%w: resource.max_raster_dimension must be positive", ErrInvalidConfig)
	case c.Resource.CacheEntries < 0:
		return fmt.Errorf("%w: resource.cache_entries must be non-negative", ErrInvalidConfig)
	}
	return nil
}
