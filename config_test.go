package engrave

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v", err)
	}
}

func TestParseConfigOverlaysDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
[fill]
line_max_channel = 90

[layout]
max_curvature = 30.0
`))
	if err != nil {
		t.Fatalf("ParseConfig() = %v", err)
	}
	if cfg.Fill.LineMaxChannel != 90 {
		t.Errorf("LineMaxChannel = %d, want 90", cfg.Fill.LineMaxChannel)
	}
	if cfg.Layout.MaxCurvature != 30 {
		t.Errorf("MaxCurvature = %v, want 30", cfg.Layout.MaxCurvature)
	}
	def := DefaultConfig()
	if cfg.Fill.LineMinAlpha != def.Fill.LineMinAlpha || cfg.Surface != def.Surface {
		t.Error("untouched sections should keep their defaults")
	}
}

func TestParseConfigRejects(t *testing.T) {
	tests := []struct {
		name string
		toml string
	}{
		{"bias order", "[surface]\nbias_flush = 0.01\nbias_etched = 0.001\n"},
		{"negative curvature", "[layout]\nmax_curvature = -1.0\n"},
		{"full circle", "[layout]\nmax_arc = 7.0\n"},
		{"zero raster cap", "[resource]\nmax_raster_dimension = -5\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.toml))
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("ParseConfig() error = %v, want ErrInvalidConfig", err)
			}
		})
	}

	if _, err := ParseConfig([]byte("[fill\n")); err == nil {
		t.Error("ParseConfig() accepted malformed TOML")
	}
}

func TestConfigMarshalRoundTrip(t *testing.T) {
	data, err := DefaultConfig().Marshal()
	if err != nil {
		t.Fatalf("Marshal() = %v", err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		t.Fatalf("ParseConfig(Marshal()) = %v", err)
	}
	if cfg != DefaultConfig() {
		t.Errorf("round trip = %+v, want defaults", cfg)
	}
}

func TestConfigFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engrave.toml")
	if err := os.WriteFile(path, []byte("[attach]\nepsilon = 0.01\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv(ConfigEnv, path)
	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv() = %v", err)
	}
	if cfg.Attach.Epsilon != 0.01 {
		t.Errorf("Epsilon = %v, want 0.01", cfg.Attach.Epsilon)
	}

	t.Setenv(ConfigEnv, "")
	cfg, err = ConfigFromEnv()
	if err != nil || cfg != DefaultConfig() {
		t.Errorf("ConfigFromEnv() without env = %+v, %v", cfg, err)
	}
}
