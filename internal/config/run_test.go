package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/banshee-data/massmap/internal/catalog"
	"github.com/banshee-data/massmap/internal/massmap"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestMustLoadDefaultConfig(t *testing.T) {
	cfg := MustLoadDefaultConfig()

	if got := cfg.Projection.GetType(); got != ProjectionGnomonic {
		t.Errorf("projection type = %q, want gnomonic", got)
	}
	if got := cfg.Algorithm.GetName(); got != AlgorithmFlatKS {
		t.Errorf("algorithm = %q, want flat_ks", got)
	}
	if got := cfg.Calibration.GetDeltaGamma(); got != 0.01 {
		t.Errorf("delta_gamma = %g, want 0.01", got)
	}
	if got := cfg.ShearMap.GetEmptyPixel(); got != EmptyPixelZero {
		t.Errorf("empty_pixel = %q, want zero", got)
	}
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "run.yaml", `
catalog:
  path: cat.db
  format: shear
selection:
  cuts:
    - column: ra
      min: 10
projection:
  type: band_limited
  L: 32
algorithm:
  name: spherical_ks
  lmax: 31
  smoothing: 20
  output:
    type: healpix
    nside: 16
    ordering: nested
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Catalog.GetSource() != SourceSQLite {
		t.Errorf("source = %q, want sqlite inferred from .db", cfg.Catalog.GetSource())
	}
	if cfg.Catalog.GetFormat() != catalog.FormatShear {
		t.Errorf("format = %q, want shear", cfg.Catalog.GetFormat())
	}
	if len(cfg.Selection.Cuts) != 1 || *cfg.Selection.Cuts[0].Min != 10 || cfg.Selection.Cuts[0].Max != nil {
		t.Errorf("cuts = %+v", cfg.Selection.Cuts)
	}
	if cfg.Projection.GetL() != 32 || cfg.Algorithm.GetLMax(0) != 31 {
		t.Errorf("L=%d lmax=%d", cfg.Projection.GetL(), cfg.Algorithm.GetLMax(0))
	}
	if cfg.Algorithm.Output.GetOrdering() != "NESTED" {
		t.Errorf("output ordering = %q", cfg.Algorithm.Output.GetOrdering())
	}
	if cfg.Output.GetName(&cfg.Catalog) != "cat" {
		t.Errorf("run name = %q, want cat", cfg.Output.GetName(&cfg.Catalog))
	}
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		body    string
		wantCfg bool
		substr  string
	}{
		{"extension", "run.toml", `x = 1`, false, "extension"},
		{"bad json", "run.json", `{`, false, "parse"},
		{"bogus algorithm", "run.json",
			`{"projection":{"type":"gnomonic","nx":2,"ny":2,"pixel_size":1},"algorithm":{"name":"bogus"}}`, true, "not implemented"},
		{"missing algorithm", "run.json",
			`{"projection":{"type":"gnomonic","nx":2,"ny":2,"pixel_size":1}}`, true, "algorithm.name"},
		{"unknown projection", "run.json",
			`{"projection":{"type":"mollweide"},"algorithm":{"name":"flat_ks"}}`, true, "not implemented"},
		{"gnomonic missing nx", "run.json",
			`{"projection":{"type":"gnomonic","ny":2,"pixel_size":1},"algorithm":{"name":"flat_ks"}}`, true, "requires"},
		{"flat on sphere", "run.json",
			`{"projection":{"type":"healpix","nside":4},"algorithm":{"name":"flat_ks"}}`, true, "gnomonic"},
		{"healpix_ks on mw", "run.json",
			`{"projection":{"type":"band_limited","L":4},"algorithm":{"name":"healpix_ks"}}`, true, "healpix"},
		{"spherical on plane", "run.json",
			`{"projection":{"type":"gnomonic","nx":2,"ny":2,"pixel_size":1},"algorithm":{"name":"spherical_ks"}}`, true, "spherical"},
		{"empty pixel policy", "run.json",
			`{"projection":{"type":"healpix","nside":4},"shear_map":{"empty_pixel":"nan"},"algorithm":{"name":"healpix_ks"}}`, true, "empty_pixel"},
		{"output on flat", "run.json",
			`{"projection":{"type":"gnomonic","nx":2,"ny":2,"pixel_size":1},"algorithm":{"name":"flat_ks","output":{"type":"healpix","nside":2}}}`, true, "only supported"},
		{"negative iter", "run.json",
			`{"projection":{"type":"healpix","nside":4},"algorithm":{"name":"spherical_ks","iter":-1}}`, true, "algorithm.iter"},
		{"negative delta gamma", "run.json",
			`{"calibration":{"delta_gamma":-1},"projection":{"type":"healpix","nside":4},"algorithm":{"name":"healpix_ks"}}`, true, "delta_gamma"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.substr) {
				t.Errorf("error %q does not mention %q", err, tt.substr)
			}
			if tt.wantCfg && !errors.Is(err, massmap.ErrConfiguration) {
				t.Errorf("error %v does not match ErrConfiguration", err)
			}
		})
	}
}

func TestLoad_TooLarge(t *testing.T) {
	body := `{"pad":"` + strings.Repeat("x", 1<<20) + `"}`
	if _, err := Load(writeFile(t, "big.json", body)); err == nil || !strings.Contains(err.Error(), "too large") {
		t.Errorf("expected size error, got %v", err)
	}
}

func TestGetters_Defaults(t *testing.T) {
	var cfg RunConfig
	if cfg.Calibration.GetMaxCondition() != 1e6 {
		t.Errorf("max_condition default = %g", cfg.Calibration.GetMaxCondition())
	}
	if cfg.Catalog.GetTable() != "galaxies" {
		t.Errorf("table default = %q", cfg.Catalog.GetTable())
	}
	if cfg.Catalog.GetSource() != SourceParquet {
		t.Errorf("source default = %q", cfg.Catalog.GetSource())
	}
	if cfg.Algorithm.GetLMax(47) != 47 {
		t.Errorf("lmax fallback = %d", cfg.Algorithm.GetLMax(47))
	}
	if cfg.Algorithm.GetIter() != 0 {
		t.Errorf("iter default = %d", cfg.Algorithm.GetIter())
	}
	if cfg.Output.GetName(&cfg.Catalog) != "massmap" {
		t.Errorf("run name default = %q", cfg.Output.GetName(&cfg.Catalog))
	}

	cfg.Algorithm.FlipG1 = ptrBool(true)
	cfg.ShapeNoise.Sigma = ptrFloat64(0.3)
	cfg.Projection.NSide = ptrInt(8)
	cfg.Projection.Ordering = ptrString("nested")
	if !cfg.Algorithm.GetFlipG1() || cfg.Algorithm.GetFlipG2() {
		t.Error("flip getters")
	}
	if cfg.ShapeNoise.GetSigma() != 0.3 || cfg.Projection.GetNSide() != 8 || cfg.Projection.GetOrdering() != "NESTED" {
		t.Error("pointer getters")
	}
}
