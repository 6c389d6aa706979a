package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/banshee-data/massmap/internal/catalog"
	"github.com/banshee-data/massmap/internal/massmap"
)

// DefaultConfigPath is the path to the canonical run defaults file.
const DefaultConfigPath = "config/massmap.defaults.json"

// Algorithm tags.
const (
	AlgorithmFlatKS      = "flat_ks"
	AlgorithmHealpixKS   = "healpix_ks"
	AlgorithmSphericalKS = "spherical_ks"
)

// Projection tags.
const (
	ProjectionGnomonic    = "gnomonic"
	ProjectionHealpix     = "healpix"
	ProjectionBandLimited = "band_limited"
)

// Empty pixel policies.
const (
	EmptyPixelZero   = "zero"
	EmptyPixelUnseen = "unseen"
)

// Catalog sources.
const (
	SourceParquet = "parquet"
	SourceSQLite  = "sqlite"
)

// RunConfig is the root configuration of one reconstruction. Every optional
// scalar is a pointer; the Get* methods supply defaults for omitted fields.
type RunConfig struct {
	Catalog     CatalogConfig     `json:"catalog" yaml:"catalog"`
	Selection   SelectionConfig   `json:"selection" yaml:"selection"`
	Calibration CalibrationConfig `json:"calibration" yaml:"calibration"`
	Projection  ProjectionConfig  `json:"projection" yaml:"projection"`
	ShearMap    ShearMapConfig    `json:"shear_map" yaml:"shear_map"`
	ShapeNoise  ShapeNoiseConfig  `json:"shape_noise" yaml:"shape_noise"`
	Algorithm   AlgorithmConfig   `json:"algorithm" yaml:"algorithm"`
	Output      OutputConfig      `json:"output" yaml:"output"`
}

type CatalogConfig struct {
	Path   *string `json:"path,omitempty" yaml:"path,omitempty"`
	Source *string `json:"source,omitempty" yaml:"source,omitempty"` // parquet | sqlite
	Table  *string `json:"table,omitempty" yaml:"table,omitempty"`
	Format *string `json:"format,omitempty" yaml:"format,omitempty"` // metacal | shear
}

type SelectionConfig struct {
	Cuts []catalog.Cut `json:"cuts,omitempty" yaml:"cuts,omitempty"`
}

type CalibrationConfig struct {
	DeltaGamma   *float64 `json:"delta_gamma,omitempty" yaml:"delta_gamma,omitempty"`
	MaxCondition *float64 `json:"max_condition,omitempty" yaml:"max_condition,omitempty"`
	// ResponseCuts restricts the sub-sample used to estimate R.
	ResponseCuts []catalog.Cut `json:"response_cuts,omitempty" yaml:"response_cuts,omitempty"`
}

// ProjectionConfig selects a pixel grid. Only the fields of the chosen type
// are read.
type ProjectionConfig struct {
	Type *string `json:"type,omitempty" yaml:"type,omitempty"`

	NX        *int     `json:"nx,omitempty" yaml:"nx,omitempty"`
	NY        *int     `json:"ny,omitempty" yaml:"ny,omitempty"`
	PixelSize *float64 `json:"pixel_size,omitempty" yaml:"pixel_size,omitempty"` // arcmin
	CenterRA  *float64 `json:"center_ra,omitempty" yaml:"center_ra,omitempty"`
	CenterDec *float64 `json:"center_dec,omitempty" yaml:"center_dec,omitempty"`

	NSide    *int    `json:"nside,omitempty" yaml:"nside,omitempty"`
	Ordering *string `json:"ordering,omitempty" yaml:"ordering,omitempty"`

	L *int `json:"L,omitempty" yaml:"L,omitempty"`
}

type ShearMapConfig struct {
	EmptyPixel *string `json:"empty_pixel,omitempty" yaml:"empty_pixel,omitempty"`
}

type ShapeNoiseConfig struct {
	Sigma *float64 `json:"sigma,omitempty" yaml:"sigma,omitempty"`
}

// AlgorithmConfig selects and parameterises the reconstructor.
type AlgorithmConfig struct {
	Name        *string  `json:"name,omitempty" yaml:"name,omitempty"`
	LMax        *int     `json:"lmax,omitempty" yaml:"lmax,omitempty"`
	Iter        *int     `json:"iter,omitempty" yaml:"iter,omitempty"`           // harmonic analysis refinement steps
	Smoothing   *float64 `json:"smoothing,omitempty" yaml:"smoothing,omitempty"` // FWHM arcmin
	ZeroPadding *int     `json:"zero_padding,omitempty" yaml:"zero_padding,omitempty"`
	FlipG1      *bool    `json:"flip_g1,omitempty" yaml:"flip_g1,omitempty"`
	FlipG2      *bool    `json:"flip_g2,omitempty" yaml:"flip_g2,omitempty"`

	// Output resamples spherical_ks results onto another sampling.
	Output *ProjectionConfig `json:"output,omitempty" yaml:"output,omitempty"`
}

type OutputConfig struct {
	Name    *string `json:"name,omitempty" yaml:"name,omitempty"`
	DB      *string `json:"db,omitempty" yaml:"db,omitempty"`
	PNGDir  *string `json:"png_dir,omitempty" yaml:"png_dir,omitempty"`
	HTMLDir *string `json:"html_dir,omitempty" yaml:"html_dir,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }
func ptrString(v string) *string    { return &v }
func ptrBool(v bool) *bool          { return &v }

// Load reads a RunConfig from a .json, .yaml or .yml file and validates it.
func Load(path string) (*RunConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &RunConfig{}
	if ext == ".json" {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", filepath.Base(cleanPath), err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching upwards from the
// working directory. Panics if the file cannot be loaded; intended for tests.
func MustLoadDefaultConfig() *RunConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from internal/massmap/pipeline/
		"../../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := Load(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks tags, required options and their combinations. Every
// failure matches massmap.ErrConfiguration.
func (c *RunConfig) Validate() error {
	if c.Catalog.Source != nil {
		switch *c.Catalog.Source {
		case SourceParquet, SourceSQLite:
		default:
			return massmap.ConfigErrorf("unknown catalog.source %q", *c.Catalog.Source)
		}
	}
	if c.Catalog.Format != nil {
		if _, err := catalog.ParseFormat(*c.Catalog.Format); err != nil {
			return massmap.ConfigErrorf("catalog.format: %v", err)
		}
	}

	if c.Calibration.DeltaGamma != nil && *c.Calibration.DeltaGamma <= 0 {
		return massmap.ConfigErrorf("calibration.delta_gamma must be positive, got %g", *c.Calibration.DeltaGamma)
	}
	if c.Calibration.MaxCondition != nil && *c.Calibration.MaxCondition < 1 {
		return massmap.ConfigErrorf("calibration.max_condition must be >= 1, got %g", *c.Calibration.MaxCondition)
	}

	if err := c.Projection.Validate("projection"); err != nil {
		return err
	}

	switch c.ShearMap.GetEmptyPixel() {
	case EmptyPixelZero, EmptyPixelUnseen:
	default:
		return massmap.ConfigErrorf("unknown shear_map.empty_pixel %q", c.ShearMap.GetEmptyPixel())
	}
	if c.ShapeNoise.Sigma != nil && *c.ShapeNoise.Sigma < 0 {
		return massmap.ConfigErrorf("shape_noise.sigma must be non-negative, got %g", *c.ShapeNoise.Sigma)
	}

	return c.Algorithm.Validate(c.Projection.GetType())
}

// Validate checks one projection block. prefix names it in errors.
func (p *ProjectionConfig) Validate(prefix string) error {
	switch p.GetType() {
	case ProjectionGnomonic:
		if p.NX == nil || p.NY == nil || p.PixelSize == nil {
			return massmap.ConfigErrorf("%s: gnomonic requires nx, ny and pixel_size", prefix)
		}
		if *p.NX < 1 || *p.NY < 1 {
			return massmap.ConfigErrorf("%s: nx and ny must be positive, got %d, %d", prefix, *p.NX, *p.NY)
		}
		if *p.PixelSize <= 0 {
			return massmap.ConfigErrorf("%s: pixel_size must be positive, got %g", prefix, *p.PixelSize)
		}
	case ProjectionHealpix:
		if p.NSide == nil {
			return massmap.ConfigErrorf("%s: healpix requires nside", prefix)
		}
		if *p.NSide < 1 {
			return massmap.ConfigErrorf("%s: nside must be positive, got %d", prefix, *p.NSide)
		}
		switch p.GetOrdering() {
		case "RING", "NESTED":
		default:
			return massmap.NotImplementedf("%s: healpix ordering %q", prefix, p.GetOrdering())
		}
	case ProjectionBandLimited:
		if p.L == nil {
			return massmap.ConfigErrorf("%s: band_limited requires L", prefix)
		}
		if *p.L < 1 {
			return massmap.ConfigErrorf("%s: L must be positive, got %d", prefix, *p.L)
		}
	case "":
		return massmap.ConfigErrorf("%s.type is required", prefix)
	default:
		return massmap.NotImplementedf("%s type %q", prefix, p.GetType())
	}
	return nil
}

// IsSpherical reports whether the projection samples the sphere.
func (p *ProjectionConfig) IsSpherical() bool {
	t := p.GetType()
	return t == ProjectionHealpix || t == ProjectionBandLimited
}

// Validate checks the algorithm tag and its compatibility with the input
// projection type.
func (a *AlgorithmConfig) Validate(projection string) error {
	switch a.GetName() {
	case AlgorithmFlatKS:
		if projection != ProjectionGnomonic {
			return massmap.ConfigErrorf("flat_ks requires a gnomonic projection, got %q", projection)
		}
		if a.ZeroPadding != nil && *a.ZeroPadding < 0 {
			return massmap.ConfigErrorf("algorithm.zero_padding must be non-negative, got %d", *a.ZeroPadding)
		}
	case AlgorithmHealpixKS:
		if projection != ProjectionHealpix {
			return massmap.ConfigErrorf("healpix_ks requires a healpix projection, got %q", projection)
		}
	case AlgorithmSphericalKS:
		if projection != ProjectionHealpix && projection != ProjectionBandLimited {
			return massmap.ConfigErrorf("spherical_ks requires a spherical projection, got %q", projection)
		}
	case "":
		return massmap.ConfigErrorf("algorithm.name is required")
	default:
		return massmap.NotImplementedf("algorithm %q", a.GetName())
	}

	if a.LMax != nil && *a.LMax < 0 {
		return massmap.ConfigErrorf("algorithm.lmax must be non-negative, got %d", *a.LMax)
	}
	if a.Iter != nil && *a.Iter < 0 {
		return massmap.ConfigErrorf("algorithm.iter must be non-negative, got %d", *a.Iter)
	}
	if a.Smoothing != nil && *a.Smoothing < 0 {
		return massmap.ConfigErrorf("algorithm.smoothing must be non-negative, got %g", *a.Smoothing)
	}
	if a.Output != nil {
		if a.GetName() != AlgorithmSphericalKS {
			return massmap.ConfigErrorf("algorithm.output is only supported by spherical_ks")
		}
		if err := a.Output.Validate("algorithm.output"); err != nil {
			return err
		}
		if !a.Output.IsSpherical() {
			return massmap.ConfigErrorf("algorithm.output must be healpix or band_limited")
		}
	}
	return nil
}

// GetPath returns the catalog path or "".
func (c *CatalogConfig) GetPath() string {
	if c.Path == nil {
		return ""
	}
	return *c.Path
}

// GetSource returns the catalog source, inferred from the path extension
// when unset.
func (c *CatalogConfig) GetSource() string {
	if c.Source != nil {
		return *c.Source
	}
	switch strings.ToLower(filepath.Ext(c.GetPath())) {
	case ".db", ".sqlite", ".sqlite3":
		return SourceSQLite
	}
	return SourceParquet
}

// GetTable returns the sqlite table name or the default.
func (c *CatalogConfig) GetTable() string {
	if c.Table == nil || *c.Table == "" {
		return "galaxies" // default
	}
	return *c.Table
}

// GetFormat returns the catalog format or the default.
func (c *CatalogConfig) GetFormat() catalog.Format {
	if c.Format == nil {
		return catalog.FormatMetacal // default
	}
	f, err := catalog.ParseFormat(*c.Format)
	if err != nil {
		return catalog.FormatMetacal
	}
	return f
}

// GetDeltaGamma returns the metacal shear step or the default.
func (c *CalibrationConfig) GetDeltaGamma() float64 {
	if c.DeltaGamma == nil {
		return 0.01 // default
	}
	return *c.DeltaGamma
}

// GetMaxCondition returns the condition number above which the
// responsivity is flagged degenerate.
func (c *CalibrationConfig) GetMaxCondition() float64 {
	if c.MaxCondition == nil {
		return 1e6 // default
	}
	return *c.MaxCondition
}

func (p *ProjectionConfig) GetType() string {
	if p.Type == nil {
		return ""
	}
	return *p.Type
}

func (p *ProjectionConfig) GetNX() int {
	if p.NX == nil {
		return 0
	}
	return *p.NX
}

func (p *ProjectionConfig) GetNY() int {
	if p.NY == nil {
		return 0
	}
	return *p.NY
}

func (p *ProjectionConfig) GetPixelSize() float64 {
	if p.PixelSize == nil {
		return 0
	}
	return *p.PixelSize
}

func (p *ProjectionConfig) GetCenterRA() float64 {
	if p.CenterRA == nil {
		return 0
	}
	return *p.CenterRA
}

func (p *ProjectionConfig) GetCenterDec() float64 {
	if p.CenterDec == nil {
		return 0
	}
	return *p.CenterDec
}

func (p *ProjectionConfig) GetNSide() int {
	if p.NSide == nil {
		return 0
	}
	return *p.NSide
}

// GetOrdering returns the upper-cased HEALPix ordering, RING by default.
func (p *ProjectionConfig) GetOrdering() string {
	if p.Ordering == nil || *p.Ordering == "" {
		return "RING" // default
	}
	return strings.ToUpper(*p.Ordering)
}

func (p *ProjectionConfig) GetL() int {
	if p.L == nil {
		return 0
	}
	return *p.L
}

// GetEmptyPixel returns the empty pixel policy, zero by default.
func (s *ShearMapConfig) GetEmptyPixel() string {
	if s.EmptyPixel == nil || *s.EmptyPixel == "" {
		return EmptyPixelZero // default
	}
	return *s.EmptyPixel
}

// GetSigma returns the per-galaxy shape noise, 0 when unset.
func (s *ShapeNoiseConfig) GetSigma() float64 {
	if s.Sigma == nil {
		return 0
	}
	return *s.Sigma
}

func (a *AlgorithmConfig) GetName() string {
	if a.Name == nil {
		return ""
	}
	return *a.Name
}

// GetLMax returns the configured lmax, or fallback when unset.
func (a *AlgorithmConfig) GetLMax(fallback int) int {
	if a.LMax == nil {
		return fallback
	}
	return *a.LMax
}

// GetIter returns the number of iterative analysis steps, 0 when unset.
func (a *AlgorithmConfig) GetIter() int {
	if a.Iter == nil {
		return 0
	}
	return *a.Iter
}

// GetSmoothing returns the smoothing FWHM in arcmin, 0 for none.
func (a *AlgorithmConfig) GetSmoothing() float64 {
	if a.Smoothing == nil {
		return 0
	}
	return *a.Smoothing
}

func (a *AlgorithmConfig) GetZeroPadding() int {
	if a.ZeroPadding == nil {
		return 0
	}
	return *a.ZeroPadding
}

func (a *AlgorithmConfig) GetFlipG1() bool {
	return a.FlipG1 != nil && *a.FlipG1
}

func (a *AlgorithmConfig) GetFlipG2() bool {
	return a.FlipG2 != nil && *a.FlipG2
}

// GetName returns the run name or a name derived from the catalog path.
func (o *OutputConfig) GetName(c *CatalogConfig) string {
	if o.Name != nil && *o.Name != "" {
		return *o.Name
	}
	base := filepath.Base(c.GetPath())
	if base == "." || base == string(filepath.Separator) {
		return "massmap"
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (o *OutputConfig) GetDB() string {
	if o.DB == nil {
		return ""
	}
	return *o.DB
}

func (o *OutputConfig) GetPNGDir() string {
	if o.PNGDir == nil {
		return ""
	}
	return *o.PNGDir
}

func (o *OutputConfig) GetHTMLDir() string {
	if o.HTMLDir == nil {
		return ""
	}
	return *o.HTMLDir
}
