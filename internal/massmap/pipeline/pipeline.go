// Package pipeline wires the reconstruction stages together: selection,
// pixel assignment, calibration, binning and inversion.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/banshee-data/massmap/internal/catalog"
	"github.com/banshee-data/massmap/internal/config"
	"github.com/banshee-data/massmap/internal/massmap"
	"github.com/banshee-data/massmap/internal/massmap/binning"
	"github.com/banshee-data/massmap/internal/massmap/calibrate"
	"github.com/banshee-data/massmap/internal/massmap/grid"
	"github.com/banshee-data/massmap/internal/massmap/reconstruct"
	"github.com/banshee-data/massmap/internal/massmap/sht"
	"github.com/banshee-data/massmap/internal/monitoring"
)

// Result is everything one reconstruction produced.
type Result struct {
	Name      string
	Config    *config.RunConfig
	Grid      grid.Grid
	Algorithm string

	// NInput counts catalog rows; NSelected those that survived the cuts
	// and the grid's spatial selection.
	NInput    int
	NSelected int

	Responsivity calibrate.Responsivity
	Shear        *massmap.ShearMap
	Convergence  *massmap.ConvergenceMap

	// ShearSampling and ConvergenceSampling are the harmonic samplings of
	// spherical products; nil for flat maps.
	ShearSampling       sht.Sampling
	ConvergenceSampling sht.Sampling

	Elapsed time.Duration
}

// Planes returns the shear and convergence records, primary signal first.
func (r *Result) Planes() (shear, convergence []massmap.Plane) {
	return r.Shear.Planes(), r.Convergence.Planes()
}

// Run reconstructs the convergence map of cat under cfg. The configuration
// and the reconstructor are resolved before any catalog column is touched.
func Run(ctx context.Context, cfg *config.RunConfig, cat *catalog.Catalog) (*Result, error) {
	start := time.Now()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	g, err := grid.FromConfig(&cfg.Projection)
	if err != nil {
		return nil, err
	}
	rec, err := reconstruct.New(&cfg.Algorithm, g)
	if err != nil {
		return nil, err
	}

	name := cfg.Output.GetName(&cfg.Catalog)
	res := &Result{
		Name:      name,
		Config:    cfg,
		Grid:      g,
		Algorithm: rec.Name(),
		NInput:    cat.Len(),
	}
	if sks, ok := rec.(*reconstruct.SphericalKS); ok {
		res.ShearSampling, res.ConvergenceSampling = sks.Input, sks.Output
	}

	done := monitoring.Stage(name + ": select")
	selected, err := cat.Select(cfg.Selection.Cuts)
	done()
	if err != nil {
		return nil, fmt.Errorf("selection: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	done = monitoring.Stage(name + ": assign pixels on " + g.Name())
	indexed, err := g.AssignPixels(selected)
	done()
	if err != nil {
		return nil, fmt.Errorf("assign pixels: %w", err)
	}
	res.NSelected = indexed.Len()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	done = monitoring.Stage(name + ": calibrate")
	cal := calibrate.Calibrator{
		DeltaGamma:   cfg.Calibration.GetDeltaGamma(),
		MaxCondition: cfg.Calibration.GetMaxCondition(),
		ResponseCuts: cfg.Calibration.ResponseCuts,
	}
	calibrated, r, err := cal.Calibrate(indexed)
	done()
	if err != nil {
		return nil, fmt.Errorf("calibrate: %w", err)
	}
	res.Responsivity = r
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	done = monitoring.Stage(name + ": bin")
	res.Shear, err = binning.BinCatalog(calibrated, g, binning.Options{
		Unseen:          cfg.ShearMap.GetEmptyPixel() == config.EmptyPixelUnseen,
		ShapeNoiseSigma: cfg.ShapeNoise.GetSigma(),
	})
	done()
	if err != nil {
		return nil, fmt.Errorf("bin: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	done = monitoring.Stage(name + ": " + rec.Name())
	res.Convergence, err = rec.Reconstruct(res.Shear)
	done()
	if err != nil {
		return nil, fmt.Errorf("reconstruct: %w", err)
	}

	res.Elapsed = time.Since(start)
	monitoring.Logf("%s: %d of %d galaxies mapped, R=%s, elapsed %s",
		name, res.NSelected, res.NInput, res.Responsivity, res.Elapsed.Round(time.Millisecond))
	return res, nil
}
