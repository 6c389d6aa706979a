package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/banshee-data/massmap/internal/db"
	"github.com/banshee-data/massmap/internal/mapplot"
)

// Record converts r into the metadata row of the map store.
func (r *Result) Record() (*db.Run, error) {
	cfgJSON, err := json.Marshal(r.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to encode configuration: %w", err)
	}
	shape := r.Grid.Shape()
	return &db.Run{
		Name:         r.Name,
		Algorithm:    r.Algorithm,
		Grid:         r.Grid.Name(),
		NPix:         r.Grid.NPix(),
		NX:           shape.NX,
		NY:           shape.NY,
		NInput:       r.NInput,
		NSelected:    r.NSelected,
		Responsivity: r.Responsivity.Matrix,
		Condition:    r.Responsivity.Condition,
		Degenerate:   r.Responsivity.Degenerate,
		ConfigJSON:   string(cfgJSON),
		Elapsed:      r.Elapsed,
	}, nil
}

// Save stores r in store and returns the new run ID.
func Save(ctx context.Context, store *db.DB, r *Result) (string, error) {
	run, err := r.Record()
	if err != nil {
		return "", err
	}
	shear, conv := r.Planes()
	return store.SaveRun(ctx, run, shear, conv)
}

// Export renders every signal plane of r into the directories named by
// the run's output configuration.
func Export(r *Result) ([]string, error) {
	pngDir, htmlDir := r.Config.Output.GetPNGDir(), r.Config.Output.GetHTMLDir()
	if pngDir == "" && htmlDir == "" {
		return nil, nil
	}
	shear, conv := r.Planes()
	written, err := mapplot.Export(pngDir, htmlDir, r.Name+"_shear", shear, r.ShearSampling)
	if err != nil {
		return written, err
	}
	more, err := mapplot.Export(pngDir, htmlDir, r.Name+"_kappa", conv, r.ConvergenceSampling)
	return append(written, more...), err
}
