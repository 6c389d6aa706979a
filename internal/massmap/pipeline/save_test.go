package pipeline

import (
	"context"
	"encoding/json"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/massmap/internal/config"
	"github.com/banshee-data/massmap/internal/db"
	"github.com/banshee-data/massmap/internal/massmap"
	"github.com/banshee-data/massmap/internal/testutil"
)

func TestSaveAndReload(t *testing.T) {
	ctx := context.Background()
	store, err := db.NewDB(filepath.Join(t.TempDir(), "maps.db"))
	require.NoError(t, err)
	defer store.Close()

	res, err := Run(ctx, flatConfig(2, 2, 3600), testutil.MetacalCatalog(t, quadrantGalaxies(), identity, 0.01))
	require.NoError(t, err)

	id, err := Save(ctx, store, res)
	require.NoError(t, err)

	run, err := store.GetRun(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "test", run.Name)
	assert.Equal(t, 4, run.NPix)
	assert.Equal(t, 2, run.NX)
	assert.Equal(t, 4, run.NSelected)
	assert.Equal(t, res.Responsivity.Matrix, run.Responsivity)

	var cfg config.RunConfig
	require.NoError(t, json.Unmarshal([]byte(run.ConfigJSON), &cfg))
	assert.Equal(t, config.AlgorithmFlatKS, cfg.Algorithm.GetName())

	conv, err := store.Planes(ctx, id, db.ProductConvergence)
	require.NoError(t, err)
	require.NotEmpty(t, conv)
	assert.Equal(t, massmap.TagKappaE, conv[0].Tag)
	assert.Equal(t, []int{2, 2}, conv[0].Dims)
	assert.Equal(t, res.Convergence.KappaE, conv[0].Data)

	shear, err := store.Planes(ctx, id, db.ProductShear)
	require.NoError(t, err)
	tags := make([]string, len(shear))
	for i, p := range shear {
		tags[i] = p.Tag
	}
	assert.Equal(t, []string{"g1", "g2", "n", "grid_ra", "grid_dec"}, tags)
}

func TestExportFlatAndSpherical(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	flat := flatConfig(2, 2, 3600)
	flat.Output.PNGDir = strp(filepath.Join(dir, "png"))
	flat.Output.HTMLDir = strp(filepath.Join(dir, "html"))
	res, err := Run(ctx, flat, testutil.MetacalCatalog(t, quadrantGalaxies(), identity, 0.01))
	require.NoError(t, err)
	written, err := Export(res)
	require.NoError(t, err)
	// g1 g2 n, kappa_e kappa_b n; coordinate planes are skipped
	assert.Len(t, written, 2*6)

	sky := &config.RunConfig{
		Projection: config.ProjectionConfig{Type: strp(config.ProjectionBandLimited), L: intp(4)},
		Algorithm: config.AlgorithmConfig{
			Name:   strp(config.AlgorithmSphericalKS),
			Output: &config.ProjectionConfig{Type: strp(config.ProjectionHealpix), NSide: intp(2)},
		},
		Output: config.OutputConfig{Name: strp("sky"), HTMLDir: strp(filepath.Join(dir, "sky"))},
	}
	rng := rand.New(rand.NewSource(8))
	res, err = Run(ctx, sky, testutil.MetacalCatalog(t, randomSky(rng, 100), identity, 0.01))
	require.NoError(t, err)
	assert.Len(t, res.Convergence.KappaE, 48)
	written, err = Export(res)
	require.NoError(t, err)
	assert.Len(t, written, 3+2)
	for _, path := range written {
		_, err := os.Stat(path)
		assert.NoError(t, err)
	}

	sky.Output.HTMLDir = nil
	written, err = Export(res)
	assert.NoError(t, err)
	assert.Empty(t, written)
}
