package api

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/massmap/internal/config"
	"github.com/banshee-data/massmap/internal/db"
	"github.com/banshee-data/massmap/internal/massmap/pipeline"
	"github.com/banshee-data/massmap/internal/monitoring"
	"github.com/banshee-data/massmap/internal/testutil"
)

func init() { monitoring.SetLogger(nil) }

func strp(v string) *string     { return &v }
func intp(v int) *int           { return &v }
func floatp(v float64) *float64 { return &v }

var identity = [2][2]float64{{1, 0}, {0, 1}}

// setupServer stores one flat and one spherical run.
func setupServer(t *testing.T) (s *Server, flatID, skyID string) {
	t.Helper()
	ctx := context.Background()
	store, err := db.NewDB(filepath.Join(t.TempDir(), "maps.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	flatCfg := &config.RunConfig{
		Projection: config.ProjectionConfig{
			Type: strp(config.ProjectionGnomonic), NX: intp(4), NY: intp(4), PixelSize: floatp(60),
		},
		Algorithm: config.AlgorithmConfig{Name: strp(config.AlgorithmFlatKS)},
		Output:    config.OutputConfig{Name: strp("patch")},
	}
	gals := []testutil.Galaxy{
		{RA: 0.5, Dec: 0.5, Shear: [2]float64{0.05, -0.02}},
		{RA: 359.5, Dec: -0.5, Shear: [2]float64{0.01, 0.03}},
	}
	res, err := pipeline.Run(ctx, flatCfg, testutil.MetacalCatalog(t, gals, identity, 0.01))
	require.NoError(t, err)
	flatID, err = pipeline.Save(ctx, store, res)
	require.NoError(t, err)

	skyCfg := &config.RunConfig{
		Projection: config.ProjectionConfig{Type: strp(config.ProjectionHealpix), NSide: intp(2)},
		Algorithm:  config.AlgorithmConfig{Name: strp(config.AlgorithmHealpixKS)},
		Output:     config.OutputConfig{Name: strp("sky")},
	}
	rng := rand.New(rand.NewSource(2))
	sky := make([]testutil.Galaxy, 50)
	for i := range sky {
		sky[i] = testutil.Galaxy{RA: 360 * rng.Float64(), Dec: -80 + 160*rng.Float64(), Shear: [2]float64{0.02, 0}}
	}
	res, err = pipeline.Run(ctx, skyCfg, testutil.MetacalCatalog(t, sky, identity, 0.01))
	require.NoError(t, err)
	skyID, err = pipeline.Save(ctx, store, res)
	require.NoError(t, err)

	return NewServer(store), flatID, skyID
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := testutil.NewTestRecorder()
	s.ServeMux().ServeHTTP(rec, testutil.NewTestRequest(http.MethodGet, path))
	return rec
}

func TestListRuns(t *testing.T) {
	s, _, _ := setupServer(t)

	rec := get(t, s, "/api/runs")
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	var runs []db.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	require.Len(t, runs, 2)
	names := []string{runs[0].Name, runs[1].Name}
	assert.ElementsMatch(t, []string{"patch", "sky"}, names)

	rec = get(t, s, "/api/runs?limit=1")
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	assert.Len(t, runs, 1)

	rec = get(t, s, "/api/runs?limit=zero")
	testutil.AssertStatusCode(t, rec.Code, http.StatusBadRequest)

	rec = testutil.NewTestRecorder()
	s.ServeMux().ServeHTTP(rec, testutil.NewTestRequest(http.MethodPost, "/api/runs"))
	testutil.AssertStatusCode(t, rec.Code, http.StatusMethodNotAllowed)
}

func TestShowRun(t *testing.T) {
	s, flatID, _ := setupServer(t)

	rec := get(t, s, "/api/runs/"+flatID)
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	var detail struct {
		Name   string                 `json:"name"`
		NX     int                    `json:"nx"`
		Planes map[string][]planeInfo `json:"planes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Equal(t, "patch", detail.Name)
	assert.Equal(t, 4, detail.NX)
	require.NotEmpty(t, detail.Planes[db.ProductConvergence])
	assert.Equal(t, "kappa_e", detail.Planes[db.ProductConvergence][0].Tag)
	assert.Equal(t, "/runs/"+flatID+"/convergence_map/kappa_e", detail.Planes[db.ProductConvergence][0].URL)

	rec = get(t, s, "/api/runs/does-not-exist")
	testutil.AssertStatusCode(t, rec.Code, http.StatusNotFound)
}

func TestRenderPlane(t *testing.T) {
	s, flatID, skyID := setupServer(t)

	tests := []struct {
		name string
		path string
		want int
	}{
		{"flat kappa_e", "/runs/" + flatID + "/convergence_map/kappa_e", http.StatusOK},
		{"flat shear count", "/runs/" + flatID + "/shear_map/n", http.StatusOK},
		{"sky kappa_b", "/runs/" + skyID + "/convergence_map/kappa_b", http.StatusOK},
		{"unknown tag", "/runs/" + flatID + "/convergence_map/sigma_g", http.StatusNotFound},
		{"unknown run", "/runs/nope/convergence_map/kappa_e", http.StatusNotFound},
		{"unknown product", "/runs/" + flatID + "/other/kappa_e", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, s, tt.path)
			testutil.AssertStatusCode(t, rec.Code, tt.want)
			if tt.want == http.StatusOK {
				assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
				assert.Contains(t, rec.Body.String(), "echarts")
			}
		})
	}
}

func TestIndex(t *testing.T) {
	s, flatID, _ := setupServer(t)

	rec := get(t, s, "/")
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	assert.Contains(t, rec.Body.String(), "/api/runs/"+flatID)
	assert.Contains(t, rec.Body.String(), "patch")

	rec = get(t, s, "/missing")
	testutil.AssertStatusCode(t, rec.Code, http.StatusNotFound)
}

func TestLoggingMiddleware(t *testing.T) {
	var logged []string
	monitoring.SetLogger(func(format string, v ...interface{}) { logged = append(logged, format) })
	defer monitoring.SetLogger(nil)

	h := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Len(t, logged, 1)
	assert.Contains(t, statusCodeColor(http.StatusTeapot), "418")
}
