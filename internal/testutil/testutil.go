// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/banshee-data/massmap/internal/catalog"
)

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t testing.TB, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertNear fails the test if any element of got differs from want by
// more than tol.
func AssertNear(t testing.TB, got, want []float64, tol float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length = %d, want %d", len(got), len(want))
	}
	for i := range got {
		if math.Abs(got[i]-want[i]) > tol || math.IsNaN(got[i]) {
			t.Errorf("[%d] = %.12g, want %.12g (tol %g)", i, got[i], want[i], tol)
		}
	}
}

// NewTestRequest creates a test HTTP request.
func NewTestRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

// NewTestRecorder creates a test response recorder.
func NewTestRecorder() *httptest.ResponseRecorder {
	return httptest.NewRecorder()
}

// Galaxy is one synthetic source: position in degrees, intrinsic
// ellipticity and the shear applied to it.
type Galaxy struct {
	RA, Dec float64
	E       [2]float64
	Shear   [2]float64
}

func respond(r [2][2]float64, e, g [2]float64) [2]float64 {
	return [2]float64{
		e[0] + r[0][0]*g[0] + r[0][1]*g[1],
		e[1] + r[1][0]*g[0] + r[1][1]*g[1],
	}
}

// MetacalCatalog builds a metacalibration catalog where every measurement
// is e + R.shear, with the sheared variants offset by +-deltaGamma along
// each axis.
func MetacalCatalog(t testing.TB, gals []Galaxy, r [2][2]float64, deltaGamma float64) *catalog.Catalog {
	t.Helper()
	n := len(gals)
	ra := make([]float64, n)
	dec := make([]float64, n)
	cols := map[string][][2]float64{}
	for _, name := range []string{catalog.ColG, catalog.ColG1P, catalog.ColG1M, catalog.ColG2P, catalog.ColG2M} {
		cols[name] = make([][2]float64, n)
	}
	for i, g := range gals {
		ra[i], dec[i] = g.RA, g.Dec
		s := g.Shear
		cols[catalog.ColG][i] = respond(r, g.E, s)
		cols[catalog.ColG1P][i] = respond(r, g.E, [2]float64{s[0] + deltaGamma, s[1]})
		cols[catalog.ColG1M][i] = respond(r, g.E, [2]float64{s[0] - deltaGamma, s[1]})
		cols[catalog.ColG2P][i] = respond(r, g.E, [2]float64{s[0], s[1] + deltaGamma})
		cols[catalog.ColG2M][i] = respond(r, g.E, [2]float64{s[0], s[1] - deltaGamma})
	}
	c, err := catalog.FromPositions(ra, dec)
	AssertNoError(t, err)
	for name, v := range cols {
		c, err = c.WithVec2(name, v)
		AssertNoError(t, err)
	}
	return c
}

// ShearCatalog builds a plain shear catalog.
func ShearCatalog(t testing.TB, ra, dec, g1, g2 []float64) *catalog.Catalog {
	t.Helper()
	c, err := catalog.FromPositions(ra, dec)
	AssertNoError(t, err)
	c, err = c.WithFloat(catalog.ColShear1, g1)
	AssertNoError(t, err)
	c, err = c.WithFloat(catalog.ColShear2, g2)
	AssertNoError(t, err)
	return c
}
