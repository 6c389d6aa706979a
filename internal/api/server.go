// Package api serves stored runs as JSON and their planes as echarts
// heat maps.
package api

import (
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/massmap/internal/config"
	"github.com/banshee-data/massmap/internal/db"
	"github.com/banshee-data/massmap/internal/httputil"
	"github.com/banshee-data/massmap/internal/mapplot"
	"github.com/banshee-data/massmap/internal/massmap/grid"
	"github.com/banshee-data/massmap/internal/massmap/sht"
	"github.com/banshee-data/massmap/internal/monitoring"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

type Server struct {
	db *db.DB
}

func NewServer(db *db.DB) *Server {
	return &Server{db: db}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/{$}", s.index)
	mux.HandleFunc("/api/runs", s.listRuns)
	mux.HandleFunc("/api/runs/{id}", s.showRun)
	mux.HandleFunc("/runs/{id}/{product}/{tag}", s.renderPlane)
	return mux
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	if !httputil.RequireGet(w, r) {
		return
	}

	limit, ok := httputil.QueryInt(w, r, "limit", 100, 1, 1000)
	if !ok {
		return
	}

	runs, err := s.db.Runs(r.Context(), limit)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to retrieve runs: %v", err))
		return
	}
	if runs == nil {
		runs = []db.Run{}
	}
	httputil.WriteJSON(w, http.StatusOK, runs)
}

// planeInfo describes a stored plane without its data.
type planeInfo struct {
	Tag  string `json:"tag"`
	Dims []int  `json:"dims"`
	URL  string `json:"url"`
}

type runDetail struct {
	db.Run
	Planes map[string][]planeInfo `json:"planes"`
}

func (s *Server) showRun(w http.ResponseWriter, r *http.Request) {
	if !httputil.RequireGet(w, r) {
		return
	}
	id := r.PathValue("id")
	run, err := s.db.GetRun(r.Context(), id)
	if err != nil {
		httputil.WriteLookupError(w, err, db.ErrRunNotFound)
		return
	}

	detail := runDetail{Run: *run, Planes: map[string][]planeInfo{}}
	for _, product := range []string{db.ProductShear, db.ProductConvergence} {
		planes, err := s.db.Planes(r.Context(), id, product)
		if err != nil {
			httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to retrieve planes: %v", err))
			return
		}
		for _, p := range planes {
			detail.Planes[product] = append(detail.Planes[product], planeInfo{
				Tag:  p.Tag,
				Dims: p.Dims,
				URL:  fmt.Sprintf("/runs/%s/%s/%s", id, product, p.Tag),
			})
		}
	}

	httputil.WriteJSON(w, http.StatusOK, detail)
}

// samplingFor recovers the sampling a spherical product was laid out on
// from the stored run configuration.
func samplingFor(run *db.Run, product string) (sht.Sampling, error) {
	var cfg config.RunConfig
	if err := json.Unmarshal([]byte(run.ConfigJSON), &cfg); err != nil {
		return nil, fmt.Errorf("run %s has no usable configuration: %w", run.ID, err)
	}
	proj := &cfg.Projection
	if product == db.ProductConvergence && cfg.Algorithm.Output != nil {
		proj = cfg.Algorithm.Output
	}
	return grid.SamplingFromConfig(proj)
}

func (s *Server) renderPlane(w http.ResponseWriter, r *http.Request) {
	if !httputil.RequireGet(w, r) {
		return
	}
	id, product, tag := r.PathValue("id"), r.PathValue("product"), r.PathValue("tag")
	if product != db.ProductShear && product != db.ProductConvergence {
		httputil.WriteJSONError(w, http.StatusBadRequest, fmt.Sprintf("unknown product %q", product))
		return
	}

	run, err := s.db.GetRun(r.Context(), id)
	if err != nil {
		httputil.WriteLookupError(w, err, db.ErrRunNotFound)
		return
	}
	plane, err := s.db.Plane(r.Context(), id, product, tag)
	if err != nil {
		httputil.WriteLookupError(w, err, db.ErrRunNotFound)
		return
	}

	var sampling sht.Sampling
	if len(plane.Dims) != 2 {
		if sampling, err = samplingFor(run, product); err != nil {
			httputil.WriteJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	img, err := mapplot.ImageFor(*plane, sampling)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	img.Title = run.Name + " " + tag

	subtitle := fmt.Sprintf("%s on %s, %d galaxies", run.Algorithm, run.Grid, run.NSelected)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := mapplot.RenderHTML(w, img, subtitle); err != nil {
		monitoring.Logf("api: %v", err)
	}
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	runs, err := s.db.Runs(r.Context(), 100)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to retrieve runs: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, "<!doctype html><html><head><title>Mass maps</title></head><body><h1>Mass maps</h1><table>")
	fmt.Fprint(w, "<tr><th>Run</th><th>Algorithm</th><th>Grid</th><th>Galaxies</th><th>Created</th><th>Maps</th></tr>")
	for _, run := range runs {
		degenerate := ""
		if run.Degenerate {
			degenerate = " (degenerate R)"
		}
		fmt.Fprintf(w, "<tr><td><a href=\"/api/runs/%s\">%s</a></td><td>%s</td><td>%s</td><td>%d%s</td><td>%s</td>"+
			"<td><a href=\"/runs/%s/%s/kappa_e\">kappa_e</a> <a href=\"/runs/%s/%s/kappa_b\">kappa_b</a></td></tr>",
			html.EscapeString(run.ID), html.EscapeString(run.Name),
			html.EscapeString(run.Algorithm), html.EscapeString(run.Grid),
			run.NSelected, degenerate, run.CreatedAt.Format(time.RFC3339),
			html.EscapeString(run.ID), db.ProductConvergence, html.EscapeString(run.ID), db.ProductConvergence)
	}
	fmt.Fprint(w, "</table><p><a href=\"/debug/\">debug</a></p></body></html>")
}
