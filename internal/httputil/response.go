// Package httputil holds the JSON response helpers shared by HTTP handlers.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/banshee-data/massmap/internal/monitoring"
)

// WriteJSONError writes a JSON error response with the given status code and message.
func WriteJSONError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]string{"error": msg})
}

// WriteJSON writes a JSON response with the given status code and data.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		monitoring.Logf("failed to encode json response: %v", err)
	}
}

// RequireGet writes a 405 and returns false unless r is a GET or HEAD.
func RequireGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return true
	}
	w.Header().Set("Allow", "GET, HEAD")
	WriteJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
	return false
}

// WriteLookupError maps err to 404 when it wraps notFound and 500
// otherwise.
func WriteLookupError(w http.ResponseWriter, err, notFound error) {
	if errors.Is(err, notFound) {
		WriteJSONError(w, http.StatusNotFound, err.Error())
		return
	}
	WriteJSONError(w, http.StatusInternalServerError, err.Error())
}

// QueryInt reads an integer query parameter within [lo, hi]. A missing
// parameter yields def; a malformed or out-of-range one writes a 400 and
// returns false.
func QueryInt(w http.ResponseWriter, r *http.Request, name string, def, lo, hi int) (int, bool) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, true
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < lo || v > hi {
		WriteJSONError(w, http.StatusBadRequest, "Invalid '"+name+"' parameter")
		return 0, false
	}
	return v, true
}
