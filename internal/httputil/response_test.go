package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteJSONError(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteJSONError(rec, http.StatusBadRequest, "test error")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type = %s, want application/json", ct)
	}

	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp["error"] != "test error" {
		t.Errorf("error = %s, want 'test error'", resp["error"])
	}
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, map[string]int{"npix": 48})

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusCreated)
	}

	var resp map[string]int
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["npix"] != 48 {
		t.Errorf("npix = %d, want 48", resp["npix"])
	}
}

func TestRequireGet(t *testing.T) {
	t.Parallel()

	for _, method := range []string{http.MethodGet, http.MethodHead} {
		rec := httptest.NewRecorder()
		if !RequireGet(rec, httptest.NewRequest(method, "/", nil)) {
			t.Errorf("%s rejected", method)
		}
	}

	rec := httptest.NewRecorder()
	if RequireGet(rec, httptest.NewRequest(http.MethodDelete, "/", nil)) {
		t.Fatal("DELETE accepted")
	}
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
	if allow := rec.Header().Get("Allow"); allow != "GET, HEAD" {
		t.Errorf("Allow = %q", allow)
	}
}

func TestWriteLookupError(t *testing.T) {
	t.Parallel()

	errMissing := errors.New("missing")
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: abc", errMissing), http.StatusNotFound},
		{errors.New("disk I/O error"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		WriteLookupError(rec, tt.err, errMissing)
		if rec.Code != tt.want {
			t.Errorf("%v: status = %d, want %d", tt.err, rec.Code, tt.want)
		}
	}
}

func TestQueryInt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		query  string
		want   int
		ok     bool
		status int
	}{
		{"", 100, true, http.StatusOK},
		{"?limit=5", 5, true, http.StatusOK},
		{"?limit=0", 0, false, http.StatusBadRequest},
		{"?limit=1001", 0, false, http.StatusBadRequest},
		{"?limit=ten", 0, false, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := httptest.NewRecorder()
			got, ok := QueryInt(rec, httptest.NewRequest(http.MethodGet, "/api/runs"+tt.query, nil), "limit", 100, 1, 1000)
			if got != tt.want || ok != tt.ok {
				t.Errorf("QueryInt = (%d, %v), want (%d, %v)", got, ok, tt.want, tt.ok)
			}
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}
