package security

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidateIdentifier(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"galaxies", false},
		{"_shape_v2", false},
		{"2galaxies", true},
		{"galaxies; DROP TABLE runs", true},
		{"", true},
		{"gal-axies", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIdentifier(tt.name)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateIdentifier(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePathWithinDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "png"), 0o755); err != nil {
		t.Fatal(err)
	}
	outside := t.TempDir()
	if err := os.Symlink(outside, filepath.Join(dir, "escape")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"existing subdir", filepath.Join(dir, "png"), false},
		{"new file", filepath.Join(dir, "png", "kappa_e.png"), false},
		{"new nested file", filepath.Join(dir, "a", "b", "c.png"), false},
		{"dotdot", filepath.Join(dir, "..", "x.png"), true},
		{"symlink escape", filepath.Join(dir, "escape", "x.png"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePathWithinDirectory(tt.path, dir)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePathWithinDirectory(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"kappa_e":          "kappa_e",
		"run 1/kappa_e":    "run_1_kappa_e",
		"../../etc/passwd": "etc_passwd",
		"":                 "unknown",
		"a__b":             "a_b",
	}
	for in, want := range tests {
		if got := SanitizeFilename(in); got != want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
