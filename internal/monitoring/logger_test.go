package monitoring

import (
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	called := false
	SetLogger(func(format string, v ...interface{}) { called = true })
	Logf("test message")
	if !called {
		t.Error("custom logger was not called")
	}

	// nil installs a no-op
	SetLogger(nil)
	Logf("test message")
}

func TestStage(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	var lines []string
	SetLogger(func(format string, v ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, v...))
	})
	done := Stage("bin")
	done()

	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %v", len(lines), lines)
	}
	if lines[0] != "bin: started" || !strings.HasPrefix(lines[1], "bin: done in ") {
		t.Errorf("unexpected lines %q", lines)
	}
}

func TestUseZap(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	core, logs := observer.New(zap.InfoLevel)
	UseZap(zap.New(core))
	Logf("dropped %d galaxies", 3)

	entries := logs.All()
	if len(entries) != 1 || entries[0].Message != "dropped 3 galaxies" {
		t.Errorf("unexpected entries %+v", entries)
	}
}

func TestNewZapLogger(t *testing.T) {
	for _, format := range []string{"json", "console", ""} {
		l, err := NewZapLogger(format, format == "json")
		if err != nil {
			t.Fatalf("NewZapLogger(%q): %v", format, err)
		}
		_ = l.Sync()
	}
	if _, err := NewZapLogger("xml", false); err == nil {
		t.Error("expected error for unknown format")
	}
}
