package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestGetEnv_Fallback(t *testing.T) {
	t.Setenv("CUBESKETCH_TEST_SET", "value")
	if got := GetEnv("CUBESKETCH_TEST_SET", "x"); got != "value" {
		t.Errorf("GetEnv = %q, want %q", got, "value")
	}
	if got := GetEnv("CUBESKETCH_TEST_UNSET", "x"); got != "x" {
		t.Errorf("GetEnv = %q, want fallback %q", got, "x")
	}
}

func TestGetEnvFloat(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  float64
	}{
		{"plain", "1.5", 1.5},
		{"padded", " 2 ", 2},
		{"garbage", "dense", 9},
		{"empty", "", 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CUBESKETCH_TEST_FLOAT", tt.value)
			if got := GetEnvFloat("CUBESKETCH_TEST_FLOAT", 9); got != tt.want {
				t.Errorf("GetEnvFloat(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("CUBESKETCH_TEST_INT", "42")
	if got := GetEnvInt("CUBESKETCH_TEST_INT", 1); got != 42 {
		t.Errorf("GetEnvInt = %d, want 42", got)
	}
	t.Setenv("CUBESKETCH_TEST_INT", "4.2")
	if got := GetEnvInt("CUBESKETCH_TEST_INT", 1); got != 1 {
		t.Errorf("GetEnvInt = %d, want fallback 1", got)
	}
	if got := GetEnvInt("CUBESKETCH_TEST_INT_UNSET", 7); got != 7 {
		t.Errorf("GetEnvInt = %d, want fallback 7", got)
	}
}

func TestLoadGame(t *testing.T) {
	t.Setenv("SKETCH_DURATION", "12")
	t.Setenv("SKETCH_DENSITY", "1.25")
	t.Setenv("SKETCH_REFERENCE_DENSITY", "oops")

	g := LoadGame()
	if g.Duration != "12" || g.Density != 1.25 || g.ReferenceDensity != 1 {
		t.Errorf("LoadGame = %+v", g)
	}
}

func TestNewLogger_Level(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	if l := NewLogger("test"); l.GetLevel() != log.DebugLevel {
		t.Errorf("level = %v, want debug", l.GetLevel())
	}
	t.Setenv("LOG_LEVEL", "loud")
	if l := NewLogger("test"); l.GetLevel() != log.InfoLevel {
		t.Errorf("level = %v, want info fallback", l.GetLevel())
	}
}

func TestNewFileLogger(t *testing.T) {
	t.Setenv("LOG_FILE", "")
	l, closeFn, err := NewFileLogger("test")
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}
	l.Warn("dropped")
	if err := closeFn(); err != nil {
		t.Errorf("close: %v", err)
	}

	path := filepath.Join(t.TempDir(), "game.log")
	t.Setenv("LOG_FILE", path)
	l, closeFn, err = NewFileLogger("test")
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}
	l.Warn("malformed countdown", "value", "")
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "malformed countdown") {
		t.Errorf("log file = %q, want the warning", data)
	}
}

func TestNewFileLogger_BadPath(t *testing.T) {
	t.Setenv("LOG_FILE", filepath.Join(t.TempDir(), "missing", "game.log"))
	if _, _, err := NewFileLogger("test"); err == nil {
		t.Error("NewFileLogger succeeded on a missing directory")
	}
}
