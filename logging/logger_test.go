package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLoggerWritesToFile(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "logs", "paintbot.log")

	logger, err := NewLogger(false, logPath)
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}

	logger.Info("generation complete")
	if err := logger.Sync(); err != nil {
		// Stdout sync may fail on some platforms; the file core is what we check.
		t.Logf("Sync() returned: %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("log file not created: %v", err)
	}
	if !strings.Contains(string(data), "generation complete") {
		t.Errorf("log file missing entry, got: %s", data)
	}
	if !strings.Contains(string(data), `"ts"`) {
		t.Errorf("file output is not JSON encoded: %s", data)
	}
}

func TestNewLoggerNoFile(t *testing.T) {
	logger, err := NewLogger(true, "")
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	// Must not panic without a file core.
	logger.Debug("console only")
}

func TestNamedLogger(t *testing.T) {
	logger := NewTestLogger()
	child := logger.Named("sdapi")
	if child == nil || child.Zap() == nil {
		t.Fatal("Named() returned an unusable logger")
	}
}
