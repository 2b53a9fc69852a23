package logging_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"retail-suite/internal/logging"

	"go.uber.org/zap"
)

func TestNew_InvalidLevel(t *testing.T) {
	if _, err := logging.New(logging.Options{Level: "loud"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestNew_WritesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "retail.log")
	logger, err := logging.New(logging.Options{Mode: "production", Level: "info", File: path, Stderr: true})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logger.Info("checkout settled", zap.String("number", "PS-2026-00001"))
	logger.Debug("below level")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `"number":"PS-2026-00001"`) {
		t.Errorf("log file missing structured field:\n%s", out)
	}
	if strings.Contains(out, "below level") {
		t.Errorf("debug entry written at info level:\n%s", out)
	}
	if zap.L() != logger {
		t.Error("logger was not installed as the global")
	}
}
