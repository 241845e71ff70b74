package logging

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestPackageLoggerIsSilentUntilInitialized(t *testing.T) {
	// Importing the package must not install a live logger; components
	// and tests that never call Initialize get a no-op.
	if Logger == nil || Sugar == nil {
		t.Fatal("package loggers must never be nil")
	}
	for _, level := range []zapcore.Level{zapcore.DebugLevel, zapcore.InfoLevel, zapcore.ErrorLevel} {
		if Logger.Core().Enabled(level) {
			t.Errorf("uninitialized logger must discard %s output", level)
		}
	}

	// Warn and Sync are safe before initialization
	Warn("ignored")
	Sync()
}

func TestBuildRespectsLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Level = "error"
	cfg.Output = filepath.Join(t.TempDir(), "out.log")
	cfg.Format = "json"

	logger, err := Build(cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if logger.Core().Enabled(zapcore.InfoLevel) {
		t.Error("info should be below an error-level logger")
	}
	if !logger.Core().Enabled(zapcore.ErrorLevel) {
		t.Error("error level should be enabled")
	}
}
