package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestLogFilePath(t *testing.T) {
	logPath, err := logFilePath("grpcscout")
	if err != nil {
		t.Fatalf("logFilePath failed: %v", err)
	}
	if logPath == "" {
		t.Error("logFilePath returned empty path")
	}
	if !filepath.IsAbs(logPath) {
		t.Errorf("logFilePath returned relative path: %s", logPath)
	}

	homeDir, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "darwin":
		expected := filepath.Join(homeDir, "Library", "Logs", "grpcscout", "grpcscout.log")
		if logPath != expected {
			t.Errorf("macOS path mismatch: got %s, want %s", logPath, expected)
		}
	case "linux":
		expected := filepath.Join(homeDir, ".local", "state", "grpcscout", "grpcscout.log")
		if logPath != expected {
			t.Errorf("Linux path mismatch: got %s, want %s", logPath, expected)
		}
	}
}

func TestInitLogger(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	if runtime.GOOS == "windows" {
		t.Setenv("USERPROFILE", tmpDir)
		t.Setenv("LOCALAPPDATA", filepath.Join(tmpDir, "AppData", "Local"))
	}

	tests := []struct {
		name  string
		debug bool
	}{
		{"info level", false},
		{"debug level", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := InitLogger("grpcscout-test", tt.debug)
			if err != nil {
				t.Fatalf("InitLogger failed: %v", err)
			}
			if logger == nil {
				t.Fatal("InitLogger returned nil logger")
			}

			logger.Info("test message", slog.String("key", "value"))

			logPath, _ := logFilePath("grpcscout-test")
			info, err := os.Stat(logPath)
			if err != nil {
				t.Fatalf("log file was not created: %v", err)
			}
			if info.Size() == 0 {
				t.Error("log file is empty after writing message")
			}
		})
	}
}

func TestNewStderrLogger(t *testing.T) {
	logger := NewStderrLogger(true)
	if logger == nil {
		t.Fatal("NewStderrLogger returned nil")
	}
}

func TestNewNopLogger(t *testing.T) {
	logger := NewNopLogger()
	if logger == nil {
		t.Fatal("NewNopLogger returned nil")
	}

	// Must not panic at any level.
	logger.Debug("test debug")
	logger.Info("test info")
	logger.Warn("test warn")
	logger.Error("test error")
}
