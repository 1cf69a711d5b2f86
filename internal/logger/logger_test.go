package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestInit(t *testing.T) {
	configDir := filepath.Join(t.TempDir(), "config")

	if err := Init(Config{ConfigDir: configDir}); err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}

	if _, err := os.Stat(filepath.Dir(LogFile(configDir))); os.IsNotExist(err) {
		t.Errorf("Log directory was not created: %s", filepath.Dir(LogFile(configDir)))
	}
	if Logger == nil {
		t.Fatal("Logger is nil after initialization")
	}
	if Logger.GetLevel() != log.WarnLevel {
		t.Errorf("default level = %v, want warn", Logger.GetLevel())
	}

	Debug("Test debug message")
	Info("Test info message")
	Warn("Test warning message")
	Error("Test error message")
}

func TestInitLevels(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		want    log.Level
		wantErr bool
	}{
		{name: "debug flag", cfg: Config{Debug: true}, want: log.DebugLevel},
		{name: "explicit info", cfg: Config{Level: "INFO"}, want: log.InfoLevel},
		{name: "debug flag wins over level", cfg: Config{Debug: true, Level: "error"}, want: log.DebugLevel},
		{name: "unknown level", cfg: Config{Level: "chatty"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.ConfigDir = t.TempDir()
			err := Init(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Init() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && Logger.GetLevel() != tt.want {
				t.Errorf("level = %v, want %v", Logger.GetLevel(), tt.want)
			}
		})
	}
}

func TestInitWriter(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, log.InfoLevel)

	Info("Habit completed", "habit", "abc")
	Debug("hidden")

	out := buf.String()
	if !strings.Contains(out, "Habit completed") || !strings.Contains(out, "habit=abc") {
		t.Errorf("unexpected log output: %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Errorf("debug message written at info level: %q", out)
	}
}

func TestLogFunctionsWithoutInit(t *testing.T) {
	Logger = nil

	// These should not panic when Logger is nil
	Debug("Test debug message")
	Info("Test info message")
	Warn("Test warning message")
	Error("Test error message")
}
