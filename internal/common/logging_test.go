package common

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogger_ForRequestAddsCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithOutput("info", &buf)

	ctx := WithCorrelationID(context.Background(), "ab12cd34")
	logger.ForRequest(ctx).Info().Msg("handled")

	if !strings.Contains(buf.String(), `"correlation_id":"ab12cd34"`) {
		t.Errorf("log line missing correlation id: %s", buf.String())
	}
}

func TestLogger_ForRequestWithoutID(t *testing.T) {
	logger := NewSilentLogger()
	if got := logger.ForRequest(context.Background()); got != logger {
		t.Error("ForRequest should return the same logger when ctx has no correlation id")
	}
	if id := CorrelationID(context.Background()); id != "" {
		t.Errorf("CorrelationID() = %q, want empty", id)
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithOutput("warn", &buf)

	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info message written at warn level")
	}
	if !strings.Contains(out, "shown") {
		t.Error("warn message missing")
	}
}

func TestNewLoggerFromConfig_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "vnstock.log")
	logger := NewLoggerFromConfig(LoggingConfig{
		Level:    "debug",
		Format:   "json",
		Outputs:  []string{"file"},
		FilePath: path,
	})

	logger.Debug().Str("symbol", "VCB").Msg("snapshot fetched")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), `"symbol":"VCB"`) {
		t.Errorf("log file content = %s", data)
	}
}
