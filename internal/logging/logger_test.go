package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"DEBUG":  zapcore.DebugLevel,
		" warn ": zapcore.WarnLevel,
		"error":  zapcore.ErrorLevel,
		"":       zapcore.InfoLevel,
		"bogus":  zapcore.InfoLevel,
	}
	for input, want := range tests {
		if got := ParseLevel(input); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestNewWritesConsoleAndFile(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer

	logger, flush, err := New(Config{Dir: dir, Console: &console, Level: "debug"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	logger.Debug("row saved")
	flush()

	if !strings.Contains(console.String(), "row saved") {
		t.Fatalf("expected console output, got %q", console.String())
	}
	data, err := os.ReadFile(filepath.Join(dir, "app.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"row saved"`) {
		t.Fatalf("expected JSON entry in file, got %q", data)
	}
}

func TestNewWithoutSinksIsNop(t *testing.T) {
	logger, flush, err := New(Config{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	logger.Info("ignored")
	flush()
}
