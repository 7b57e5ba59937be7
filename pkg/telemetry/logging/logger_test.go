package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestNew_Formats(t *testing.T) {
	tests := []struct {
		name   string
		format string
		check  func(t *testing.T, out string)
	}{
		{
			name:   "json",
			format: "json",
			check: func(t *testing.T, out string) {
				var entry map[string]any
				if err := json.Unmarshal([]byte(out), &entry); err != nil {
					t.Fatalf("Expected JSON output, got %q: %v", out, err)
				}
				if entry["msg"] != "hello" {
					t.Errorf("Expected msg hello, got %v", entry["msg"])
				}
				if entry["component"] != "test" {
					t.Errorf("Expected component test, got %v", entry["component"])
				}
			},
		},
		{
			name:   "default is json",
			format: "",
			check: func(t *testing.T, out string) {
				if !strings.HasPrefix(out, "{") {
					t.Errorf("Expected JSON output, got %q", out)
				}
			},
		},
		{
			name:   "text",
			format: "text",
			check: func(t *testing.T, out string) {
				if !strings.Contains(out, "msg=hello") || !strings.Contains(out, "component=test") {
					t.Errorf("Expected logfmt output, got %q", out)
				}
			},
		},
		{
			name:   "console",
			format: "console",
			check: func(t *testing.T, out string) {
				if !strings.Contains(out, "hello") || !strings.Contains(out, "component=test") {
					t.Errorf("Expected console output, got %q", out)
				}
				if strings.Contains(out, "\x1b[") {
					t.Errorf("Expected no colour codes with NoColor, got %q", out)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger, err := New(Config{Format: tt.format, NoColor: true, Writer: &buf})
			if err != nil {
				t.Fatalf("Failed to create logger: %v", err)
			}

			logger.Info("hello", "component", "test")
			tt.check(t, buf.String())
		})
	}
}

func TestNew_Level(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "warn", Format: "text", Writer: &buf})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	logger.Info("filtered")
	logger.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "filtered") {
		t.Errorf("Expected info to be filtered, got %q", out)
	}
	if !strings.Contains(out, "kept") {
		t.Errorf("Expected warning to be logged, got %q", out)
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	if _, err := New(Config{Level: "loud"}); err == nil {
		t.Error("Expected error for invalid level")
	}
	if _, err := New(Config{Format: "xml"}); err == nil {
		t.Error("Expected error for invalid format")
	}
}

func TestNew_RedactSecrets(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Format: "text", RedactSecrets: true, Writer: &buf})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	logger.Info("calling provider",
		"api_key", "sk-abcdefghijkl",
		"header", "Bearer abc.def.ghi",
		"error", errors.New("rejected key sk-zyxwvutsrq"),
		"prompt_tokens", 42,
	)

	out := buf.String()
	for _, secret := range []string{"sk-abcdefghijkl", "abc.def.ghi", "sk-zyxwvutsrq"} {
		if strings.Contains(out, secret) {
			t.Errorf("Expected %q to be redacted, got %q", secret, out)
		}
	}
	if !strings.Contains(out, "prompt_tokens=42") {
		t.Errorf("Expected token counts to be kept, got %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
		wantErr  bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"trace", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if got != tt.expected {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}
