package cli

import (
	"bytes"
	"encoding/json"
	"testing"
)

type textResult struct {
	Name string `json:"name"`
}

func (r textResult) Text() string {
	return "name: " + r.Name
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected OutputFormat
		wantErr  bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"JSON", FormatJSON, false},
		{"csv", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if got != tt.expected {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestTextFormatter(t *testing.T) {
	tests := []struct {
		name     string
		data     any
		expected string
	}{
		{"texter", textResult{Name: "relay"}, "name: relay\n"},
		{"plain value", 42, "42\n"},
		{"trailing newline kept", "done\n", "done\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := NewFormatter(FormatText).FormatTo(&buf, tt.data); err != nil {
				t.Fatalf("FormatTo failed: %v", err)
			}
			if buf.String() != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, buf.String())
			}
		})
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := NewFormatter(FormatJSON).FormatTo(&buf, textResult{Name: "relay"}); err != nil {
		t.Fatalf("FormatTo failed: %v", err)
	}

	var decoded textResult
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Expected valid JSON, got %q: %v", buf.String(), err)
	}
	if decoded.Name != "relay" {
		t.Errorf("Expected name relay, got %q", decoded.Name)
	}
	if !bytes.Contains(buf.Bytes(), []byte("\n  \"name\"")) {
		t.Errorf("Expected indented JSON, got %q", buf.String())
	}
}
