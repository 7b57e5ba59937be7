package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"mercator-hq/relay/pkg/cli"
	"mercator-hq/relay/pkg/config"
)

const validConfig = `
retry:
  max_retries: 2
  base_delay: 100ms

budget:
  daily_limit: 10
  per_request_limit: 0.5

providers:
  - name: openai
    model: gpt-4o
    base_url: https://api.openai.com/v1
    api_key: sk-abcdefghijklmnop
  - name: local
    base_url: http://localhost:8081/v1

fallback:
  order: [local, openai]
`

const invalidConfig = `
retry:
  factor: 0.5

budget:
  daily_limit: 100
  monthly_limit: 10
`

func runValidate(t *testing.T, path, format string) (string, error) {
	t.Helper()
	useConfigFile(t, path)
	validateFlags.format = format

	var buf bytes.Buffer
	validateCmd.SetOut(&buf)
	t.Cleanup(func() { validateCmd.SetOut(nil) })

	err := validateConfig(validateCmd, nil)
	return buf.String(), err
}

func TestValidateConfigValid(t *testing.T) {
	out, err := runValidate(t, writeConfig(t, validConfig), "text")
	if err != nil {
		t.Fatalf("validateConfig() error = %v", err)
	}

	for _, want := range []string{"✓ Configuration valid", "max_retries=2", "daily=10", "per_request=0.5", "Fallback:    local -> openai"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output, got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "sk-abcdefghijklmnop") {
		t.Error("API key must not be printed in full")
	}
	if !strings.Contains(out, "key=sk-a***") {
		t.Errorf("Expected redacted key in output, got:\n%s", out)
	}
}

func TestValidateConfigDefaults(t *testing.T) {
	out, err := runValidate(t, "", "text")
	if err != nil {
		t.Fatalf("validateConfig() error = %v", err)
	}
	if !strings.Contains(out, "Configuration: (defaults)") {
		t.Errorf("Expected defaults source, got:\n%s", out)
	}
	if !strings.Contains(out, "Providers:   none") {
		t.Errorf("Expected no providers, got:\n%s", out)
	}
}

func TestValidateConfigInvalid(t *testing.T) {
	out, err := runValidate(t, writeConfig(t, invalidConfig), "text")
	if err == nil {
		t.Fatal("Expected validation error")
	}

	var verr config.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError, got %T", err)
	}
	if cli.ExitCode(err) != cli.ExitConfig {
		t.Errorf("Expected exit code %d, got %d", cli.ExitConfig, cli.ExitCode(err))
	}
	for _, want := range []string{"retry.factor", "budget.daily_limit"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q reported, got:\n%s", want, out)
		}
	}
}

func TestValidateConfigMissingFile(t *testing.T) {
	_, err := runValidate(t, "/nonexistent/relay.yaml", "text")
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
	if cli.ExitCode(err) != cli.ExitConfig {
		t.Errorf("Expected exit code %d, got %d", cli.ExitConfig, cli.ExitCode(err))
	}
}

func TestValidateConfigJSON(t *testing.T) {
	out, err := runValidate(t, writeConfig(t, validConfig), "json")
	if err != nil {
		t.Fatalf("validateConfig() error = %v", err)
	}

	var report validationReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("Expected JSON output, got %q: %v", out, err)
	}
	if !report.Valid {
		t.Error("Expected valid report")
	}
	if len(report.Providers) != 2 || report.Providers[0].Name != "local" {
		t.Errorf("Expected providers in fallback order, got %+v", report.Providers)
	}
	if report.Providers[1].APIKey != "sk-a***" {
		t.Errorf("Expected redacted key, got %q", report.Providers[1].APIKey)
	}
}

func TestValidateConfigBadFormat(t *testing.T) {
	if _, err := runValidate(t, "", "yaml"); err == nil {
		t.Error("Expected error for unknown format")
	}
}
