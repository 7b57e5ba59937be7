package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mercator-hq/relay/pkg/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testConfig returns defaults with fast, deterministic retries.
func testConfig() *config.Config {
	cfg := config.Default()
	retries := 1
	jitter := false
	cfg.Retry.MaxRetries = &retries
	cfg.Retry.Jitter = &jitter
	cfg.Retry.BaseDelay = time.Millisecond
	cfg.Retry.MaxDelay = 2 * time.Millisecond
	cfg.Pricing.Models = map[string]config.ModelPricingConfig{
		"a": {Input: 10, Output: 30},
		"b": {Input: 1, Output: 2},
	}
	return cfg
}

func testStack(t *testing.T, cfg *config.Config) *stack {
	t.Helper()
	s, err := newStack(cfg, discardLogger())
	if err != nil {
		t.Fatalf("Failed to build stack: %v", err)
	}
	t.Cleanup(s.close)
	return s
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "relay.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

// useConfigFile points --config at path for the duration of the test.
func useConfigFile(t *testing.T, path string) {
	t.Helper()
	orig := cfgFile
	cfgFile = path
	t.Cleanup(func() { cfgFile = orig })
}
