package config

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != "8000" || cfg.StateFile != "checkout.log" || cfg.UsageLog != "usage.log" {
		t.Errorf("Unexpected defaults %+v", cfg)
	}
	if cfg.WakeWord != "alphabot" || cfg.ResourceName != "FlatSat Workstation" {
		t.Errorf("Unexpected bot defaults %+v", cfg)
	}
	if cfg.SlackTimeout != 10*time.Second {
		t.Errorf("Expected 10s slack timeout, got %v", cfg.SlackTimeout)
	}
	// Replies are paced per channel; user lookups are not
	if cfg.SlackPostRatePerSec != 1 || cfg.SlackLookupRatePerSec != 0 {
		t.Errorf("Unexpected pacing defaults post=%v lookup=%v", cfg.SlackPostRatePerSec, cfg.SlackLookupRatePerSec)
	}
	if cfg.QueueSize != 100 || cfg.HandleTimeout != 30*time.Second {
		t.Errorf("Unexpected queue defaults %+v", cfg)
	}
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("SLACK_TOKEN", "xoxb-env")
	t.Setenv("SIGNING_SECRET", "secret-env")
	t.Setenv("ALPHABOT_PORT", "9000")
	t.Setenv("ALPHABOT_SLACK_TIMEOUT", "3s")
	t.Setenv("ALPHABOT_TLS", "true")
	t.Setenv("ALPHABOT_SLACK_LOOKUP_RATE_PER_SEC", "1.5")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.SlackToken != "xoxb-env" || cfg.SigningSecret != "secret-env" {
		t.Errorf("Slack credentials not read: %+v", cfg)
	}
	if cfg.Port != "9000" || cfg.SlackTimeout != 3*time.Second || !cfg.TLS {
		t.Errorf("Prefixed settings not read: %+v", cfg)
	}
	if cfg.SlackLookupRatePerSec != 1.5 {
		t.Errorf("Expected lookup rate 1.5, got %v", cfg.SlackLookupRatePerSec)
	}
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	os.WriteFile(path, []byte("SLACK_TOKEN=xoxb-file\nSTATE_FILE=/var/lib/alphabot/checkout.log\n"), 0644)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.SlackToken != "xoxb-file" {
		t.Errorf("Expected token from file, got %q", cfg.SlackToken)
	}
	if cfg.StateFile != "/var/lib/alphabot/checkout.log" {
		t.Errorf("Expected state file from file, got %q", cfg.StateFile)
	}

	// A missing file is not an error
	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("Expected missing .env to be skipped, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err == nil {
		t.Error("Expected missing token to fail validation")
	}
	cfg.SlackToken = "xoxb"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected valid config, got %v", err)
	}
	cfg.QueueSize = 0
	if err := cfg.Validate(); err == nil {
		t.Error("Expected zero queue size to fail validation")
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{LogLevel: "warn", LogFormat: "json"}, &buf)

	if logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("Info should be disabled at warn level")
	}
	logger.Warn("disk full", "path", "/tmp")
	if !strings.Contains(buf.String(), `"msg":"disk full"`) {
		t.Errorf("Expected JSON output, got %s", buf.String())
	}

	buf.Reset()
	NewLogger(&Config{LogLevel: "debug", LogFormat: "text"}, &buf).Debug("hello")
	if !strings.Contains(buf.String(), "msg=hello") {
		t.Errorf("Expected text output, got %s", buf.String())
	}
}
