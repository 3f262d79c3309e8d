package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// isolate pins the working directory and the user config/home lookups to a
// fresh temp directory so a developer's real config cannot leak in.
func isolate(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	os.Chdir(tmpDir)
	t.Cleanup(func() { os.Chdir(oldWd) })

	t.Setenv("HOME", tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, ".config"))
	t.Setenv("GOBIS_SERVER_URL", "")

	return tmpDir
}

func TestLoad(t *testing.T) {
	// Test loading with no config file (should use defaults)
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error loading defaults, got %v", err)
	}

	if cfg == nil {
		t.Fatal("expected config to be non-nil")
	}

	// Check defaults
	if cfg.Server.URL != "" {
		t.Errorf("expected empty default server URL, got %s", cfg.Server.URL)
	}

	if cfg.Server.Timeout != 30*time.Second {
		t.Errorf("expected default timeout 30s, got %s", cfg.Server.Timeout)
	}

	if !cfg.Server.VerifyTLS {
		t.Error("expected TLS verification on by default")
	}

	if cfg.Cache.TTL != 15*time.Minute {
		t.Errorf("expected default cache TTL 15m, got %s", cfg.Cache.TTL)
	}

	if cfg.Match.MinTokenOverlap != 2 {
		t.Errorf("expected default min token overlap 2, got %d", cfg.Match.MinTokenOverlap)
	}

	if cfg.Match.RecencyWindow != 90*24*time.Hour {
		t.Errorf("expected default recency window of 90 days, got %s", cfg.Match.RecencyWindow)
	}

	if cfg.Match.MaxPerTier != 10 {
		t.Errorf("expected default max per tier 10, got %d", cfg.Match.MaxPerTier)
	}

	if cfg.Match.SearchLimit != 500 {
		t.Errorf("expected default search limit 500, got %d", cfg.Match.SearchLimit)
	}

	if got := cfg.Upload.CollectionFor("fasta"); got != "/DDB/CK/FASTA" {
		t.Errorf("expected default fasta collection, got %s", got)
	}

	if cfg.Output.NoColor {
		t.Error("expected color output on by default")
	}
}

func TestLoadWithConfigFile(t *testing.T) {
	isolate(t)

	// Write config file
	configContent := `
server:
  url: https://openbis.example.org
  timeout: 45s
  verify_tls: false
cache:
  ttl: 1m
match:
  min_token_overlap: 3
  recency_window: 720h
  max_per_tier: 5
  search_limit: 100
upload:
  collections:
    fasta: /LAB/PROT/FASTA
output:
  no_color: true
`
	os.WriteFile("gobis.yaml", []byte(configContent), 0644)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error loading config, got %v", err)
	}

	if cfg.Server.URL != "https://openbis.example.org" {
		t.Errorf("expected server URL from file, got %s", cfg.Server.URL)
	}

	if cfg.Server.Timeout != 45*time.Second {
		t.Errorf("expected timeout 45s, got %s", cfg.Server.Timeout)
	}

	if cfg.Server.VerifyTLS {
		t.Error("expected TLS verification off")
	}

	if cfg.Cache.TTL != time.Minute {
		t.Errorf("expected cache TTL 1m, got %s", cfg.Cache.TTL)
	}

	if cfg.Match.MinTokenOverlap != 3 {
		t.Errorf("expected min token overlap 3, got %d", cfg.Match.MinTokenOverlap)
	}

	if cfg.Match.RecencyWindow != 720*time.Hour {
		t.Errorf("expected recency window 720h, got %s", cfg.Match.RecencyWindow)
	}

	if cfg.Match.MaxPerTier != 5 {
		t.Errorf("expected max per tier 5, got %d", cfg.Match.MaxPerTier)
	}

	if cfg.Match.SearchLimit != 100 {
		t.Errorf("expected search limit 100, got %d", cfg.Match.SearchLimit)
	}

	// Overridden kind replaces the default, the rest keep theirs
	if got := cfg.Upload.CollectionFor("fasta"); got != "/LAB/PROT/FASTA" {
		t.Errorf("expected fasta collection from file, got %s", got)
	}

	if got := cfg.Upload.CollectionFor("spectral_library"); got != "/DDB/CK/PREDSPECLIB" {
		t.Errorf("expected default spectral library collection, got %s", got)
	}

	if !cfg.Output.NoColor {
		t.Error("expected color output off")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	isolate(t)
	t.Setenv("GOBIS_SERVER_URL", "https://env.example.org")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.Server.URL != "https://env.example.org" {
		t.Errorf("expected server URL from environment, got %s", cfg.Server.URL)
	}
}

func TestLoadInvalidURL(t *testing.T) {
	isolate(t)

	os.WriteFile("gobis.yaml", []byte("server:\n  url: ftp://openbis.example.org\n"), 0644)

	_, err := Load()
	if err == nil {
		t.Error("expected error for non-http server URL, got nil")
	}
}

func TestLoadInvalidTimeout(t *testing.T) {
	isolate(t)

	os.WriteFile("gobis.yaml", []byte("server:\n  timeout: -5s\n"), 0644)

	_, err := Load()
	if err == nil {
		t.Error("expected error for negative timeout, got nil")
	}
}

func TestLoadInvalidOverlap(t *testing.T) {
	isolate(t)

	os.WriteFile("gobis.yaml", []byte("match:\n  min_token_overlap: 0\n"), 0644)

	_, err := Load()
	if err == nil {
		t.Error("expected error for zero token overlap, got nil")
	}
}

func TestSetAndGet(t *testing.T) {
	tmpDir := isolate(t)

	if err := Set("server.url", "https://set.example.org"); err != nil {
		t.Fatalf("expected no error from Set, got %v", err)
	}

	// File lands in the user config directory
	path := filepath.Join(tmpDir, ".config", "gobis", "gobis.yaml")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected config file at %s, got %v", path, err)
	}

	got, err := Get("server.url")
	if err != nil {
		t.Fatalf("expected no error from Get, got %v", err)
	}

	if got != "https://set.example.org" {
		t.Errorf("expected stored value, got %v", got)
	}

	// A second Set must preserve the first key
	if err := Set("output.no_color", "true"); err != nil {
		t.Fatalf("expected no error from second Set, got %v", err)
	}

	got, err = Get("server.url")
	if err != nil {
		t.Fatalf("expected no error from Get, got %v", err)
	}
	if got != "https://set.example.org" {
		t.Errorf("expected first key to survive a second Set, got %v", got)
	}
}

func TestList(t *testing.T) {
	isolate(t)

	settings, err := List()
	if err != nil {
		t.Fatalf("expected no error from List, got %v", err)
	}

	if _, ok := settings["server"]; !ok {
		t.Error("expected server section in settings")
	}
	if _, ok := settings["match"]; !ok {
		t.Error("expected match section in settings")
	}
}
