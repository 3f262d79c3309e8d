package commands

import (
	"testing"
	"time"
)

func TestNewConfigCommand(t *testing.T) {
	cmd := NewConfigCommand()

	if cmd.Use != "config" {
		t.Errorf("expected Use to be 'config', got %s", cmd.Use)
	}

	// Check subcommands are registered
	expectedSubcommands := []string{
		"get",
		"set",
		"list",
	}

	for _, expected := range expectedSubcommands {
		found := false
		for _, sub := range cmd.Commands() {
			if sub.Name() == expected {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected subcommand %s to be registered", expected)
		}
	}
}

func TestNewConfigListCommand_ShowAlias(t *testing.T) {
	cmd := newConfigListCommand()

	found := false
	for _, alias := range cmd.Aliases {
		if alias == "show" {
			found = true
			break
		}
	}
	if !found {
		t.Error("expected 'show' alias to be registered")
	}
}

func TestFlattenSettings(t *testing.T) {
	in := map[string]any{
		"server": map[string]any{
			"url":     "https://openbis.example.org",
			"timeout": 30 * time.Second,
		},
		"upload": map[string]any{
			"collections": map[string]string{
				"fasta": "/DDB/CK/FASTA",
			},
		},
		"debug": true,
	}

	out := map[string]string{}
	flattenSettings("", in, out)

	expected := map[string]string{
		"server.url":               "https://openbis.example.org",
		"server.timeout":           "30s",
		"upload.collections.fasta": "/DDB/CK/FASTA",
		"debug":                    "true",
	}

	for k, v := range expected {
		if out[k] != v {
			t.Errorf("expected %s = %q, got %q", k, v, out[k])
		}
	}
	if len(out) != len(expected) {
		t.Errorf("expected %d flattened keys, got %d: %v", len(expected), len(out), out)
	}
}
