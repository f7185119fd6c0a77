package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/csvprep/internal/config"
	"github.com/salmonumbrella/csvprep/internal/output"
)

func TestConfigSetUnsetCommands(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	prevConfig := configFile
	configFile = cfgPath
	t.Cleanup(func() { configFile = prevConfig })

	out, _, cleanup := withTestContext(t, output.FormatText)
	defer cleanup()

	setCmd := &cobra.Command{}
	setCmd.SetContext(rootCmd.Context())
	if err := runConfigSet(setCmd, []string{"HTTP_TIMEOUT", "45s"}); err != nil {
		t.Fatalf("config set failed: %v", err)
	}

	if _, err := os.Stat(cfgPath); err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		t.Fatalf("load written config: %v", err)
	}
	if cfg.HTTPTimeout != "45s" {
		t.Fatalf("http_timeout = %q, want 45s", cfg.HTTPTimeout)
	}
	if out.String() != "Updated http_timeout\n" {
		t.Errorf("unexpected output %q", out.String())
	}

	unsetCmd := &cobra.Command{}
	unsetCmd.SetContext(rootCmd.Context())
	if err := runConfigUnset(unsetCmd, []string{"http_timeout"}); err != nil {
		t.Fatalf("config unset failed: %v", err)
	}
	cfg, err = config.Load(cfgPath)
	if err != nil {
		t.Fatalf("load written config: %v", err)
	}
	if cfg.HTTPTimeout != "" {
		t.Fatalf("http_timeout = %q, want empty", cfg.HTTPTimeout)
	}
}

func TestConfigSet_RejectsInvalidValue(t *testing.T) {
	prevConfig := configFile
	configFile = filepath.Join(t.TempDir(), "config.yaml")
	t.Cleanup(func() { configFile = prevConfig })

	_, _, cleanup := withTestContext(t, output.FormatText)
	defer cleanup()

	setCmd := &cobra.Command{}
	setCmd.SetContext(rootCmd.Context())
	if err := runConfigSet(setCmd, []string{"log_format", "xml"}); err == nil {
		t.Fatal("expected error for invalid log_format")
	}
	if _, err := os.Stat(configFile); !os.IsNotExist(err) {
		t.Errorf("config should not be written on invalid value, stat err = %v", err)
	}
}
